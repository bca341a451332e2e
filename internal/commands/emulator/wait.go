// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package emulator

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
	emulatorpkg "github.com/tombee/emuhelper/internal/emulator"
)

// NewWaitCommand creates the emulator wait command.
func NewWaitCommand() *cobra.Command {
	var (
		timeout     time.Duration
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until the instance has finished booting",
		Long: `Wait for the recorded instance to appear, resolve its serial and poll
"init.svc.bootanim" until it reports "stopped".

Exit codes:
  0  ready
  1  no instance was created in this workspace
  2  the instance process did not appear
  3  the instance runs but its console/adb ports could not be found
  4  boot did not complete before the timeout`,
		Example: `  # Wait with the configured timeout (300s by default)
  emuhelper emulator wait

  # Wait longer and export metrics for the node_exporter textfile collector
  emuhelper emulator wait --timeout 10m --metrics-file /var/lib/node_exporter/emuhelper.prom

  # Machine readable result
  emuhelper emulator wait --json | jq -r '.serial'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWait(cmd, timeout, metricsFile)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Boot timeout (default from config, 300s)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	return cmd
}

type stateResponse struct {
	shared.JSONResponse
	State          string  `json:"state"`
	AVD            string  `json:"avd,omitempty"`
	PID            int     `json:"pid,omitempty"`
	Serial         string  `json:"serial,omitempty"`
	Port           int     `json:"port,omitempty"`
	ADBPort        int     `json:"adb_port,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Polls          int     `json:"polls"`
	ExitCode       int     `json:"exit_code"`
}

func newStateResponse(command string, r emulatorpkg.Result) stateResponse {
	resp := stateResponse{
		JSONResponse:   shared.NewJSONResponse(command, r.State.ExitCode() == 0),
		State:          r.State.String(),
		AVD:            r.Name,
		PID:            r.PID,
		Serial:         r.Serial(),
		ElapsedSeconds: r.Elapsed.Seconds(),
		Polls:          r.Polls,
		ExitCode:       r.State.ExitCode(),
	}
	if r.Endpoint != nil {
		resp.Port = r.Endpoint.Port
		resp.ADBPort = r.Endpoint.ADBPort()
	}
	return resp
}

// reportState prints r and converts a failed state into its exit code.
func reportState(out io.Writer, command string, r emulatorpkg.Result) error {
	if shared.GetJSON() {
		if err := shared.EmitJSON(out, newStateResponse(command, r)); err != nil {
			return err
		}
		if code := r.State.ExitCode(); code != 0 {
			return shared.SilentExit(code)
		}
		return nil
	}

	if err := r.State.Err(); err != nil {
		return shared.NewExitError(r.State.ExitCode(), "", err)
	}
	if shared.GetQuiet() {
		fmt.Fprintln(out, r.Serial())
		return nil
	}

	fmt.Fprintf(out, "%s %s\n", shared.RenderState(r.State.String()), shared.RenderStrong(r.Serial()))
	fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("AVD:"), r.Name)
	fmt.Fprintf(out, "%s %d\n", shared.RenderLabel("PID:"), r.PID)
	if r.Polls > 1 {
		fmt.Fprintf(out, "%s %s (%d polls)\n", shared.RenderLabel("Boot:"), r.Elapsed.Round(time.Second), r.Polls)
	}
	return nil
}

func runWait(cmd *cobra.Command, timeout time.Duration, metricsFile string) error {
	const command = "emulator wait"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}
	if timeout > 0 {
		env.Config.Boot.Timeout = timeout
	}
	ctrl := newController(env)

	if !shared.GetJSON() && !shared.GetQuiet() {
		spinner := shared.NewSpinner(cmd.ErrOrStderr())
		ctrl.Waiter().OnProgress(func(r emulatorpkg.Result) {
			spinner.Update(fmt.Sprintf("Waiting for %s to boot (poll %d)", r.Serial(), r.Polls))
		})
		spinner.Start("Waiting for the emulator")
		defer spinner.Stop()
	}

	result, err := ctrl.WaitForReady(cmd.Context())
	if err != nil {
		return shared.Fail(out, command, err)
	}
	writeMetrics(env.Logger, metricsFile, func(m *emulatorpkg.Metrics) { m.ObserveWait(result) })

	return reportState(out, command, result)
}
