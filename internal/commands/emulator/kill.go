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
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
	emulatorpkg "github.com/tombee/emuhelper/internal/emulator"
)

// NewKillCommand creates the emulator kill command.
func NewKillCommand() *cobra.Command {
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "kill",
		Short: "Stop the instance, escalating to signals",
		Long: `Ask the instance to shut down through "adb emu kill" when its serial is
known, then send SIGTERM at the term threshold (5s) and SIGKILL at the
force threshold (15s) if it is still running.

Killing an instance that was never created or is not running succeeds
without doing anything. The recorded name is kept; see
"emuhelper emulator forget".`,
		Example: `  # Stop the emulator at the end of a CI job
  emuhelper emulator kill

  # Record how the shutdown went
  emuhelper emulator kill --metrics-file /var/lib/node_exporter/emuhelper_kill.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKill(cmd, metricsFile)
		},
	}

	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	return cmd
}

type killResponse struct {
	shared.JSONResponse
	Outcome        string  `json:"outcome"`
	AVD            string  `json:"avd,omitempty"`
	PID            int     `json:"pid,omitempty"`
	EmuKill        bool    `json:"emu_kill"`
	TermSent       bool    `json:"term_sent"`
	KillSent       bool    `json:"kill_sent"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func runKill(cmd *cobra.Command, metricsFile string) error {
	const command = "emulator kill"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}

	result, err := newController(env).Kill(cmd.Context())
	if err != nil {
		return shared.Fail(out, command, err)
	}
	writeMetrics(env.Logger, metricsFile, func(m *emulatorpkg.Metrics) { m.ObserveKill(result) })

	if shared.GetJSON() {
		return shared.EmitJSON(out, killResponse{
			JSONResponse:   shared.NewJSONResponse(command, true),
			Outcome:        result.Outcome.String(),
			AVD:            result.Name,
			PID:            result.PID,
			EmuKill:        result.Shutdown.Attempted,
			TermSent:       result.TermSent,
			KillSent:       result.KillSent,
			ElapsedSeconds: result.Elapsed.Seconds(),
		})
	}
	if shared.GetQuiet() {
		return nil
	}

	switch result.Outcome {
	case emulatorpkg.KillNothingToDo:
		fmt.Fprintln(out, shared.RenderOK("Nothing to kill"))
	case emulatorpkg.KillForced:
		fmt.Fprintln(out, shared.RenderWarn(fmt.Sprintf("Emulator %d killed with SIGKILL after %s", result.PID, result.Elapsed.Round(time.Second))))
	default:
		fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("Emulator %d stopped after %s", result.PID, result.Elapsed.Round(time.Second))))
	}
	return nil
}
