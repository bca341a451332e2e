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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/completion"
	"github.com/tombee/emuhelper/internal/commands/shared"
	emulatorpkg "github.com/tombee/emuhelper/internal/emulator"
)

// NewStartCommand creates the emulator start command.
func NewStartCommand() *cobra.Command {
	var opts emulatorpkg.StartOptions

	cmd := &cobra.Command{
		Use:   "start [-- emulator flags...]",
		Short: "Launch the created instance in the background",
		Long: `Launch the recorded instance detached from this process, with output
appended to $WORKSPACE/emulator.log.

The command returns once the emulator has survived the start grace period.
It does not wait for boot; use "emuhelper emulator wait" for that.`,
		Example: `  # Headless start
  emuhelper emulator start

  # German locale, fresh user data
  emuhelper emulator start --locale de_DE --wipe-data

  # Pass extra flags to the emulator binary
  emuhelper emulator start -- -gpu swiftshader_indirect -no-snapshot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Flags = append(opts.Flags, args...)
			return runStart(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Window, "window", false, "Show the emulator window")
	cmd.Flags().BoolVar(&opts.Audio, "audio", false, "Keep audio enabled")
	cmd.Flags().StringVar(&opts.Locale, "locale", "", "Guest locale such as en_US")
	cmd.Flags().BoolVar(&opts.WipeData, "wipe-data", false, "Reset user data before booting")
	_ = cmd.RegisterFlagCompletionFunc("locale", completion.CompleteLocales)

	return cmd
}

type startResponse struct {
	shared.JSONResponse
	AVD string `json:"avd"`
	PID int    `json:"pid"`
	Log string `json:"log"`
}

func runStart(cmd *cobra.Command, opts emulatorpkg.StartOptions) error {
	const command = "emulator start"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}
	ctrl := newController(env)

	pid, err := ctrl.Start(cmd.Context(), opts)
	if err != nil {
		return shared.Fail(out, command, err)
	}

	if shared.GetJSON() {
		name, _ := ctrl.Name()
		return shared.EmitJSON(out, startResponse{
			JSONResponse: shared.NewJSONResponse(command, true),
			AVD:          name,
			PID:          pid,
			Log:          env.Config.EmulatorLogPath(),
		})
	}
	if shared.GetQuiet() {
		fmt.Fprintln(out, pid)
		return nil
	}
	fmt.Fprintln(out, shared.RenderOK("Emulator started with pid "+strconv.Itoa(pid)))
	fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Log:"), env.Config.EmulatorLogPath())
	return nil
}
