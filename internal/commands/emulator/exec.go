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
	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
)

// NewExecCommand creates the emulator exec command.
func NewExecCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec -- command [args...]",
		Short: "Run a command against the running instance",
		Long: `Run a command with ANDROID_SERIAL and ANDROID_EMULATOR_PORT set to the
running instance, inheriting stdin, stdout and stderr.

The exit code of the command is returned unchanged.`,
		Example: `  # Run instrumentation tests on the workspace emulator
  emuhelper emulator exec -- ./gradlew connectedCheck

  # Any adb invocation picks up ANDROID_SERIAL
  emuhelper emulator exec -- adb shell pm list packages`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExec,
	}
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runExec(cmd *cobra.Command, args []string) error {
	const command = "emulator exec"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}

	code, err := newController(env).Exec(cmd.Context(), args)
	if err != nil {
		return shared.Fail(out, command, err)
	}
	if code != 0 {
		return shared.SilentExit(code)
	}
	return nil
}
