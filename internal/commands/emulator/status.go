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

// NewStatusCommand creates the emulator status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the readiness state without waiting",
		Long: `Observe the recorded instance once: its process, serial and boot state.

The exit code follows "emuhelper emulator wait", except that a booting
instance exits 0.`,
		Example: `  # Human readable
  emuhelper emulator status

  # Script friendly
  emuhelper emulator status --json | jq -r '.state'`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	const command = "emulator status"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}

	result, err := newController(env).Status(cmd.Context())
	if err != nil {
		return shared.Fail(out, command, err)
	}
	return reportState(out, command, result)
}
