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

	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
)

// NewForgetCommand creates the emulator forget command.
func NewForgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Remove the recorded instance name",
		Long: `Delete $WORKSPACE/last_unique_avd_name.tmp so later commands behave as if
no instance was ever created. The AVD itself is left on disk.`,
		Args: cobra.NoArgs,
		RunE: runForget,
	}
}

type forgetResponse struct {
	shared.JSONResponse
	AVD string `json:"avd,omitempty"`
}

func runForget(cmd *cobra.Command, args []string) error {
	const command = "emulator forget"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}

	name, err := newController(env).Forget(cmd.Context())
	if err != nil {
		return shared.Fail(out, command, err)
	}

	if shared.GetJSON() {
		return shared.EmitJSON(out, forgetResponse{
			JSONResponse: shared.NewJSONResponse(command, true),
			AVD:          name,
		})
	}
	if shared.GetQuiet() {
		return nil
	}
	if name == "" {
		fmt.Fprintln(out, shared.RenderOK("No instance recorded"))
		return nil
	}
	fmt.Fprintln(out, shared.RenderOK("Forgot "+name))
	return nil
}
