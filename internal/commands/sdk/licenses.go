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

package sdk

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
	sdkpkg "github.com/tombee/emuhelper/internal/sdk"
)

// NewLicensesCommand creates the sdk licenses command.
func NewLicensesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "licenses",
		Short: "Write the SDK licence acceptance files",
		Long: `Write ANDROID_SDK_ROOT/licenses/android-sdk-license and
android-sdk-preview-license so sdkmanager and Gradle accept the licences
without prompting.

Exits 5 when the licences directory cannot be created.`,
		Args: cobra.NoArgs,
		RunE: runLicenses,
	}
}

func runLicenses(cmd *cobra.Command, args []string) error {
	const command = "sdk licenses"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}

	if err := sdkpkg.WriteLicenses(env.Config.SDKRoot); err != nil {
		return shared.Fail(out, command, err)
	}

	if shared.GetJSON() {
		return shared.EmitJSON(out, shared.NewJSONResponse(command, true))
	}
	if !shared.GetQuiet() {
		fmt.Fprintln(out, shared.RenderOK("Licences written to "+env.Config.SDKRoot))
	}
	return nil
}
