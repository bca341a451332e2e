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
	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
)

// NewCommand creates the sdk command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "sdk",
		Annotations: map[string]string{
			"group": "setup",
		},
		Short: "Prepare the Android SDK in ANDROID_SDK_ROOT",
		Long: `Commands that bootstrap the Android SDK used by the emulator commands:
the command line tools, licence acceptance files and sdkmanager packages.`,
	}

	cmd.AddCommand(NewToolsCommand())
	cmd.AddCommand(NewLicensesCommand())
	cmd.AddCommand(NewInstallCommand())

	return cmd
}

// loadEnv is replaced in tests.
var loadEnv = shared.LoadEnv
