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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for emuhelper
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emuhelper",
		Short: "emuhelper - Android emulator lifecycle for CI",
		Long: `emuhelper creates, starts, waits for and tears down a single Android
emulator instance per CI workspace.

It needs WORKSPACE, ANDROID_SDK_ROOT and ANDROID_AVD_HOME (or
ANDROID_EMULATOR_HOME) in the environment or in a config file.

Run 'emuhelper sdk tools' and 'emuhelper sdk licenses' to bootstrap an SDK.
Run 'emuhelper help --json' for the exit code table.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	verbose, quiet, json, config := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: $WORKSPACE/.emuhelper.yaml, then ~/.config/emuhelper/config.yaml)")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
