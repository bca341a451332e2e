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

	"github.com/tombee/emuhelper/internal/commands/completion"
	"github.com/tombee/emuhelper/internal/commands/shared"
	emulatorpkg "github.com/tombee/emuhelper/internal/emulator"
)

// NewCreateCommand creates the emulator create command.
func NewCreateCommand() *cobra.Command {
	var opts emulatorpkg.CreateOptions

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new uniquely named AVD",
		Long: `Install the SDK packages for a system image, create a new AVD with a
unique name and apply config.ini properties to it.

The new name replaces any previously recorded instance of the workspace.
The previous AVD is not deleted.`,
		Example: `  # Create a Google APIs x86 instance
  emuhelper emulator create --image "system-images;android-27;google_apis;x86"

  # Create with a hardware profile and config overrides
  emuhelper emulator create --image "system-images;android-29;default;x86_64" \
    --device pixel --property hw.keyboard=yes --property hw.ramSize=2048

  # Only create the AVD, packages are already installed
  emuhelper emulator create --image "system-images;android-27;default;x86" --skip-install`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.SystemImage, "image", "", "System image package, e.g. system-images;android-27;google_apis;x86")
	cmd.Flags().StringVar(&opts.Device, "device", "", "avdmanager hardware profile")
	cmd.Flags().StringArrayVar(&opts.Properties, "property", nil, "config.ini override as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.SkipInstall, "skip-install", false, "Do not run sdkmanager")
	cmd.Flags().StringVar(&opts.BuildTools, "build-tools", "", "Build tools version (default 27.0.1)")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "Platform API level (default 27)")
	cmd.Flags().BoolVar(&opts.NDK, "ndk", false, "Also install the NDK bundle")
	cmd.Flags().StringArrayVar(&opts.ExtraModules, "module", nil, "Extra sdkmanager package (repeatable)")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.RegisterFlagCompletionFunc("image", completion.CompleteSystemImages)
	_ = cmd.RegisterFlagCompletionFunc("property", completion.CompleteConfigProperties)

	return cmd
}

type createResponse struct {
	shared.JSONResponse
	AVD         string `json:"avd"`
	SystemImage string `json:"system_image"`
}

func runCreate(cmd *cobra.Command, opts emulatorpkg.CreateOptions) error {
	const command = "emulator create"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}

	name, err := newController(env).Create(cmd.Context(), opts)
	if err != nil {
		return shared.Fail(out, command, err)
	}

	if shared.GetJSON() {
		return shared.EmitJSON(out, createResponse{
			JSONResponse: shared.NewJSONResponse(command, true),
			AVD:          name,
			SystemImage:  opts.SystemImage,
		})
	}
	if shared.GetQuiet() {
		fmt.Fprintln(out, name)
		return nil
	}
	fmt.Fprintln(out, shared.RenderOK("Created "+shared.RenderStrong(name)))
	return nil
}
