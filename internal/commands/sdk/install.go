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

	"github.com/tombee/emuhelper/internal/commands/completion"
	"github.com/tombee/emuhelper/internal/commands/shared"
	emulatorpkg "github.com/tombee/emuhelper/internal/emulator"
	"github.com/tombee/emuhelper/internal/lifecycle"
	sdkpkg "github.com/tombee/emuhelper/internal/sdk"
)

// NewInstallCommand creates the sdk install command.
func NewInstallCommand() *cobra.Command {
	var req sdkpkg.InstallRequest

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install SDK packages with sdkmanager",
		Long: `Install platform-tools, build tools, a platform and optionally a system
image with its emulator and add-ons, accepting licence prompts.

Malformed build tools or platform versions fall back to the defaults
(` + sdkpkg.DefaultBuildTools + ` and ` + sdkpkg.DefaultPlatform + `) with a warning.`,
		Example: `  # Defaults plus an image
  emuhelper sdk install --image "system-images;android-27;google_apis;x86"

  # Specific versions, NDK and an extra package
  emuhelper sdk install --build-tools 28.0.3 --platform 28 --ndk --module "cmake;3.10.2.4988404"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, req)
		},
	}

	cmd.Flags().StringVar(&req.BuildTools, "build-tools", sdkpkg.DefaultBuildTools, "Build tools version")
	cmd.Flags().StringVar(&req.Platform, "platform", sdkpkg.DefaultPlatform, "Platform API level")
	cmd.Flags().StringVar(&req.SystemImage, "image", "", "System image package")
	cmd.Flags().BoolVar(&req.NDK, "ndk", false, "Install the NDK bundle")
	cmd.Flags().StringArrayVar(&req.ExtraModules, "module", nil, "Extra sdkmanager package (repeatable)")
	_ = cmd.RegisterFlagCompletionFunc("image", completion.CompleteSystemImages)

	return cmd
}

type installResponse struct {
	shared.JSONResponse
	Packages []string `json:"packages"`
}

// isExecutable is replaced in tests.
var isExecutable = lifecycle.IsExecutable

func runInstall(cmd *cobra.Command, req sdkpkg.InstallRequest) error {
	const command = "sdk install"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}

	path := env.Config.Tools.SDKManager
	if !isExecutable(path) {
		return shared.Fail(out, command, &emulatorpkg.ToolMissingError{Tool: "sdkmanager", Path: path})
	}

	installer := sdkpkg.NewInstaller(path, env.Logger).WithOutput(cmd.ErrOrStderr())
	if err := installer.Install(cmd.Context(), req); err != nil {
		return shared.Fail(out, command, err)
	}

	if shared.GetJSON() {
		return shared.EmitJSON(out, installResponse{
			JSONResponse: shared.NewJSONResponse(command, true),
			Packages:     sdkpkg.Modules(req, nil),
		})
	}
	if !shared.GetQuiet() {
		fmt.Fprintln(out, shared.RenderOK("SDK packages installed"))
	}
	return nil
}
