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

// NewToolsCommand creates the sdk tools command.
func NewToolsCommand() *cobra.Command {
	var (
		force   bool
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Install the SDK command line tools if missing",
		Long: `Check ANDROID_SDK_ROOT/tools and, when it is missing or not revision
` + sdkpkg.ToolsRevision + `, download the pinned archive, verify its SHA-256 and
extract it.

Exit codes:
  6  the downloaded archive does not match the pinned checksum
  7  the archive could not be extracted`,
		Example: `  # Install once, no-op afterwards
  emuhelper sdk tools

  # Reinstall from an internal mirror
  emuhelper sdk tools --force --base-url https://mirror.example.com/android/repository`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTools(cmd, force, baseURL)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reinstall even when the tools look valid")
	cmd.Flags().StringVar(&baseURL, "base-url", sdkpkg.ToolsBaseURL, "Repository URL the archive is downloaded from")

	return cmd
}

type toolsResponse struct {
	shared.JSONResponse
	SDKRoot  string `json:"sdk_root"`
	Revision string `json:"revision"`
	URL      string `json:"url"`
}

func runTools(cmd *cobra.Command, force bool, baseURL string) error {
	const command = "sdk tools"
	out := cmd.OutOrStdout()

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}

	installer, err := sdkpkg.NewToolsInstaller(env.Config, env.Logger)
	if err != nil {
		return shared.Fail(out, command, err)
	}
	archive, err := sdkpkg.ArchiveFor(env.Config.Platform)
	if err != nil {
		return shared.Fail(out, command, err)
	}
	installer.WithSource(baseURL, archive)

	if force {
		err = installer.Install(cmd.Context())
		if err == nil {
			if invalid := installer.Installed(); invalid != nil {
				err = fmt.Errorf("%w: %v", sdkpkg.ErrToolsInvalid, invalid)
			}
		}
	} else {
		err = installer.EnsureInstalled(cmd.Context())
	}
	if err != nil {
		return shared.Fail(out, command, err)
	}

	if shared.GetJSON() {
		return shared.EmitJSON(out, toolsResponse{
			JSONResponse: shared.NewJSONResponse(command, true),
			SDKRoot:      env.Config.SDKRoot,
			Revision:     sdkpkg.ToolsRevision,
			URL:          installer.URL(),
		})
	}
	if !shared.GetQuiet() {
		fmt.Fprintln(out, shared.RenderOK("SDK tools "+sdkpkg.ToolsRevision+" ready in "+env.Config.SDKRoot))
	}
	return nil
}
