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

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/emuhelper/internal/commands/shared"
	"github.com/tombee/emuhelper/internal/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "config",
		Annotations: map[string]string{
			"group": "diagnostics",
		},
		Short: "Inspect the effective configuration",
		Long: `Inspect the configuration emuhelper runs with.

Values come from the built-in defaults, then the config file, then the
environment (WORKSPACE, ANDROID_SDK_ROOT, ANDROID_AVD_HOME, EMUHELPER_*).

Subcommands:
  show     - Display the effective configuration
  path     - Show which config file is read
  validate - Check the configuration and the SDK layout`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(NewValidateCommand())

	// If no subcommand provided, default to 'show'
	cmd.RunE = runConfigShow

	return cmd
}

// showResponse is the JSON form of 'config show'.
type showResponse struct {
	shared.JSONResponse
	Path     string            `json:"path,omitempty"`
	Platform string            `json:"platform"`
	Config   map[string]any    `json:"config"`
	Tools    map[string]string `json:"tools"`
}

// pathResponse is the JSON form of 'config path'.
type pathResponse struct {
	shared.JSONResponse
	Path   string `json:"path,omitempty"`
	Exists bool   `json:"exists"`
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the effective configuration after defaults, the config file and
the environment have been applied, together with the derived SDK tool paths.

Use --json for machine-readable output.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file location",
		Long: `Display the config file emuhelper reads: --config when given, otherwise
$WORKSPACE/.emuhelper.yaml or the user config file, whichever exists first.`,
		Args: cobra.NoArgs,
		RunE: runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	const command = "config show"
	out := cmd.OutOrStdout()

	path, err := config.ResolvePath(shared.GetConfigPath())
	if err != nil {
		return shared.Fail(out, command, shared.NewConfigError("failed to locate config file", err))
	}

	env, err := loadEnv()
	if err != nil {
		return shared.Fail(out, command, err)
	}
	cfg := env.Config

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if shared.GetJSON() {
		values := map[string]any{}
		if err := yaml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return shared.EmitJSON(out, showResponse{
			JSONResponse: shared.NewJSONResponse(command, true),
			Path:         path,
			Platform:     cfg.Platform.String(),
			Config:       values,
			Tools:        toolMap(cfg.Tools),
		})
	}

	source := path
	if source == "" {
		source = "(defaults and environment only)"
	}
	fmt.Fprintf(out, "Configuration: %s\n", source)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("platform:"), cfg.Platform)
	fmt.Fprintln(out, shared.RenderLabel("tools:"))
	for _, name := range toolNames {
		fmt.Fprintf(out, "  %-10s %s\n", name, toolMap(cfg.Tools)[name])
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	const command = "config path"
	out := cmd.OutOrStdout()

	path, err := config.ResolvePath(shared.GetConfigPath())
	if err != nil {
		return shared.Fail(out, command, shared.NewConfigError("failed to locate config file", err))
	}

	if shared.GetJSON() {
		return shared.EmitJSON(out, pathResponse{
			JSONResponse: shared.NewJSONResponse(command, true),
			Path:         path,
			Exists:       path != "",
		})
	}

	if path == "" {
		userPath, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
		fmt.Fprintf(out, "No config file found. Create %s or $WORKSPACE/%s.\n", userPath, config.WorkspaceConfigName)
		return nil
	}
	fmt.Fprintln(out, path)
	return nil
}

var toolNames = []string{"sdkmanager", "avdmanager", "emulator", "adb"}

func toolMap(t config.ToolPaths) map[string]string {
	return map[string]string{
		"sdkmanager": t.SDKManager,
		"avdmanager": t.AVDManager,
		"emulator":   t.Emulator,
		"adb":        t.ADB,
	}
}

// loadEnv is replaced in tests.
var loadEnv = shared.LoadEnv
