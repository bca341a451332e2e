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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
	"github.com/tombee/emuhelper/internal/config"
	"github.com/tombee/emuhelper/internal/lifecycle"
)

// ValidationResult represents the result of config validation.
type ValidationResult struct {
	shared.JSONResponse
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the 'config validate' subcommand.
func NewValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and SDK layout",
		Long: `Validate the effective configuration.

Checks performed:
  - Required locations are set
  - Port range and timing budgets are well formed
  - The AVD home directory exists
  - The SDK binaries emuhelper drives are installed
  - Poll intervals fit inside the budgets they poll within

Missing binaries and awkward budgets are warnings. With --strict,
warnings are treated as errors.`,
		Example: `  # Validate configuration
  emuhelper config validate

  # Fail the job on warnings too
  emuhelper config validate --strict --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

func runValidate(cmd *cobra.Command, strict bool) error {
	env, err := loadEnv()
	if err != nil {
		return outputValidationResult(cmd, ValidationResult{Errors: []string{errorText(err)}}, strict)
	}
	return outputValidationResult(cmd, validateConfig(env.Config), strict)
}

// validateConfig collects warnings for a configuration that already passed
// config.Validate.
func validateConfig(cfg *config.Config) ValidationResult {
	var warnings []string

	if info, err := os.Stat(cfg.AVDHome); err != nil || !info.IsDir() {
		warnings = append(warnings, fmt.Sprintf("AVD home %s is not a directory; avdmanager creates it on first use", cfg.AVDHome))
	}

	tools := toolMap(cfg.Tools)
	for _, name := range toolNames {
		if !lifecycle.IsExecutable(tools[name]) {
			warnings = append(warnings, fmt.Sprintf("%s not found at %s", name, tools[name]))
		}
	}

	if cfg.Boot.PollInterval > cfg.Boot.Timeout {
		warnings = append(warnings, fmt.Sprintf("boot.poll_interval (%v) exceeds boot.timeout (%v)", cfg.Boot.PollInterval, cfg.Boot.Timeout))
	}
	if cfg.Boot.ProcessPollInterval > cfg.Boot.ProcessWait {
		warnings = append(warnings, fmt.Sprintf("boot.process_poll_interval (%v) exceeds boot.process_wait (%v)", cfg.Boot.ProcessPollInterval, cfg.Boot.ProcessWait))
	}
	if cfg.Kill.PollInterval >= cfg.Kill.TermAfter {
		warnings = append(warnings, fmt.Sprintf("kill.poll_interval (%v) is not shorter than kill.term_after (%v)", cfg.Kill.PollInterval, cfg.Kill.TermAfter))
	}

	return ValidationResult{Valid: true, Warnings: warnings}
}

// outputValidationResult outputs the validation result and returns an
// exit error when it is not valid.
func outputValidationResult(cmd *cobra.Command, result ValidationResult, strict bool) error {
	const command = "config validate"
	out := cmd.OutOrStdout()

	result.Valid = len(result.Errors) == 0 && (!strict || len(result.Warnings) == 0)
	result.JSONResponse = shared.NewJSONResponse(command, result.Valid)

	if shared.GetJSON() {
		if err := shared.EmitJSON(out, result); err != nil {
			return err
		}
		if !result.Valid {
			return shared.SilentExit(shared.ExitConfig)
		}
		return nil
	}

	if result.Valid {
		fmt.Fprintln(out, shared.RenderOK("Configuration is valid"))
	} else {
		fmt.Fprintln(out, shared.RenderError("Configuration validation failed"))
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, shared.RenderStrong("Errors:"))
		for _, msg := range result.Errors {
			fmt.Fprintf(out, "  %s\n", shared.RenderError(msg))
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, shared.RenderStrong("Warnings:"))
		for _, msg := range result.Warnings {
			fmt.Fprintf(out, "  %s\n", shared.RenderWarn(msg))
		}
	}

	if !result.Valid {
		return shared.SilentExit(shared.ExitConfig)
	}
	return nil
}

// errorText unwraps the shared exit error so the message is not prefixed
// twice.
func errorText(err error) string {
	var exitErr *shared.ExitError
	if errors.As(err, &exitErr) && exitErr.Cause != nil {
		if exitErr.Message == "" {
			return exitErr.Cause.Error()
		}
		return exitErr.Message + ": " + exitErr.Cause.Error()
	}
	return err.Error()
}
