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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/emuhelper/internal/emulator"
	"github.com/tombee/emuhelper/internal/sdk"
	pkgerrors "github.com/tombee/emuhelper/pkg/errors"
)

// Exit codes of the emuhelper commands. They are part of the CI contract.
const (
	ExitSuccess         = 0
	ExitNotCreated      = emulator.ExitNotCreated
	ExitNotRunning      = emulator.ExitNotRunning
	ExitUnknownEndpoint = emulator.ExitUnknownEndpoint
	ExitBootTimeout     = emulator.ExitBootTimeout
	ExitLicenseDir      = 5
	ExitChecksum        = 6
	ExitExtract         = 7
	ExitFailure         = 70 // EX_SOFTWARE from sysexits.h
	ExitConfig          = 78 // EX_CONFIG from sysexits.h
	ExitToolMissing     = 100
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExitError creates an error exiting with code.
func NewExitError(code int, msg string, cause error) *ExitError {
	return &ExitError{
		Code:    code,
		Message: msg,
		Cause:   cause,
	}
}

// NewConfigError creates an error for configuration and precondition failures
func NewConfigError(msg string, cause error) *ExitError {
	return NewExitError(ExitConfig, msg, cause)
}

// SilentExit exits with code without printing anything, e.g. to forward
// the exit status of a child command.
func SilentExit(code int) *ExitError {
	return &ExitError{Code: code}
}

// ExitCodeFor classifies err into an exit code. An ExitError anywhere in
// the chain wins; otherwise known sentinels are mapped and everything else
// is a generic failure.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var configErr *pkgerrors.ConfigError
	switch {
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.Is(err, emulator.ErrToolMissing):
		return ExitToolMissing
	case errors.Is(err, emulator.ErrNotCreated):
		return ExitNotCreated
	case errors.Is(err, emulator.ErrNotRunning):
		return ExitNotRunning
	case errors.Is(err, emulator.ErrEndpointUnresolved):
		return ExitUnknownEndpoint
	case errors.Is(err, emulator.ErrBootTimeout):
		return ExitBootTimeout
	case errors.Is(err, emulator.ErrInvalidSpec):
		return ExitConfig
	case errors.Is(err, sdk.ErrLicenseDir):
		return ExitLicenseDir
	case errors.Is(err, sdk.ErrChecksumMismatch):
		return ExitChecksum
	case errors.Is(err, sdk.ErrExtract):
		return ExitExtract
	default:
		return ExitFailure
	}
}

// exit and stderr are swapped in tests.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// HandleExitError prints err and exits with its classified code.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	if msg := err.Error(); msg != "" {
		fmt.Fprintln(stderr, RenderError("Error: "+msg))
	}
	printUserVisibleSuggestion(err)

	exit(ExitCodeFor(err))
}

// printUserVisibleSuggestion prints the suggestion of the first
// UserVisibleError in the chain, if any.
func printUserVisibleSuggestion(err error) {
	if suggestion := suggestionFor(err); suggestion != "" {
		fmt.Fprintf(stderr, "\nSuggestion: %s\n", suggestion)
	}
}

func suggestionFor(err error) string {
	// Walk the error chain to find a UserVisibleError
	for err != nil {
		if userErr, ok := err.(pkgerrors.UserVisibleError); ok {
			if userErr.IsUserVisible() {
				return userErr.Suggestion()
			}
			return ""
		}
		err = errors.Unwrap(err)
	}
	return ""
}
