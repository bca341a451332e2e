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

	"github.com/tombee/emuhelper/internal/emulator"
	"github.com/tombee/emuhelper/internal/sdk"
	pkgerrors "github.com/tombee/emuhelper/pkg/errors"
)

// Error codes for structured JSON output
const (
	ErrorCodeConfig           = "config"
	ErrorCodeInvalidSpec      = "invalid_spec"
	ErrorCodeToolMissing      = "tool_missing"
	ErrorCodeNotCreated       = "not_created"
	ErrorCodeNotRunning       = "not_running"
	ErrorCodeUnknownEndpoint  = "running_unknown_endpoint"
	ErrorCodeBootTimeout      = "timed_out"
	ErrorCodeLaunchFailed     = "launch_failed"
	ErrorCodeLicenseDir       = "license_dir"
	ErrorCodeChecksumMismatch = "checksum_mismatch"
	ErrorCodeExtract          = "extract_failed"
	ErrorCodeToolFailed       = "tool_failed"
	ErrorCodeInternal         = "internal"
)

// ErrorCodeFor returns the JSON error code for err.
func ErrorCodeFor(err error) string {
	var (
		configErr *pkgerrors.ConfigError
		toolErr   *pkgerrors.ToolError
	)
	switch {
	case errors.As(err, &configErr):
		return ErrorCodeConfig
	case errors.Is(err, emulator.ErrInvalidSpec):
		return ErrorCodeInvalidSpec
	case errors.Is(err, emulator.ErrToolMissing):
		return ErrorCodeToolMissing
	case errors.Is(err, emulator.ErrNotCreated):
		return ErrorCodeNotCreated
	case errors.Is(err, emulator.ErrNotRunning):
		return ErrorCodeNotRunning
	case errors.Is(err, emulator.ErrEndpointUnresolved):
		return ErrorCodeUnknownEndpoint
	case errors.Is(err, emulator.ErrBootTimeout):
		return ErrorCodeBootTimeout
	case errors.Is(err, emulator.ErrLaunchFailed):
		return ErrorCodeLaunchFailed
	case errors.Is(err, sdk.ErrLicenseDir):
		return ErrorCodeLicenseDir
	case errors.Is(err, sdk.ErrChecksumMismatch):
		return ErrorCodeChecksumMismatch
	case errors.Is(err, sdk.ErrExtract):
		return ErrorCodeExtract
	case errors.As(err, &toolErr):
		return ErrorCodeToolFailed
	default:
		return ErrorCodeInternal
	}
}
