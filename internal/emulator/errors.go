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
	"errors"
	"fmt"

	emuerrors "github.com/tombee/emuhelper/pkg/errors"
)

var (
	// ErrInvalidSpec is returned for unusable create or start input.
	ErrInvalidSpec = errors.New("invalid instance specification")

	// ErrNotCreated is returned when no instance identity exists.
	ErrNotCreated = errors.New("no instance has been created in this workspace")

	// ErrNotRunning is returned when the instance process cannot be found.
	ErrNotRunning = errors.New("instance is not running")

	// ErrEndpointUnresolved is returned when the instance runs but none of
	// its ports form a console/adb pair.
	ErrEndpointUnresolved = errors.New("instance endpoint could not be resolved")

	// ErrBootTimeout is returned when the boot property never reported
	// completion within the boot timeout.
	ErrBootTimeout = errors.New("boot did not complete before the timeout")

	// ErrLaunchFailed is returned when the emulator died during the start
	// grace period or could not be spawned.
	ErrLaunchFailed = errors.New("emulator failed to launch")

	// ErrToolMissing is returned when a required SDK binary is absent or
	// not executable.
	ErrToolMissing = errors.New("required binary not found or not executable")
)

// invalidSpec reports unusable input on field, classified as ErrInvalidSpec.
func invalidSpec(field, message, hint string) error {
	return &emuerrors.ValidationError{Field: field, Message: message, Hint: hint, Cause: ErrInvalidSpec}
}

// ToolMissingError names the binary behind ErrToolMissing.
type ToolMissingError struct {
	Tool string
	Path string
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("%s binary [%s] not found or not an executable", e.Tool, e.Path)
}

// Unwrap lets errors.Is match ErrToolMissing.
func (e *ToolMissingError) Unwrap() error {
	return ErrToolMissing
}

// Exit codes of the wait flow, stable for CI scripts.
const (
	ExitNotCreated      = 1
	ExitNotRunning      = 2
	ExitUnknownEndpoint = 3
	ExitBootTimeout     = 4
)

// ExitCode maps a state to the process exit code of the wait command.
// Ready and Booting map to zero.
func (s State) ExitCode() int {
	switch s {
	case StateNotCreated:
		return ExitNotCreated
	case StateNotRunning:
		return ExitNotRunning
	case StateRunningUnknownEndpoint:
		return ExitUnknownEndpoint
	case StateTimedOut:
		return ExitBootTimeout
	default:
		return 0
	}
}

// Err returns the sentinel error matching a failed state, or nil.
func (s State) Err() error {
	switch s {
	case StateNotCreated:
		return ErrNotCreated
	case StateNotRunning:
		return ErrNotRunning
	case StateRunningUnknownEndpoint:
		return ErrEndpointUnresolved
	case StateTimedOut:
		return ErrBootTimeout
	default:
		return nil
	}
}
