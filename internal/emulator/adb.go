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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	emuerrors "github.com/tombee/emuhelper/pkg/errors"
)

// BootProperty is the system property that reads "stopped" once the boot
// animation has finished.
const BootProperty = "init.svc.bootanim"

// BootCompleteValue is the value of BootProperty on a booted device.
const BootCompleteValue = "stopped"

// ControlChannel talks to a running emulator through its serial.
type ControlChannel interface {
	// GetProp returns the trimmed value of a system property.
	GetProp(ctx context.Context, serial, name string) (string, error)

	// EmuKill asks the emulator to shut itself down.
	EmuKill(ctx context.Context, serial string) error
}

// waitDelay bounds how long a killed adb may hold its output pipes open.
const waitDelay = time.Second

// ADB implements ControlChannel with the adb binary.
type ADB struct {
	path    string
	timeout time.Duration
}

// NewADB creates a control channel using the adb binary at path. Every
// call is killed once timeout elapses; zero disables the deadline.
func NewADB(path string, timeout time.Duration) *ADB {
	return &ADB{path: path, timeout: timeout}
}

// GetProp runs "adb -s <serial> shell getprop <name>".
func (a *ADB) GetProp(ctx context.Context, serial, name string) (string, error) {
	out, err := a.run(ctx, "-s", serial, "shell", "getprop", name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// EmuKill runs "adb -s <serial> emu kill".
func (a *ADB) EmuKill(ctx context.Context, serial string) error {
	_, err := a.run(ctx, "-s", serial, "emu", "kill")
	return err
}

func (a *ADB) run(ctx context.Context, args ...string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("no answer within %v: %w", a.timeout, ctx.Err())
		}
		toolErr := &emuerrors.ToolError{
			Tool:     "adb",
			Args:     args,
			ExitCode: -1,
			Output:   strings.TrimSpace(stderr.String()),
			Cause:    err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return "", toolErr
	}
	return stdout.String(), nil
}
