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

// Package sdk drives the Android SDK command line tools that provision an
// emulator: the SDK tools archive, licence files, sdkmanager, avdmanager and
// the AVD config.ini.
package sdk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	emuerrors "github.com/tombee/emuhelper/pkg/errors"
)

// maxCapturedOutput bounds the tool output kept for error messages.
const maxCapturedOutput = 4096

// toolRunner executes SDK binaries, streaming their output to out and
// keeping the tail for error reports.
type toolRunner struct {
	out io.Writer
	// env replaces the inherited environment when non-nil.
	env []string
}

func (r toolRunner) run(ctx context.Context, tool, path string, args []string, stdin string) error {
	var captured tailBuffer
	out := r.out
	if out == nil {
		out = os.Stderr
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = io.MultiWriter(out, &captured)
	cmd.Stderr = io.MultiWriter(out, &captured)
	cmd.Env = r.env
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	if err := cmd.Run(); err != nil {
		toolErr := &emuerrors.ToolError{
			Tool:     tool,
			Args:     args,
			ExitCode: -1,
			Output:   strings.TrimSpace(captured.String()),
			Cause:    err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return toolErr
	}
	return nil
}

// tailBuffer keeps the last maxCapturedOutput bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - maxCapturedOutput; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
