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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emuerrors "github.com/tombee/emuhelper/pkg/errors"
)

// fakeADB writes a shell script standing in for adb that records its
// arguments next to itself.
func fakeADB(t *testing.T, body string) (path, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "adb")
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path, argsFile
}

func readArgs(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

func TestADB_GetProp(t *testing.T) {
	path, argsFile := fakeADB(t, `printf 'stopped\r\n'`)
	adb := NewADB(path, time.Minute)

	value, err := adb.GetProp(context.Background(), "emulator-5554", BootProperty)
	require.NoError(t, err)
	assert.Equal(t, "stopped", value)
	assert.Equal(t, "-s emulator-5554 shell getprop init.svc.bootanim", readArgs(t, argsFile))
}

func TestADB_EmuKill(t *testing.T) {
	path, argsFile := fakeADB(t, "exit 0")

	err := NewADB(path, time.Minute).EmuKill(context.Background(), "emulator-5556")
	require.NoError(t, err)
	assert.Equal(t, "-s emulator-5556 emu kill", readArgs(t, argsFile))
}

func TestADB_Failure(t *testing.T) {
	path, _ := fakeADB(t, "echo 'error: device offline' >&2\nexit 1")

	_, err := NewADB(path, time.Minute).GetProp(context.Background(), "emulator-5554", BootProperty)
	require.Error(t, err)

	var toolErr *emuerrors.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "adb", toolErr.Tool)
	assert.Equal(t, 1, toolErr.ExitCode)
	assert.Equal(t, "error: device offline", toolErr.Output)
}

func TestADB_MissingBinary(t *testing.T) {
	_, err := NewADB(filepath.Join(t.TempDir(), "adb"), time.Minute).GetProp(context.Background(), "emulator-5554", BootProperty)

	var toolErr *emuerrors.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, -1, toolErr.ExitCode)
}

func TestADB_Timeout(t *testing.T) {
	path, _ := fakeADB(t, "exec sleep 30")

	start := time.Now()
	err := NewADB(path, 200*time.Millisecond).EmuKill(context.Background(), "emulator-5554")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "a hung adb must not outlive its deadline")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var toolErr *emuerrors.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "adb", toolErr.Tool)
	assert.Contains(t, err.Error(), "no answer within 200ms")
}
