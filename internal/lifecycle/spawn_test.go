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

//go:build unix

package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// skipOnSpawnError skips when the sandbox forbids fork/exec.
func skipOnSpawnError(t *testing.T, err error) {
	t.Helper()
	if err != nil && strings.Contains(err.Error(), "operation not permitted") {
		t.Skipf("Skipping: spawn not permitted in this environment: %v", err)
	}
}

func waitExited(p *DetachedProcess, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if p.Exited() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return p.Exited()
}

func TestSpawner_SpawnDetached(t *testing.T) {
	if os.Getenv("SKIP_SPAWN_TESTS") != "" {
		t.Skip("Skipping spawn tests (SKIP_SPAWN_TESTS is set)")
	}

	tmpDir := t.TempDir()

	t.Run("captures output in the log file", func(t *testing.T) {
		logPath := filepath.Join(tmpDir, "emulator.log")

		proc, err := NewSpawner().SpawnDetached("sh", []string{"-c", "echo booting; echo oops >&2"}, logPath)
		skipOnSpawnError(t, err)
		require.NoError(t, err)
		require.True(t, waitExited(proc, 5*time.Second))
		assert.NoError(t, proc.ExitErr())

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "booting")
		assert.Contains(t, string(content), "oops")
	})

	t.Run("creates the log directory", func(t *testing.T) {
		logPath := filepath.Join(tmpDir, "nested", "dir", "emulator.log")

		proc, err := NewSpawner().SpawnDetached("true", nil, logPath)
		skipOnSpawnError(t, err)
		require.NoError(t, err)
		waitExited(proc, 5*time.Second)

		_, err = os.Stat(filepath.Dir(logPath))
		assert.NoError(t, err)
	})

	t.Run("early exit is observed", func(t *testing.T) {
		proc, err := NewSpawner().SpawnDetached("sh", []string{"-c", "exit 3"}, filepath.Join(tmpDir, "exit.log"))
		skipOnSpawnError(t, err)
		require.NoError(t, err)

		require.True(t, waitExited(proc, 5*time.Second))
		assert.Error(t, proc.ExitErr())
		assert.False(t, IsProcessRunning(context.Background(), proc.PID()))
	})

	t.Run("runs in its own session", func(t *testing.T) {
		proc, err := NewSpawner().SpawnDetached("sleep", []string{"5"}, filepath.Join(tmpDir, "sleep.log"))
		skipOnSpawnError(t, err)
		require.NoError(t, err)
		defer unix.Kill(proc.PID(), unix.SIGKILL)

		assert.False(t, proc.Exited())
		assert.True(t, IsProcessRunning(context.Background(), proc.PID()))

		sid, err := unix.Getsid(proc.PID())
		require.NoError(t, err)
		assert.Equal(t, proc.PID(), sid)
	})

	t.Run("environment is passed through", func(t *testing.T) {
		logPath := filepath.Join(tmpDir, "env.log")
		spawner := NewSpawner().WithEnv([]string{"AVD_MARKER=present"})

		proc, err := spawner.SpawnDetached("sh", []string{"-c", "echo $AVD_MARKER"}, logPath)
		skipOnSpawnError(t, err)
		require.NoError(t, err)
		require.True(t, waitExited(proc, 5*time.Second))

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "present")
	})

	t.Run("missing binary fails", func(t *testing.T) {
		_, err := NewSpawner().SpawnDetached(filepath.Join(tmpDir, "no-such-emulator"), nil, filepath.Join(tmpDir, "x.log"))
		assert.Error(t, err)
	})
}
