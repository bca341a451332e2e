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

package lifecycle

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Spawner starts long-running processes detached from the caller so they
// outlive the CLI invocation that launched them.
type Spawner struct {
	// Env is the environment of the child process.
	Env []string
}

// NewSpawner creates a spawner that passes the current environment through.
func NewSpawner() *Spawner {
	return &Spawner{
		Env: os.Environ(),
	}
}

// WithEnv replaces the child environment.
func (s *Spawner) WithEnv(env []string) *Spawner {
	s.Env = env
	return s
}

// DetachedProcess is a child started by SpawnDetached.
type DetachedProcess struct {
	pid  int
	done chan struct{}
	err  error
}

// PID returns the child's process id.
func (p *DetachedProcess) PID() int {
	return p.pid
}

// Exited reports whether the child has already terminated. Only exits
// observed while the spawning process is still alive are visible here.
func (p *DetachedProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitErr returns the wait error of an exited child, or nil while it runs.
func (p *DetachedProcess) ExitErr() error {
	if !p.Exited() {
		return nil
	}
	return p.err
}

// SpawnDetached starts binary in a new session with stdin closed and both
// stdout and stderr appended to logPath.
func (s *Spawner) SpawnDetached(binary string, args []string, logPath string) (*DetachedProcess, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(binary, args...)
	cmd.Env = s.Env
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil

	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", filepath.Base(binary), err)
	}

	proc := &DetachedProcess{
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}

	// Reap the child so an early death is visible and leaves no zombie.
	go func() {
		proc.err = cmd.Wait()
		close(proc.done)
	}()

	return proc, nil
}
