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
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrProcessNotRunning is returned when a signal target does not exist.
var ErrProcessNotRunning = errors.New("process not running")

// IsProcessRunning reports whether pid exists and has not exited. Zombies
// count as exited.
func IsProcessRunning(ctx context.Context, pid int) bool {
	if pid <= 0 {
		return false
	}

	exists, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil || !exists {
		return false
	}

	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return false
	}
	status, err := p.StatusWithContext(ctx)
	if err != nil {
		// Status is unavailable for some processes on darwin; existence is
		// the best answer we have.
		return true
	}
	for _, s := range status {
		if s == process.Zombie {
			return false
		}
	}
	return true
}

// Signal is a termination request understood on every host. The per-OS
// signaler maps it to the native mechanism.
type Signal int

const (
	// SignalTerm asks the process to exit (SIGTERM).
	SignalTerm Signal = iota + 1
	// SignalKill ends the process unconditionally (SIGKILL).
	SignalKill
)

func (s Signal) String() string {
	switch s {
	case SignalTerm:
		return "SIGTERM"
	case SignalKill:
		return "SIGKILL"
	}
	return fmt.Sprintf("signal(%d)", int(s))
}

// Signaler delivers OS signals.
type Signaler interface {
	Signal(pid int, sig Signal) error
}

// HostSignaler sends real signals to host processes.
type HostSignaler struct{}

// Signal implements Signaler.
func (HostSignaler) Signal(pid int, sig Signal) error {
	return SendSignal(pid, sig)
}

// ProcessTable answers liveness questions about pids.
type ProcessTable struct{}

// IsRunning implements liveness checks on the host process table.
func (ProcessTable) IsRunning(ctx context.Context, pid int) bool {
	return IsProcessRunning(ctx, pid)
}

// IsExecutable reports whether path is a regular file the host would run.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return hasExecutableMode(info)
}
