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
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var nativeSignals = map[Signal]unix.Signal{
	SignalTerm: unix.SIGTERM,
	SignalKill: unix.SIGKILL,
}

// SendSignal sends sig to pid with kill(2). A missing process maps to
// ErrProcessNotRunning.
func SendSignal(pid int, sig Signal) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	native, ok := nativeSignals[sig]
	if !ok {
		return fmt.Errorf("unknown signal %v", sig)
	}
	if err := unix.Kill(pid, native); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return ErrProcessNotRunning
		}
		return fmt.Errorf("failed to send signal %v to process %d: %w", sig, pid, err)
	}
	return nil
}

func hasExecutableMode(info os.FileInfo) bool {
	return info.Mode().Perm()&0o111 != 0
}
