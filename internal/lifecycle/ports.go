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
	"runtime"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// ErrUnsupportedPlatform is returned by host operations that have no
// implementation on the running OS, such as attributing sockets to
// processes or delivering POSIX signals.
var ErrUnsupportedPlatform = errors.New("not supported on this platform")

// PortScanner lists the TCP ports a process is listening on.
type PortScanner interface {
	// ListeningPorts returns the set of listening TCP ports owned by pid.
	// A pid with no listening sockets, or one that no longer exists,
	// yields an empty set and a nil error.
	ListeningPorts(ctx context.Context, pid int) (map[int]struct{}, error)
}

// connectionsFunc matches psnet.ConnectionsPidWithContext.
type connectionsFunc func(ctx context.Context, kind string, pid int32) ([]psnet.ConnectionStat, error)

// SystemPortScanner reads the host socket table through gopsutil.
type SystemPortScanner struct {
	goos        string
	connections connectionsFunc
	pidExists   func(ctx context.Context, pid int32) (bool, error)
}

// NewSystemPortScanner creates a scanner for the running host.
func NewSystemPortScanner() *SystemPortScanner {
	return &SystemPortScanner{
		goos:        runtime.GOOS,
		connections: psnet.ConnectionsPidWithContext,
		pidExists:   process.PidExistsWithContext,
	}
}

func supportsPortScan(goos string) bool {
	switch goos {
	case "linux", "darwin", "freebsd":
		return true
	}
	return false
}

// ListeningPorts implements PortScanner.
func (s *SystemPortScanner) ListeningPorts(ctx context.Context, pid int) (map[int]struct{}, error) {
	if !supportsPortScan(s.goos) {
		return nil, fmt.Errorf("listening port discovery %w: %s", ErrUnsupportedPlatform, s.goos)
	}

	ports := make(map[int]struct{})
	if pid <= 0 {
		return ports, nil
	}

	conns, err := s.connections(ctx, "tcp", int32(pid))
	if err != nil {
		// The fd table of a process that just exited is gone; that is an
		// empty set, not a fault.
		if exists, existsErr := s.pidExists(ctx, int32(pid)); existsErr == nil && !exists {
			return ports, nil
		}
		return nil, fmt.Errorf("failed to list sockets of process %d: %w", pid, err)
	}

	for _, conn := range conns {
		if conn.Status != "LISTEN" {
			continue
		}
		ports[int(conn.Laddr.Port)] = struct{}{}
	}

	return ports, nil
}
