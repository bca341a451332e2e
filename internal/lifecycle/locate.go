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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	emulog "github.com/tombee/emuhelper/internal/log"
)

// ProcessInfo is one row of the process table.
type ProcessInfo struct {
	PID  int
	PPID int
	Args []string
}

// ProcessLister enumerates running processes.
type ProcessLister interface {
	Processes(ctx context.Context) ([]ProcessInfo, error)
}

// SystemProcessLister reads the host process table through gopsutil.
type SystemProcessLister struct{}

// Processes implements ProcessLister. Processes whose argv cannot be read
// (exited mid-scan, or owned by another user on hardened hosts) are skipped.
func (SystemProcessLister) Processes(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read process table: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		args, err := p.CmdlineSliceWithContext(ctx)
		if err != nil || len(args) == 0 {
			continue
		}
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			ppid = 0
		}
		infos = append(infos, ProcessInfo{
			PID:  int(p.Pid),
			PPID: int(ppid),
			Args: args,
		})
	}
	return infos, nil
}

// Locator maps an instance name to the pid of its emulator process.
type Locator struct {
	lister ProcessLister
	self   int
	logger *slog.Logger
}

// NewLocator creates a locator backed by lister.
func NewLocator(lister ProcessLister, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = emulog.Discard()
	}
	return &Locator{
		lister: lister,
		self:   os.Getpid(),
		logger: emulog.WithComponent(logger, "locator"),
	}
}

// FindPID returns the pid of the process launched with "-avd <name>".
// Zero means not found: no match, or several matches that cannot be told
// apart. An error means the process table itself could not be read.
func (l *Locator) FindPID(ctx context.Context, name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, nil
	}

	procs, err := l.lister.Processes(ctx)
	if err != nil {
		return 0, err
	}

	needle := "avd " + name
	var matches []ProcessInfo
	for _, p := range procs {
		if p.PID == l.self {
			continue
		}
		if strings.Contains(strings.Join(p.Args, " "), needle) {
			matches = append(matches, p)
		}
	}

	// The emulator launcher execs a qemu child with the same arguments;
	// the child owns the sockets, so parents of other matches are dropped.
	parents := make(map[int]bool, len(matches))
	for _, m := range matches {
		parents[m.PPID] = true
	}
	var leaves []ProcessInfo
	for _, m := range matches {
		if !parents[m.PID] {
			leaves = append(leaves, m)
		}
	}

	switch len(leaves) {
	case 0:
		return 0, nil
	case 1:
		return leaves[0].PID, nil
	default:
		pids := make([]int, len(leaves))
		for i, m := range leaves {
			pids[i] = m.PID
		}
		l.logger.Warn("ambiguous process match, treating as not found",
			slog.String(emulog.AVDKey, name),
			slog.Any("pids", pids))
		return 0, nil
	}
}
