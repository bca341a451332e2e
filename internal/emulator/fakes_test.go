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
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tombee/emuhelper/internal/config"
	"github.com/tombee/emuhelper/internal/lifecycle"
	"github.com/tombee/emuhelper/internal/sdk"
	"github.com/tombee/emuhelper/internal/testing/mock"
)

func ports(ps ...int) map[int]struct{} {
	set := make(map[int]struct{}, len(ps))
	for _, p := range ps {
		set[p] = struct{}{}
	}
	return set
}

// sequenceScanner returns one scripted port set per call; the last entry
// repeats once the script runs out.
type sequenceScanner struct {
	mu    sync.Mutex
	sets  []map[int]struct{}
	err   error
	calls []int
}

func (s *sequenceScanner) ListeningPorts(_ context.Context, pid int) (map[int]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, pid)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.sets) == 0 {
		return map[int]struct{}{}, nil
	}
	i := len(s.calls) - 1
	if i >= len(s.sets) {
		i = len(s.sets) - 1
	}
	return s.sets[i], nil
}

// fakeLocator returns pids in sequence; the last repeats.
type fakeLocator struct {
	pids  []int
	err   error
	calls int
}

func (f *fakeLocator) FindPID(context.Context, string) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.pids) == 0 {
		return 0, nil
	}
	i := f.calls - 1
	if i >= len(f.pids) {
		i = len(f.pids) - 1
	}
	return f.pids[i], nil
}

// fakeChannel answers getprop from a script and records emu kill calls.
type fakeChannel struct {
	values  []string
	errs    []error
	gets    int
	kills   []string
	killErr error
}

func (f *fakeChannel) GetProp(_ context.Context, _ string, _ string) (string, error) {
	f.gets++
	i := f.gets - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if len(f.values) == 0 {
		return "running", nil
	}
	if i >= len(f.values) {
		i = len(f.values) - 1
	}
	return f.values[i], nil
}

func (f *fakeChannel) EmuKill(_ context.Context, serial string) error {
	f.kills = append(f.kills, serial)
	return f.killErr
}

// fakeProcesses reports pids alive until the clock reaches exitAt.
type fakeProcesses struct {
	clock  *mock.Clock
	start  time.Time
	alive  bool
	exitAt time.Duration
}

func (f *fakeProcesses) IsRunning(context.Context, int) bool {
	if !f.alive {
		return false
	}
	if f.exitAt > 0 && f.clock.Now().Sub(f.start) >= f.exitAt {
		return false
	}
	return true
}

type sentSignal struct {
	pid int
	sig lifecycle.Signal
	at  time.Duration
}

type recordingSignaler struct {
	clock *mock.Clock
	start time.Time
	sent  []sentSignal
}

func (r *recordingSignaler) Signal(pid int, sig lifecycle.Signal) error {
	r.sent = append(r.sent, sentSignal{pid: pid, sig: sig, at: r.clock.Now().Sub(r.start)})
	return nil
}

type fakeProcess struct {
	pid    int
	exited bool
	err    error
}

func (p fakeProcess) PID() int       { return p.pid }
func (p fakeProcess) Exited() bool   { return p.exited }
func (p fakeProcess) ExitErr() error { return p.err }

type fakeLauncher struct {
	proc    fakeProcess
	err     error
	binary  string
	args    []string
	logPath string
}

func (f *fakeLauncher) Launch(binary string, args []string, logPath string) (Process, error) {
	f.binary, f.args, f.logPath = binary, args, logPath
	if f.err != nil {
		return nil, f.err
	}
	return f.proc, nil
}

type fakeRunner struct {
	code int
	err  error
	argv []string
	env  []string
}

func (f *fakeRunner) Run(_ context.Context, argv []string, env []string) (int, error) {
	f.argv, f.env = argv, env
	return f.code, f.err
}

type fakeInstaller struct {
	reqs []sdk.InstallRequest
	err  error
}

func (f *fakeInstaller) Install(_ context.Context, req sdk.InstallRequest) error {
	f.reqs = append(f.reqs, req)
	return f.err
}

type fakeCreator struct {
	specs []sdk.DeviceSpec
	err   error
}

func (f *fakeCreator) CreateDevice(_ context.Context, spec sdk.DeviceSpec) error {
	f.specs = append(f.specs, spec)
	return f.err
}

type editCall struct{ path, keyValue string }

type fakeEditor struct {
	calls []editCall
	err   error
}

func (f *fakeEditor) Set(path, keyValue string) error {
	f.calls = append(f.calls, editCall{path, keyValue})
	return f.err
}

// harness bundles a controller with every fake so tests can script and
// inspect them.
type harness struct {
	cfg       *config.Config
	clock     *mock.Clock
	identity  *lifecycle.IdentityStore
	events    *lifecycle.EventLog
	locator   *fakeLocator
	scanner   *sequenceScanner
	channel   *fakeChannel
	control   ControlChannel
	processes *fakeProcesses
	signaler  *recordingSignaler
	launcher  *fakeLauncher
	runner    *fakeRunner
	installer *fakeInstaller
	creator   *fakeCreator
	editor    *fakeEditor
	missing   map[string]bool
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	ws := t.TempDir()
	cfg := config.Default()
	cfg.Workspace = ws
	cfg.SDKRoot = filepath.Join(ws, "sdk")
	cfg.AVDHome = filepath.Join(ws, "avd")
	cfg.Platform = config.PlatformLinux
	cfg.Tools = config.NewToolPaths(cfg.SDKRoot, cfg.Platform)
	return cfg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testConfig(t)
	clock := mock.NewClock()
	h := &harness{
		cfg:       cfg,
		clock:     clock,
		identity:  lifecycle.NewIdentityStore(cfg.IdentityFile()),
		events:    lifecycle.NewEventLog(cfg.LifecycleLogPath()),
		locator:   &fakeLocator{},
		scanner:   &sequenceScanner{},
		channel:   &fakeChannel{},
		processes: &fakeProcesses{clock: clock, start: clock.Now()},
		signaler:  &recordingSignaler{clock: clock, start: clock.Now()},
		launcher:  &fakeLauncher{},
		runner:    &fakeRunner{},
		installer: &fakeInstaller{},
		creator:   &fakeCreator{},
		editor:    &fakeEditor{},
		missing:   map[string]bool{},
	}
	h.control = h.channel
	return h
}

func (h *harness) controller() *Controller {
	return NewController(h.cfg, Dependencies{
		Identity:  h.identity,
		Locator:   h.locator,
		Scanner:   h.scanner,
		Channel:   h.control,
		Processes: h.processes,
		Signaler:  h.signaler,
		Launcher:  h.launcher,
		Runner:    h.runner,
		Installer: h.installer,
		Creator:   h.creator,
		Editor:    h.editor,
		Events:    h.events,
		Clock:     h.clock,
		IsExecutable: func(path string) bool {
			return !h.missing[path]
		},
	})
}

func (h *harness) created(t *testing.T, name string) {
	t.Helper()
	if err := h.identity.Save(name); err != nil {
		t.Fatal(err)
	}
}
