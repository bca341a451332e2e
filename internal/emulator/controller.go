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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tombee/emuhelper/internal/config"
	"github.com/tombee/emuhelper/internal/lifecycle"
	emulog "github.com/tombee/emuhelper/internal/log"
	"github.com/tombee/emuhelper/internal/sdk"
)

// IdentityStore persists the current instance name.
type IdentityStore interface {
	IdentityReader
	Save(name string) error
	Remove() error
}

// Liveness reports whether a pid is still alive.
type Liveness interface {
	IsRunning(ctx context.Context, pid int) bool
}

// Process is a launched emulator.
type Process interface {
	PID() int
	Exited() bool
	// ExitErr is the wait error of an exited process.
	ExitErr() error
}

// Launcher starts the emulator in the background.
type Launcher interface {
	Launch(binary string, args []string, logPath string) (Process, error)
}

// SpawnLauncher launches detached processes with a lifecycle.Spawner.
type SpawnLauncher struct {
	Spawner *lifecycle.Spawner
}

// Launch implements Launcher.
func (l SpawnLauncher) Launch(binary string, args []string, logPath string) (Process, error) {
	proc, err := l.Spawner.SpawnDetached(binary, args, logPath)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

// CommandRunner runs a foreground command and returns its exit code.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, env []string) (int, error)
}

// ExecRunner runs commands with the caller's stdio.
type ExecRunner struct{}

// Run implements CommandRunner. A non-zero exit is reported through the
// code, not the error; the error is for commands that could not run.
func (ExecRunner) Run(ctx context.Context, argv []string, env []string) (int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("failed to run %s: %w", argv[0], err)
	}
	return 0, nil
}

// PackageInstaller installs SDK packages.
type PackageInstaller interface {
	Install(ctx context.Context, req sdk.InstallRequest) error
}

// DeviceCreator creates the on-disk AVD.
type DeviceCreator interface {
	CreateDevice(ctx context.Context, spec sdk.DeviceSpec) error
}

// ConfigEditor sets a key in an AVD config file.
type ConfigEditor interface {
	Set(path, keyValue string) error
}

// Dependencies are the collaborators of a Controller. Nil fields are
// filled with the host implementations by NewController.
type Dependencies struct {
	Identity  IdentityStore
	Locator   PIDFinder
	Scanner   lifecycle.PortScanner
	Resolver  EndpointResolver
	Channel   ControlChannel
	Processes Liveness
	Signaler  lifecycle.Signaler
	Launcher  Launcher
	Runner    CommandRunner
	Installer PackageInstaller
	Creator   DeviceCreator
	Editor    ConfigEditor
	Events    *lifecycle.EventLog
	Clock     lifecycle.Clock
	Logger    *slog.Logger

	// IsExecutable checks tool binaries; defaults to lifecycle.IsExecutable.
	IsExecutable func(path string) bool
}

// Controller orchestrates create, start, wait, kill and exec for the single
// instance of a workspace.
type Controller struct {
	cfg       *config.Config
	identity  IdentityStore
	locator   PIDFinder
	resolver  EndpointResolver
	waiter    *Waiter
	channel   ControlChannel
	processes Liveness
	signaler  lifecycle.Signaler
	launcher  Launcher
	runner    CommandRunner
	installer PackageInstaller
	creator   DeviceCreator
	editor    ConfigEditor
	events    *lifecycle.EventLog
	clock     lifecycle.Clock
	logger    *slog.Logger
	isExec    func(string) bool
}

// NewController wires a controller from cfg and deps.
func NewController(cfg *config.Config, deps Dependencies) *Controller {
	if deps.Logger == nil {
		deps.Logger = emulog.Discard()
	}
	if deps.Clock == nil {
		deps.Clock = lifecycle.RealClock{}
	}
	if deps.Identity == nil {
		deps.Identity = lifecycle.NewIdentityStore(cfg.IdentityFile())
	}
	if deps.Locator == nil {
		deps.Locator = lifecycle.NewLocator(lifecycle.SystemProcessLister{}, deps.Logger)
	}
	if deps.Scanner == nil {
		deps.Scanner = lifecycle.NewSystemPortScanner()
	}
	if deps.Resolver == nil {
		deps.Resolver = NewResolver(deps.Scanner, deps.Clock, cfg, deps.Logger)
	}
	if deps.Channel == nil {
		deps.Channel = NewADB(cfg.Tools.ADB, cfg.ADB.Timeout)
	}
	if deps.Processes == nil {
		deps.Processes = lifecycle.ProcessTable{}
	}
	if deps.Signaler == nil {
		deps.Signaler = lifecycle.HostSignaler{}
	}
	if deps.Launcher == nil {
		deps.Launcher = SpawnLauncher{Spawner: lifecycle.NewSpawner().WithEnv(AndroidEnv(cfg, os.Environ()))}
	}
	if deps.Runner == nil {
		deps.Runner = ExecRunner{}
	}
	if deps.Installer == nil {
		deps.Installer = sdk.NewInstaller(cfg.Tools.SDKManager, deps.Logger)
	}
	if deps.Creator == nil {
		deps.Creator = sdk.NewDeviceCreator(cfg.Tools.AVDManager, deps.Logger).WithEnv(AndroidEnv(cfg, os.Environ()))
	}
	if deps.Editor == nil {
		deps.Editor = sdk.ConfigEditor{}
	}
	if deps.Events == nil {
		deps.Events = lifecycle.NewEventLog(cfg.LifecycleLogPath())
	}
	if deps.IsExecutable == nil {
		deps.IsExecutable = lifecycle.IsExecutable
	}

	return &Controller{
		cfg:       cfg,
		identity:  deps.Identity,
		locator:   deps.Locator,
		resolver:  deps.Resolver,
		waiter:    NewWaiter(deps.Identity, deps.Locator, deps.Resolver, deps.Channel, deps.Clock, cfg.Boot, deps.Logger),
		channel:   deps.Channel,
		processes: deps.Processes,
		signaler:  deps.Signaler,
		launcher:  deps.Launcher,
		runner:    deps.Runner,
		installer: deps.Installer,
		creator:   deps.Creator,
		editor:    deps.Editor,
		events:    deps.Events,
		clock:     deps.Clock,
		logger:    emulog.WithComponent(deps.Logger, "controller"),
		isExec:    deps.IsExecutable,
	}
}

// Waiter exposes the readiness waiter, e.g. to attach a progress callback.
func (c *Controller) Waiter() *Waiter {
	return c.waiter
}

// Name returns the recorded instance name, or "" when none was created.
func (c *Controller) Name() (string, error) {
	return readIdentity(c.identity)
}

func (c *Controller) requireTool(tool, path string) error {
	if !c.isExec(path) {
		return &ToolMissingError{Tool: tool, Path: path}
	}
	return nil
}

// record writes a lifecycle event; the audit log never fails an operation.
func (c *Controller) record(write func(*lifecycle.EventLog) error) {
	if err := write(c.events); err != nil {
		c.logger.Warn("failed to write lifecycle event", emulog.Error(err))
	}
}

// CreateOptions describes the instance to provision.
type CreateOptions struct {
	// SystemImage is the sdkmanager package of the image, e.g.
	// "system-images;android-27;google_apis;x86".
	SystemImage string

	// Device is an optional avdmanager hardware profile.
	Device string

	// Properties are "key=value" overrides applied to the AVD config.ini.
	Properties []string

	// SkipInstall creates the device without running sdkmanager.
	SkipInstall bool

	BuildTools   string
	Platform     string
	NDK          bool
	ExtraModules []string
}

// Create provisions a new uniquely named instance and returns its name.
func (c *Controller) Create(ctx context.Context, opts CreateOptions) (string, error) {
	image := strings.TrimSpace(opts.SystemImage)
	if image == "" {
		return "", invalidSpec("image", "system image is required", `Pass a package path such as "system-images;android-27;google_apis;x86"`)
	}
	for _, prop := range opts.Properties {
		if key, _, ok := strings.Cut(prop, "="); !ok || strings.TrimSpace(key) == "" {
			return "", invalidSpec("property", fmt.Sprintf("%q is not key=value", prop), "Pass config.ini overrides as key=value, e.g. hw.ramSize=2048")
		}
	}

	if !opts.SkipInstall {
		if err := c.requireTool("sdkmanager", c.cfg.Tools.SDKManager); err != nil {
			return "", err
		}
	}
	if err := c.requireTool("avdmanager", c.cfg.Tools.AVDManager); err != nil {
		return "", err
	}

	name := lifecycle.NewIdentity()
	if err := c.identity.Save(name); err != nil {
		return "", err
	}
	logger := emulog.WithInstance(c.logger, name)
	logger.Info("creating instance", slog.String("system_image", image))

	if !opts.SkipInstall {
		req := sdk.InstallRequest{
			BuildTools:   opts.BuildTools,
			Platform:     opts.Platform,
			SystemImage:  image,
			NDK:          opts.NDK,
			ExtraModules: opts.ExtraModules,
		}
		if err := c.installer.Install(ctx, req); err != nil {
			return name, err
		}
	}

	spec := sdk.DeviceSpec{Name: name, SystemImage: image, Device: opts.Device}
	if err := c.creator.CreateDevice(ctx, spec); err != nil {
		return name, err
	}

	configFile := c.cfg.AVDConfigFile(name)
	for _, prop := range opts.Properties {
		if err := c.editor.Set(configFile, prop); err != nil {
			return name, err
		}
		logger.Debug("applied property", slog.String("property", prop))
	}

	c.record(func(l *lifecycle.EventLog) error { return l.LogCreate(name, image) })
	return name, nil
}

// Start launches the created instance and returns its pid once it has
// survived the grace period. A launch that dies leaves nothing recorded.
func (c *Controller) Start(ctx context.Context, opts StartOptions) (int, error) {
	if err := c.requireTool("emulator", c.cfg.Tools.Emulator); err != nil {
		return 0, err
	}

	name, err := readIdentity(c.identity)
	if err != nil {
		return 0, err
	}
	if name == "" {
		return 0, ErrNotCreated
	}

	args, err := LaunchArgs(name, opts)
	if err != nil {
		return 0, err
	}

	logger := emulog.WithInstance(c.logger, name)
	c.record(func(l *lifecycle.EventLog) error { return l.LogStart(name, args) })

	proc, err := c.launcher.Launch(c.cfg.Tools.Emulator, args, c.cfg.EmulatorLogPath())
	if err != nil {
		c.record(func(l *lifecycle.EventLog) error { return l.LogStartFailure(name, err) })
		return 0, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	logger.Info("emulator launched, waiting for grace period",
		slog.Int(emulog.PIDKey, proc.PID()),
		emulog.Duration(c.cfg.Start.Grace.Milliseconds()))

	if err := c.clock.Sleep(ctx, c.cfg.Start.Grace); err != nil {
		return 0, err
	}

	if proc.Exited() || !c.processes.IsRunning(ctx, proc.PID()) {
		status := "exited"
		if exitErr := proc.ExitErr(); exitErr != nil {
			status = fmt.Sprintf("exited (%v)", exitErr)
		}
		failure := fmt.Errorf("%w: process %d %s within %v, see %s",
			ErrLaunchFailed, proc.PID(), status, c.cfg.Start.Grace, c.cfg.EmulatorLogPath())
		c.record(func(l *lifecycle.EventLog) error { return l.LogStartFailure(name, failure) })
		return 0, failure
	}

	c.record(func(l *lifecycle.EventLog) error { return l.LogStartSuccess(name, proc.PID(), c.cfg.Start.Grace) })
	logger.Info("emulator started", slog.Int(emulog.PIDKey, proc.PID()))
	return proc.PID(), nil
}

// WaitForReady blocks until the instance has booted or reaches another
// terminal state. Use Result.State.ExitCode for the CLI exit status.
func (c *Controller) WaitForReady(ctx context.Context) (Result, error) {
	if err := c.requireTool("adb", c.cfg.Tools.ADB); err != nil {
		return Result{}, err
	}

	result, err := c.waiter.Wait(ctx)
	if err != nil {
		return result, err
	}

	if result.State == StateReady {
		c.record(func(l *lifecycle.EventLog) error {
			return l.LogReady(result.Name, result.PID, result.Serial(), result.Elapsed, result.Polls)
		})
	} else if result.State != StateNotCreated {
		c.record(func(l *lifecycle.EventLog) error {
			return l.LogWaitFailed(result.Name, result.PID, result.Serial(), result.State.String(), result.Elapsed)
		})
	}
	return result, nil
}

// Status observes the instance once without waiting.
func (c *Controller) Status(ctx context.Context) (Result, error) {
	if err := c.requireTool("adb", c.cfg.Tools.ADB); err != nil {
		return Result{}, err
	}
	return c.waiter.Observe(ctx)
}

// KillOutcome is how a kill ended.
type KillOutcome int

const (
	// KillNothingToDo means no instance was created or none was running.
	KillNothingToDo KillOutcome = iota
	// KillExited means the process went away before SIGKILL was needed.
	KillExited
	// KillForced means SIGKILL was sent at the force threshold.
	KillForced
	killOutcomeCount
)

var killOutcomeNames = [killOutcomeCount]string{
	KillNothingToDo: "nothing_to_do",
	KillExited:      "exited",
	KillForced:      "forced",
}

func (o KillOutcome) String() string {
	if o < 0 || o >= killOutcomeCount {
		return fmt.Sprintf("KillOutcome(%d)", int(o))
	}
	return killOutcomeNames[o]
}

// MarshalText renders the outcome name in JSON output.
func (o KillOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ShutdownResult is the outcome of the best-effort "emu kill" request.
type ShutdownResult struct {
	Attempted bool   `json:"attempted"`
	Serial    string `json:"serial,omitempty"`
	Err       error  `json:"-"`
}

// Failed reports whether the request was sent and failed.
func (s ShutdownResult) Failed() bool {
	return s.Attempted && s.Err != nil
}

// KillResult describes a finished kill.
type KillResult struct {
	Outcome  KillOutcome    `json:"outcome"`
	Name     string         `json:"avd,omitempty"`
	PID      int            `json:"pid,omitempty"`
	Shutdown ShutdownResult `json:"shutdown"`
	TermSent bool           `json:"term_sent"`
	KillSent bool           `json:"kill_sent"`
	Elapsed  time.Duration  `json:"elapsed"`
}

// Kill stops the instance: a graceful "emu kill" when the endpoint is
// known, then SIGTERM at the term threshold and SIGKILL at the force
// threshold. Killing an instance that was never created or is not running
// succeeds without sending anything.
func (c *Controller) Kill(ctx context.Context) (KillResult, error) {
	if err := c.requireTool("adb", c.cfg.Tools.ADB); err != nil {
		return KillResult{}, err
	}

	name, err := readIdentity(c.identity)
	if err != nil {
		return KillResult{}, err
	}
	if name == "" {
		c.logger.Info("no instance was ever created, nothing to kill")
		return KillResult{Outcome: KillNothingToDo}, nil
	}
	logger := emulog.WithInstance(c.logger, name)

	pid, err := c.locator.FindPID(ctx, name)
	if err != nil {
		return KillResult{Name: name}, err
	}
	if pid == 0 {
		logger.Info("instance is not running, nothing to kill")
		return KillResult{Outcome: KillNothingToDo, Name: name}, nil
	}

	// Escalation runs to the force threshold even if the caller is
	// interrupted.
	esc := context.WithoutCancel(ctx)

	result := KillResult{Name: name, PID: pid}
	result.Shutdown = c.gracefulShutdown(esc, logger, pid)
	if result.Shutdown.Failed() {
		logger.Warn("graceful shutdown failed, relying on signals",
			slog.String(emulog.SerialKey, result.Shutdown.Serial),
			emulog.Error(result.Shutdown.Err))
	}

	start := c.clock.Now()
	signal := func(sig lifecycle.Signal) {
		if err := c.signaler.Signal(pid, sig); err != nil && !errors.Is(err, lifecycle.ErrProcessNotRunning) {
			logger.Warn("failed to signal emulator", slog.Int(emulog.PIDKey, pid), slog.String("signal", sig.String()), emulog.Error(err))
		}
	}

	err = lifecycle.Poll(esc, c.clock, c.cfg.Kill.PollInterval, c.cfg.Kill.ForceAfter, func(ctx context.Context) (bool, error) {
		if !c.processes.IsRunning(ctx, pid) {
			result.Outcome = KillExited
			return true, nil
		}

		elapsed := c.clock.Now().Sub(start)
		if elapsed >= c.cfg.Kill.ForceAfter {
			logger.Warn("sending SIGKILL", slog.Int(emulog.PIDKey, pid))
			signal(lifecycle.SignalKill)
			result.KillSent = true
			result.Outcome = KillForced
			return true, nil
		}
		if elapsed >= c.cfg.Kill.TermAfter && !result.TermSent {
			logger.Info("sending SIGTERM", slog.Int(emulog.PIDKey, pid))
			signal(lifecycle.SignalTerm)
			result.TermSent = true
		}
		return false, nil
	})
	if errors.Is(err, lifecycle.ErrPollTimeout) {
		signal(lifecycle.SignalKill)
		result.KillSent = true
		result.Outcome = KillForced
		err = nil
	}
	result.Elapsed = c.clock.Now().Sub(start)
	if err != nil {
		return result, err
	}

	logger.Info("instance stopped",
		slog.String("outcome", result.Outcome.String()),
		emulog.Duration(result.Elapsed.Milliseconds()))
	c.record(func(l *lifecycle.EventLog) error {
		return l.LogKill(name, pid, result.Outcome.String(), result.Elapsed)
	})
	return result, nil
}

// gracefulShutdown resolves the endpoint once and asks the emulator to
// exit. It never fails the kill.
func (c *Controller) gracefulShutdown(ctx context.Context, logger *slog.Logger, pid int) ShutdownResult {
	ep, ok, err := c.resolver.Resolve(ctx, pid)
	if err != nil {
		logger.Warn("endpoint lookup failed, skipping emu kill", slog.Int(emulog.PIDKey, pid), emulog.Error(err))
		return ShutdownResult{}
	}
	if !ok {
		logger.Info("endpoint unknown, skipping emu kill", slog.Int(emulog.PIDKey, pid))
		return ShutdownResult{}
	}

	serial := ep.Serial()
	logger.Info("requesting graceful shutdown", slog.String(emulog.SerialKey, serial))
	return ShutdownResult{
		Attempted: true,
		Serial:    serial,
		Err:       c.channel.EmuKill(ctx, serial),
	}
}

// Exec runs argv against the running instance with ANDROID_SERIAL and
// ANDROID_EMULATOR_PORT set, returning the command's exit code.
func (c *Controller) Exec(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, invalidSpec("command", "no command given", "")
	}
	if err := c.requireTool("adb", c.cfg.Tools.ADB); err != nil {
		return 0, err
	}

	name, err := readIdentity(c.identity)
	if err != nil {
		return 0, err
	}
	if name == "" {
		return 0, ErrNotCreated
	}

	pid, err := c.locator.FindPID(ctx, name)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		return 0, ErrNotRunning
	}

	ep, ok, err := c.resolver.ResolveWithRetry(ctx, pid)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrEndpointUnresolved
	}

	env := append(os.Environ(),
		"ANDROID_SERIAL="+ep.Serial(),
		"ANDROID_EMULATOR_PORT="+strconv.Itoa(ep.Port))

	emulog.WithInstance(c.logger, name).Debug("running command against instance",
		slog.String(emulog.SerialKey, ep.Serial()),
		slog.String("command", strings.Join(argv, " ")))

	return c.runner.Run(ctx, argv, env)
}

// Forget removes the identity file and returns the forgotten name, or ""
// when there was none.
func (c *Controller) Forget(ctx context.Context) (string, error) {
	name, err := readIdentity(c.identity)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", nil
	}
	if err := c.identity.Remove(); err != nil {
		return name, err
	}
	c.record(func(l *lifecycle.EventLog) error { return l.LogForget(name) })
	return name, nil
}
