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
	"strings"
	"time"

	"github.com/tombee/emuhelper/internal/config"
	"github.com/tombee/emuhelper/internal/lifecycle"
	emulog "github.com/tombee/emuhelper/internal/log"
)

// State is the observed readiness of the current instance.
type State int

const (
	StateNotCreated State = iota
	StateNotRunning
	StateRunningUnknownEndpoint
	StateBooting
	StateReady
	StateTimedOut
	stateCount
)

var stateNames = [stateCount]string{
	StateNotCreated:             "not_created",
	StateNotRunning:             "not_running",
	StateRunningUnknownEndpoint: "running_unknown_endpoint",
	StateBooting:                "booting",
	StateReady:                  "ready",
	StateTimedOut:               "timed_out",
}

func (s State) String() string {
	if s < 0 || s >= stateCount {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IdentityReader yields the name of the current instance.
type IdentityReader interface {
	Read() (string, error)
}

// PIDFinder maps an instance name to a pid; zero means not found.
type PIDFinder interface {
	FindPID(ctx context.Context, name string) (int, error)
}

// EndpointResolver is the single-shot and retrying endpoint lookup.
type EndpointResolver interface {
	Resolve(ctx context.Context, pid int) (Endpoint, bool, error)
	ResolveWithRetry(ctx context.Context, pid int) (Endpoint, bool, error)
}

// Result is the outcome of a wait or a single observation.
type Result struct {
	State    State         `json:"state"`
	Name     string        `json:"avd,omitempty"`
	PID      int           `json:"pid,omitempty"`
	Endpoint *Endpoint     `json:"endpoint,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
	Polls    int           `json:"polls"`
}

// Serial returns the adb serial, or "" when the endpoint is unknown.
func (r Result) Serial() string {
	if r.Endpoint == nil {
		return ""
	}
	return r.Endpoint.Serial()
}

// Waiter drives an instance from "created" to "booted" by observation only.
type Waiter struct {
	identity IdentityReader
	locator  PIDFinder
	resolver EndpointResolver
	channel  ControlChannel
	clock    lifecycle.Clock
	boot     config.BootConfig
	logger   *slog.Logger

	progress func(Result)
}

// NewWaiter creates a waiter.
func NewWaiter(identity IdentityReader, locator PIDFinder, resolver EndpointResolver, channel ControlChannel, clock lifecycle.Clock, boot config.BootConfig, logger *slog.Logger) *Waiter {
	if logger == nil {
		logger = emulog.Discard()
	}
	return &Waiter{
		identity: identity,
		locator:  locator,
		resolver: resolver,
		channel:  channel,
		clock:    clock,
		boot:     boot,
		logger:   emulog.WithComponent(logger, "waiter"),
	}
}

// OnProgress registers a callback invoked after every boot poll.
func (w *Waiter) OnProgress(fn func(Result)) {
	w.progress = fn
}

// readIdentity returns "" with a nil error when no instance was created.
func readIdentity(store IdentityReader) (string, error) {
	name, err := store.Read()
	if errors.Is(err, lifecycle.ErrNoIdentity) {
		return "", nil
	}
	return name, err
}

// Wait blocks until the instance is ready or reaches another terminal
// state. Terminal states come back with a nil error; errors are reserved
// for unreadable identity or process tables and a cancelled context.
func (w *Waiter) Wait(ctx context.Context) (Result, error) {
	name, err := readIdentity(w.identity)
	if err != nil {
		return Result{}, err
	}
	if name == "" {
		return Result{State: StateNotCreated}, nil
	}

	logger := emulog.WithInstance(w.logger, name)
	result := Result{Name: name}

	err = lifecycle.Poll(ctx, w.clock, w.boot.ProcessPollInterval, w.boot.ProcessWait, func(ctx context.Context) (bool, error) {
		pid, err := w.locator.FindPID(ctx, name)
		if err != nil {
			return false, err
		}
		result.PID = pid
		return pid > 0, nil
	})
	if errors.Is(err, lifecycle.ErrPollTimeout) {
		logger.Info("instance is not running")
		result.State = StateNotRunning
		return result, nil
	}
	if err != nil {
		return result, err
	}

	ep, ok, err := w.resolver.ResolveWithRetry(ctx, result.PID)
	if err != nil {
		return result, err
	}
	if !ok {
		logger.Warn("instance is running but its endpoint could not be resolved",
			slog.Int(emulog.PIDKey, result.PID))
		result.State = StateRunningUnknownEndpoint
		return result, nil
	}
	result.Endpoint = &ep
	result.State = StateBooting
	serial := ep.Serial()

	logger.Info("waiting for boot to complete",
		slog.Int(emulog.PIDKey, result.PID),
		slog.String(emulog.SerialKey, serial))

	start := w.clock.Now()
	err = lifecycle.Poll(ctx, w.clock, w.boot.PollInterval, w.boot.Timeout, func(ctx context.Context) (bool, error) {
		result.Polls++
		ready := w.bootCompleted(ctx, logger, serial)
		result.Elapsed = w.clock.Now().Sub(start)
		if ready {
			result.State = StateReady
		}
		if w.progress != nil {
			w.progress(result)
		}
		return ready, nil
	})
	result.Elapsed = w.clock.Now().Sub(start)

	switch {
	case err == nil:
		logger.Info("boot completed",
			slog.String(emulog.SerialKey, serial),
			emulog.Duration(result.Elapsed.Milliseconds()),
			slog.Int("polls", result.Polls))
		return result, nil
	case errors.Is(err, lifecycle.ErrPollTimeout):
		logger.Warn("boot did not complete in time",
			slog.String(emulog.SerialKey, serial),
			emulog.Duration(result.Elapsed.Milliseconds()))
		result.State = StateTimedOut
		return result, nil
	default:
		return result, err
	}
}

// Observe takes a single look at the instance without waiting: one process
// lookup, one port scan and at most one property read.
func (w *Waiter) Observe(ctx context.Context) (Result, error) {
	name, err := readIdentity(w.identity)
	if err != nil {
		return Result{}, err
	}
	if name == "" {
		return Result{State: StateNotCreated}, nil
	}
	result := Result{Name: name}

	pid, err := w.locator.FindPID(ctx, name)
	if err != nil {
		return result, err
	}
	if pid == 0 {
		result.State = StateNotRunning
		return result, nil
	}
	result.PID = pid

	ep, ok, err := w.resolver.Resolve(ctx, pid)
	if err != nil {
		return result, err
	}
	if !ok {
		result.State = StateRunningUnknownEndpoint
		return result, nil
	}
	result.Endpoint = &ep

	result.Polls = 1
	if w.bootCompleted(ctx, emulog.WithInstance(w.logger, name), ep.Serial()) {
		result.State = StateReady
	} else {
		result.State = StateBooting
	}
	return result, nil
}

// bootCompleted reads the boot property once. Query failures are expected
// while adbd comes up and count as "not yet".
func (w *Waiter) bootCompleted(ctx context.Context, logger *slog.Logger, serial string) bool {
	value, err := w.channel.GetProp(ctx, serial, BootProperty)
	if err != nil {
		logger.Debug("boot property query failed",
			slog.String(emulog.SerialKey, serial),
			emulog.Error(err))
		return false
	}
	emulog.Trace(logger, "boot property",
		slog.String(emulog.SerialKey, serial),
		slog.String("value", value))
	return strings.TrimSpace(value) == BootCompleteValue
}
