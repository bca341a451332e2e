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
	"strconv"

	"github.com/tombee/emuhelper/internal/config"
	"github.com/tombee/emuhelper/internal/lifecycle"
	emulog "github.com/tombee/emuhelper/internal/log"
)

// Endpoint is the control channel of a running emulator: the even console
// port of a console/adb port pair.
type Endpoint struct {
	Port int `json:"port"`
}

// Serial is the adb serial of the endpoint, e.g. "emulator-5554".
func (e Endpoint) Serial() string {
	return "emulator-" + strconv.Itoa(e.Port)
}

// ADBPort is the odd port of the pair.
func (e Endpoint) ADBPort() int {
	return e.Port + 1
}

func (e Endpoint) String() string {
	return e.Serial()
}

// Resolver derives the endpoint of an emulator from the ports its process
// listens on.
type Resolver struct {
	scanner lifecycle.PortScanner
	clock   lifecycle.Clock
	ports   config.PortsConfig
	retry   config.ResolveConfig
	logger  *slog.Logger
}

// NewResolver creates a resolver over the configured port range.
func NewResolver(scanner lifecycle.PortScanner, clock lifecycle.Clock, cfg *config.Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = emulog.Discard()
	}
	return &Resolver{
		scanner: scanner,
		clock:   clock,
		ports:   cfg.Ports,
		retry:   cfg.Resolve,
		logger:  emulog.WithComponent(logger, "resolver"),
	}
}

// Resolve performs a single scan of pid's listening ports and returns the
// lowest even port p in range for which both p and p+1 are listening.
// The bool is false when no pair matches.
func (r *Resolver) Resolve(ctx context.Context, pid int) (Endpoint, bool, error) {
	ports, err := r.scanner.ListeningPorts(ctx, pid)
	if err != nil {
		return Endpoint{}, false, fmt.Errorf("failed to scan ports of pid %d: %w", pid, err)
	}

	end := r.ports.Base + r.ports.Width
	for p := r.ports.Base; p < end; p += 2 {
		_, console := ports[p]
		_, adb := ports[p+1]
		if console && adb {
			return Endpoint{Port: p}, true, nil
		}
	}
	return Endpoint{}, false, nil
}

// ResolveWithRetry retries Resolve with a fixed delay because a freshly
// spawned emulator binds its ports some time after it appears in the
// process table. Scanner errors abort immediately.
func (r *Resolver) ResolveWithRetry(ctx context.Context, pid int) (Endpoint, bool, error) {
	var found Endpoint

	err := lifecycle.Retry(ctx, r.clock, r.retry.Attempts, r.retry.Delay, func(ctx context.Context, attempt int) (bool, error) {
		ep, ok, err := r.Resolve(ctx, pid)
		if err != nil {
			return false, err
		}
		if !ok {
			r.logger.Debug("no port pair yet",
				slog.Int(emulog.PIDKey, pid),
				slog.Int(emulog.AttemptKey, attempt))
			return false, nil
		}
		found = ep
		r.logger.Debug("endpoint resolved",
			slog.Int(emulog.PIDKey, pid),
			slog.String(emulog.SerialKey, ep.Serial()),
			slog.Int(emulog.AttemptKey, attempt))
		return true, nil
	})

	switch {
	case err == nil:
		return found, true, nil
	case errors.Is(err, lifecycle.ErrRetryExhausted):
		return Endpoint{}, false, nil
	default:
		return Endpoint{}, false, err
	}
}
