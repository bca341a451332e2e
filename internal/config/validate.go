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

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	emuerrors "github.com/tombee/emuhelper/pkg/errors"
)

// Validate checks required locations and the shape of every budget.
// The first problem is returned as a *errors.ConfigError.
func (c *Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"workspace", c.Workspace},
		{"sdk_root", c.SDKRoot},
		{"avd_home", c.AVDHome},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &emuerrors.ConfigError{Key: r.key, Reason: "required location is not set"}
		}
	}

	if c.Ports.Base <= 0 || c.Ports.Base%2 != 0 {
		return &emuerrors.ConfigError{Key: "ports.base", Reason: fmt.Sprintf("must be a positive even port, got %d", c.Ports.Base)}
	}
	if c.Ports.Width <= 0 || c.Ports.Width%2 != 0 {
		return &emuerrors.ConfigError{Key: "ports.width", Reason: fmt.Sprintf("must be a positive even width, got %d", c.Ports.Width)}
	}
	if c.Ports.Base+c.Ports.Width > 65536 {
		return &emuerrors.ConfigError{Key: "ports.width", Reason: "range exceeds the port space"}
	}
	if c.Resolve.Attempts < 1 {
		return &emuerrors.ConfigError{Key: "resolve.attempts", Reason: "must be at least 1"}
	}

	durations := []struct {
		key   string
		value time.Duration
	}{
		{"resolve.delay", c.Resolve.Delay},
		{"boot.process_wait", c.Boot.ProcessWait},
		{"boot.process_poll_interval", c.Boot.ProcessPollInterval},
		{"boot.poll_interval", c.Boot.PollInterval},
		{"boot.timeout", c.Boot.Timeout},
		{"start.grace", c.Start.Grace},
		{"kill.term_after", c.Kill.TermAfter},
		{"kill.force_after", c.Kill.ForceAfter},
		{"kill.poll_interval", c.Kill.PollInterval},
		{"adb.timeout", c.ADB.Timeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return &emuerrors.ConfigError{Key: d.key, Reason: fmt.Sprintf("must be positive, got %v", d.value)}
		}
	}

	if c.Kill.ForceAfter <= c.Kill.TermAfter {
		return &emuerrors.ConfigError{
			Key:    "kill.force_after",
			Reason: fmt.Sprintf("must be after kill.term_after (%v <= %v)", c.Kill.ForceAfter, c.Kill.TermAfter),
		}
	}

	return nil
}

// IsMissingLocation reports whether err is a ConfigError caused by one of
// the required locations being unset.
func IsMissingLocation(err error) bool {
	var cfgErr *emuerrors.ConfigError
	if !errors.As(err, &cfgErr) {
		return false
	}
	switch cfgErr.Key {
	case "workspace", "sdk_root", "avd_home":
		return true
	}
	return false
}
