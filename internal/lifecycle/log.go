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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Event names written to the lifecycle log.
const (
	EventCreate       = "create"
	EventStart        = "start"
	EventStartSuccess = "start_success"
	EventStartFailure = "start_failure"
	EventReady        = "ready"
	EventWaitFailed   = "wait_failed"
	EventKill         = "kill"
	EventForget       = "forget"
)

// LifecycleEvent is one line of the lifecycle log.
type LifecycleEvent struct {
	Timestamp  time.Time         `json:"timestamp"`
	Event      string            `json:"event"`
	AVD        string            `json:"avd,omitempty"`
	PID        int               `json:"pid,omitempty"`
	Serial     string            `json:"serial,omitempty"`
	State      string            `json:"state,omitempty"`
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Flags      map[string]string `json:"flags,omitempty"`
	DurationMS int64             `json:"duration_ms,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// EventLog appends instance lifecycle events as JSON lines.
type EventLog struct {
	logPath string
	now     func() time.Time
}

// NewEventLog creates an event log writing to logPath.
func NewEventLog(logPath string) *EventLog {
	return &EventLog{
		logPath: logPath,
		now:     time.Now,
	}
}

// LogCreate records a new instance identity.
func (l *EventLog) LogCreate(name, systemImage string) error {
	return l.writeEvent(LifecycleEvent{
		Event:   EventCreate,
		AVD:     name,
		Success: true,
		Message: fmt.Sprintf("Instance created from %s", systemImage),
	})
}

// LogStart records a launch attempt with its emulator arguments.
func (l *EventLog) LogStart(name string, args []string) error {
	return l.writeEvent(LifecycleEvent{
		Event:   EventStart,
		AVD:     name,
		Success: true,
		Message: "Emulator launch initiated",
		Flags:   parseFlags(args),
	})
}

// LogStartSuccess records an instance that survived its grace period.
func (l *EventLog) LogStartSuccess(name string, pid int, grace time.Duration) error {
	return l.writeEvent(LifecycleEvent{
		Event:      EventStartSuccess,
		AVD:        name,
		PID:        pid,
		Success:    true,
		Message:    fmt.Sprintf("Emulator alive after %v", grace),
		DurationMS: grace.Milliseconds(),
	})
}

// LogStartFailure records a launch that died or could not be spawned.
func (l *EventLog) LogStartFailure(name string, err error) error {
	return l.writeEvent(LifecycleEvent{
		Event:   EventStartFailure,
		AVD:     name,
		Success: false,
		Message: "Emulator failed to start",
		Error:   errString(err),
	})
}

// LogReady records a completed boot.
func (l *EventLog) LogReady(name string, pid int, serial string, elapsed time.Duration, polls int) error {
	return l.writeEvent(LifecycleEvent{
		Event:      EventReady,
		AVD:        name,
		PID:        pid,
		Serial:     serial,
		State:      "ready",
		Success:    true,
		Message:    fmt.Sprintf("Boot completed (polls: %d)", polls),
		DurationMS: elapsed.Milliseconds(),
	})
}

// LogWaitFailed records a wait that ended in a state other than ready.
func (l *EventLog) LogWaitFailed(name string, pid int, serial, state string, elapsed time.Duration) error {
	return l.writeEvent(LifecycleEvent{
		Event:      EventWaitFailed,
		AVD:        name,
		PID:        pid,
		Serial:     serial,
		State:      state,
		Success:    false,
		Message:    "Instance did not become ready",
		DurationMS: elapsed.Milliseconds(),
	})
}

// LogKill records the outcome of a shutdown.
func (l *EventLog) LogKill(name string, pid int, outcome string, elapsed time.Duration) error {
	return l.writeEvent(LifecycleEvent{
		Event:      EventKill,
		AVD:        name,
		PID:        pid,
		State:      outcome,
		Success:    true,
		Message:    fmt.Sprintf("Shutdown finished: %s", outcome),
		DurationMS: elapsed.Milliseconds(),
	})
}

// LogForget records removal of the identity file.
func (l *EventLog) LogForget(name string) error {
	return l.writeEvent(LifecycleEvent{
		Event:   EventForget,
		AVD:     name,
		Success: true,
		Message: "Instance identity removed",
	})
}

// writeEvent appends a lifecycle event to the log file.
func (l *EventLog) writeEvent(event LifecycleEvent) error {
	event.Timestamp = l.now()

	logDir := filepath.Dir(l.logPath)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open lifecycle log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// parseFlags turns emulator arguments into a flag map for the log.
// Repeated flags such as -prop keep the last value.
func parseFlags(args []string) map[string]string {
	flags := make(map[string]string)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		key := strings.TrimLeft(arg, "-")
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			flags[key] = args[i+1]
			i++
		} else {
			flags[key] = "true"
		}
	}

	return flags
}
