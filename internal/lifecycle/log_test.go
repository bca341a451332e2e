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
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvents decodes every JSON line of a lifecycle log.
func readEvents(t *testing.T, path string) []LifecycleEvent {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []LifecycleEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event LifecycleEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestEventLog_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".emuhelper", "lifecycle.log")
	log := NewEventLog(path)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	log.now = func() time.Time { return fixed }

	require.NoError(t, log.LogCreate("abc", "system-images;android-27;google_apis;x86"))
	require.NoError(t, log.LogStart("abc", []string{"-avd", "abc", "-no-window", "-prop", "persist.sys.language=en"}))
	require.NoError(t, log.LogStartSuccess("abc", 4242, 5*time.Second))
	require.NoError(t, log.LogReady("abc", 4242, "emulator-5556", 90*time.Second, 19))
	require.NoError(t, log.LogKill("abc", 4242, "exited", 2*time.Second))

	events := readEvents(t, path)
	require.Len(t, events, 5)

	assert.Equal(t, EventCreate, events[0].Event)
	assert.Equal(t, "abc", events[0].AVD)
	assert.True(t, events[0].Timestamp.Equal(fixed))

	assert.Equal(t, EventStart, events[1].Event)
	assert.Equal(t, map[string]string{
		"avd":       "abc",
		"no-window": "true",
		"prop":      "persist.sys.language=en",
	}, events[1].Flags)

	assert.Equal(t, 4242, events[2].PID)
	assert.Equal(t, int64(5000), events[2].DurationMS)

	assert.Equal(t, "emulator-5556", events[3].Serial)
	assert.Equal(t, "ready", events[3].State)

	assert.Equal(t, EventKill, events[4].Event)
	assert.Equal(t, "exited", events[4].State)
}

func TestEventLog_Failures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifecycle.log")
	log := NewEventLog(path)

	require.NoError(t, log.LogStartFailure("abc", errors.New("emulator exited during grace period")))
	require.NoError(t, log.LogWaitFailed("abc", 4242, "", "running_unknown_endpoint", 30*time.Second))

	events := readEvents(t, path)
	require.Len(t, events, 2)

	assert.False(t, events[0].Success)
	assert.Zero(t, events[0].PID, "a failed start records no pid")
	assert.Equal(t, "emulator exited during grace period", events[0].Error)
	assert.Equal(t, "running_unknown_endpoint", events[1].State)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want map[string]string
	}{
		{"empty", nil, map[string]string{}},
		{"boolean flags", []string{"-no-window", "-no-audio"}, map[string]string{"no-window": "true", "no-audio": "true"}},
		{"value flag", []string{"-avd", "abc"}, map[string]string{"avd": "abc"}},
		{"positional ignored", []string{"stray", "-wipe-data"}, map[string]string{"wipe-data": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFlags(tt.args))
		})
	}
}
