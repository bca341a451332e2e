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

package shared

import (
	"strings"
	"testing"
)

func TestRender_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if ColorEnabled() {
		t.Fatal("NO_COLOR should disable color")
	}

	tests := []struct {
		got  string
		want string
	}{
		{RenderOK("done"), SymbolOK + " done"},
		{RenderWarn("slow"), SymbolWarn + " slow"},
		{RenderError("failed"), SymbolError + " failed"},
		{RenderState("booting"), "[booting]"},
		{RenderState("whatever"), "[whatever]"},
		{RenderLabel("PID:"), "PID:"},
		{RenderStrong("emulator-5554"), "emulator-5554"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestColorEnabled_DumbTerminal(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("TERM", "dumb")
	if ColorEnabled() {
		t.Error("TERM=dumb should disable color")
	}
}

func TestStateStyles_CoverReadinessStates(t *testing.T) {
	for _, state := range []string{"ready", "booting", "not_created", "not_running", "running_unknown_endpoint", "timed_out"} {
		if _, ok := stateStyles[state]; !ok {
			t.Errorf("no style for state %q", state)
		}
	}
	if strings.Contains(RenderState("ready"), "\033[") && !ColorEnabled() {
		t.Error("escape sequences emitted without color")
	}
}
