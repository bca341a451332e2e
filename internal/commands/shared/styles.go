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
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	strongStyle = lipgloss.NewStyle().Bold(true)
)

// Symbols prefixed to status lines.
const (
	SymbolOK    = "✓"
	SymbolWarn  = "⚠"
	SymbolError = "✗"
)

// stateStyles colours readiness states by how a CI job should read them.
// Unknown states render muted.
var stateStyles = map[string]lipgloss.Style{
	"ready":                    okStyle,
	"booting":                  warnStyle,
	"not_created":              errorStyle,
	"not_running":              errorStyle,
	"running_unknown_endpoint": errorStyle,
	"timed_out":                errorStyle,
}

// ColorEnabled reports whether stdout is a color-capable terminal.
// NO_COLOR, TERM=dumb and pipes disable color.
func ColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	termEnv := os.Getenv("TERM")
	if termEnv == "dumb" || termEnv == "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// paint applies style only when color is enabled, so logs captured by a CI
// server stay free of escape sequences.
func paint(style lipgloss.Style, s string) string {
	if !ColorEnabled() {
		return s
	}
	return style.Render(s)
}

// RenderOK renders a success line.
func RenderOK(msg string) string {
	return paint(okStyle, SymbolOK) + " " + msg
}

// RenderWarn renders a warning line.
func RenderWarn(msg string) string {
	return paint(warnStyle, SymbolWarn) + " " + msg
}

// RenderError renders a failure line.
func RenderError(msg string) string {
	return paint(errorStyle, SymbolError) + " " + msg
}

// RenderState renders a readiness state as [state].
func RenderState(state string) string {
	style, ok := stateStyles[state]
	if !ok {
		style = mutedStyle
	}
	return paint(style, "["+state+"]")
}

// RenderLabel renders a dim label for key: value pairs.
func RenderLabel(label string) string {
	return paint(mutedStyle, label)
}

// RenderStrong renders emphasized text such as a serial or AVD name.
func RenderStrong(s string) string {
	return paint(strongStyle, s)
}
