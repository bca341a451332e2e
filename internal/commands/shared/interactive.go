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
	"strconv"

	"golang.org/x/term"
)

// ciMarker is an environment variable that identifies a CI runner.
type ciMarker struct {
	name string
	// anyValue accepts any non-empty value; otherwise it must parse as true.
	anyValue bool
}

var ciMarkers = []ciMarker{
	{name: "CI"},
	{name: "JENKINS_HOME", anyValue: true},
	{name: "GITHUB_ACTIONS"},
	{name: "GITLAB_CI"},
	{name: "CIRCLECI"},
	{name: "BUILDKITE"},
	{name: "BITRISE_IO"},
	{name: "TEAMCITY_VERSION", anyValue: true},
}

// IsNonInteractive reports whether output must avoid prompts and
// animation. EMUHELPER_NON_INTERACTIVE forces it; otherwise a CI runner or
// a stdin that is not a terminal implies it.
func IsNonInteractive() bool {
	if forced, err := strconv.ParseBool(os.Getenv("EMUHELPER_NON_INTERACTIVE")); err == nil && forced {
		return true
	}
	return CIRunner() != "" || !term.IsTerminal(int(os.Stdin.Fd()))
}

// CIRunner returns the name of the first CI marker present in the
// environment, or "" outside CI.
func CIRunner() string {
	for _, m := range ciMarkers {
		value := os.Getenv(m.name)
		if value == "" {
			continue
		}
		if m.anyValue {
			return m.name
		}
		if set, err := strconv.ParseBool(value); err == nil && set {
			return m.name
		}
	}
	return ""
}
