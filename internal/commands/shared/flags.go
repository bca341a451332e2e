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

// globalFlags holds the persistent flags of the root command.
type globalFlags struct {
	verbose    bool
	quiet      bool
	json       bool
	configPath string
}

// BuildInfo describes the binary, injected through ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var (
	flags globalFlags
	build = BuildInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}
)

// RegisterFlagPointers returns the verbose, quiet, json and config flag
// targets for the root command to bind.
func RegisterFlagPointers() (*bool, *bool, *bool, *string) {
	return &flags.verbose, &flags.quiet, &flags.json, &flags.configPath
}

// SetVersion records build information (called from main).
func SetVersion(v, c, b string) {
	build = BuildInfo{Version: v, Commit: c, BuildDate: b}
}

// GetVersion returns version, commit and build date.
func GetVersion() (string, string, string) {
	return build.Version, build.Commit, build.BuildDate
}

// GetVerbose reports --verbose.
func GetVerbose() bool { return flags.verbose }

// GetQuiet reports --quiet.
func GetQuiet() bool { return flags.quiet }

// GetJSON reports --json.
func GetJSON() bool { return flags.json }

// GetConfigPath returns --config, empty when unset.
func GetConfigPath() string { return flags.configPath }

// SetFlagsForTest overrides the global flags and returns a func restoring
// the previous values.
func SetFlagsForTest(verbose, quiet, json bool, configPath string) func() {
	saved := flags
	flags = globalFlags{verbose: verbose, quiet: quiet, json: json, configPath: configPath}
	return func() { flags = saved }
}
