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

/*
Package cli provides the root command and shared configuration for the
emuhelper CLI.

This package creates the main Cobra command tree and handles global concerns like
version information, persistent flags, and error handling. Individual commands
are implemented in the internal/commands subpackages.

# Command Tree

	emuhelper
	├── emulator
	│   ├── create    Provision a new uniquely named AVD
	│   ├── start     Launch it in the background
	│   ├── wait      Block until boot completed
	│   ├── status    Observe the state once
	│   ├── exec      Run a command with ANDROID_SERIAL set
	│   ├── kill      Stop it, escalating to signals
	│   └── forget    Drop the recorded name
	├── sdk
	│   ├── tools     Install the SDK command line tools
	│   ├── licenses  Write licence acceptance files
	│   └── install   Install packages with sdkmanager
	├── config
	│   ├── show      Display the effective configuration
	│   ├── path      Show which config file is read
	│   └── validate  Check the configuration and SDK layout
	├── completion    Generate shell completion scripts
	├── version       Show version
	└── help          Show help

# Global Flags

	--verbose, -v   Enable debug logging
	--quiet, -q     Suppress non-error output
	--json          Output in JSON format
	--config        Path to config file

# Exit Codes

Errors returned by commands are mapped to exit codes by
shared.HandleExitError: 1 to 4 for the readiness states of the instance,
5 to 7 for SDK bootstrap failures, 78 for configuration problems, 100 for a
missing SDK binary and 70 for everything else. "emulator exec" exits with
the code of the command it ran.
*/
package cli
