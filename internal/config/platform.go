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
	"fmt"
	"path/filepath"
	"runtime"
)

// Platform identifies a host family the SDK ships binaries for.
type Platform int

const (
	PlatformLinux Platform = iota
	PlatformDarwin
	PlatformWindows
	platformCount
)

// NumPlatforms sizes tables indexed by Platform.
const NumPlatforms = int(platformCount)

var platformNames = [platformCount]string{
	PlatformLinux:   "linux",
	PlatformDarwin:  "darwin",
	PlatformWindows: "windows",
}

// Native binaries and batch scripts differ on windows only.
var (
	executableSuffix = [platformCount]string{
		PlatformWindows: ".exe",
	}
	scriptSuffix = [platformCount]string{
		PlatformWindows: ".bat",
	}
)

func (p Platform) String() string {
	if p < 0 || p >= platformCount {
		return fmt.Sprintf("Platform(%d)", int(p))
	}
	return platformNames[p]
}

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	return p >= 0 && p < platformCount
}

// ParsePlatform maps a GOOS-style name to a Platform.
func ParsePlatform(goos string) (Platform, error) {
	for p := Platform(0); p < platformCount; p++ {
		if platformNames[p] == goos {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unsupported platform %q", goos)
}

// CurrentPlatform returns the platform of the running host.
func CurrentPlatform() (Platform, error) {
	return ParsePlatform(runtime.GOOS)
}

// ToolPaths holds the absolute paths of the SDK binaries emuhelper drives.
type ToolPaths struct {
	SDKManager string
	AVDManager string
	Emulator   string
	ADB        string
}

// NewToolPaths lays out the SDK binaries under sdkRoot for platform p.
func NewToolPaths(sdkRoot string, p Platform) ToolPaths {
	exe := executableSuffix[p]
	script := scriptSuffix[p]
	return ToolPaths{
		SDKManager: filepath.Join(sdkRoot, "tools", "bin", "sdkmanager"+script),
		AVDManager: filepath.Join(sdkRoot, "tools", "bin", "avdmanager"+script),
		Emulator:   filepath.Join(sdkRoot, "emulator", "emulator"+exe),
		ADB:        filepath.Join(sdkRoot, "platform-tools", "adb"+exe),
	}
}
