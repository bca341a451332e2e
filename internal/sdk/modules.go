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

package sdk

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	emulog "github.com/tombee/emuhelper/internal/log"
)

// Default package versions used when none or a malformed one is requested.
const (
	DefaultBuildTools = "27.0.1"
	DefaultPlatform   = "27"
)

// Package names sdkmanager understands.
const (
	ModulePlatformTools = "platform-tools"
	ModuleNDK           = "ndk-bundle"
	ModuleEmulator      = "emulator"

	systemImageType = "system-images"
	googleAPIs      = "google_apis"
)

var (
	buildToolsPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	platformPattern   = regexp.MustCompile(`^\d+$`)
)

// InstallRequest lists what sdkmanager should install.
type InstallRequest struct {
	// BuildTools is a version such as "27.0.1".
	BuildTools string

	// Platform is an API level such as "27".
	Platform string

	// SystemImage has the form "type;platform;vendor[;arch]".
	SystemImage string

	// NDK adds the ndk-bundle package.
	NDK bool

	// ExtraModules are appended verbatim.
	ExtraModules []string
}

// Modules expands req into sdkmanager package names. Malformed versions
// fall back to the defaults with a warning.
func Modules(req InstallRequest, logger *slog.Logger) []string {
	if logger == nil {
		logger = emulog.Discard()
	}

	modules := []string{ModulePlatformTools}
	if req.NDK {
		modules = append(modules, ModuleNDK)
	}

	buildTools := DefaultBuildTools
	if v := strings.TrimSpace(req.BuildTools); v != "" {
		if buildToolsPattern.MatchString(v) {
			buildTools = v
		} else {
			logger.Warn("build-tools version does not look valid, using default",
				slog.String("requested", v), slog.String("default", DefaultBuildTools))
		}
	}
	modules = append(modules, "build-tools;"+buildTools)

	platform := DefaultPlatform
	if v := strings.TrimSpace(req.Platform); v != "" {
		if platformPattern.MatchString(v) {
			platform = v
		} else {
			logger.Warn("platform version does not look valid, using default",
				slog.String("requested", v), slog.String("default", DefaultPlatform))
		}
	}
	modules = append(modules, "platforms;android-"+platform)

	if image := strings.TrimSpace(req.SystemImage); image != "" {
		modules = append(modules, systemImageModules(image)...)
	}

	for _, m := range req.ExtraModules {
		if m = strings.TrimSpace(m); m != "" {
			modules = append(modules, m)
		}
	}
	return modules
}

// systemImageModules returns the emulator, the image itself and, for
// google_apis images of API 15 to 24, the matching add-on.
func systemImageModules(image string) []string {
	parts := strings.Split(image, ";")
	if parts[0] != systemImageType {
		return nil
	}

	modules := []string{ModuleEmulator, image}
	if len(parts) < 3 || parts[2] != googleAPIs {
		return modules
	}

	_, levelStr, ok := strings.Cut(parts[1], "-")
	if !ok {
		return modules
	}
	level, err := strconv.Atoi(levelStr)
	if err != nil {
		return modules
	}
	if level >= 15 && level <= 24 {
		modules = append(modules, "add-ons;addon-google_apis-google-"+strconv.Itoa(level))
	}
	return modules
}

// Installer installs packages with sdkmanager.
type Installer struct {
	path   string
	runner toolRunner
	logger *slog.Logger
}

// NewInstaller creates an installer for the sdkmanager at path.
func NewInstaller(path string, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = emulog.Discard()
	}
	return &Installer{
		path:   path,
		logger: emulog.WithComponent(logger, "sdkmanager"),
	}
}

// WithOutput sends sdkmanager output to w instead of stderr.
func (i *Installer) WithOutput(w io.Writer) *Installer {
	i.runner.out = w
	return i
}

// Install runs sdkmanager for every module of req, answering "y" to the
// licence prompt.
func (i *Installer) Install(ctx context.Context, req InstallRequest) error {
	modules := Modules(req, i.logger)
	i.logger.Info("installing sdk packages", slog.Any("packages", modules))
	return i.runner.run(ctx, "sdkmanager", i.path, modules, "y\n")
}
