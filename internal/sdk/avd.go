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
	"fmt"
	"io"
	"log/slog"
	"strings"

	emulog "github.com/tombee/emuhelper/internal/log"
)

// DeviceSpec describes the AVD avdmanager should create.
type DeviceSpec struct {
	Name        string
	SystemImage string

	// Device is an optional hardware profile id, e.g. "pixel".
	Device string
}

// Args returns the avdmanager arguments for spec.
func (s DeviceSpec) Args() []string {
	args := []string{"create", "avd", "-f", "-n", s.Name, "-k", s.SystemImage}
	if d := strings.TrimSpace(s.Device); d != "" {
		args = append(args, "-d", d)
	}
	return args
}

// DeviceCreator creates AVDs with avdmanager.
type DeviceCreator struct {
	path   string
	runner toolRunner
	logger *slog.Logger
}

// NewDeviceCreator creates a DeviceCreator for the avdmanager at path.
func NewDeviceCreator(path string, logger *slog.Logger) *DeviceCreator {
	if logger == nil {
		logger = emulog.Discard()
	}
	return &DeviceCreator{
		path:   path,
		logger: emulog.WithComponent(logger, "avdmanager"),
	}
}

// WithOutput sends avdmanager output to w instead of stderr.
func (d *DeviceCreator) WithOutput(w io.Writer) *DeviceCreator {
	d.runner.out = w
	return d
}

// WithEnv runs avdmanager with env instead of the inherited environment.
func (d *DeviceCreator) WithEnv(env []string) *DeviceCreator {
	d.runner.env = env
	return d
}

// CreateDevice runs "avdmanager create avd", overwriting an existing AVD of
// the same name and declining the custom hardware profile prompt.
func (d *DeviceCreator) CreateDevice(ctx context.Context, spec DeviceSpec) error {
	if spec.Name == "" || spec.SystemImage == "" {
		return fmt.Errorf("device name and system image are required")
	}
	d.logger.Info("creating avd",
		slog.String(emulog.AVDKey, spec.Name),
		slog.String("system_image", spec.SystemImage))
	return d.runner.run(ctx, "avdmanager", d.path, spec.Args(), "no\n")
}
