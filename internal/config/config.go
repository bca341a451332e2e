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

// Package config loads the immutable emuhelper configuration: workspace and
// SDK locations, the emulator port range and every timing budget used by the
// discovery and lifecycle code.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	emuerrors "github.com/tombee/emuhelper/pkg/errors"
)

// WorkspaceConfigName is the per-workspace config file picked up when no
// explicit path is given.
const WorkspaceConfigName = ".emuhelper.yaml"

// Config is the complete emuhelper configuration. It is built once by Load
// and passed by value or pointer into every component; nothing mutates it
// afterwards.
type Config struct {
	// Workspace is the job workspace. The identity file and logs live here.
	Workspace string `yaml:"workspace,omitempty"`

	// SDKRoot is the Android SDK directory (ANDROID_SDK_ROOT).
	SDKRoot string `yaml:"sdk_root,omitempty"`

	// AVDHome is the directory holding <name>.avd folders (ANDROID_AVD_HOME).
	AVDHome string `yaml:"avd_home,omitempty"`

	Ports   PortsConfig   `yaml:"ports,omitempty"`
	Resolve ResolveConfig `yaml:"resolve,omitempty"`
	Boot    BootConfig    `yaml:"boot,omitempty"`
	Start   StartConfig   `yaml:"start,omitempty"`
	Kill    KillConfig    `yaml:"kill,omitempty"`
	ADB     ADBConfig     `yaml:"adb,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`

	// Platform and Tools are derived from the host and SDKRoot during Load.
	Platform Platform  `yaml:"-"`
	Tools    ToolPaths `yaml:"-"`
}

// PortsConfig describes the console/adb port range the emulator allocates
// pairs from. Base must be even; each instance uses Base+2k and Base+2k+1.
type PortsConfig struct {
	Base  int `yaml:"base,omitempty"`
	Width int `yaml:"width,omitempty"`
}

// ResolveConfig bounds the endpoint retry loop.
type ResolveConfig struct {
	Attempts int           `yaml:"attempts,omitempty"`
	Delay    time.Duration `yaml:"delay,omitempty"`
}

// BootConfig bounds the readiness wait.
type BootConfig struct {
	// ProcessWait is how long to wait for the emulator process to appear.
	ProcessWait time.Duration `yaml:"process_wait,omitempty"`

	// ProcessPollInterval is the interval between process lookups.
	ProcessPollInterval time.Duration `yaml:"process_poll_interval,omitempty"`

	// PollInterval is the interval between boot property reads.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// Timeout is the maximum time spent polling the boot property.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// StartConfig configures the launch grace period.
type StartConfig struct {
	Grace time.Duration `yaml:"grace,omitempty"`
}

// KillConfig configures the escalating shutdown.
type KillConfig struct {
	// TermAfter is when SIGTERM is sent if the process is still alive.
	TermAfter time.Duration `yaml:"term_after,omitempty"`

	// ForceAfter is when SIGKILL is sent; the kill returns right after.
	ForceAfter time.Duration `yaml:"force_after,omitempty"`

	// PollInterval is the interval between liveness checks.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// ADBConfig bounds each adb invocation.
type ADBConfig struct {
	// Timeout is the deadline for a single adb call such as getprop or
	// "emu kill". A wedged emulator console cannot stall a command past it.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a Config populated with the built-in defaults. Paths are
// left empty; they must come from the environment or a config file.
func Default() *Config {
	return &Config{
		Ports: PortsConfig{
			Base:  5554,
			Width: 30,
		},
		Resolve: ResolveConfig{
			Attempts: 10,
			Delay:    3 * time.Second,
		},
		Boot: BootConfig{
			ProcessWait:         10 * time.Second,
			ProcessPollInterval: time.Second,
			PollInterval:        5 * time.Second,
			Timeout:             300 * time.Second,
		},
		Start: StartConfig{
			Grace: 5 * time.Second,
		},
		Kill: KillConfig{
			TermAfter:    5 * time.Second,
			ForceAfter:   15 * time.Second,
			PollInterval: time.Second,
		},
		ADB: ADBConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file, then the
// environment, then validation. An empty configPath selects
// $WORKSPACE/.emuhelper.yaml or the user config file when either exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	path, err := ResolvePath(configPath)
	if err != nil {
		return nil, &emuerrors.ConfigError{Key: "config_file", Reason: "failed to locate config file", Cause: err}
	}

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, &emuerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", path),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	platform, err := CurrentPlatform()
	if err != nil {
		return nil, &emuerrors.ConfigError{Key: "platform", Reason: "unsupported host", Cause: err}
	}
	cfg.Platform = platform

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Tools = NewToolPaths(cfg.SDKRoot, cfg.Platform)
	return cfg, nil
}

// ResolvePath picks the config file to read. An explicit path must
// exist; implicit candidates are skipped when missing.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return expandHome(explicit)
	}

	var candidates []string
	if ws := os.Getenv("WORKSPACE"); ws != "" {
		candidates = append(candidates, filepath.Join(ws, WorkspaceConfigName))
	}
	if userPath, err := ConfigPath(); err == nil {
		candidates = append(candidates, userPath)
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	d := Default()

	if c.Ports.Base == 0 {
		c.Ports.Base = d.Ports.Base
	}
	if c.Ports.Width == 0 {
		c.Ports.Width = d.Ports.Width
	}
	if c.Resolve.Attempts == 0 {
		c.Resolve.Attempts = d.Resolve.Attempts
	}
	if c.Resolve.Delay == 0 {
		c.Resolve.Delay = d.Resolve.Delay
	}
	if c.Boot.ProcessWait == 0 {
		c.Boot.ProcessWait = d.Boot.ProcessWait
	}
	if c.Boot.ProcessPollInterval == 0 {
		c.Boot.ProcessPollInterval = d.Boot.ProcessPollInterval
	}
	if c.Boot.PollInterval == 0 {
		c.Boot.PollInterval = d.Boot.PollInterval
	}
	if c.Boot.Timeout == 0 {
		c.Boot.Timeout = d.Boot.Timeout
	}
	if c.Start.Grace == 0 {
		c.Start.Grace = d.Start.Grace
	}
	if c.Kill.TermAfter == 0 {
		c.Kill.TermAfter = d.Kill.TermAfter
	}
	if c.Kill.ForceAfter == 0 {
		c.Kill.ForceAfter = d.Kill.ForceAfter
	}
	if c.Kill.PollInterval == 0 {
		c.Kill.PollInterval = d.Kill.PollInterval
	}
	if c.ADB.Timeout == 0 {
		c.ADB.Timeout = d.ADB.Timeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
// The three location variables are the contract with the CI job; the
// EMUHELPER_* variables override individual budgets. A malformed override
// is a ConfigError rather than a silent fallback to the default.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv("WORKSPACE"); val != "" {
		c.Workspace = val
	}
	if val := os.Getenv("ANDROID_SDK_ROOT"); val != "" {
		c.SDKRoot = val
	}
	if val := os.Getenv("ANDROID_AVD_HOME"); val != "" {
		c.AVDHome = val
	} else if val := os.Getenv("ANDROID_EMULATOR_HOME"); val != "" && c.AVDHome == "" {
		c.AVDHome = filepath.Join(val, "avd")
	}

	ints := []struct {
		key    string
		target *int
	}{
		{"EMUHELPER_PORT_BASE", &c.Ports.Base},
		{"EMUHELPER_PORT_WIDTH", &c.Ports.Width},
	}
	for _, e := range ints {
		val := os.Getenv(e.key)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return &emuerrors.ConfigError{Key: e.key, Reason: fmt.Sprintf("%q is not an integer", val), Cause: err}
		}
		*e.target = n
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"EMUHELPER_BOOT_TIMEOUT", &c.Boot.Timeout},
		{"EMUHELPER_START_GRACE", &c.Start.Grace},
		{"EMUHELPER_KILL_TERM_AFTER", &c.Kill.TermAfter},
		{"EMUHELPER_KILL_FORCE_AFTER", &c.Kill.ForceAfter},
		{"EMUHELPER_ADB_TIMEOUT", &c.ADB.Timeout},
	}
	for _, e := range durations {
		val := os.Getenv(e.key)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return &emuerrors.ConfigError{
				Key:    e.key,
				Reason: fmt.Sprintf("%q is not a duration (use a unit, e.g. 300s)", val),
				Cause:  err,
			}
		}
		*e.target = d
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	return nil
}

// IdentityFile is the path of the persisted unique AVD name.
func (c *Config) IdentityFile() string {
	return filepath.Join(c.Workspace, "last_unique_avd_name.tmp")
}

// StateDir holds emuhelper's own files inside the workspace.
func (c *Config) StateDir() string {
	return filepath.Join(c.Workspace, ".emuhelper")
}

// LifecycleLogPath is the JSONL audit log of instance events.
func (c *Config) LifecycleLogPath() string {
	return filepath.Join(c.StateDir(), "lifecycle.log")
}

// EmulatorLogPath receives the emulator's stdout and stderr.
func (c *Config) EmulatorLogPath() string {
	return filepath.Join(c.Workspace, "emulator.log")
}

// AVDConfigFile is the config.ini of the named AVD.
func (c *Config) AVDConfigFile(name string) string {
	return filepath.Join(c.AVDHome, name+".avd", "config.ini")
}
