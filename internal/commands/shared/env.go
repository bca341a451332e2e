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
	"log/slog"
	"os"

	"github.com/tombee/emuhelper/internal/config"
	emulog "github.com/tombee/emuhelper/internal/log"
)

// Env is the loaded configuration and logger every command runs with.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
}

// LoadEnv loads the configuration named by --config (or the default
// locations) and builds the logger. Failures exit with ExitConfig.
func LoadEnv() (*Env, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, NewConfigError("failed to load configuration", err)
	}
	return &Env{Config: cfg, Logger: NewLogger(cfg)}, nil
}

// NewLogger builds the command logger. EMUHELPER_DEBUG and
// EMUHELPER_LOG_LEVEL take precedence over the config file; --verbose and
// --quiet take precedence over both.
func NewLogger(cfg *config.Config) *slog.Logger {
	lc := emulog.FromEnv()
	if cfg != nil {
		if os.Getenv("EMUHELPER_DEBUG") == "" && os.Getenv("EMUHELPER_LOG_LEVEL") == "" && cfg.Log.Level != "" {
			lc.Level = cfg.Log.Level
		}
		if cfg.Log.Format != "" {
			lc.Format = emulog.Format(cfg.Log.Format)
		}
	}

	switch {
	case GetVerbose():
		lc.Level = "debug"
	case GetQuiet():
		lc.Level = "warn"
	}
	return emulog.New(lc)
}
