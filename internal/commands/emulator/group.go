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

package emulator

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
	emulatorpkg "github.com/tombee/emuhelper/internal/emulator"
	emulog "github.com/tombee/emuhelper/internal/log"
)

// NewCommand creates the emulator command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "emulator",
		Annotations: map[string]string{
			"group": "lifecycle",
		},
		Short: "Manage the workspace emulator instance",
		Long: `Commands for the lifecycle of the single emulator instance owned by a
workspace.

Every "create" provisions a new uniquely named AVD and records its name in
$WORKSPACE/last_unique_avd_name.tmp. The other commands act on that
recorded instance: they find its process by command line, derive the
console/adb port pair from the sockets it listens on, and talk to it
through adb.`,
	}

	cmd.AddCommand(NewCreateCommand())
	cmd.AddCommand(NewStartCommand())
	cmd.AddCommand(NewWaitCommand())
	cmd.AddCommand(NewKillCommand())
	cmd.AddCommand(NewExecCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewForgetCommand())

	return cmd
}

// loadEnv and newController are replaced in tests.
var (
	loadEnv       = shared.LoadEnv
	newController = func(env *shared.Env) *emulatorpkg.Controller {
		return emulatorpkg.NewController(env.Config, emulatorpkg.Dependencies{Logger: env.Logger})
	}
)

// writeMetrics writes the textfile gauges; a failure only warns so the
// command keeps the exit code of the operation itself.
func writeMetrics(logger *slog.Logger, path string, observe func(*emulatorpkg.Metrics)) {
	if path == "" {
		return
	}
	m := emulatorpkg.NewMetrics()
	observe(m)
	if err := m.WriteTextfile(path); err != nil {
		logger.Warn("failed to write metrics", emulog.Error(err))
	}
}
