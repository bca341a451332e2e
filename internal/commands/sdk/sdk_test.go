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
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/emuhelper/internal/commands/shared"
	"github.com/tombee/emuhelper/internal/config"
	emulog "github.com/tombee/emuhelper/internal/log"
	sdkpkg "github.com/tombee/emuhelper/internal/sdk"
)

func setupCommand(t *testing.T, jsonOut bool) *config.Config {
	t.Helper()
	ws := t.TempDir()
	cfg := config.Default()
	cfg.Workspace = ws
	cfg.SDKRoot = filepath.Join(ws, "sdk")
	cfg.AVDHome = filepath.Join(ws, "avd")
	cfg.Platform = config.PlatformLinux
	cfg.Tools = config.NewToolPaths(cfg.SDKRoot, cfg.Platform)

	origLoad, origExec := loadEnv, isExecutable
	loadEnv = func() (*shared.Env, error) {
		return &shared.Env{Config: cfg, Logger: emulog.Discard()}, nil
	}
	restoreFlags := shared.SetFlagsForTest(false, false, jsonOut, "")
	t.Cleanup(func() {
		loadEnv, isExecutable = origLoad, origExec
		restoreFlags()
	})
	return cfg
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestLicenses(t *testing.T) {
	cfg := setupCommand(t, false)

	out, _, err := execute(t, NewCommand(), "licenses")
	require.NoError(t, err)
	assert.Contains(t, out, "Licences written")

	data, err := os.ReadFile(filepath.Join(cfg.SDKRoot, "licenses", "android-sdk-license"))
	require.NoError(t, err)
	assert.Equal(t, "\n"+sdkpkg.StandardLicenseHash, string(data))
}

func TestLicenses_DirectoryNotCreatable(t *testing.T) {
	cfg := setupCommand(t, false)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Workspace, "sdk"), []byte("a file"), 0o644))

	_, _, err := execute(t, NewCommand(), "licenses")
	require.Error(t, err)
	assert.Equal(t, shared.ExitLicenseDir, shared.ExitCodeFor(err))
}

func TestInstall_SDKManagerMissing(t *testing.T) {
	setupCommand(t, false)

	_, _, err := execute(t, NewCommand(), "install")
	require.Error(t, err)
	assert.Equal(t, shared.ExitToolMissing, shared.ExitCodeFor(err))
}

func TestInstall_RunsSDKManager(t *testing.T) {
	cfg := setupCommand(t, true)
	argsFile := filepath.Join(t.TempDir(), "args")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Tools.SDKManager), 0o755))
	script := "#!/bin/sh\ncat > /dev/null\necho \"$@\" > " + argsFile + "\n"
	require.NoError(t, os.WriteFile(cfg.Tools.SDKManager, []byte(script), 0o755))

	out, _, err := execute(t, NewCommand(), "install", "--platform", "28", "--build-tools", "28.0.3")
	require.NoError(t, err)
	assert.Contains(t, out, `"platforms;android-28"`)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "platform-tools build-tools;28.0.3 platforms;android-28", strings.TrimSpace(string(data)))
}

func TestTools_ChecksumMismatch(t *testing.T) {
	setupCommand(t, false)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "tools.zip", time.Time{}, strings.NewReader("not the pinned archive"))
	}))
	defer server.Close()

	_, _, err := execute(t, NewCommand(), "tools", "--base-url", server.URL)
	require.Error(t, err)
	assert.Equal(t, shared.ExitChecksum, shared.ExitCodeFor(err))
}

func TestNewCommand(t *testing.T) {
	cmd := NewCommand()
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"tools", "licenses", "install"}, names)
}
