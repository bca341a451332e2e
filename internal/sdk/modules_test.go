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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emuerrors "github.com/tombee/emuhelper/pkg/errors"
)

func TestModules(t *testing.T) {
	tests := []struct {
		name string
		req  InstallRequest
		want []string
	}{
		{
			name: "defaults",
			req:  InstallRequest{},
			want: []string{"platform-tools", "build-tools;27.0.1", "platforms;android-27"},
		},
		{
			name: "explicit versions and ndk",
			req:  InstallRequest{BuildTools: "28.0.3", Platform: "28", NDK: true},
			want: []string{"platform-tools", "ndk-bundle", "build-tools;28.0.3", "platforms;android-28"},
		},
		{
			name: "malformed versions fall back to defaults",
			req:  InstallRequest{BuildTools: "28.0", Platform: "P"},
			want: []string{"platform-tools", "build-tools;27.0.1", "platforms;android-27"},
		},
		{
			name: "system image adds emulator",
			req:  InstallRequest{SystemImage: "system-images;android-27;default;x86"},
			want: []string{
				"platform-tools", "build-tools;27.0.1", "platforms;android-27",
				"emulator", "system-images;android-27;default;x86",
			},
		},
		{
			name: "google apis image in add-on range",
			req:  InstallRequest{SystemImage: "system-images;android-24;google_apis;x86"},
			want: []string{
				"platform-tools", "build-tools;27.0.1", "platforms;android-27",
				"emulator", "system-images;android-24;google_apis;x86",
				"add-ons;addon-google_apis-google-24",
			},
		},
		{
			name: "google apis image above add-on range",
			req:  InstallRequest{SystemImage: "system-images;android-25;google_apis;x86"},
			want: []string{
				"platform-tools", "build-tools;27.0.1", "platforms;android-27",
				"emulator", "system-images;android-25;google_apis;x86",
			},
		},
		{
			name: "google apis image below add-on range",
			req:  InstallRequest{SystemImage: "system-images;android-14;google_apis;armeabi-v7a"},
			want: []string{
				"platform-tools", "build-tools;27.0.1", "platforms;android-27",
				"emulator", "system-images;android-14;google_apis;armeabi-v7a",
			},
		},
		{
			name: "non system-image descriptor is ignored",
			req:  InstallRequest{SystemImage: "add-ons;something"},
			want: []string{"platform-tools", "build-tools;27.0.1", "platforms;android-27"},
		},
		{
			name: "extra modules appended and blanks dropped",
			req:  InstallRequest{ExtraModules: []string{"cmake;3.6.4111459", " ", "lldb;3.1"}},
			want: []string{
				"platform-tools", "build-tools;27.0.1", "platforms;android-27",
				"cmake;3.6.4111459", "lldb;3.1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Modules(tt.req, nil))
		})
	}
}

// writeScript creates an executable shell script standing in for an SDK
// binary. It records its arguments and stdin next to itself.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" +
		"echo \"$@\" > \"" + path + ".args\"\n" +
		"cat > \"" + path + ".stdin\"\n" +
		body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

func TestInstaller_Install(t *testing.T) {
	dir := t.TempDir()
	sdkmanager := writeScript(t, dir, "sdkmanager", "exit 0")

	installer := NewInstaller(sdkmanager, nil).WithOutput(&strings.Builder{})
	err := installer.Install(context.Background(), InstallRequest{SystemImage: "system-images;android-27;google_apis;x86"})
	require.NoError(t, err)

	assert.Equal(t,
		"platform-tools build-tools;27.0.1 platforms;android-27 emulator system-images;android-27;google_apis;x86",
		readFile(t, sdkmanager+".args"))
	assert.Equal(t, "y", readFile(t, sdkmanager+".stdin"))
}

func TestInstaller_FailureIsToolError(t *testing.T) {
	dir := t.TempDir()
	sdkmanager := writeScript(t, dir, "sdkmanager", "echo 'Failed to find package' >&2; exit 1")

	err := NewInstaller(sdkmanager, nil).WithOutput(&strings.Builder{}).Install(context.Background(), InstallRequest{})
	require.Error(t, err)

	var toolErr *emuerrors.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "sdkmanager", toolErr.Tool)
	assert.Equal(t, 1, toolErr.ExitCode)
	assert.Contains(t, toolErr.Output, "Failed to find package")
}

func TestTailBuffer(t *testing.T) {
	var tb tailBuffer
	tb.Write([]byte(strings.Repeat("a", maxCapturedOutput)))
	tb.Write([]byte("tail"))

	assert.Len(t, tb.String(), maxCapturedOutput)
	assert.True(t, strings.HasSuffix(tb.String(), "tail"))
}
