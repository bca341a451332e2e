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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceSpec_Args(t *testing.T) {
	spec := DeviceSpec{Name: "abc", SystemImage: "system-images;android-27;default;x86"}
	assert.Equal(t,
		[]string{"create", "avd", "-f", "-n", "abc", "-k", "system-images;android-27;default;x86"},
		spec.Args())

	spec.Device = "pixel"
	assert.Equal(t, []string{"-d", "pixel"}, spec.Args()[7:])
}

func TestDeviceCreator_CreateDevice(t *testing.T) {
	dir := t.TempDir()
	avdmanager := writeScript(t, dir, "avdmanager", "exit 0")

	creator := NewDeviceCreator(avdmanager, nil).WithOutput(&strings.Builder{})
	err := creator.CreateDevice(context.Background(), DeviceSpec{
		Name:        "abc",
		SystemImage: "system-images;android-27;default;x86",
		Device:      "Nexus 5",
	})
	require.NoError(t, err)

	assert.Equal(t, "create avd -f -n abc -k system-images;android-27;default;x86 -d Nexus 5", readFile(t, avdmanager+".args"))
	assert.Equal(t, "no", readFile(t, avdmanager+".stdin"))
}

func TestDeviceCreator_WithEnv(t *testing.T) {
	dir := t.TempDir()
	avdmanager := writeScript(t, dir, "avdmanager", `echo "$ANDROID_AVD_HOME" > "`+filepath.Join(dir, "home")+`"`)

	creator := NewDeviceCreator(avdmanager, nil).
		WithOutput(&strings.Builder{}).
		WithEnv([]string{"ANDROID_AVD_HOME=/ws/avd", "PATH=" + os.Getenv("PATH")})
	err := creator.CreateDevice(context.Background(), DeviceSpec{Name: "abc", SystemImage: "img"})
	require.NoError(t, err)

	assert.Equal(t, "/ws/avd", readFile(t, filepath.Join(dir, "home")))
}

func TestDeviceCreator_RequiresNameAndImage(t *testing.T) {
	creator := NewDeviceCreator(filepath.Join(t.TempDir(), "avdmanager"), nil)
	assert.Error(t, creator.CreateDevice(context.Background(), DeviceSpec{Name: "abc"}))
	assert.Error(t, creator.CreateDevice(context.Background(), DeviceSpec{SystemImage: "x"}))
}

func TestDeviceCreator_MissingBinary(t *testing.T) {
	creator := NewDeviceCreator(filepath.Join(t.TempDir(), "avdmanager"), nil).WithOutput(&strings.Builder{})
	err := creator.CreateDevice(context.Background(), DeviceSpec{Name: "abc", SystemImage: "x"})
	assert.Error(t, err)
}
