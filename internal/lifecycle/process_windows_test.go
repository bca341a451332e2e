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

package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSignal_Unsupported(t *testing.T) {
	err := HostSignaler{}.Signal(os.Getpid(), SignalTerm)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestIsExecutable_Extension(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "adb.exe")
	require.NoError(t, os.WriteFile(exe, []byte("MZ"), 0o644))
	assert.True(t, IsExecutable(exe))

	script := filepath.Join(dir, "avdmanager.bat")
	require.NoError(t, os.WriteFile(script, []byte("@echo off"), 0o644))
	assert.True(t, IsExecutable(script))
}
