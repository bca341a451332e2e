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
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsProcessRunning(t *testing.T) {
	ctx := context.Background()

	assert.True(t, IsProcessRunning(ctx, os.Getpid()), "current process")
	assert.False(t, IsProcessRunning(ctx, 0))
	assert.False(t, IsProcessRunning(ctx, -1))
	assert.False(t, IsProcessRunning(ctx, 999999999), "pid beyond pid_max")
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "SIGTERM", SignalTerm.String())
	assert.Equal(t, "SIGKILL", SignalKill.String())
	assert.Equal(t, "signal(9)", Signal(9).String())
}

func TestSendSignal_RefusesNonPositivePIDs(t *testing.T) {
	assert.Error(t, SendSignal(0, SignalTerm))
	assert.Error(t, SendSignal(-1, SignalKill))
}
