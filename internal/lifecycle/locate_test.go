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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	procs []ProcessInfo
	err   error
}

func (s staticLister) Processes(context.Context) ([]ProcessInfo, error) {
	return s.procs, s.err
}

func TestLocator_FindPID(t *testing.T) {
	const name = "0f1e2d3c4b5a69788796a5b4c3d2e1f0"

	tests := []struct {
		name  string
		procs []ProcessInfo
		want  int
	}{
		{
			name: "single match",
			procs: []ProcessInfo{
				{PID: 10, PPID: 1, Args: []string{"/bin/bash"}},
				{PID: 4242, PPID: 1, Args: []string{"/sdk/emulator/emulator", "-avd", name, "-no-window"}},
			},
			want: 4242,
		},
		{
			name:  "no match",
			procs: []ProcessInfo{{PID: 10, PPID: 1, Args: []string{"/bin/bash"}}},
			want:  0,
		},
		{
			name: "other instance does not match",
			procs: []ProcessInfo{
				{PID: 77, PPID: 1, Args: []string{"emulator", "-avd", "someone-else"}},
			},
			want: 0,
		},
		{
			name: "launcher parent is dropped in favour of the qemu child",
			procs: []ProcessInfo{
				{PID: 100, PPID: 1, Args: []string{"emulator", "-avd", name}},
				{PID: 101, PPID: 100, Args: []string{"qemu-system-x86_64", "-avd", name}},
			},
			want: 101,
		},
		{
			name: "two unrelated matches are ambiguous",
			procs: []ProcessInfo{
				{PID: 100, PPID: 1, Args: []string{"emulator", "-avd", name}},
				{PID: 200, PPID: 1, Args: []string{"emulator", "-avd", name}},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locator := NewLocator(staticLister{procs: tt.procs}, nil)
			pid, err := locator.FindPID(context.Background(), name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pid)
		})
	}
}

func TestLocator_SkipsSelf(t *testing.T) {
	locator := NewLocator(staticLister{}, nil)
	locator.lister = staticLister{procs: []ProcessInfo{
		{PID: locator.self, PPID: 1, Args: []string{"pgrep", "-f", "avd abc"}},
	}}

	pid, err := locator.FindPID(context.Background(), "abc")
	require.NoError(t, err)
	assert.Zero(t, pid)
}

func TestLocator_EmptyName(t *testing.T) {
	locator := NewLocator(staticLister{err: errors.New("must not be called")}, nil)
	pid, err := locator.FindPID(context.Background(), "  ")
	require.NoError(t, err)
	assert.Zero(t, pid)
}

func TestLocator_ListerError(t *testing.T) {
	locator := NewLocator(staticLister{err: errors.New("proc unreadable")}, nil)
	_, err := locator.FindPID(context.Background(), "abc")
	assert.ErrorContains(t, err, "proc unreadable")
}
