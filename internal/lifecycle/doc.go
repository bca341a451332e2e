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

/*
Package lifecycle holds the OS-facing building blocks for managing one
emulator instance: identity persistence, process and socket discovery,
signalling, detached spawning, timed polling and the lifecycle audit log.

# Identity

The instance name is generated once and stored as a single line in the
workspace. Every later invocation starts from that name:

	store := lifecycle.NewIdentityStore(cfg.IdentityFile())
	name, err := store.Read()
	if errors.Is(err, lifecycle.ErrNoIdentity) {
	    // never created
	}

# Discovery

The pid is never persisted. It is recomputed from the name on demand, and
the listening ports of that pid are read from the socket table:

	locator := lifecycle.NewLocator(lifecycle.SystemProcessLister{}, logger)
	pid, err := locator.FindPID(ctx, name)

	ports, err := lifecycle.NewSystemPortScanner().ListeningPorts(ctx, pid)

# Waiting

Poll and Retry are the only timing loops. Both take a Clock so tests can
drive them without sleeping:

	err := lifecycle.Poll(ctx, lifecycle.RealClock{}, time.Second, 10*time.Second,
	    func(ctx context.Context) (bool, error) {
	        return lifecycle.IsProcessRunning(ctx, pid), nil
	    })

# Lifecycle Logging

Create, start, wait and kill outcomes are appended to a JSONL file:

	events := lifecycle.NewEventLog(cfg.LifecycleLogPath())
	events.LogStartSuccess(name, pid, cfg.Start.Grace)
*/
package lifecycle
