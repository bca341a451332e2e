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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNoIdentity is returned when no instance has been created in the
	// workspace.
	ErrNoIdentity = errors.New("no instance identity recorded")

	// ErrUnsafeDirectory is returned when the identity file would live in a
	// world-writable directory.
	ErrUnsafeDirectory = errors.New("identity directory is world-writable")
)

// NewIdentity generates a fresh instance name: 32 lowercase hex characters.
func NewIdentity() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IdentityStore persists the name of the current instance as a single line
// in a file. The name is written once by create and only read afterwards.
type IdentityStore struct {
	path string
}

// NewIdentityStore creates a store for the file at path.
func NewIdentityStore(path string) *IdentityStore {
	return &IdentityStore{path: path}
}

// Path returns the identity file location.
func (s *IdentityStore) Path() string {
	return s.path
}

// Save writes name, replacing any previous identity.
func (s *IdentityStore) Save(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("invalid instance name %q", name)
	}

	dir := filepath.Dir(s.path)
	if err := verifyDirectorySafety(dir); err != nil {
		return fmt.Errorf("unsafe identity file location: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}

	if err := os.WriteFile(s.path, []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	return nil
}

// Read returns the recorded name, or ErrNoIdentity when the file is
// missing or blank.
func (s *IdentityStore) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoIdentity
		}
		return "", fmt.Errorf("failed to read identity file: %w", err)
	}

	name, _, _ := strings.Cut(string(data), "\n")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNoIdentity
	}
	return name, nil
}

// Remove deletes the identity file. A missing file is not an error.
func (s *IdentityStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove identity file: %w", err)
	}
	return nil
}

// verifyDirectorySafety rejects world-writable directories without the
// sticky bit, where another user could swap the file for a symlink.
func verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	mode := info.Mode()
	if mode&0o002 != 0 && mode&os.ModeSticky == 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}
	return nil
}
