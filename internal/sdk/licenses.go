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
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Accepted licence hashes, written so sdkmanager runs unattended.
const (
	StandardLicenseHash = "d56f5187479451eabf01fb78af6dfcb131a6481e"
	PreviewLicenseHash  = "84831b9409646a918e30573bab4c9c91346d8abd"
)

// ErrLicenseDir is returned when the licences directory cannot be created.
var ErrLicenseDir = errors.New("licence directory does not exist and cannot be created")

// WriteLicenses writes the standard and preview licence acceptance files
// under <sdkRoot>/licenses.
func WriteLicenses(sdkRoot string) error {
	dir := filepath.Join(sdkRoot, "licenses")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLicenseDir, dir, err)
	}

	files := []struct {
		name, hash string
	}{
		{"android-sdk-license", StandardLicenseHash},
		{"android-sdk-preview-license", PreviewLicenseHash},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte("\n"+f.hash), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
