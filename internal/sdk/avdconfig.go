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
	"fmt"
	"os"
	"strings"

	"github.com/go-ini/ini"
)

func init() {
	// AVD config files are written as key=value without alignment.
	ini.PrettyFormat = false
	ini.PrettyEqual = false
}

var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	PreserveSurroundedQuote: true,
}

// ConfigEditor edits flat key=value files such as an AVD config.ini.
type ConfigEditor struct{}

// Set writes keyValue ("key=value") into the file at path, replacing any
// previous value of the key. The file must already exist.
func (ConfigEditor) Set(path, keyValue string) error {
	key, value, ok := strings.Cut(keyValue, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("invalid property %q: expected key=value", keyValue)
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	cfg, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.Section(ini.DefaultSection).Key(key).SetValue(strings.TrimSpace(value))

	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
