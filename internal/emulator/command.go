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

package emulator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tombee/emuhelper/internal/config"
)

// StartOptions controls how the emulator is launched.
type StartOptions struct {
	// Window shows the emulator UI; CI runs are headless by default.
	Window bool

	// Audio keeps the audio backend enabled.
	Audio bool

	// Locale such as "en_US" or "de-AT" sets the guest language and
	// country on first boot.
	Locale string

	// WipeData resets user data before booting.
	WipeData bool

	// Flags are appended verbatim to the emulator command line.
	Flags []string
}

var localePattern = regexp.MustCompile(`^([a-z]{2,3})[_-]([A-Z]{2})$`)

// ParseLocale splits a locale into language and country.
func ParseLocale(locale string) (language, country string, err error) {
	m := localePattern.FindStringSubmatch(strings.TrimSpace(locale))
	if m == nil {
		return "", "", invalidSpec("locale", fmt.Sprintf("%q is not of the form xx_YY", locale), "Use a language_COUNTRY pair such as en_US")
	}
	return m[1], m[2], nil
}

// LaunchArgs builds the emulator arguments for instance name.
func LaunchArgs(name string, opts StartOptions) ([]string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidSpec("name", "empty instance name", "")
	}

	args := []string{"-avd", name}
	if !opts.Window {
		args = append(args, "-no-window")
	}
	if !opts.Audio {
		args = append(args, "-no-audio")
	}
	if opts.Locale != "" {
		language, country, err := ParseLocale(opts.Locale)
		if err != nil {
			return nil, err
		}
		args = append(args,
			"-prop", "persist.sys.language="+language,
			"-prop", "persist.sys.country="+country)
	}
	if opts.WipeData {
		args = append(args, "-wipe-data")
	}
	for _, flag := range opts.Flags {
		if flag = strings.TrimSpace(flag); flag != "" {
			args = append(args, flag)
		}
	}
	return args, nil
}

// AndroidEnv returns base with ANDROID_SDK_ROOT and ANDROID_AVD_HOME set
// to the resolved locations. avdmanager and the emulator both run with it,
// so locations that came from a config file reach the SDK tools.
func AndroidEnv(cfg *config.Config, base []string) []string {
	overrides := map[string]string{
		"ANDROID_SDK_ROOT": cfg.SDKRoot,
		"ANDROID_AVD_HOME": cfg.AVDHome,
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	for _, key := range []string{"ANDROID_SDK_ROOT", "ANDROID_AVD_HOME"} {
		if val := overrides[key]; val != "" {
			env = append(env, key+"="+val)
		}
	}
	return env
}
