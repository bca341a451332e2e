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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/emuhelper/internal/config"
	emuerrors "github.com/tombee/emuhelper/pkg/errors"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		locale   string
		language string
		country  string
		wantErr  bool
	}{
		{locale: "en_US", language: "en", country: "US"},
		{locale: "de-AT", language: "de", country: "AT"},
		{locale: "fil_PH", language: "fil", country: "PH"},
		{locale: " fr_FR ", language: "fr", country: "FR"},
		{locale: "en", wantErr: true},
		{locale: "EN_us", wantErr: true},
		{locale: "en_USA", wantErr: true},
		{locale: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			language, country, err := ParseLocale(tt.locale)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSpec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.language, language)
			assert.Equal(t, tt.country, country)
		})
	}
}

func TestLaunchArgs(t *testing.T) {
	tests := []struct {
		name string
		opts StartOptions
		want []string
	}{
		{
			name: "headless defaults",
			want: []string{"-avd", "abc", "-no-window", "-no-audio"},
		},
		{
			name: "window and audio",
			opts: StartOptions{Window: true, Audio: true},
			want: []string{"-avd", "abc"},
		},
		{
			name: "locale and wipe",
			opts: StartOptions{Locale: "en_GB", WipeData: true},
			want: []string{
				"-avd", "abc", "-no-window", "-no-audio",
				"-prop", "persist.sys.language=en",
				"-prop", "persist.sys.country=GB",
				"-wipe-data",
			},
		},
		{
			name: "extra flags appended last",
			opts: StartOptions{Flags: []string{"-gpu", "", " swiftshader_indirect "}},
			want: []string{"-avd", "abc", "-no-window", "-no-audio", "-gpu", "swiftshader_indirect"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := LaunchArgs("abc", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, args)
		})
	}
}

func TestLaunchArgs_Invalid(t *testing.T) {
	_, err := LaunchArgs("", StartOptions{})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = LaunchArgs("abc", StartOptions{Locale: "nope"})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	var verr *emuerrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "locale", verr.Field)
	assert.NotEmpty(t, verr.Suggestion())
}

func TestAndroidEnv(t *testing.T) {
	cfg := config.Default()
	cfg.SDKRoot = "/sdk"
	cfg.AVDHome = "/ws/avd"

	env := AndroidEnv(cfg, []string{"PATH=/usr/bin", "ANDROID_AVD_HOME=/home/ci/.android/avd", "HOME=/home/ci"})
	assert.Equal(t, []string{
		"PATH=/usr/bin",
		"HOME=/home/ci",
		"ANDROID_SDK_ROOT=/sdk",
		"ANDROID_AVD_HOME=/ws/avd",
	}, env)

	cfg.SDKRoot = ""
	assert.NotContains(t, AndroidEnv(cfg, nil), "ANDROID_SDK_ROOT=")
}
