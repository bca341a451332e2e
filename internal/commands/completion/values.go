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

package completion

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/emuhelper/internal/commands/shared"
	"github.com/tombee/emuhelper/internal/config"
)

// SafeCompletionWrapper wraps a completion function with panic recovery.
func SafeCompletionWrapper(fn func() ([]string, cobra.ShellCompDirective)) (results []string, directive cobra.ShellCompDirective) {
	results = []string{}
	directive = cobra.ShellCompDirectiveNoFileComp

	defer func() {
		if r := recover(); r != nil {
			results = []string{}
			directive = cobra.ShellCompDirectiveNoFileComp
		}
	}()

	results, directive = fn()
	if results == nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	return results, directive
}

// CompleteSystemImages completes --image with the system images installed
// under the SDK root, as sdkmanager package paths.
func CompleteSystemImages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		return installedSystemImages(sdkRoot()), cobra.ShellCompDirectiveNoFileComp
	})
}

// installedSystemImages lists system-images/<api>/<tag>/<abi> directories.
func installedSystemImages(root string) []string {
	if root == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(root, "system-images", "*", "*", "*"))
	if err != nil {
		return nil
	}

	var images []string
	for _, match := range matches {
		if info, err := os.Stat(match); err != nil || !info.IsDir() {
			continue
		}
		rel, err := filepath.Rel(root, match)
		if err != nil {
			continue
		}
		images = append(images, strings.Join(strings.Split(filepath.ToSlash(rel), "/"), ";"))
	}
	sort.Strings(images)
	return images
}

// sdkRoot prefers the effective configuration and falls back to the
// environment when the configuration cannot be loaded.
func sdkRoot() string {
	if cfg, err := config.Load(shared.GetConfigPath()); err == nil {
		return cfg.SDKRoot
	}
	return os.Getenv("ANDROID_SDK_ROOT")
}

// CompleteLocales completes --locale with common language_COUNTRY pairs.
func CompleteLocales(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		locales := []string{
			"en_US\tEnglish (United States)",
			"en_GB\tEnglish (United Kingdom)",
			"de_DE\tGerman (Germany)",
			"de_AT\tGerman (Austria)",
			"fr_FR\tFrench (France)",
			"es_ES\tSpanish (Spain)",
			"it_IT\tItalian (Italy)",
			"ja_JP\tJapanese (Japan)",
			"pt_BR\tPortuguese (Brazil)",
			"zh_CN\tChinese (China)",
		}
		return locales, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteConfigProperties completes --property with config.ini keys
// commonly overridden on CI.
func CompleteConfigProperties(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		keys := []string{
			"hw.ramSize=\tGuest RAM in MB",
			"vm.heapSize=\tJava heap in MB",
			"disk.dataPartition.size=\tData partition size, e.g. 2G",
			"hw.keyboard=\tHost keyboard input (yes/no)",
			"hw.gpu.enabled=\tGPU emulation (yes/no)",
			"hw.gpu.mode=\tGPU mode, e.g. swiftshader_indirect",
			"hw.lcd.density=\tScreen density",
			"hw.camera.back=\tBack camera source",
			"showDeviceFrame=\tDevice frame (yes/no)",
		}
		return keys, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	})
}
