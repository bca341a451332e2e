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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cavaliergopher/grab/v3"
	"github.com/go-ini/ini"
	"github.com/mholt/archives"

	"github.com/tombee/emuhelper/internal/config"
	"github.com/tombee/emuhelper/internal/lifecycle"
	emulog "github.com/tombee/emuhelper/internal/log"
)

// ToolsBaseURL hosts the SDK tools archives.
const ToolsBaseURL = "https://dl.google.com/android/repository"

// Expected contents of tools/source.properties.
const (
	ToolsRevision    = "26.1.1"
	toolsPkgPath     = "tools"
	toolsDescription = "Android SDK Tools"
)

var (
	// ErrChecksumMismatch is returned when the downloaded archive does not
	// match its pinned SHA-256.
	ErrChecksumMismatch = errors.New("sdk tools archive checksum mismatch")

	// ErrExtract is returned when the archive cannot be unpacked.
	ErrExtract = errors.New("sdk tools archive extraction failed")

	// ErrToolsInvalid is returned when the tools are still not usable after
	// an install.
	ErrToolsInvalid = errors.New("sdk tools are not installed correctly")
)

// ToolsArchive is a platform's SDK tools download.
type ToolsArchive struct {
	Name   string
	SHA256 string
}

var toolsArchives = [config.NumPlatforms]ToolsArchive{
	config.PlatformLinux: {
		Name:   "sdk-tools-linux-4333796.zip",
		SHA256: "92ffee5a1d98d856634e8b71132e8a95d96c83a63fde1099be3d86df3106def9",
	},
	config.PlatformDarwin: {
		Name:   "sdk-tools-darwin-4333796.zip",
		SHA256: "ecb29358bc0f13d7c2fa0f9290135a5b608e38434aad9bf7067d0252c160853e",
	},
	config.PlatformWindows: {
		Name:   "sdk-tools-windows-4333796.zip",
		SHA256: "7e81d69c303e47a4f0e748a6352d85cd0c8fd90a5a95ae4e076b5e5f960d3c7a",
	},
}

// ArchiveFor returns the SDK tools archive of platform p.
func ArchiveFor(p config.Platform) (ToolsArchive, error) {
	if !p.Valid() || toolsArchives[p].Name == "" {
		return ToolsArchive{}, fmt.Errorf("no sdk tools archive for %s", p)
	}
	return toolsArchives[p], nil
}

// ToolsInstaller validates and installs the SDK "tools" package.
type ToolsInstaller struct {
	sdkRoot    string
	sdkManager string
	archive    ToolsArchive
	baseURL    string
	client     *grab.Client
	logger     *slog.Logger
}

// NewToolsInstaller creates an installer for cfg's SDK root and platform.
func NewToolsInstaller(cfg *config.Config, logger *slog.Logger) (*ToolsInstaller, error) {
	archive, err := ArchiveFor(cfg.Platform)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = emulog.Discard()
	}

	client := grab.NewClient()
	client.UserAgent = "emuhelper"

	return &ToolsInstaller{
		sdkRoot:    cfg.SDKRoot,
		sdkManager: cfg.Tools.SDKManager,
		archive:    archive,
		baseURL:    ToolsBaseURL,
		client:     client,
		logger:     emulog.WithComponent(logger, "sdk-tools"),
	}, nil
}

// WithSource overrides the download location and archive, e.g. for a mirror.
func (t *ToolsInstaller) WithSource(baseURL string, archive ToolsArchive) *ToolsInstaller {
	t.baseURL = strings.TrimRight(baseURL, "/")
	t.archive = archive
	return t
}

// URL is the archive download location.
func (t *ToolsInstaller) URL() string {
	return t.baseURL + "/" + t.archive.Name
}

// Installed checks that the SDK root holds tools of the expected revision
// with an executable sdkmanager. The returned error says what is wrong.
func (t *ToolsInstaller) Installed() error {
	info, err := os.Stat(t.sdkRoot)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", t.sdkRoot)
	}

	propsPath := filepath.Join(t.sdkRoot, "tools", "source.properties")
	props, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, propsPath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", propsPath, err)
	}

	section := props.Section(ini.DefaultSection)
	expected := []struct{ key, value string }{
		{"Pkg.Revision", ToolsRevision},
		{"Pkg.Path", toolsPkgPath},
		{"Pkg.Desc", toolsDescription},
	}
	for _, e := range expected {
		if got := strings.TrimSpace(section.Key(e.key).String()); got != e.value {
			return fmt.Errorf("%s: %s is %q, want %q", propsPath, e.key, got, e.value)
		}
	}

	if !lifecycle.IsExecutable(t.sdkManager) {
		return fmt.Errorf("%s is not executable", t.sdkManager)
	}
	return nil
}

// EnsureInstalled installs the tools when Installed fails and validates the
// result.
func (t *ToolsInstaller) EnsureInstalled(ctx context.Context) error {
	err := t.Installed()
	if err == nil {
		t.logger.Debug("sdk tools already installed", slog.String("sdk_root", t.sdkRoot))
		return nil
	}
	t.logger.Info("sdk tools missing or outdated, installing", emulog.Error(err))

	if err := t.Install(ctx); err != nil {
		return err
	}
	if err := t.Installed(); err != nil {
		return fmt.Errorf("%w: %v", ErrToolsInvalid, err)
	}
	return nil
}

// Install replaces <sdkRoot>/tools with a freshly downloaded, verified
// archive.
func (t *ToolsInstaller) Install(ctx context.Context) error {
	if err := os.MkdirAll(t.sdkRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create sdk root %s: %w", t.sdkRoot, err)
	}
	if err := os.RemoveAll(filepath.Join(t.sdkRoot, "tools")); err != nil {
		return fmt.Errorf("failed to remove old tools: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "emuhelper-sdk-tools-")
	if err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	archivePath, err := t.download(ctx, filepath.Join(tmpDir, t.archive.Name))
	if err != nil {
		return err
	}

	if err := extractArchive(ctx, archivePath, t.sdkRoot); err != nil {
		return fmt.Errorf("%w: %v", ErrExtract, err)
	}
	t.logger.Info("sdk tools installed", slog.String("sdk_root", t.sdkRoot))
	return nil
}

func (t *ToolsInstaller) download(ctx context.Context, dst string) (string, error) {
	sum, err := hex.DecodeString(t.archive.SHA256)
	if err != nil {
		return "", fmt.Errorf("invalid pinned checksum for %s: %w", t.archive.Name, err)
	}

	req, err := grab.NewRequest(dst, t.URL())
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	req = req.WithContext(ctx)
	req.SetChecksum(sha256.New(), sum, true)

	t.logger.Info("downloading sdk tools", slog.String("url", t.URL()))
	resp := t.client.Do(req)
	if err := resp.Err(); err != nil {
		if errors.Is(err, grab.ErrBadChecksum) {
			return "", fmt.Errorf("%w: %s", ErrChecksumMismatch, t.archive.Name)
		}
		return "", fmt.Errorf("failed to download %s: %w", t.URL(), err)
	}
	return resp.Filename, nil
}

// extractArchive unpacks the archive at path into dir, keeping file modes
// so the tool scripts stay executable.
func extractArchive(ctx context.Context, path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	format, rdr, err := archives.Identify(ctx, path, f)
	if err != nil {
		return fmt.Errorf("identifying archive: %w", err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return fmt.Errorf("%s is not an extractable archive", filepath.Base(path))
	}

	return extractor.Extract(ctx, rdr, func(ctx context.Context, info archives.FileInfo) error {
		return saveArchiveEntry(info, dir)
	})
}

func saveArchiveEntry(info archives.FileInfo, dir string) error {
	dest := filepath.Join(dir, filepath.FromSlash(info.NameInArchive))
	rel, err := filepath.Rel(dir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("archive entry %q escapes destination", info.NameInArchive)
	}

	if info.IsDir() {
		return os.MkdirAll(dest, dirMode(info.Mode()))
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		// The SDK tools archive has no links; skip rather than follow.
		return nil
	}

	src, err := info.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", info.NameInArchive, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating dir: %w", err)
	}

	perm := info.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("copying %s: %w", info.NameInArchive, err)
	}
	// OpenFile applies the umask; restore the archived mode.
	return os.Chmod(dest, perm)
}

func dirMode(mode fs.FileMode) fs.FileMode {
	if perm := mode.Perm(); perm != 0 {
		return perm | 0o700
	}
	return 0o755
}
