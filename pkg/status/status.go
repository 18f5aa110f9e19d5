// Copyright 2025 walteh LLC
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

package status

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus represents the outcome for a file
type FileStatus int

const (
	StatusUnknown FileStatus = iota
	StatusPatched            // File was rewritten
	StatusSkipped            // File was left untouched
	StatusError              // File could not be read, decoded or written
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusPatched:
		return "patched"
	case StatusSkipped:
		return "skipped"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ⏭️ SkipReason explains a StatusSkipped outcome
type SkipReason string

const (
	ReasonNone           SkipReason = ""
	ReasonNoMatch        SkipReason = "no match"
	ReasonAlreadyPatched SkipReason = "already patched"
	ReasonExcluded       SkipReason = "excluded"
	ReasonUnchanged      SkipReason = "unchanged"
)

// 📄 FileInfo contains the outcome for one file
type FileInfo struct {
	Path         string     // Path relative to the root, slash separated
	Status       FileStatus // Outcome
	Reason       SkipReason // Why the file was skipped
	Replacements int        // Number of replacements made
	Rules        []string   // Rules that rewrote the file
	Error        error      // Any error associated with this file
	Diff         string     // Optional preview of the change
}

// 📈 Summary counts outcomes
type Summary struct {
	Checked  int
	Modified int
	Skipped  int
	Errored  int
}

// 💾 FileManager handles file system access below the root
type FileManager interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFileAtomic(ctx context.Context, path string, content []byte) error
}

// 📈 StatusReporter tracks outcomes
type StatusReporter interface {
	TrackFile(ctx context.Context, info FileInfo)
	ListFiles(ctx context.Context) []FileInfo
	Summary() Summary
}

// 🔧 Manager implements both FileManager and StatusReporter
type Manager struct {
	baseDir string

	mu    sync.RWMutex
	files []FileInfo
}

var _ FileManager = (*Manager)(nil)
var _ StatusReporter = (*Manager)(nil)

// 🏭 New creates a new status manager rooted at baseDir
func New(baseDir string) *Manager {
	return &Manager{
		baseDir: filepath.Clean(baseDir),
	}
}

// BaseDir returns the root of all paths handled by the manager
func (m *Manager) BaseDir() string {
	return m.baseDir
}

func (m *Manager) getAbsPath(path string) string {
	return filepath.Join(m.baseDir, filepath.FromSlash(path))
}

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(m.getAbsPath(path))
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// WriteFileAtomic replaces the file through a temp file in the same directory,
// keeping the original permissions
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)
	if target, err := filepath.EvalSymlinks(absPath); err == nil && target != absPath {
		zerolog.Ctx(ctx).Debug().Str("path", absPath).Str("target", target).Msg("writing through symlink")
		absPath = target
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(absPath); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+".tmp-*")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	cleanup := func() {
		if rerr := os.Remove(tempPath); rerr != nil && !os.IsNotExist(rerr) {
			zerolog.Ctx(ctx).Warn().Err(rerr).Str("path", tempPath).Msg("removing temp file")
		}
	}

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		cleanup()
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		cleanup()
		return errors.Errorf("setting mode: %w", err)
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		cleanup()
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

func (m *Manager) TrackFile(ctx context.Context, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files = append(m.files, info)

	event := zerolog.Ctx(ctx).Debug().
		Str("path", info.Path).
		Str("status", info.Status.String()).
		Int("replacements", info.Replacements)
	if info.Reason != ReasonNone {
		event = event.Str("reason", string(info.Reason))
	}
	if info.Error != nil {
		event = event.Err(info.Error)
	}
	event.Msg("tracked file")
}

// ListFiles returns outcomes in the order they were tracked
func (m *Manager) ListFiles(ctx context.Context) []FileInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, len(m.files))
	copy(files, m.files)
	return files
}

func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Summarize(m.files)
}

// Summarize counts outcomes of the given files
func Summarize(files []FileInfo) Summary {
	var s Summary
	for _, f := range files {
		s.Checked++
		switch f.Status {
		case StatusPatched:
			s.Modified++
		case StatusSkipped:
			s.Skipped++
		case StatusError:
			s.Errored++
		}
	}
	return s
}
