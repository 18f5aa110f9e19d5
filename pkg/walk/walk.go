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

// Package walk enumerates the template files a patch job may touch.
package walk

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidRoot is returned when the root is missing or not a directory
var ErrInvalidRoot = errors.Base("invalid root directory")

// DefaultSkipDirs are never descended into
var DefaultSkipDirs = []string{".git", "node_modules", "dist", "build"}

// DefaultExtensions select EJS views
var DefaultExtensions = []string{".ejs"}

// 🔍 Filter decides which files under Root are candidates
type Filter struct {
	Root       string   // Directory to walk
	Extensions []string // File extensions to keep, all files when empty
	Include    []string // Glob patterns a relative path must match, all when empty
	Exclude    []string // Glob patterns matched against the relative path or base name
	SkipDirs   []string // Directory names never descended into
	Recursive  bool     // Descend into subdirectories
}

// 📄 Candidate is a file selected by the filter
type Candidate struct {
	Path     string // Absolute or root-joined path
	Rel      string // Slash-separated path relative to the root
	Excluded bool   // Matched an exclusion pattern; reported but never modified
}

// Validate checks every glob in the filter
func (f Filter) Validate() error {
	for _, p := range append(append([]string{}, f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// CheckRoot verifies the root exists and is a directory
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return errors.Errorf("%w: %s: %s", ErrInvalidRoot, root, err.Error())
	}
	if !info.IsDir() {
		return errors.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}
	return nil
}

// 🚶 Enumerate lists candidate files in lexical order
func Enumerate(ctx context.Context, f Filter) ([]Candidate, error) {
	logger := zerolog.Ctx(ctx)

	if err := CheckRoot(f.Root); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	// WalkDir does not follow a symlinked root
	walkRoot, err := filepath.EvalSymlinks(f.Root)
	if err != nil {
		return nil, errors.Errorf("%w: %s: %s", ErrInvalidRoot, f.Root, err.Error())
	}

	var out []Candidate
	err = filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == walkRoot {
				return err
			}
			logger.Warn().Err(err).Str("path", p).Msg("skipping unreadable entry")
			return nil
		}

		if d.IsDir() {
			if p == walkRoot {
				return nil
			}
			if !f.Recursive || f.skipDir(d.Name()) {
				logger.Debug().Str("dir", p).Msg("not descending")
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			if d.Type()&fs.ModeSymlink != 0 {
				logger.Debug().Str("path", p).Msg("skipping symlink")
			}
			return nil
		}

		rel, err := filepath.Rel(walkRoot, p)
		if err != nil {
			return errors.Errorf("relative path: %w", err)
		}
		rel = filepath.ToSlash(rel)

		if !f.hasExtension(rel) || !f.included(rel) {
			return nil
		}

		out = append(out, Candidate{
			Path:     filepath.Join(f.Root, filepath.FromSlash(rel)),
			Rel:      rel,
			Excluded: f.excluded(rel),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", f.Root, err)
	}

	logger.Debug().Str("root", f.Root).Int("candidates", len(out)).Msg("enumerated files")

	return out, nil
}

func (f Filter) skipDir(name string) bool {
	for _, s := range f.SkipDirs {
		if s == name {
			return true
		}
	}
	return false
}

func (f Filter) hasExtension(rel string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(rel))
	for _, e := range f.Extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (f Filter) included(rel string) bool {
	if len(f.Include) == 0 {
		return true
	}
	return matchAny(f.Include, rel)
}

func (f Filter) excluded(rel string) bool {
	return matchAny(f.Exclude, rel)
}

// matchAny matches rel, or its base name, against the patterns
func matchAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}
