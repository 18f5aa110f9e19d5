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
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestWriteFileAtomic(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		path    string
		content string
		mode    os.FileMode
	}{
		{
			name: "replaces_existing_file",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ejs"), []byte("old"), 0644))
			},
			path:    "a.ejs",
			content: "new",
			mode:    0644,
		},
		{
			name: "keeps_permissions",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "b.ejs"), []byte("old"), 0600))
			},
			path:    "b.ejs",
			content: "new",
			mode:    0600,
		},
		{
			name: "nested_slash_path",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "partials"), 0755))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "partials", "h.ejs"), []byte("old"), 0644))
			},
			path:    "partials/h.ejs",
			content: "<nav></nav>",
			mode:    0644,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			mgr := New(dir)
			ctx := testContext(t)

			require.NoError(t, mgr.WriteFileAtomic(ctx, tt.path, []byte(tt.content)))

			got, err := mgr.ReadFile(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(got))

			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(tt.path)))
			require.NoError(t, err)
			assert.Equal(t, tt.mode, info.Mode().Perm(), "mode should be preserved")

			entries, err := os.ReadDir(filepath.Dir(filepath.Join(dir, filepath.FromSlash(tt.path))))
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotContains(t, e.Name(), ".tmp-", "temp files should not be left behind")
			}
		})
	}
}

func TestWriteFileAtomicThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "shared.ejs")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0644))
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "a.ejs")))

	mgr := New(dir)
	require.NoError(t, mgr.WriteFileAtomic(testContext(t), "a.ejs", []byte("new")))

	info, err := os.Lstat(filepath.Join(dir, "a.ejs"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link should survive the write")

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	mgr := New(t.TempDir())
	err := mgr.WriteFileAtomic(testContext(t), "missing/a.ejs", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating temp file")
}

func TestReadFileMissing(t *testing.T) {
	mgr := New(t.TempDir())
	_, err := mgr.ReadFile(testContext(t), "nope.ejs")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTrackFile(t *testing.T) {
	mgr := New(t.TempDir())
	ctx := testContext(t)

	mgr.TrackFile(ctx, FileInfo{Path: "b.ejs", Status: StatusPatched, Replacements: 1})
	mgr.TrackFile(ctx, FileInfo{Path: "a.ejs", Status: StatusSkipped, Reason: ReasonAlreadyPatched})
	mgr.TrackFile(ctx, FileInfo{Path: "c.ejs", Status: StatusError, Error: os.ErrPermission})
	mgr.TrackFile(ctx, FileInfo{Path: "d.ejs", Status: StatusSkipped, Reason: ReasonExcluded})

	files := mgr.ListFiles(ctx)
	require.Len(t, files, 4)
	assert.Equal(t, "b.ejs", files[0].Path, "should keep insertion order")
	assert.Equal(t, "d.ejs", files[3].Path)

	files[0].Path = "mutated"
	assert.Equal(t, "b.ejs", mgr.ListFiles(ctx)[0].Path, "should return a copy")

	assert.Equal(t, Summary{Checked: 4, Modified: 1, Skipped: 2, Errored: 1}, mgr.Summary())
}

func TestFileStatusString(t *testing.T) {
	assert.Equal(t, "patched", StatusPatched.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "unknown", StatusUnknown.String())
}
