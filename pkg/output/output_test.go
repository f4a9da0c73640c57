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

package output

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	tests := []struct {
		name    string
		folder  string
		wantDir string
		wantErr bool
	}{
		{
			name:    "default_folder",
			folder:  "_phpstatic",
			wantDir: filepath.Join(root, "_phpstatic"),
		},
		{
			name:    "nested_folder",
			folder:  filepath.Join("build", "site"),
			wantDir: filepath.Join(root, "build", "site"),
		},
		{
			name:    "absolute_inside",
			folder:  filepath.Join(root, "out"),
			wantDir: filepath.Join(root, "out"),
		},
		{
			name:    "parent",
			folder:  "..",
			wantErr: true,
		},
		{
			name:    "root_itself",
			folder:  ".",
			wantErr: true,
		},
		{
			name:    "empty",
			folder:  "",
			wantErr: true,
		},
		{
			name:    "escapes_via_dot_dot",
			folder:  filepath.Join("sub", "..", "..", "elsewhere"),
			wantErr: true,
		},
		{
			name:    "absolute_outside",
			folder:  outside,
			wantErr: true,
		},
		{
			name:    "sibling_with_shared_prefix",
			folder:  root + "-out",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(root, tt.folder, nil)
			if tt.wantErr {
				require.Error(t, err, "folder should be rejected")
				assert.ErrorIs(t, err, ErrUnsafeOutput, "error should be ErrUnsafeOutput")
				return
			}
			require.NoError(t, err, "folder should be accepted")
			assert.Equal(t, tt.wantDir, m.Dir(), "output dir should match")
		})
	}
}

func TestNewRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	_, err := New(root, filepath.Join("link", "site"), nil)
	assert.ErrorIs(t, err, ErrUnsafeOutput, "a symlink leading outside the root should be rejected")

	_, err = New(root, "link", nil)
	assert.ErrorIs(t, err, ErrUnsafeOutput, "a symlink to outside the root should be rejected")
}

func TestClearAndCreate(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	m, err := New(root, "_phpstatic", nil)
	require.NoError(t, err)

	// nothing to clear yet
	require.NoError(t, m.Clear(ctx), "clearing a missing folder should succeed")
	require.NoError(t, m.Create(ctx), "creating the folder should succeed")

	stale := filepath.Join(m.Dir(), "old", "stale.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	require.NoError(t, m.Clear(ctx), "clearing should succeed")
	require.NoError(t, m.Create(ctx), "recreating should succeed")

	entries, err := os.ReadDir(m.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "stale content should be gone")
}

func TestWriteFile(t *testing.T) {
	ctx := context.Background()
	m, err := New(t.TempDir(), "_phpstatic", nil)
	require.NoError(t, err)
	require.NoError(t, m.Create(ctx))

	rel := filepath.Join("blog", "post.html")
	require.NoError(t, m.WriteFile(ctx, rel, []byte("first")), "write should succeed")
	require.NoError(t, m.WriteFile(ctx, rel, []byte("second")), "overwrite should succeed")

	content, err := os.ReadFile(filepath.Join(m.Dir(), rel))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content), "latest content should win")

	entries, err := os.ReadDir(filepath.Join(m.Dir(), "blog"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files should be left behind")
	assert.Equal(t, "post.html", entries[0].Name())

	assert.Equal(t, []string{rel, rel}, m.Written(), "both writes should be tracked")
}

func TestCopyFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m, err := New(root, "_phpstatic", nil)
	require.NoError(t, err)
	require.NoError(t, m.Create(ctx))

	src := filepath.Join(root, "logo.png")
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x10}
	require.NoError(t, os.WriteFile(src, data, 0o600))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	rel := filepath.Join("img", "logo.png")
	require.NoError(t, m.CopyFile(ctx, src, rel), "copy should succeed")

	dst := filepath.Join(m.Dir(), rel)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got, "content should be byte identical")

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "modification time should be preserved")
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "permissions should be preserved")
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m, err := New(root, "_phpstatic", nil)
	require.NoError(t, err)

	err = m.CopyFile(ctx, filepath.Join(root, "missing.css"), "missing.css")
	require.Error(t, err, "copy should fail")
	assert.Empty(t, m.Written(), "failed copies should not be tracked")
}
