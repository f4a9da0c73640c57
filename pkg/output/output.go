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

// Package output manages the generated site folder.
package output

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrUnsafeOutput is returned when the output folder is not strictly inside the project root
var ErrUnsafeOutput = errors.New("output folder must be inside the project root")

// 💾 Manager owns the output folder: clearing it, creating it and writing into it
type Manager struct {
	dir    string // Absolute output folder, as configured (not symlink resolved)
	logger *zerolog.Logger

	mu      sync.Mutex
	written []string
}

// 🏭 New validates folder against root and creates a manager for it.
// A relative folder is resolved against root.
func New(root, folder string, logger *zerolog.Logger) (*Manager, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving project root: %w", err)
	}

	dir := folder
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(absRoot, dir)
	}
	dir = filepath.Clean(dir)

	if err := ValidateContainment(absRoot, dir); err != nil {
		return nil, err
	}

	return &Manager{dir: dir, logger: logger}, nil
}

// Dir returns the absolute output folder
func (m *Manager) Dir() string {
	return m.dir
}

// 🔒 ValidateContainment checks that dir is strictly inside root once symlinks
// are resolved. The root itself and anything outside it are rejected.
func ValidateContainment(root, dir string) error {
	realRoot, err := resolve(root)
	if err != nil {
		return errors.Errorf("resolving project root: %w", err)
	}
	realDir, err := resolve(dir)
	if err != nil {
		return errors.Errorf("resolving output folder: %w", err)
	}

	rel, err := filepath.Rel(realRoot, realDir)
	if err != nil {
		return errors.Errorf("%w: %s is not under %s", ErrUnsafeOutput, dir, root)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Errorf("%w: %s resolves to %s", ErrUnsafeOutput, dir, realDir)
	}
	return nil
}

// resolve makes path absolute and resolves symlinks in its longest existing prefix
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	existing := abs
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			parts := append([]string{resolved}, rest...)
			return filepath.Join(parts...), nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
}

// Clear removes the output folder and everything in it
func (m *Manager) Clear(ctx context.Context) error {
	if _, err := os.Lstat(m.dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return errors.Errorf("removing output folder: %w", err)
	}
	m.logger.Debug().Str("dir", m.dir).Msg("cleared output folder")
	return nil
}

// Create creates the output folder
func (m *Manager) Create(ctx context.Context) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.Errorf("creating output folder: %w", err)
	}
	return nil
}

// CreateDir creates rel, relative to the output folder
func (m *Manager) CreateDir(ctx context.Context, rel string) error {
	if err := os.MkdirAll(m.path(rel), 0o755); err != nil {
		return errors.Errorf("creating directory: %w", err)
	}
	return nil
}

// WriteFile writes content to rel atomically, creating parent directories
func (m *Manager) WriteFile(ctx context.Context, rel string, content []byte) error {
	err := m.writeAtomic(rel, 0o644, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
	if err != nil {
		return err
	}
	m.track(rel)
	return nil
}

// CopyFile copies src to rel byte for byte, keeping its permissions and modification time
func (m *Manager) CopyFile(ctx context.Context, src, rel string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return errors.Errorf("reading source file info: %w", err)
	}

	err = m.writeAtomic(rel, info.Mode().Perm(), func(w io.Writer) error {
		_, err := io.Copy(w, source)
		return err
	})
	if err != nil {
		return err
	}

	if err := os.Chtimes(m.path(rel), info.ModTime(), info.ModTime()); err != nil {
		return errors.Errorf("preserving modification time: %w", err)
	}

	m.track(rel)
	return nil
}

// Written returns the relative paths of every file written so far, sorted
func (m *Manager) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.written))
	copy(out, m.written)
	sort.Strings(out)
	return out
}

func (m *Manager) path(rel string) string {
	return filepath.Join(m.dir, rel)
}

func (m *Manager) track(rel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, rel)
}

// writeAtomic writes to a temp file next to the target and renames it into place
func (m *Manager) writeAtomic(rel string, perm os.FileMode, fill func(io.Writer) error) error {
	target := m.path(rel)
	dir := filepath.Dir(target)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if err := fill(tmp); err != nil {
		cleanup()
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}
