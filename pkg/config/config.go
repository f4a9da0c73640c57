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

package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultOutputFolder is cleaned on every build.
	DefaultOutputFolder = "_phpstatic"
	// DefaultIgnorePrefix marks pure includes such as __header.php.
	DefaultIgnorePrefix    = "__"
	DefaultRenderExtension = ".php"
	DefaultOutputExtension = ".html"
	DefaultEncoding        = "utf-8"
)

// defaultIgnoreSystem lists VCS metadata, editor folders, lockfiles and secrets.
var defaultIgnoreSystem = []string{
	".git", ".gitignore", ".idea", ".vscode", "__pycache__", "node_modules", "vendor",
	".DS_Store", "Thumbs.db", ".env", ".env.local", ".env.production", ".key",
	".logs", ".tmp", ".temp", ".nyc_output", "composer.lock", "package-lock.json",
	"yarn.lock", ".phpunit.result.cache", "phpunit.xml", ".phpcs.cache",
}

// 📦 NameSet is an immutable set of entry names
type NameSet struct {
	names map[string]struct{}
}

// NewNameSet builds a set from the given names
func NewNameSet(names ...string) NameSet {
	s := NameSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n == "" {
			continue
		}
		s.names[n] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set
func (s NameSet) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Union returns a new set holding the names of s plus extra. s is left untouched.
func (s NameSet) Union(extra ...string) NameSet {
	out := NameSet{names: make(map[string]struct{}, len(s.names)+len(extra))}
	for n := range s.names {
		out.names[n] = struct{}{}
	}
	for _, n := range extra {
		if n == "" {
			continue
		}
		out.names[n] = struct{}{}
	}
	return out
}

// Names returns the sorted members
func (s NameSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of names in the set
func (s NameSet) Len() int {
	return len(s.names)
}

// 📚 BuildConfig is the resolved configuration for a single run. It is built
// once by Resolve and passed by value afterwards.
type BuildConfig struct {
	OutputFolder    string        // Output folder, relative to the project root
	IgnorePrefix    string        // Names starting with this are skipped
	RenderExtension string        // Files ending with this are rendered (always starts with ".")
	OutputExtension string        // Extension given to rendered pages
	IgnoreSystem    NameSet       // Names always excluded from traversal
	IgnoreGlobs     []string      // doublestar patterns over slash-separated relative paths
	Encoding        string        // Encoding of the interpreter output
	SafeMode        bool          // Pass hardening flags to the interpreter
	InterpreterPath string        // Explicit interpreter path, empty to detect
	Timeout         time.Duration // Per-page interpreter timeout, zero for none
	Jobs            int           // Number of pages processed concurrently
}

// 🔧 Overrides holds the values a configuration source sets. Nil pointers and
// empty slices mean "not set".
type Overrides struct {
	OutputFolder    *string
	IgnorePrefix    *string
	RenderExtension *string
	Encoding        *string
	SafeMode        *bool
	InterpreterPath *string
	IgnoreSystem    []string
	IgnoreGlobs     []string
	Timeout         *time.Duration
	Jobs            *int
}

// 🏭 Defaults returns the built-in configuration
func Defaults() BuildConfig {
	return BuildConfig{
		OutputFolder:    DefaultOutputFolder,
		IgnorePrefix:    DefaultIgnorePrefix,
		RenderExtension: DefaultRenderExtension,
		OutputExtension: DefaultOutputExtension,
		IgnoreSystem:    NewNameSet(defaultIgnoreSystem...).Union(DefaultOutputFolder),
		Encoding:        DefaultEncoding,
		Jobs:            1,
	}
}

// 🔄 Resolve layers the overrides on top of base, later overrides winning, and
// returns the new configuration. base is not modified.
func Resolve(base BuildConfig, overrides ...Overrides) BuildConfig {
	cfg := base
	cfg.IgnoreGlobs = append([]string(nil), base.IgnoreGlobs...)

	for _, o := range overrides {
		if o.OutputFolder != nil {
			cfg.OutputFolder = *o.OutputFolder
		}
		if o.IgnorePrefix != nil {
			cfg.IgnorePrefix = *o.IgnorePrefix
		}
		if o.RenderExtension != nil && *o.RenderExtension != "" {
			cfg.RenderExtension = *o.RenderExtension
		}
		if o.Encoding != nil && *o.Encoding != "" {
			cfg.Encoding = *o.Encoding
		}
		if o.SafeMode != nil {
			cfg.SafeMode = *o.SafeMode
		}
		if o.InterpreterPath != nil && *o.InterpreterPath != "" {
			cfg.InterpreterPath = *o.InterpreterPath
		}
		if len(o.IgnoreSystem) > 0 {
			cfg.IgnoreSystem = cfg.IgnoreSystem.Union(o.IgnoreSystem...)
		}
		cfg.IgnoreGlobs = append(cfg.IgnoreGlobs, o.IgnoreGlobs...)
		if o.Timeout != nil {
			cfg.Timeout = *o.Timeout
		}
		if o.Jobs != nil {
			cfg.Jobs = *o.Jobs
		}
	}

	cfg.RenderExtension = normalizeExtension(cfg.RenderExtension)
	cfg.OutputExtension = normalizeExtension(cfg.OutputExtension)
	if cfg.OutputExtension == "" {
		cfg.OutputExtension = DefaultOutputExtension
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}

	// the output folder is always excluded, whatever the sources said
	cfg.IgnoreSystem = cfg.IgnoreSystem.Union(filepath.Clean(cfg.OutputFolder))

	return cfg
}

func normalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// 📝 String returns a one-line description of the config
func (cfg BuildConfig) String() string {
	return fmt.Sprintf("%s -> %s (prefix=%q, encoding=%s, safe_mode=%t, jobs=%d)",
		cfg.RenderExtension, cfg.OutputFolder, cfg.IgnorePrefix, cfg.Encoding, cfg.SafeMode, cfg.Jobs)
}

// StringPtr, BoolPtr, IntPtr and DurationPtr help callers build Overrides.
func StringPtr(s string) *string                 { return &s }
func BoolPtr(b bool) *bool                       { return &b }
func IntPtr(i int) *int                          { return &i }
func DurationPtr(d time.Duration) *time.Duration { return &d }
