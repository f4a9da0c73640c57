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
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/phpstatic/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// DefaultFileNames are searched, in order, in the project root.
var DefaultFileNames = []string{
	"phpstatic.toml",
	"phpstatic.hcl",
	"phpstatic.yaml",
	"phpstatic.yml",
	"phpstatic.json",
	"PHPStaticRender.toml",
}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*File, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📄 File is a parsed configuration file
type File struct {
	Path         string                 // Where the file was read from
	Overrides    Overrides              // Values from the [config] section
	Replacements []text.ReplacementRule // [replace] pairs in document order
	UnknownKeys  []string               // Keys that were present but not understood
}

// 🎯 Load looks for a configuration file in root (or reads explicit when it is
// not empty). It returns (nil, nil) when no file exists.
func Load(ctx context.Context, root, explicit string) (*File, error) {
	logger := zerolog.Ctx(ctx)

	path := explicit
	if path == "" {
		path = find(root)
		if path == "" {
			logger.Debug().Str("root", root).Msg("no configuration file found")
			return nil, nil
		}
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", filepath.Base(path))
	}

	f, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	f.Path = path

	return f, nil
}

func find(root string) string {
	for _, name := range DefaultFileNames {
		candidate := filepath.Join(root, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}

// 🔧 rawConfig is the [config] section shared by every format
type rawConfig struct {
	OutputFolder  *string  `toml:"output_folder" yaml:"output_folder" hcl:"output_folder,optional" json:"output_folder"`
	IgnorePrefix  *string  `toml:"ignore_prefix" yaml:"ignore_prefix" hcl:"ignore_prefix,optional" json:"ignore_prefix"`
	PHPExtension  *string  `toml:"php_extension" yaml:"php_extension" hcl:"php_extension,optional" json:"php_extension"`
	Encoding      *string  `toml:"encoding" yaml:"encoding" hcl:"encoding,optional" json:"encoding"`
	SafeMode      *bool    `toml:"safe_mode" yaml:"safe_mode" hcl:"safe_mode,optional" json:"safe_mode"`
	ManualPHPPath *string  `toml:"manual_php_path" yaml:"manual_php_path" hcl:"manual_php_path,optional" json:"manual_php_path"`
	IgnoreSystem  []string `toml:"ignore_system" yaml:"ignore_system" hcl:"ignore_system,optional" json:"ignore_system"`
	IgnoreGlobs   []string `toml:"ignore_globs" yaml:"ignore_globs" hcl:"ignore_globs,optional" json:"ignore_globs"`
	Timeout       *string  `toml:"timeout" yaml:"timeout" hcl:"timeout,optional" json:"timeout"`
	Jobs          *int     `toml:"jobs" yaml:"jobs" hcl:"jobs,optional" json:"jobs"`
}

var knownConfigKeys = map[string]bool{
	"output_folder":   true,
	"ignore_prefix":   true,
	"php_extension":   true,
	"encoding":        true,
	"safe_mode":       true,
	"manual_php_path": true,
	"ignore_system":   true,
	"ignore_globs":    true,
	"timeout":         true,
	"jobs":            true,
}

// overrides converts the raw section into Overrides, validating what needs it
func (r rawConfig) overrides() (Overrides, error) {
	o := Overrides{
		OutputFolder:    r.OutputFolder,
		IgnorePrefix:    r.IgnorePrefix,
		RenderExtension: r.PHPExtension,
		Encoding:        r.Encoding,
		SafeMode:        r.SafeMode,
		InterpreterPath: r.ManualPHPPath,
		IgnoreSystem:    r.IgnoreSystem,
		IgnoreGlobs:     r.IgnoreGlobs,
		Jobs:            r.Jobs,
	}

	if r.Timeout != nil && strings.TrimSpace(*r.Timeout) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(*r.Timeout))
		if err != nil {
			return Overrides{}, errors.Errorf("invalid timeout %q: %w", *r.Timeout, err)
		}
		o.Timeout = &d
	}

	if r.Jobs != nil && *r.Jobs < 0 {
		return Overrides{}, errors.Errorf("jobs must not be negative, got %d", *r.Jobs)
	}

	return o, nil
}

func sortedUnknown(keys []string) []string {
	sort.Strings(keys)
	return keys
}
