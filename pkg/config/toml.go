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
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/walteh/phpstatic/pkg/text"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&TOMLParser{})
}

type tomlDocument struct {
	Config  rawConfig         `toml:"config"`
	Replace map[string]string `toml:"replace"`
}

// 🔧 TOMLParser implements the Parser interface for TOML files
type TOMLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *TOMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".toml")
}

// 📝 Parse parses the config from TOML
func (p *TOMLParser) Parse(ctx context.Context, data []byte) (*File, error) {
	var doc tomlDocument
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, errors.Errorf("parsing TOML: %w", err)
	}

	overrides, err := doc.Config.overrides()
	if err != nil {
		return nil, errors.Errorf("validating [config]: %w", err)
	}

	f := &File{Overrides: overrides}

	// md.Keys keeps document order, the decoded map does not
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != "replace" {
			continue
		}
		f.Replacements = append(f.Replacements, text.ReplacementRule{
			FromText: key[1],
			ToText:   doc.Replace[key[1]],
		})
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	f.UnknownKeys = sortedUnknown(unknown)

	return f, nil
}

// 📝 Encode writes cfg and rules as a TOML document in the file layout Load understands
func Encode(w io.Writer, cfg BuildConfig, rules []text.ReplacementRule) error {
	type encodedConfig struct {
		OutputFolder  string   `toml:"output_folder"`
		IgnorePrefix  string   `toml:"ignore_prefix"`
		PHPExtension  string   `toml:"php_extension"`
		Encoding      string   `toml:"encoding"`
		SafeMode      bool     `toml:"safe_mode"`
		ManualPHPPath string   `toml:"manual_php_path,omitempty"`
		IgnoreSystem  []string `toml:"ignore_system"`
		IgnoreGlobs   []string `toml:"ignore_globs,omitempty"`
		Timeout       string   `toml:"timeout,omitempty"`
		Jobs          int      `toml:"jobs"`
	}
	type encodedDocument struct {
		Config  encodedConfig     `toml:"config"`
		Replace map[string]string `toml:"replace,omitempty"`
	}

	doc := encodedDocument{
		Config: encodedConfig{
			OutputFolder:  cfg.OutputFolder,
			IgnorePrefix:  cfg.IgnorePrefix,
			PHPExtension:  cfg.RenderExtension,
			Encoding:      cfg.Encoding,
			SafeMode:      cfg.SafeMode,
			ManualPHPPath: cfg.InterpreterPath,
			IgnoreSystem:  cfg.IgnoreSystem.Names(),
			IgnoreGlobs:   cfg.IgnoreGlobs,
			Jobs:          cfg.Jobs,
		},
	}
	if cfg.Timeout > 0 {
		doc.Config.Timeout = cfg.Timeout.String()
	}
	if len(rules) > 0 {
		doc.Replace = make(map[string]string, len(rules))
		for _, r := range rules {
			doc.Replace[r.FromText] = r.ToText
		}
	}

	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return errors.Errorf("encoding TOML: %w", err)
	}
	return nil
}
