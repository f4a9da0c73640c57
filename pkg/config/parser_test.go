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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/phpstatic/pkg/text"
)

func TestParsers(t *testing.T) {
	wantRules := []text.ReplacementRule{
		{FromText: "{{YEAR}}", ToText: "2024"},
		{FromText: "zeta", ToText: "last"},
		{FromText: "alpha", ToText: "first"},
	}

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{
			name:     "toml",
			filename: "phpstatic.toml",
			content: `
[config]
output_folder = "dist"
ignore_prefix = "_"
php_extension = ".phtml"
encoding = "cp1252"
safe_mode = true
manual_php_path = "/opt/php/bin/php"
ignore_system = ["drafts"]
ignore_globs = ["**/*.md"]
timeout = "30s"
jobs = 4

[replace]
"{{YEAR}}" = "2024"
zeta = "last"
alpha = "first"
`,
		},
		{
			name:     "hcl",
			filename: "phpstatic.hcl",
			content: `
config {
  output_folder   = "dist"
  ignore_prefix   = "_"
  php_extension   = ".phtml"
  encoding        = "cp1252"
  safe_mode       = true
  manual_php_path = "/opt/php/bin/php"
  ignore_system   = ["drafts"]
  ignore_globs    = ["**/*.md"]
  timeout         = "30s"
  jobs            = 4
}

replace = {
  "{{YEAR}}" = "2024"
  zeta       = "last"
  alpha      = "first"
}
`,
		},
		{
			name:     "yaml",
			filename: "phpstatic.yaml",
			content: `
config:
  output_folder: dist
  ignore_prefix: _
  php_extension: .phtml
  encoding: cp1252
  safe_mode: true
  manual_php_path: /opt/php/bin/php
  ignore_system: [drafts]
  ignore_globs: ["**/*.md"]
  timeout: 30s
  jobs: 4
replace:
  "{{YEAR}}": "2024"
  zeta: last
  alpha: first
`,
		},
		{
			name:     "json",
			filename: "phpstatic.json",
			content: `{
  "config": {
    "output_folder": "dist",
    "ignore_prefix": "_",
    "php_extension": ".phtml",
    "encoding": "cp1252",
    "safe_mode": true,
    "manual_php_path": "/opt/php/bin/php",
    "ignore_system": ["drafts"],
    "ignore_globs": ["**/*.md"],
    "timeout": "30s",
    "jobs": 4
  },
  "replace": {
    "{{YEAR}}": "2024",
    "zeta": "last",
    "alpha": "first"
  }
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := GetParser(tt.filename)
			require.NotNil(t, p, "parser should be registered for %s", tt.filename)

			f, err := p.Parse(context.Background(), []byte(tt.content))
			require.NoError(t, err)

			o := f.Overrides
			require.NotNil(t, o.OutputFolder)
			assert.Equal(t, "dist", *o.OutputFolder)
			require.NotNil(t, o.IgnorePrefix)
			assert.Equal(t, "_", *o.IgnorePrefix)
			require.NotNil(t, o.RenderExtension)
			assert.Equal(t, ".phtml", *o.RenderExtension)
			require.NotNil(t, o.Encoding)
			assert.Equal(t, "cp1252", *o.Encoding)
			require.NotNil(t, o.SafeMode)
			assert.True(t, *o.SafeMode)
			require.NotNil(t, o.InterpreterPath)
			assert.Equal(t, "/opt/php/bin/php", *o.InterpreterPath)
			assert.Equal(t, []string{"drafts"}, o.IgnoreSystem)
			assert.Equal(t, []string{"**/*.md"}, o.IgnoreGlobs)
			require.NotNil(t, o.Timeout)
			assert.Equal(t, 30*time.Second, *o.Timeout)
			require.NotNil(t, o.Jobs)
			assert.Equal(t, 4, *o.Jobs)

			assert.Equal(t, wantRules, f.Replacements, "replacements should keep document order")
			assert.Empty(t, f.UnknownKeys)
		})
	}
}

func TestParsersPartialConfig(t *testing.T) {
	p := GetParser("phpstatic.toml")
	require.NotNil(t, p)

	f, err := p.Parse(context.Background(), []byte("[config]\nsafe_mode = true\n"))
	require.NoError(t, err)

	assert.Nil(t, f.Overrides.OutputFolder, "absent keys should stay nil")
	assert.Nil(t, f.Overrides.Timeout)
	assert.Empty(t, f.Replacements)

	cfg := Resolve(Defaults(), f.Overrides)
	assert.True(t, cfg.SafeMode)
	assert.Equal(t, DefaultOutputFolder, cfg.OutputFolder)
}

func TestParsersErrors(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		content     string
		errContains string
	}{
		{
			name:        "toml_syntax",
			filename:    "phpstatic.toml",
			content:     "[config\noutput_folder = ",
			errContains: "parsing TOML",
		},
		{
			name:        "toml_bad_timeout",
			filename:    "phpstatic.toml",
			content:     "[config]\ntimeout = \"soon\"\n",
			errContains: "invalid timeout",
		},
		{
			name:        "toml_negative_jobs",
			filename:    "phpstatic.toml",
			content:     "[config]\njobs = -2\n",
			errContains: "jobs must not be negative",
		},
		{
			name:        "hcl_syntax",
			filename:    "phpstatic.hcl",
			content:     "config {",
			errContains: "parsing HCL",
		},
		{
			name:        "hcl_unknown_attribute",
			filename:    "phpstatic.hcl",
			content:     "config {\n  colour = \"blue\"\n}\n",
			errContains: "decoding config block",
		},
		{
			name:        "hcl_non_string_replacement",
			filename:    "phpstatic.hcl",
			content:     "replace = {\n  year = [1]\n}\n",
			errContains: "must be a string",
		},
		{
			name:        "yaml_not_a_mapping",
			filename:    "phpstatic.yaml",
			content:     "- a\n- b\n",
			errContains: "top level must be a mapping",
		},
		{
			name:        "yaml_nested_replacement",
			filename:    "phpstatic.yml",
			content:     "replace:\n  a:\n    b: c\n",
			errContains: "scalar pairs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := GetParser(tt.filename)
			require.NotNil(t, p)

			_, err := p.Parse(context.Background(), []byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestUnknownKeys(t *testing.T) {
	t.Run("toml", func(t *testing.T) {
		f, err := GetParser("x.toml").Parse(context.Background(), []byte("[config]\ncolour = \"blue\"\n[extra]\nkey = 1\n"))
		require.NoError(t, err)
		assert.Contains(t, f.UnknownKeys, "config.colour")
		assert.Contains(t, f.UnknownKeys, "extra.key")
	})

	t.Run("yaml", func(t *testing.T) {
		f, err := GetParser("x.yaml").Parse(context.Background(), []byte("config:\n  colour: blue\nextra: 1\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"config.colour", "extra"}, f.UnknownKeys)
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("missing_file", func(t *testing.T) {
		f, err := Load(ctx, t.TempDir(), "")
		require.NoError(t, err, "a missing file is not an error")
		assert.Nil(t, f)
	})

	t.Run("search_order", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "PHPStaticRender.toml"), []byte("[config]\noutput_folder = \"legacy\"\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "phpstatic.yaml"), []byte("config:\n  output_folder: yaml\n"), 0644))

		f, err := Load(ctx, root, "")
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Equal(t, filepath.Join(root, "phpstatic.yaml"), f.Path)
		assert.Equal(t, "yaml", *f.Overrides.OutputFolder)
	})

	t.Run("legacy_name", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "PHPStaticRender.toml"), []byte("[replace]\n\"{{YEAR}}\" = \"2024\"\n"), 0644))

		f, err := Load(ctx, root, "")
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Equal(t, []text.ReplacementRule{{FromText: "{{YEAR}}", ToText: "2024"}}, f.Replacements)
	})

	t.Run("explicit_relative_path", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "site.hcl"), []byte("config {\n  jobs = 2\n}\n"), 0644))

		f, err := Load(ctx, root, filepath.Join("conf", "site.hcl"))
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Equal(t, 2, *f.Overrides.Jobs)
	})

	t.Run("explicit_missing", func(t *testing.T) {
		_, err := Load(ctx, t.TempDir(), "nope.toml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})

	t.Run("unsupported_extension", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "site.ini"), []byte("a=b"), 0644))

		_, err := Load(ctx, root, "site.ini")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no parser found")
	})

	t.Run("malformed", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "phpstatic.toml"), []byte("[config\n"), 0644))

		f, err := Load(ctx, root, "")
		require.Error(t, err)
		assert.Nil(t, f)
		assert.Contains(t, err.Error(), "phpstatic.toml")
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Resolve(Defaults(), Overrides{
		OutputFolder: StringPtr("dist"),
		SafeMode:     BoolPtr(true),
		Timeout:      DurationPtr(5 * time.Second),
		Jobs:         IntPtr(3),
	})
	rules := []text.ReplacementRule{{FromText: "{{YEAR}}", ToText: "2024"}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg, rules))

	f, err := GetParser("phpstatic.toml").Parse(context.Background(), buf.Bytes())
	require.NoError(t, err)

	got := Resolve(Defaults(), f.Overrides)
	assert.Equal(t, "dist", got.OutputFolder)
	assert.True(t, got.SafeMode)
	assert.Equal(t, 5*time.Second, got.Timeout)
	assert.Equal(t, 3, got.Jobs)
	assert.Equal(t, cfg.IgnoreSystem.Names(), got.IgnoreSystem.Names())
	assert.Equal(t, rules, f.Replacements)
}
