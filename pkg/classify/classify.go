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

// Package classify decides what the build does with each directory entry.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/phpstatic/pkg/config"
)

// 🎯 Action is what happens to an entry
type Action int

const (
	Ignore Action = iota
	Render        // run through the interpreter
	Copy          // duplicate byte for byte
)

// String returns a string representation of Action
func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Copy:
		return "copy"
	default:
		return "ignore"
	}
}

// 🔍 Reason explains why an entry was ignored
type Reason int

const (
	ReasonNone    Reason = iota
	ReasonSymlink        // symbolic links are never followed
	ReasonOwn            // the output folder, the tool itself or its config file
	ReasonSystem         // name is in the system ignore set
	ReasonHidden         // name starts with a dot
	ReasonPrefix         // name starts with the ignore prefix
	ReasonGlob           // relative path matches an ignore glob
)

// String returns a string representation of Reason
func (r Reason) String() string {
	switch r {
	case ReasonSymlink:
		return "symlink"
	case ReasonOwn:
		return "own"
	case ReasonSystem:
		return "system"
	case ReasonHidden:
		return "hidden"
	case ReasonPrefix:
		return "prefix"
	case ReasonGlob:
		return "glob"
	default:
		return "none"
	}
}

// 📋 Decision is the classifier's verdict for one entry
type Decision struct {
	Action Action
	Reason Reason
}

// Counted reports whether the decision contributes to the ignored counter.
// Entries that belong to the tool rather than the project are not counted.
func (d Decision) Counted() bool {
	return d.Action == Ignore && d.Reason != ReasonOwn
}

// 📄 Entry describes a directory entry as seen by the walk
type Entry struct {
	Name      string // Base name
	Path      string // Absolute path
	RelPath   string // Slash-separated path relative to the project root
	IsDir     bool
	IsSymlink bool
}

// Options configures a Classifier
type Options struct {
	// OutputDir is the absolute output folder; it is never part of the project
	OutputDir string
	// OwnPaths are absolute paths that belong to the tool (its binary, its config file)
	OwnPaths []string
}

// 🔧 Classifier applies the ignore rules of a BuildConfig
type Classifier struct {
	cfg       config.BuildConfig
	outputDir string
	ownPaths  config.NameSet
	logger    *zerolog.Logger
}

// New creates a classifier for cfg
func New(cfg config.BuildConfig, opts Options, logger *zerolog.Logger) *Classifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	ownPaths := make([]string, 0, len(opts.OwnPaths))
	for _, p := range opts.OwnPaths {
		ownPaths = append(ownPaths, filepath.Clean(p))
	}

	outputDir := ""
	if opts.OutputDir != "" {
		outputDir = filepath.Clean(opts.OutputDir)
	}

	return &Classifier{
		cfg:       cfg,
		outputDir: outputDir,
		ownPaths:  config.NewNameSet(ownPaths...),
		logger:    logger,
	}
}

// Classify returns the decision for entry. Rules are checked in order and the
// first match wins.
func (c *Classifier) Classify(entry Entry) Decision {
	switch {
	case entry.IsSymlink:
		return ignored(ReasonSymlink)
	case c.isOwn(entry):
		return ignored(ReasonOwn)
	case c.cfg.IgnoreSystem.Contains(entry.Name):
		return ignored(ReasonSystem)
	case strings.HasPrefix(entry.Name, "."):
		return ignored(ReasonHidden)
	case c.cfg.IgnorePrefix != "" && strings.HasPrefix(entry.Name, c.cfg.IgnorePrefix):
		return ignored(ReasonPrefix)
	case c.matchesGlob(entry.RelPath):
		return ignored(ReasonGlob)
	case !entry.IsDir && c.IsRenderTarget(entry.Name):
		return Decision{Action: Render}
	default:
		return Decision{Action: Copy}
	}
}

// IsRenderTarget reports whether name ends with the render extension, ignoring case
func (c *Classifier) IsRenderTarget(name string) bool {
	ext := c.cfg.RenderExtension
	return ext != "" && len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}

// OutputName maps a render target's relative path to its output path
func (c *Classifier) OutputName(rel string) string {
	if !c.IsRenderTarget(rel) {
		return rel
	}
	return rel[:len(rel)-len(c.cfg.RenderExtension)] + c.cfg.OutputExtension
}

func (c *Classifier) isOwn(entry Entry) bool {
	path := filepath.Clean(entry.Path)
	if c.outputDir != "" && path == c.outputDir {
		return true
	}
	return c.ownPaths.Contains(path)
}

func (c *Classifier) matchesGlob(rel string) bool {
	for _, pattern := range c.cfg.IgnoreGlobs {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			c.logger.Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			c.logger.Debug().Str("path", rel).Str("pattern", pattern).Msg("entry ignored by pattern")
			return true
		}
	}
	return false
}

func ignored(r Reason) Decision {
	return Decision{Action: Ignore, Reason: r}
}
