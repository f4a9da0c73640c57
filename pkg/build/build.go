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

package build

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/phpstatic/pkg/classify"
	"github.com/walteh/phpstatic/pkg/config"
	"github.com/walteh/phpstatic/pkg/log"
	"github.com/walteh/phpstatic/pkg/output"
	"github.com/walteh/phpstatic/pkg/render"
	"github.com/walteh/phpstatic/pkg/text"
)

// ErrSetup marks failures that abort the build before any file is processed
var ErrSetup = errors.New("build setup failed")

// setupError matches both ErrSetup and its cause
type setupError struct {
	err error
}

func (e *setupError) Error() string {
	return ErrSetup.Error() + ": " + e.err.Error()
}

func (e *setupError) Unwrap() []error {
	return []error{ErrSetup, e.err}
}

// 🎯 Options configures a build
type Options struct {
	Root         string                 // Project root, defaults to the working directory
	Config       config.BuildConfig     // Resolved configuration
	Replacements []text.ReplacementRule // Applied in order to every rendered page
	Renderer     render.Renderer        // Nil locates the interpreter from Config
	Console      *log.Logger            // Nil discards console output
	OwnPaths     []string               // Absolute paths that belong to the tool
	Banner       bool                   // Print the startup banner
	Version      string                 // Shown in the banner
}

// 🏗️ builder holds the state of one run
type builder struct {
	opts       Options
	root       string
	console    *log.Logger
	renderer   render.Renderer
	classifier *classify.Classifier
	rewriter   *text.LinkRewriter
	replacer   *text.Replacer
	out        *output.Manager
	stats      Stats
}

// 🚀 Run builds the static site. Setup failures wrap ErrSetup and leave no
// statistics. Per-file failures are counted in the report. Cancellation stops
// the walk and returns the context error with the partial report.
func Run(ctx context.Context, opts Options) (*Report, error) {
	b, interpreter, err := setup(ctx, opts)
	if err != nil {
		return nil, err
	}

	ctx = b.console.Zerolog().WithContext(ctx)

	if opts.Banner {
		b.console.Banner(log.BannerInfo{
			Version:     opts.Version,
			Interpreter: interpreter,
			Source:      b.root,
			Destination: b.out.Dir(),
		})
	}

	if err := b.prepare(ctx); err != nil {
		return nil, err
	}

	walkErr := b.walk(ctx)

	totals := b.stats.Totals()
	report := &Report{
		Rendered:    totals.Rendered,
		Copied:      totals.Copied,
		Ignored:     totals.Ignored,
		Errors:      totals.Errors,
		OutputDir:   b.out.Dir(),
		Interpreter: interpreter,
		Written:     b.out.Written(),
	}

	if walkErr != nil {
		return report, errors.Errorf("walking %s: %w", b.root, walkErr)
	}

	b.console.Summary(report.Totals(), report.OutputDir)
	return report, nil
}

// setup resolves the root, the renderer and the output folder
func setup(ctx context.Context, opts Options) (*builder, string, error) {
	console := opts.Console
	if console == nil {
		console = log.NewWithZerolog(io.Discard, zerolog.Nop())
	}

	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, "", &setupError{err: errors.Errorf("resolving project root: %w", err)}
	}

	cfg := opts.Config
	logger := console.Zerolog()

	renderer := opts.Renderer
	if renderer == nil {
		path, err := render.Locate(logger.WithContext(ctx), cfg.InterpreterPath)
		if err != nil {
			return nil, "", &setupError{err: err}
		}

		enc, err := render.LookupEncoding(cfg.Encoding)
		if err != nil {
			console.Warningf("%v, using utf-8", err)
		}

		renderer = render.NewInterpreter(render.Options{
			Path:     path,
			WorkDir:  root,
			SafeMode: cfg.SafeMode,
			Timeout:  cfg.Timeout,
			Encoding: enc,
		})
	}

	interpreter := ""
	if p, ok := renderer.(interface{ Path() string }); ok {
		interpreter = p.Path()
	}

	out, err := output.New(root, cfg.OutputFolder, logger)
	if err != nil {
		return nil, "", &setupError{err: err}
	}

	replacer := text.NewReplacer()
	if err := replacer.ValidateRules(opts.Replacements); err != nil {
		console.Warningf("ignoring invalid replacement: %v", err)
	}

	return &builder{
		opts:     opts,
		root:     root,
		console:  console,
		renderer: renderer,
		classifier: classify.New(cfg, classify.Options{
			OutputDir: out.Dir(),
			OwnPaths:  opts.OwnPaths,
		}, logger),
		rewriter: text.NewLinkRewriter(cfg.RenderExtension, cfg.OutputExtension),
		replacer: replacer,
		out:      out,
	}, interpreter, nil
}

// prepare empties and recreates the output folder. Only creation failures are fatal.
func (b *builder) prepare(ctx context.Context) error {
	if err := b.out.Clear(ctx); err != nil {
		b.console.Warningf("failed to clean old output folder (%v), trying to continue", err)
	}
	if err := b.out.Create(ctx); err != nil {
		return &setupError{err: err}
	}
	return nil
}

// walk visits the tree in lexical order. File work is handed to an errgroup
// limited to Config.Jobs, so a limit of one keeps the run sequential.
// Unresolved configs with no job count run sequentially too.
func (b *builder) walk(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.opts.Config.Jobs))

	walkErr := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := gctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path == b.root {
			return err
		}

		rel, relErr := filepath.Rel(b.root, path)
		if relErr != nil {
			return relErr
		}
		display := filepath.ToSlash(rel)

		if err != nil {
			// unreadable directory, or an entry that vanished mid-walk
			b.console.IOError(display, err)
			b.stats.addError()
			return nil
		}

		entry := classify.Entry{
			Name:      d.Name(),
			Path:      path,
			RelPath:   display,
			IsDir:     d.IsDir(),
			IsSymlink: d.Type()&fs.ModeSymlink != 0,
		}

		decision := b.classifier.Classify(entry)
		switch decision.Action {
		case classify.Ignore:
			if decision.Counted() {
				b.stats.addIgnored()
			}
			zerolog.Ctx(ctx).Debug().Str("path", display).Str("reason", decision.Reason.String()).Msg("ignored")
			if entry.IsDir {
				return filepath.SkipDir
			}
			return nil

		case classify.Copy:
			if entry.IsDir {
				if err := b.out.CreateDir(gctx, rel); err != nil {
					b.console.IOError(display, err)
					b.stats.addError()
					return filepath.SkipDir
				}
				return nil
			}
			g.Go(func() error {
				return b.copyFile(gctx, path, rel)
			})

		case classify.Render:
			g.Go(func() error {
				return b.render(gctx, path, rel)
			})
		}
		return nil
	})

	groupErr := g.Wait()

	if walkErr != nil {
		return walkErr
	}
	if groupErr != nil {
		return groupErr
	}
	return ctx.Err()
}

// render runs one page through the renderer, the link rewriter and the replacements.
// Only cancellation is returned; page failures are counted.
func (b *builder) render(ctx context.Context, path, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	display := filepath.ToSlash(rel)

	markup, err := b.renderer.Render(ctx, path)
	if err != nil {
		var failure *render.Failure
		if !errors.As(err, &failure) {
			return err
		}
		if failure.Kind == render.KindIO {
			b.console.IOError(display, failure)
		} else {
			b.console.RenderError(display, failure.Diagnostic)
		}
		b.stats.addError()
		return nil
	}

	markup = b.rewriter.Rewrite(markup)
	result := b.replacer.Apply(markup, b.opts.Replacements)

	outRel := b.classifier.OutputName(rel)
	if err := b.out.WriteFile(ctx, outRel, []byte(result.Content)); err != nil {
		b.console.IOError(display, err)
		b.stats.addError()
		return nil
	}

	zerolog.Ctx(ctx).Debug().Str("path", display).Int("replacements", result.ReplacementCount).Msg("page written")
	b.console.Rendered(display, filepath.ToSlash(outRel))
	b.stats.addRendered()
	return nil
}

// copyFile duplicates one static file
func (b *builder) copyFile(ctx context.Context, path, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	display := filepath.ToSlash(rel)
	if err := b.out.CopyFile(ctx, path, rel); err != nil {
		b.console.CopyError(display, err)
		b.stats.addError()
		return nil
	}

	b.console.Copied(display)
	b.stats.addCopied()
	return nil
}
