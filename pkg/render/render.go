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

// Package render runs pages through the PHP interpreter.
package render

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// 🎨 Renderer turns a source page into markup.
//
// Render returns a *Failure for page-level problems. Any other error (the
// context being cancelled) means the build should stop.
type Renderer interface {
	Render(ctx context.Context, sourcePath string) (string, error)
}

// waitDelay bounds how long Render waits for output pipes after the process is killed
const waitDelay = 2 * time.Second

// safeModeArgs disable process spawning and remote URL access in PHP
var safeModeArgs = []string{
	"-d", "disable_functions=exec,system,shell_exec,passthru,proc_open,popen,pcntl_exec",
	"-d", "allow_url_fopen=0",
	"-d", "allow_url_include=0",
}

// Options configures an Interpreter
type Options struct {
	Path     string            // Interpreter executable
	WorkDir  string            // Working directory, the project root so includes resolve
	SafeMode bool              // Add safeModeArgs
	Timeout  time.Duration     // Zero means no timeout
	Encoding encoding.Encoding // Nil means UTF-8
}

// 🐘 Interpreter renders pages by running an external interpreter
type Interpreter struct {
	opts Options
}

// NewInterpreter creates an interpreter-backed Renderer
func NewInterpreter(opts Options) *Interpreter {
	if opts.Encoding == nil {
		opts.Encoding = encoding.Nop
	}
	return &Interpreter{opts: opts}
}

// Path returns the interpreter executable
func (i *Interpreter) Path() string {
	return i.opts.Path
}

// Args returns the interpreter arguments for sourcePath
func (i *Interpreter) Args(sourcePath string) []string {
	var args []string
	if i.opts.SafeMode {
		args = append(args, safeModeArgs...)
	}
	return append(args, sourcePath)
}

// Render runs the interpreter against sourcePath and returns its decoded stdout
func (i *Interpreter) Render(ctx context.Context, sourcePath string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if err := checkReadable(sourcePath); err != nil {
		return "", &Failure{Kind: KindIO, Path: sourcePath, Diagnostic: []string{err.Error()}, Err: err}
	}

	runCtx := ctx
	if i.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, i.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, i.opts.Path, i.Args(sourcePath)...)
	cmd.Dir = i.opts.WorkDir
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug().Str("interpreter", i.opts.Path).Str("source", sourcePath).Bool("safe_mode", i.opts.SafeMode).Msg("invoking interpreter")

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Errorf("rendering %s: %w", sourcePath, ctx.Err())
		}

		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			diag := append([]string{"timed out after " + i.opts.Timeout.String()}, lastLines(stderr.String(), diagnosticLines-1)...)
			return "", &Failure{Kind: KindInterpreter, Path: sourcePath, Diagnostic: diag, Err: runCtx.Err()}
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// PHP CLI prints fatal errors on stdout unless display_errors=stderr
			diag := lastLines(i.decode(stderr.Bytes()), diagnosticLines)
			if len(diag) == 0 {
				diag = lastLines(i.decode(stdout.Bytes()), diagnosticLines)
			}
			if len(diag) == 0 {
				diag = []string{exitErr.Error()}
			}
			return "", &Failure{Kind: KindInterpreter, Path: sourcePath, Diagnostic: diag, Err: err}
		}

		return "", &Failure{Kind: KindIO, Path: sourcePath, Diagnostic: []string{err.Error()}, Err: err}
	}

	if stderr.Len() > 0 {
		logger.Debug().Str("source", sourcePath).Str("stderr", stderr.String()).Msg("interpreter wrote to stderr")
	}

	return i.decode(stdout.Bytes()), nil
}

// decode converts raw output to UTF-8, replacing undecodable bytes with U+FFFD
func (i *Interpreter) decode(raw []byte) string {
	out, _, err := transform.Bytes(i.opts.Encoding.NewDecoder(), raw)
	if err != nil {
		out = raw
	}
	return strings.ToValidUTF8(string(out), "�")
}

// LookupEncoding resolves an encoding label such as "utf-8" or "cp1252"
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(name))
	if err != nil {
		return nil, errors.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
