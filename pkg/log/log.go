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

package log

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	ruleWidth     = 60      // width of the summary separator
	diagPrefix    = "   └── " // prefix for diagnostic lines under a failed page
	bannerLetters = "PHPStatic"
)

// 📊 Totals are the four counters printed in the summary
type Totals struct {
	Rendered int
	Copied   int
	Ignored  int
	Errors   int
}

// 🏷️ BannerInfo is shown under the startup banner
type BannerInfo struct {
	Version     string
	Interpreter string
	Source      string
	Destination string
}

// 🎯 Logger writes one console line per file and mirrors every line to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger. The zerolog mirror writes to stderr at level.
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	return NewWithZerolog(console, zlog)
}

// NewWithZerolog creates a logger that mirrors to zlog
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// Zerolog returns the structured logger this logger mirrors to
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// 🛡️ SafeMessage returns s unchanged when it is valid UTF-8, otherwise an
// ASCII-escaped rendering so the console never receives broken bytes.
func SafeMessage(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	q := strconv.QuoteToASCII(s)
	return q[1 : len(q)-1]
}

func (l *Logger) println(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console, line)
}

// 🚀 Banner prints the startup banner followed by the run details
func (l *Logger) Banner(info BannerInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	big, err := pterm.DefaultBigText.WithLetters(putils.LettersFromString(bannerLetters)).Srender()
	if err != nil {
		big = bannerLetters + "\n"
	}
	fmt.Fprint(l.console, big)

	label := color.New(color.Faint)
	fmt.Fprintf(l.console, "%s\n", color.New(color.Bold, color.FgCyan).Sprint("PHP static site generator "+info.Version))
	fmt.Fprintf(l.console, "%s %s\n", label.Sprint("Interpreter:"), SafeMessage(info.Interpreter))
	fmt.Fprintf(l.console, "%s %s\n", label.Sprint("Source:"), SafeMessage(info.Source))
	fmt.Fprintf(l.console, "%s %s\n", label.Sprint("Destination:"), SafeMessage(info.Destination))
	fmt.Fprintln(l.console, strings.Repeat("=", ruleWidth))

	l.zlog.Debug().
		Str("version", info.Version).
		Str("interpreter", info.Interpreter).
		Str("source", info.Source).
		Str("destination", info.Destination).
		Msg("starting build")
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	name := color.New(color.Bold, color.FgCyan).Sprint("phpstatic")
	l.println(fmt.Sprintf("%s %s", name, color.New(color.Faint).Sprint("• "+SafeMessage(msg))))
	l.zlog.Debug().Msg(msg)
}

// 📄 Rendered logs a page written as outRel
func (l *Logger) Rendered(rel, outRel string) {
	l.println(fmt.Sprintf("%s %s -> %s", color.GreenString("[RENDER]"), SafeMessage(rel), SafeMessage(outRel)))
	l.zlog.Debug().Str("file", rel).Str("output", outRel).Msg("rendered")
}

// 📦 Copied logs a static file copy
func (l *Logger) Copied(rel string) {
	l.println(fmt.Sprintf("%s %s", color.BlueString("[COPY]"), SafeMessage(rel)))
	l.zlog.Debug().Str("file", rel).Msg("copied")
}

// ❌ RenderError logs a page the interpreter failed on, with its diagnostic lines
func (l *Logger) RenderError(rel string, diagnostic []string) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s", color.RedString("[RENDER ERROR]"), SafeMessage(rel)))
	for _, line := range diagnostic {
		b.WriteString("\n" + diagPrefix + SafeMessage(line))
	}
	l.println(b.String())
	l.zlog.Debug().Str("file", rel).Strs("diagnostic", diagnostic).Msg("render failed")
}

// ❌ IOError logs a page that could not be read or written
func (l *Logger) IOError(rel string, err error) {
	l.println(fmt.Sprintf("%s %s: %s", color.RedString("[IO ERROR]"), SafeMessage(rel), SafeMessage(err.Error())))
	l.zlog.Debug().Str("file", rel).Err(err).Msg("io failure")
}

// ❌ CopyError logs a static file that could not be copied
func (l *Logger) CopyError(rel string, err error) {
	l.println(fmt.Sprintf("%s %s: %s", color.RedString("[COPY ERROR]"), SafeMessage(rel), SafeMessage(err.Error())))
	l.zlog.Debug().Str("file", rel).Err(err).Msg("copy failed")
}

// 📊 Summary prints the final counters and where the site was written
func (l *Logger) Summary(t Totals, dir string) {
	l.println(strings.Repeat("-", ruleWidth))
	l.Success("Process completed!")
	l.println(fmt.Sprintf("Statistics: %d Pages | %d Files | %d Ignored | %d Errors", t.Rendered, t.Copied, t.Ignored, t.Errors))
	l.println("Site available at: " + SafeMessage(dir))

	l.zlog.Info().
		Int("rendered", t.Rendered).
		Int("copied", t.Copied).
		Int("ignored", t.Ignored).
		Int("errors", t.Errors).
		Str("output", dir).
		Msg("build complete")
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.println(fmt.Sprintf("✅ %s", color.New(color.FgGreen).Sprint(SafeMessage(msg))))
	l.zlog.Debug().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.println(fmt.Sprintf("⚠️  %s", color.New(color.FgYellow).Sprint(SafeMessage(msg))))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.println(fmt.Sprintf("❌ %s", color.New(color.FgRed).Sprint(SafeMessage(msg))))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.println(fmt.Sprintf("ℹ️  %s", color.New(color.FgCyan).Sprint(SafeMessage(msg))))
	l.zlog.Debug().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}
