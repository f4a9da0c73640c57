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

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/phpstatic/pkg/build"
	"github.com/walteh/phpstatic/pkg/config"
	"github.com/walteh/phpstatic/pkg/log"
	"github.com/walteh/phpstatic/pkg/text"
)

// rootFlags holds the values of the shared flags
type rootFlags struct {
	configFile string
	output     string
	php        string
	safeMode   bool
	jobs       int
	timeout    time.Duration
	debug      bool
	noColor    bool
	noBanner   bool
}

// resolved is everything a command needs once flags and the config file are merged
type resolved struct {
	root         string
	cfg          config.BuildConfig
	replacements []text.ReplacementRule
	configPath   string
	console      *log.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "phpstatic [project-dir]",
		Short: "Render a PHP site into a static HTML site",
		Long: `phpstatic walks a PHP project, runs every page through the PHP CLI and
writes the output as .html next to byte-for-byte copies of the static assets.
Links to .php pages are rewritten to .html and [replace] rules from the
configuration file are applied to every rendered page.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolve(cmd, flags, args, stdout, stderr)
			if err != nil {
				return err
			}
			return runBuild(cmd.Context(), r, flags)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file path (default: search the project root)")
	pf.StringVarP(&flags.output, "output", "o", "", "output folder, relative to the project root")
	pf.StringVar(&flags.php, "php", "", "path to the php executable")
	pf.BoolVar(&flags.safeMode, "safe-mode", false, "disable process spawning and remote includes in php")
	pf.IntVarP(&flags.jobs, "jobs", "j", 1, "number of files processed in parallel")
	pf.DurationVar(&flags.timeout, "timeout", 0, "maximum time a single page may render (0 disables)")
	pf.BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	pf.BoolVar(&flags.noBanner, "no-banner", false, "do not print the startup banner")

	cmd.AddCommand(
		newVersionCmd(flags),
		newConfigCmd(flags, stdout, stderr),
	)

	return cmd
}

// resolve merges defaults, the config file and the flags that were set
func resolve(cmd *cobra.Command, flags *rootFlags, args []string, stdout, stderr io.Writer) (*resolved, error) {
	if flags.noColor {
		color.NoColor = true
		pterm.DisableColor()
	}

	level := zerolog.Disabled
	if flags.debug {
		level = zerolog.DebugLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: flags.noColor}).With().Timestamp().Logger().Level(level)
	console := log.NewWithZerolog(stdout, zlog)
	ctx := zlog.WithContext(cmd.Context())

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving project root: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, errors.Errorf("project root %s is not a directory", root)
	}

	explicit := flags.configFile
	if explicit != "" {
		if explicit, err = filepath.Abs(explicit); err != nil {
			return nil, errors.Errorf("resolving config path: %w", err)
		}
	}

	r := &resolved{root: root, console: console}
	var fileOverrides config.Overrides

	file, err := config.Load(ctx, root, explicit)
	switch {
	case err != nil:
		console.Warningf("could not load configuration (%v), using defaults", err)
	case file == nil:
		console.Info("No configuration file found, using defaults")
	default:
		console.Infof("Configuration loaded from: %s", file.Path)
		for _, key := range file.UnknownKeys {
			console.Warningf("unknown configuration key %q ignored", key)
		}
		fileOverrides = file.Overrides
		r.replacements = file.Replacements
		r.configPath = file.Path
	}

	r.cfg = config.Resolve(config.Defaults(), fileOverrides, flagOverrides(cmd, flags))
	return r, nil
}

// flagOverrides returns the values of flags the user actually set
func flagOverrides(cmd *cobra.Command, flags *rootFlags) config.Overrides {
	var o config.Overrides
	changed := cmd.Flags().Changed

	if changed("output") {
		o.OutputFolder = config.StringPtr(flags.output)
	}
	if changed("php") {
		o.InterpreterPath = config.StringPtr(flags.php)
	}
	if changed("safe-mode") {
		o.SafeMode = config.BoolPtr(flags.safeMode)
	}
	if changed("jobs") {
		o.Jobs = config.IntPtr(flags.jobs)
	}
	if changed("timeout") {
		o.Timeout = config.DurationPtr(flags.timeout)
	}
	return o
}

// ownPaths lists the files a build must never publish: the loaded config
// and the running executable, both as given and with symlinks resolved
func ownPaths(configPath string) []string {
	var paths []string
	if configPath != "" {
		paths = append(paths, configPath)
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, exe)
		if resolvedExe, err := filepath.EvalSymlinks(exe); err == nil && resolvedExe != exe {
			paths = append(paths, resolvedExe)
		}
	}
	return paths
}

func runBuild(ctx context.Context, r *resolved, flags *rootFlags) error {
	if flags.noBanner {
		r.console.Header("building " + r.root)
	}

	_, err := build.Run(ctx, build.Options{
		Root:         r.root,
		Config:       r.cfg,
		Replacements: r.replacements,
		Console:      r.console,
		OwnPaths:     ownPaths(r.configPath),
		Banner:       !flags.noBanner,
		Version:      readBuildStamp().Version,
	})
	return err
}
