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
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/walteh/phpstatic/pkg/render"
)

// buildStamp is what the Go toolchain recorded about this binary
type buildStamp struct {
	Version  string
	Go       string
	Platform string
	Commit   string
	Date     string
	Dirty    bool
}

// readBuildStamp falls back to "dev" for local builds
func readBuildStamp() buildStamp {
	stamp := buildStamp{
		Version:  "dev",
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return stamp
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		stamp.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			stamp.Commit = s.Value
		case "vcs.time":
			stamp.Date = s.Value
		case "vcs.modified":
			stamp.Dirty = s.Value == "true"
		}
	}
	return stamp
}

// writeVersion prints the stamp and the interpreter a build would use
func writeVersion(w io.Writer, stamp buildStamp, interpreter string) error {
	commit := stamp.Commit
	if stamp.Dirty {
		commit += " (modified)"
	}
	_, err := fmt.Fprintf(w, `🚀 phpstatic version info:
Version:   %s
Revision:  %s
Built:     %s
Go:        %s
Platform:  %s
PHP:       %s
`, stamp.Version, commit, stamp.Date, stamp.Go, stamp.Platform, interpreter)
	return err
}

func newVersionCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information and the PHP interpreter in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interpreter, err := render.Locate(cmd.Context(), flags.php)
			if err != nil {
				interpreter = "not found"
			}
			return writeVersion(cmd.OutOrStdout(), readBuildStamp(), interpreter)
		},
	}
}
