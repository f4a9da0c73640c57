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
	"io"

	"github.com/spf13/cobra"

	"github.com/walteh/phpstatic/pkg/config"
)

// newConfigCmd prints the configuration a build would use, as TOML
func newConfigCmd(flags *rootFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "config [project-dir]",
		Short: "Print the resolved configuration",
		Long: `config merges the defaults, the project's configuration file and any
flags, then prints the result as TOML. Informational messages go to stderr so
the output can be saved as a new phpstatic.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolve(cmd, flags, args, stderr, stderr)
			if err != nil {
				return err
			}
			return config.Encode(stdout, r.cfg, r.replacements)
		},
	}
}
