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

package render

import (
	"fmt"
	"strings"
)

// diagnosticLines is how much of the interpreter's stderr a failure keeps
const diagnosticLines = 5

// 📊 FailureKind separates interpreter errors from I/O errors
type FailureKind int

const (
	KindInterpreter FailureKind = iota // interpreter ran and exited non-zero (or timed out)
	KindIO                             // the page could not be read or the interpreter not started
)

// String returns a string representation of FailureKind
func (k FailureKind) String() string {
	if k == KindIO {
		return "io"
	}
	return "interpreter"
}

// ❌ Failure is returned by Render when a page could not be rendered
type Failure struct {
	Kind       FailureKind
	Path       string   // Source file
	Diagnostic []string // Last lines of stderr, or the I/O error message
	Err        error    // Underlying error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s failure rendering %s", f.Kind, f.Path)
	if len(f.Diagnostic) > 0 {
		msg += ": " + strings.Join(f.Diagnostic, "; ")
	} else if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// lastLines returns at most n non-empty trailing lines of s
func lastLines(s string, n int) []string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
