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
	"sync"

	"github.com/walteh/phpstatic/pkg/log"
)

// 📊 Stats accumulates the outcome of every visited entry. Safe for concurrent use.
type Stats struct {
	mu       sync.Mutex
	rendered int
	copied   int
	ignored  int
	errors   int
}

func (s *Stats) addRendered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rendered++
}

func (s *Stats) addCopied() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.copied++
}

func (s *Stats) addIgnored() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignored++
}

func (s *Stats) addError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

// Totals returns a snapshot of the counters
func (s *Stats) Totals() log.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return log.Totals{
		Rendered: s.rendered,
		Copied:   s.copied,
		Ignored:  s.ignored,
		Errors:   s.errors,
	}
}

// 📋 Report is the result of a build
type Report struct {
	Rendered    int
	Copied      int
	Ignored     int
	Errors      int
	OutputDir   string   // Absolute output folder
	Interpreter string   // Interpreter executable, empty when the renderer does not report one
	Written     []string // Relative paths written into the output folder, sorted
}

// Totals returns the report's counters
func (r *Report) Totals() log.Totals {
	return log.Totals{
		Rendered: r.Rendered,
		Copied:   r.Copied,
		Ignored:  r.Ignored,
		Errors:   r.Errors,
	}
}
