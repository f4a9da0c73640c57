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
	"context"
	"os"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultInterpreterName is looked up on PATH when no explicit path is configured
const DefaultInterpreterName = "php"

// ErrInterpreterNotFound is returned when no interpreter executable exists
var ErrInterpreterNotFound = errors.New("php interpreter not found")

// fallbackPath is the conventional install location checked last
var fallbackPath = platformFallback(runtime.GOOS)

func platformFallback(goos string) string {
	switch goos {
	case "windows":
		return `C:\xampp\php\php.exe`
	case "darwin":
		return "/opt/homebrew/bin/php"
	default:
		return "/usr/local/bin/php"
	}
}

// 🔍 Locate finds the interpreter: the explicit path if it exists, then PATH,
// then the platform's conventional install location.
func Locate(ctx context.Context, explicit string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if explicit != "" {
		if isFile(explicit) {
			return explicit, nil
		}
		logger.Debug().Str("path", explicit).Msg("configured interpreter not found, searching PATH")
	}

	if found, err := exec.LookPath(DefaultInterpreterName); err == nil {
		return found, nil
	}

	if fallbackPath != "" && isFile(fallbackPath) {
		return fallbackPath, nil
	}

	if explicit != "" {
		return "", errors.Errorf("%w: tried %s, PATH and %s", ErrInterpreterNotFound, explicit, fallbackPath)
	}
	return "", errors.Errorf("%w: tried PATH and %s", ErrInterpreterNotFound, fallbackPath)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
