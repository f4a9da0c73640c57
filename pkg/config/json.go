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

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/walteh/phpstatic/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".json")
}

// 📝 Parse parses the config from JSON bytes
func (p *JSONParser) Parse(ctx context.Context, data []byte) (*File, error) {
	f := &File{}
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}

	var unknown []string
	for key, value := range top {
		switch key {
		case "config":
			var raw rawConfig
			if err := json.Unmarshal(value, &raw); err != nil {
				return nil, errors.Errorf("decoding config: %w", err)
			}
			overrides, err := raw.overrides()
			if err != nil {
				return nil, errors.Errorf("validating config: %w", err)
			}
			f.Overrides = overrides

			var keys map[string]json.RawMessage
			if err := json.Unmarshal(value, &keys); err == nil {
				for k := range keys {
					if !knownConfigKeys[k] {
						unknown = append(unknown, "config."+k)
					}
				}
			}
		case "replace":
			rules, err := jsonReplacements(value)
			if err != nil {
				return nil, errors.Errorf("decoding replace: %w", err)
			}
			f.Replacements = rules
		default:
			unknown = append(unknown, key)
		}
	}
	f.UnknownKeys = sortedUnknown(unknown)

	return f, nil
}

// jsonReplacements walks the object token by token so pairs keep document order
func jsonReplacements(data json.RawMessage) ([]text.ReplacementRule, error) {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.Errorf("replace must be an object")
	}

	var rules []text.ReplacementRule
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, errors.Errorf("replace %q must be a string: %w", key, err)
		}
		rules = append(rules, text.ReplacementRule{FromText: key, ToText: value})
	}
	return rules, nil
}
