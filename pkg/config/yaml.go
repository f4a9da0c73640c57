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
	"context"
	"strings"

	"github.com/walteh/phpstatic/pkg/text"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

func init() {
	Register(&YAMLParser{})
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *YAMLParser) CanParse(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

// 📝 Parse parses the config from YAML. The node API is used so that the
// replace mapping keeps its document order.
func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	f := &File{}

	// empty document
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("parsing YAML: top level must be a mapping")
	}

	var unknown []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "config":
			var raw rawConfig
			if err := value.Decode(&raw); err != nil {
				return nil, errors.Errorf("decoding config: %w", err)
			}
			overrides, err := raw.overrides()
			if err != nil {
				return nil, errors.Errorf("validating config: %w", err)
			}
			f.Overrides = overrides
			unknown = append(unknown, unknownYAMLKeys(value)...)
		case "replace":
			rules, err := yamlReplacements(value)
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

func yamlReplacements(node *yaml.Node) ([]text.ReplacementRule, error) {
	if node.Kind != yaml.MappingNode {
		if node.Tag == "!!null" {
			return nil, nil
		}
		return nil, errors.Errorf("replace must be a mapping")
	}

	rules := make([]text.ReplacementRule, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, errors.Errorf("line %d: replace entries must be scalar pairs", k.Line)
		}
		rules = append(rules, text.ReplacementRule{FromText: k.Value, ToText: v.Value})
	}
	return rules, nil
}

func unknownYAMLKeys(node *yaml.Node) []string {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	var out []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		if k := node.Content[i].Value; !knownConfigKeys[k] {
			out = append(out, "config."+k)
		}
	}
	return out
}
