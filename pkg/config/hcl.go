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

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/walteh/phpstatic/pkg/text"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// hclSchema describes the top level of an HCL config:
//
//	config {
//	  output_folder = "_site"
//	}
//	replace = {
//	  "{{YEAR}}" = "2024"
//	}
var hclSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "config"},
	},
	Attributes: []hcl.AttributeSchema{
		{Name: "replace"},
	},
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "phpstatic.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	content, diags := hclFile.Body.Content(hclSchema)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	f := &File{}

	switch len(content.Blocks) {
	case 0:
	case 1:
		var raw rawConfig
		diags = gohcl.DecodeBody(content.Blocks[0].Body, nil, &raw)
		if diags.HasErrors() {
			return nil, errors.Errorf("decoding config block: %s", diags.Error())
		}
		overrides, err := raw.overrides()
		if err != nil {
			return nil, errors.Errorf("validating config block: %w", err)
		}
		f.Overrides = overrides
	default:
		return nil, errors.Errorf("only one config block is allowed, found %d", len(content.Blocks))
	}

	if attr, ok := content.Attributes["replace"]; ok {
		rules, err := hclReplacements(attr.Expr)
		if err != nil {
			return nil, errors.Errorf("decoding replace: %w", err)
		}
		f.Replacements = rules
	}

	return f, nil
}

// hclReplacements walks an object expression in source order
func hclReplacements(expr hcl.Expression) ([]text.ReplacementRule, error) {
	pairs, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		return nil, errors.Errorf("%s", diags.Error())
	}

	rules := make([]text.ReplacementRule, 0, len(pairs))
	for _, pair := range pairs {
		key, diags := pair.Key.Value(nil)
		if diags.HasErrors() {
			return nil, errors.Errorf("%s", diags.Error())
		}
		val, diags := pair.Value.Value(nil)
		if diags.HasErrors() {
			return nil, errors.Errorf("%s", diags.Error())
		}

		from, err := ctyString(key)
		if err != nil {
			return nil, errors.Errorf("key: %w", err)
		}
		to, err := ctyString(val)
		if err != nil {
			return nil, errors.Errorf("value for %q: %w", from, err)
		}
		rules = append(rules, text.ReplacementRule{FromText: from, ToText: to})
	}
	return rules, nil
}

func ctyString(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", errors.New("must be a known, non-null string")
	}
	if v.Type() != cty.String {
		return "", errors.Errorf("must be a string, got %s", v.Type().FriendlyName())
	}
	return v.AsString(), nil
}
