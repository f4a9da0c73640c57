package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplacer_Apply(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		rules        []ReplacementRule
		want         string
		wantCount    int
		wantModified bool
	}{
		{
			name:    "simple_replacement",
			content: "Hello World",
			rules: []ReplacementRule{
				{FromText: "World", ToText: "Universe"},
			},
			want:         "Hello Universe",
			wantCount:    1,
			wantModified: true,
		},
		{
			name:    "all_occurrences",
			content: "© {{YEAR}} - {{YEAR}}",
			rules: []ReplacementRule{
				{FromText: "{{YEAR}}", ToText: "2024"},
			},
			want:         "© 2024 - 2024",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "later_rules_see_earlier_output",
			content: "A",
			rules: []ReplacementRule{
				{FromText: "A", ToText: "B"},
				{FromText: "B", ToText: "C"},
			},
			want:         "C",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "order_matters",
			content: "A",
			rules: []ReplacementRule{
				{FromText: "B", ToText: "C"},
				{FromText: "A", ToText: "B"},
			},
			want:         "B",
			wantCount:    1,
			wantModified: true,
		},
		{
			name:    "literal_not_pattern",
			content: "price: $1.00 (a.b)",
			rules: []ReplacementRule{
				{FromText: "$1", ToText: "€1"},
				{FromText: "a.b", ToText: "x"},
				{FromText: ".*", ToText: "nope"},
			},
			want:         "price: €1.00 (x)",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "no_match",
			content: "Hello World",
			rules: []ReplacementRule{
				{FromText: "Goodbye", ToText: "Hi"},
			},
			want:         "Hello World",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:    "empty_search_is_skipped",
			content: "abc",
			rules: []ReplacementRule{
				{FromText: "", ToText: "x"},
			},
			want:         "abc",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:         "empty_rules",
			content:      "Hello World",
			rules:        []ReplacementRule{},
			want:         "Hello World",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:         "nil_rules",
			content:      "Hello World",
			want:         "Hello World",
			wantCount:    0,
			wantModified: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replacer := NewReplacer()
			result := replacer.Apply(tt.content, tt.rules)

			require.NotNil(t, result)
			assert.Equal(t, tt.want, result.Content)
			assert.Equal(t, tt.wantCount, result.ReplacementCount)
			assert.Equal(t, tt.wantModified, result.WasModified)
		})
	}
}

func TestReplacer_Idempotent(t *testing.T) {
	// none of the search strings appear in any replacement
	rules := []ReplacementRule{
		{FromText: "{{YEAR}}", ToText: "2024"},
		{FromText: "{{SITE}}", ToText: "example.org"},
	}
	content := "<footer>{{SITE}} © {{YEAR}}</footer>"

	replacer := NewReplacer()
	once := replacer.Apply(content, rules).Content
	twice := replacer.Apply(once, rules).Content

	assert.Equal(t, "<footer>example.org © 2024</footer>", once)
	assert.Equal(t, once, twice)
}

func TestReplacer_ValidateRules(t *testing.T) {
	tests := []struct {
		name      string
		rules     []ReplacementRule
		wantError string
	}{
		{
			name:  "valid_rules",
			rules: []ReplacementRule{{FromText: "foo", ToText: "bar"}},
		},
		{
			name:  "empty_replacement_is_fine",
			rules: []ReplacementRule{{FromText: "foo"}},
		},
		{
			name:      "missing_search",
			rules:     []ReplacementRule{{FromText: "a"}, {ToText: "bar"}},
			wantError: "rule 1: search text is empty",
		},
		{
			name:  "empty_rules",
			rules: []ReplacementRule{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewReplacer().ValidateRules(tt.rules)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}

			require.NoError(t, err)
		})
	}
}
