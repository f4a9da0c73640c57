package text

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ReplacementRule defines a single literal text replacement
type ReplacementRule struct {
	// FromText is the text to replace
	FromText string

	// ToText is the replacement text
	ToText string
}

// ReplacementResult contains the results of a replacement pass
type ReplacementResult struct {
	// WasModified indicates if any replacements were made
	WasModified bool

	// ReplacementCount is the number of substitutions made across all rules
	ReplacementCount int

	// Content is the text after every rule has been applied
	Content string
}

// Replacer applies ordered literal replacements to rendered pages
type Replacer struct{}

// NewReplacer creates a new Replacer
func NewReplacer() *Replacer {
	return &Replacer{}
}

// Apply runs every rule, in order, over the whole text. Each rule sees the
// output of the rules before it. Rules with an empty FromText are skipped.
func (r *Replacer) Apply(content string, rules []ReplacementRule) *ReplacementResult {
	result := &ReplacementResult{Content: content}

	for _, rule := range rules {
		if rule.FromText == "" {
			continue
		}

		n := strings.Count(result.Content, rule.FromText)
		if n == 0 {
			continue
		}

		result.Content = strings.ReplaceAll(result.Content, rule.FromText, rule.ToText)
		result.ReplacementCount += n
		result.WasModified = true
	}

	return result
}

// ValidateRules reports rules that can never match
func (r *Replacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.FromText == "" {
			return errors.Errorf("rule %d: search text is empty", i)
		}
	}
	return nil
}
