package text

import (
	"regexp"
	"strings"
)

// attrPattern finds name="value" and name='value' for href, src, action and
// data-* attributes. It is a heuristic over attribute syntax, not a markup
// parser: values holding a quote or '>' are never matched.
var attrPattern = regexp.MustCompile(`(?i)\b(href|src|action|data-[\w-]+)(\s*=\s*)(?:"([^"'>]+)"|'([^"'>]+)')`)

// values starting with one of these point outside the site
var externalPrefixes = []string{"http://", "https://", "mailto:", "tel:", "ftp://", "//", "#"}

// values containing one of these are unresolved template or script syntax
var templateMarkers = []string{"<?php", "<?=", "{", "$"}

// LinkRewriter converts internal links to rendered pages so they point at
// the generated files (about.php -> about.html).
type LinkRewriter struct {
	renderExt string
	outputExt string
	segment   *regexp.Regexp
	template  string
}

// NewLinkRewriter creates a rewriter for the given extensions, e.g. ".php" and ".html"
func NewLinkRewriter(renderExt, outputExt string) *LinkRewriter {
	return &LinkRewriter{
		renderExt: renderExt,
		outputExt: outputExt,
		segment:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(renderExt) + `([?#])`),
		template:  strings.ReplaceAll(outputExt, "$", "$$") + "${1}",
	}
}

// Rewrite returns markup with every eligible attribute value converted.
// Attribute names, spacing and quotes are kept as they are. Rewriting
// converted markup again changes nothing, except for a value that ends with
// the render extension and also carries it before '?' or '#'
// (a.php?next=b.php), whose query part is converted on the first pass.
func (l *LinkRewriter) Rewrite(markup string) string {
	if l.renderExt == "" {
		return markup
	}

	matches := attrPattern.FindAllStringSubmatchIndex(markup, -1)
	if len(matches) == 0 {
		return markup
	}

	var b strings.Builder
	b.Grow(len(markup))
	last := 0
	for _, m := range matches {
		// group 3 is the double quoted value, group 4 the single quoted one
		start, end := m[6], m[7]
		if start < 0 {
			start, end = m[8], m[9]
		}
		b.WriteString(markup[last:start])
		b.WriteString(l.ConvertValue(markup[start:end]))
		last = end
	}
	b.WriteString(markup[last:])

	return b.String()
}

// ConvertValue converts a single attribute value. A value ending with the
// render extension only has that trailing extension replaced. Otherwise each
// render extension directly followed by '?' or '#' is replaced, keeping the
// following character.
func (l *LinkRewriter) ConvertValue(value string) string {
	if l.renderExt == "" || !shouldConvert(value) {
		return value
	}

	if n := len(l.renderExt); len(value) >= n && strings.EqualFold(value[len(value)-n:], l.renderExt) {
		return value[:len(value)-n] + l.outputExt
	}

	return l.segment.ReplaceAllString(value, l.template)
}

func shouldConvert(value string) bool {
	lower := strings.ToLower(value)
	for _, p := range externalPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	for _, m := range templateMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}
