// Field-name reconciliation between UI labels and canonical storage columns.
package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// variantFuncs generates the recognized spellings of a canonical column
// name, tried in priority order after the exact match. The list is the
// matching policy; adding a spelling means appending a function here.
var variantFuncs = []func(words []string) string{
	spaced,
	titleCase,
	sentenceCase,
	camelCase,
	pascalCase,
	func(words []string) string { return strings.ToUpper(strings.Join(words, " ")) },
	func(words []string) string { return strings.ToLower(strings.Join(words, " ")) },
}

// Matcher resolves a staged edit's field name (often a UI-facing label) to
// a canonical storage column name. Strategies run in order: exact match,
// generated case/spacing variants of the canonical name, then a normalized
// fuzzy comparison that ignores everything but alphanumerics.
type Matcher struct {
	canonical []string
}

// NewMatcher builds a matcher over the canonical column names.
func NewMatcher(canonical []string) *Matcher {
	return &Matcher{canonical: canonical}
}

// Canonical maps a staged field name back to its canonical column name.
// Returns ok=false when no column claims the field.
func (m *Matcher) Canonical(field string) (string, bool) {
	for _, name := range m.canonical {
		if matches(name, field) {
			return name, true
		}
	}
	return "", false
}

// Find returns the key in available that resolves to the canonical column
// name, or ok=false when none does. This is the save-time direction: given
// a configured column, locate the edit staged under whatever label the UI
// used for it.
func Find(canonical string, available []string) (string, bool) {
	for _, field := range available {
		if matches(canonical, field) {
			return field, true
		}
	}
	return "", false
}

// matches reports whether field is a recognized spelling of canonical.
func matches(canonical, field string) bool {
	if field == canonical {
		return true
	}
	words := splitWords(canonical)
	for _, fn := range variantFuncs {
		if field == fn(words) {
			return true
		}
	}
	return normalize(field) == normalize(canonical)
}

// splitWords breaks a column name into its words: separators are spaces,
// underscores and hyphens, plus lower-to-upper camel boundaries.
func splitWords(name string) []string {
	var words []string
	var cur strings.Builder
	var prev rune
	for _, r := range name {
		switch {
		case r == ' ' || r == '_' || r == '-':
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		case r >= 'A' && r <= 'Z' && prev >= 'a' && prev <= 'z':
			words = append(words, cur.String())
			cur.Reset()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
		prev = r
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

func spaced(words []string) string {
	return strings.Join(words, " ")
}

func titleCase(words []string) string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = titleCaser.String(strings.ToLower(w))
	}
	return strings.Join(out, " ")
}

func sentenceCase(words []string) string {
	joined := strings.ToLower(strings.Join(words, " "))
	if joined == "" {
		return ""
	}
	return titleCaser.String(joined[:1]) + joined[1:]
}

func camelCase(words []string) string {
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(titleCaser.String(strings.ToLower(w)))
	}
	return b.String()
}

func pascalCase(words []string) string {
	var b strings.Builder
	for _, w := range words {
		b.WriteString(titleCaser.String(strings.ToLower(w)))
	}
	return b.String()
}

// normalize strips everything but letters and digits and lowercases the
// rest, the last-resort comparison shape.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
