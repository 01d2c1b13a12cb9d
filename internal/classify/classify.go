// Package classify assigns locality types, deposit types and mining methods
// from free text using ordered keyword rule tables.
//
// A table is evaluated top to bottom and the first rule with a matching
// keyword wins; when nothing matches the table's fallback is returned, so
// classification is total. Keywords match whole words or whole phrases of
// the normalized text (lower-case, runs of non-alphanumerics collapsed to a
// single space).
package classify

import (
	"strings"
	"unicode"

	ac "github.com/petar-dambovaliev/aho-corasick"
)

// Rule maps a set of keywords to a tag.
type Rule struct {
	Tag      string
	Keywords []string
	// Refinements are checked, in order, only after the rule itself matched.
	Refinements []Rule
}

// Table is a versioned, ordered list of rules with a total fallback.
type Table struct {
	Name     string
	Version  int
	Rules    []Rule
	Fallback string
}

type compiledRule struct {
	tag         string
	matcher     ac.AhoCorasick
	refinements []compiledRule
}

// Classifier is a compiled Table. Safe for concurrent use.
type Classifier struct {
	table Table
	rules []compiledRule
}

// Compile builds matchers for every rule of the table.
func Compile(t Table) *Classifier {
	return &Classifier{
		table: t,
		rules: compileRules(t.Rules),
	}
}

func compileRules(rules []Rule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		patterns := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if p := Normalize(kw); strings.TrimSpace(p) != "" {
				patterns = append(patterns, p)
			}
		}
		if len(patterns) == 0 {
			continue
		}
		builder := ac.NewAhoCorasickBuilder(ac.Opts{
			AsciiCaseInsensitive: true,
		})
		out = append(out, compiledRule{
			tag:         r.Tag,
			matcher:     builder.Build(patterns),
			refinements: compileRules(r.Refinements),
		})
	}
	return out
}

// Table returns the source table.
func (c *Classifier) Table() Table {
	return c.table
}

// Classify returns the tag of the first matching rule, or the fallback.
func (c *Classifier) Classify(text string) string {
	return c.ClassifyNormalized(Normalize(text))
}

// ClassifyNormalized is Classify for text already passed through Normalize.
func (c *Classifier) ClassifyNormalized(normalized string) string {
	if tag, ok := firstMatch(c.rules, normalized); ok {
		return tag
	}
	return c.table.Fallback
}

// Match reports the first matching tag without applying the fallback.
func (c *Classifier) Match(text string) (string, bool) {
	return firstMatch(c.rules, Normalize(text))
}

func firstMatch(rules []compiledRule, normalized string) (string, bool) {
	for _, r := range rules {
		if !matches(r.matcher, normalized) {
			continue
		}
		if tag, ok := firstMatch(r.refinements, normalized); ok {
			return tag, true
		}
		return r.tag, true
	}
	return "", false
}

func matches(m ac.AhoCorasick, haystack string) bool {
	iter := m.Iter(haystack)
	return iter.Next() != nil
}

// Normalize lower-cases text, replaces every run of non-letter, non-digit
// runes with a single space and pads the result with one space on each side,
// so that " word " substring tests are whole-word tests.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}
