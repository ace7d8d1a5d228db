// Package normalize provides identity-name normalization and the string
// similarity metric used by account resolution and product matching.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// defaultSuffixes lists corporate suffixes stripped when they appear as
// trailing tokens of a normalized name.
var defaultSuffixes = []string{
	"inc", "incorporated",
	"corp", "corporation",
	"ltd", "limited",
	"llc", "llp", "lp",
	"co", "company",
	"plc", "pllc",
	"gmbh", "sa", "nv",
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

var foldCaser = cases.Fold()

// Normalizer standardizes display names for identity matching.
// The zero value is not usable; construct with NewNormalizer.
type Normalizer struct {
	suffixes map[string]bool
}

// NewNormalizer returns a Normalizer with the default corporate suffix set.
func NewNormalizer() *Normalizer {
	return NewNormalizerWithSuffixes(defaultSuffixes)
}

// NewNormalizerWithSuffixes returns a Normalizer stripping the given
// trailing tokens instead of the defaults.
func NewNormalizerWithSuffixes(suffixes []string) *Normalizer {
	set := make(map[string]bool, len(suffixes))
	for _, s := range suffixes {
		set[strings.ToLower(strings.TrimSpace(s))] = true
	}
	return &Normalizer{suffixes: set}
}

// Name normalizes a display name by:
//  1. Unicode case folding to lowercase
//  2. Stripping characters outside letters/digits/spaces
//  3. Removing corporate suffixes appearing as trailing tokens
//  4. Collapsing runs of whitespace
//
// Idempotent: Name(Name(x)) == Name(x).
func (n *Normalizer) Name(raw string) string {
	s := foldCaser.String(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t':
			b.WriteByte(' ')
		default:
			// Punctuation becomes a separator so "Apple,Inc" splits cleanly.
			b.WriteByte(' ')
		}
	}

	s = multiSpaceRe.ReplaceAllString(strings.TrimSpace(b.String()), " ")

	// Strip trailing suffix tokens, repeatedly ("co ltd" drops both).
	tokens := strings.Split(s, " ")
	for len(tokens) > 1 && n.suffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}
