package normalize

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity scores how alike two strings are on a 0-100 scale.
// The concrete metric is swappable without touching resolver or matcher logic.
type Similarity interface {
	Score(a, b string) int
}

// TokenSimilarity blends normalized Levenshtein distance with token-set
// Jaccard overlap, taking the better of the two. Levenshtein catches typos;
// the token set catches word reordering ("apple computer" vs "computer apple").
type TokenSimilarity struct{}

// NewSimilarity returns the default similarity metric.
func NewSimilarity() Similarity {
	return TokenSimilarity{}
}

// Score returns a similarity in [0,100]. Inputs are compared as-is; callers
// normalize first.
func (TokenSimilarity) Score(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	lev := levenshteinRatio(a, b)
	tok := tokenSetRatio(a, b)

	best := lev
	if tok > best {
		best = tok
	}
	if best < 0 {
		return 0
	}
	if best > 100 {
		return 100
	}
	return best
}

// levenshteinRatio converts edit distance into a 0-100 similarity.
func levenshteinRatio(a, b string) int {
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 100
	}
	return int(float64(maxLen-dist) / float64(maxLen) * 100)
}

// tokenSetRatio computes Jaccard overlap over whitespace tokens, 0-100.
func tokenSetRatio(a, b string) int {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return int(float64(inter) / float64(union) * 100)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
