package catalog

import (
	"sort"
	"strings"

	"github.com/sells-group/lead-engine/internal/model"
)

// Matcher matches free-text product descriptions against the catalog index
// using a three-tier cascade. Pure and safe for concurrent use.
type Matcher struct {
	index *Index
}

// NewMatcher creates a Matcher over a built index.
func NewMatcher(index *Index) *Matcher {
	return &Matcher{index: index}
}

// Match tries each tier in order and stops at the first hit:
//
//	tier 1: family name or registered alias as literal substring  -> 100
//	tier 2: curated keyword-dictionary fragment                   -> 85
//	tier 3: platform hint equals a catalog category exactly       -> 70
//
// No hit yields a nil family with confidence 0; consumers must treat
// confidence below 70 as "no actionable match".
func (m *Matcher) Match(productKey, description, platformHint string) model.MatchResult {
	desc := strings.ToUpper(description)

	if family, ok := m.matchExact(desc); ok {
		return model.MatchResult{
			ProductKey:    productKey,
			ProductFamily: &family,
			Confidence:    model.ConfidenceExact,
			Method:        model.MatchExactKeyword,
		}
	}

	if family, ok := m.matchKeyword(desc); ok {
		return model.MatchResult{
			ProductKey:    productKey,
			ProductFamily: &family,
			Confidence:    model.ConfidenceDictionary,
			Method:        model.MatchKeywordDict,
		}
	}

	if family, ok := m.matchCategory(platformHint); ok {
		return model.MatchResult{
			ProductKey:    productKey,
			ProductFamily: &family,
			Confidence:    model.ConfidenceCategory,
			Method:        model.MatchCategory,
		}
	}

	return model.MatchResult{
		ProductKey: productKey,
		Confidence: 0,
		Method:     model.MatchNone,
	}
}

// ClassifyFamily runs the same tiered matching but always returns a label,
// falling back to OTHER instead of a null family.
func (m *Matcher) ClassifyFamily(description, platformHint string) string {
	result := m.Match("", description, platformHint)
	if result.ProductFamily != nil {
		return *result.ProductFamily
	}
	return model.FamilyOther
}

func (m *Matcher) matchExact(desc string) (string, bool) {
	if desc == "" {
		return "", false
	}
	// families is longest-first, so the most specific name wins.
	for _, family := range m.index.families {
		if strings.Contains(desc, family) {
			return family, true
		}
	}
	for _, alias := range sortedKeys(m.index.aliases) {
		if strings.Contains(desc, alias) {
			return m.index.aliases[alias], true
		}
	}
	return "", false
}

func (m *Matcher) matchKeyword(desc string) (string, bool) {
	if desc == "" {
		return "", false
	}
	for _, kw := range sortedKeys(m.index.keywords) {
		if strings.Contains(desc, kw) {
			return m.index.keywords[kw], true
		}
	}
	return "", false
}

func (m *Matcher) matchCategory(platformHint string) (string, bool) {
	hint := strings.ToUpper(strings.TrimSpace(platformHint))
	if hint == "" {
		return "", false
	}
	family, ok := m.index.byCategory[hint]
	return family, ok
}

// sortedKeys returns map keys longest-first then alphabetical, so substring
// scans are deterministic and prefer the most specific fragment.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
