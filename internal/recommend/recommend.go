// Package recommend turns a scored lead and its catalog match into a ranked
// list of service recommendations.
package recommend

import (
	"sort"

	"github.com/sells-group/lead-engine/internal/catalog"
	"github.com/sells-group/lead-engine/internal/model"
)

// Assemble returns the ranked recommendations for one lead. Matches below
// the actionable confidence floor yield no recommendations at all; a weak
// guess is worse than silence.
func Assemble(lead model.Lead, match model.MatchResult, risk model.RiskLevel, ix *catalog.Index) []model.Recommendation {
	if !match.Actionable() || match.ProductFamily == nil {
		return nil
	}

	entries := ix.EntriesFor(*match.ProductFamily)
	if len(entries) == 0 {
		return nil
	}

	recs := make([]model.Recommendation, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, model.Recommendation{
			LeadKey:      lead.Key,
			Entry:        e,
			UrgencyLabel: risk,
			Confidence:   match.Confidence,
		})
	}

	Order(recs)
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

// Order sorts recommendations for presentation: highest risk first, then
// highest confidence, then the catalog's own service priority, then service
// name as the deterministic tiebreak. Ranks already assigned are untouched.
func Order(recs []model.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.UrgencyLabel.Rank() != b.UrgencyLabel.Rank() {
			return a.UrgencyLabel.Rank() > b.UrgencyLabel.Rank()
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Entry.ServicePriority != b.Entry.ServicePriority {
			return a.Entry.ServicePriority < b.Entry.ServicePriority
		}
		return a.Entry.ServiceName < b.Entry.ServiceName
	})
}
