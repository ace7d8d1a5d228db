package scorer

import (
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/config"
	"github.com/sells-group/lead-engine/internal/model"
)

// Inputs holds the facts a single lead is scored on. Nil pointers mean the
// fact is unknown; unknown facts earn no boost and never fail the scorer.
type Inputs struct {
	LeadType             model.LeadType
	DaysSinceEOL         *int
	DaysSinceExpiry      *int
	EstimatedValue       *float64
	InstalledBaseSize    int
	OpenOpportunities    int
	DaysSinceLastProject *int
	ProductFamily        string
}

// Result is the scoring outcome for one lead.
type Result struct {
	Scores   model.SubScores
	Overall  float64
	Priority model.Priority
}

// Scorer applies the configured scoring rules. It is stateless and safe for
// concurrent use.
type Scorer struct {
	cfg config.ScoringConfig
}

// New returns a Scorer using the given rules, falling back to the documented
// defaults when the config carries no weights.
func New(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: ConfigOrDefault(cfg)}
}

// Score computes the four sub-scores, the weighted overall score, and the
// priority tier. The same inputs always produce the same result.
func (s *Scorer) Score(in Inputs) Result {
	scores := model.SubScores{
		Urgency:      s.urgency(in),
		Value:        s.value(in),
		Propensity:   s.propensity(in),
		StrategicFit: s.strategicFit(in),
	}

	overall := clampScore(
		(scores.Urgency*s.cfg.UrgencyWeight +
			scores.Value*s.cfg.ValueWeight +
			scores.Propensity*s.cfg.PropensityWeight +
			scores.StrategicFit*s.cfg.StrategicFitWeight) / s.cfg.WeightSum())

	res := Result{
		Scores:   scores,
		Overall:  overall,
		Priority: PriorityFor(overall, s.cfg),
	}

	zap.L().Debug("scorer: scored lead",
		zap.String("lead_type", string(in.LeadType)),
		zap.Float64("overall", res.Overall),
		zap.String("priority", string(res.Priority)),
	)

	return res
}

// PriorityFor maps an overall score onto a priority tier. Thresholds are
// inclusive lower bounds.
func PriorityFor(score float64, cfg config.ScoringConfig) model.Priority {
	switch {
	case score >= cfg.CriticalThreshold:
		return model.PriorityCritical
	case score >= cfg.HighThreshold:
		return model.PriorityHigh
	case score >= cfg.MediumThreshold:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// urgency starts from the base and adds the largest qualifying EOL band plus
// the largest qualifying expiry band.
func (s *Scorer) urgency(in Inputs) float64 {
	score := s.cfg.UrgencyBase
	if in.DaysSinceEOL != nil {
		score += boostPast(s.cfg.EOLBands, float64(*in.DaysSinceEOL))
	}
	if in.DaysSinceExpiry != nil {
		score += boostPast(s.cfg.ExpiryBands, float64(*in.DaysSinceExpiry))
	}
	return clampScore(score)
}

// value rewards estimated deal size and the account's installed base.
func (s *Scorer) value(in Inputs) float64 {
	score := s.cfg.ValueBase
	if in.EstimatedValue != nil {
		score += boostAtLeast(s.cfg.DealValueBands, *in.EstimatedValue)
	}
	score += boostAtLeast(s.cfg.InstalledBaseBands, float64(in.InstalledBaseSize))
	return clampScore(score)
}

// propensity rewards open pipeline and recent delivered work.
func (s *Scorer) propensity(in Inputs) float64 {
	score := s.cfg.PropensityBase
	score += boostAtLeast(s.cfg.OpenOppBands, float64(in.OpenOpportunities))
	if in.DaysSinceLastProject != nil {
		score += boostWithin(s.cfg.ProjectRecencyBand, float64(*in.DaysSinceLastProject))
	}
	return clampScore(score)
}

// strategicFit rewards favored product families and the lead type.
func (s *Scorer) strategicFit(in Inputs) float64 {
	score := s.cfg.StrategicFitBase
	for _, fam := range s.cfg.FavoredFamilies {
		if fam == in.ProductFamily {
			score += s.cfg.FavoredFamilyBoost
			break
		}
	}
	score += s.cfg.LeadTypeBoosts[string(in.LeadType)]
	return clampScore(score)
}

// boostPast returns the largest boost among bands whose threshold the value
// strictly exceeds. Used for day gaps, where "over 5 years" means > 1825.
func boostPast(bands []config.Band, v float64) float64 {
	var best float64
	for _, b := range bands {
		if v > b.Threshold && b.Boost > best {
			best = b.Boost
		}
	}
	return best
}

// boostAtLeast returns the largest boost among bands whose threshold the
// value meets or exceeds. Used for counts and amounts.
func boostAtLeast(bands []config.Band, v float64) float64 {
	var best float64
	for _, b := range bands {
		if v >= b.Threshold && b.Boost > best {
			best = b.Boost
		}
	}
	return best
}

// boostWithin returns the largest boost among bands whose threshold the
// value sits at or below. Used for recency, where smaller gaps score higher.
func boostWithin(bands []config.Band, v float64) float64 {
	var best float64
	for _, b := range bands {
		if v <= b.Threshold && b.Boost > best {
			best = b.Boost
		}
	}
	return best
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
