// Package scorer computes deterministic, rule-based lead scores: four
// sub-scores combined into a weighted overall score and a priority tier.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/config"
	"github.com/sells-group/lead-engine/internal/model"
)

// DefaultScoringConfig returns a config.ScoringConfig with the documented
// defaults. Weights sum to 1.0.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		// Weights (sum = 1.0).
		UrgencyWeight:      0.35,
		ValueWeight:        0.30,
		PropensityWeight:   0.20,
		StrategicFitWeight: 0.15,

		// Sub-score bases.
		UrgencyBase:      50,
		ValueBase:        40,
		PropensityBase:   30,
		StrategicFitBase: 50,

		// Urgency: days past end of life / past coverage expiry.
		EOLBands: []config.Band{
			{Threshold: 1825, Boost: 30},
			{Threshold: 1095, Boost: 20},
			{Threshold: 365, Boost: 10},
		},
		ExpiryBands: []config.Band{
			{Threshold: 180, Boost: 20},
			{Threshold: 90, Boost: 10},
		},

		// Value: estimated deal value (USD) and installed-base size.
		DealValueBands: []config.Band{
			{Threshold: 250_000, Boost: 30},
			{Threshold: 100_000, Boost: 20},
			{Threshold: 25_000, Boost: 10},
		},
		InstalledBaseBands: []config.Band{
			{Threshold: 50, Boost: 20},
			{Threshold: 10, Boost: 10},
		},

		// Propensity: open opportunities and delivered-project recency.
		OpenOppBands: []config.Band{
			{Threshold: 3, Boost: 30},
			{Threshold: 1, Boost: 20},
		},
		ProjectRecencyBand: []config.Band{
			{Threshold: 365, Boost: 20},
			{Threshold: 730, Boost: 10},
		},

		// Strategic fit.
		FavoredFamilies:    []string{"COMPUTE", "STORAGE"},
		FavoredFamilyBoost: 20,
		LeadTypeBoosts: map[string]float64{
			string(model.LeadRenewal):         10,
			string(model.LeadHardwareRefresh): 15,
			string(model.LeadServiceGap):      5,
		},

		// Priority tiers (inclusive lower bounds).
		CriticalThreshold: 75,
		HighThreshold:     60,
		MediumThreshold:   40,
	}
}

// ConfigOrDefault returns the given config when its weights are set, the
// documented defaults otherwise. Lets config files override the rules
// wholesale without a partially-zero config silencing the engine.
func ConfigOrDefault(c config.ScoringConfig) config.ScoringConfig {
	if c.WeightSum() <= 0 {
		return DefaultScoringConfig()
	}
	return c
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	// All weights must be non-negative.
	weights := map[string]float64{
		"urgency_weight":       c.UrgencyWeight,
		"value_weight":         c.ValueWeight,
		"propensity_weight":    c.PropensityWeight,
		"strategic_fit_weight": c.StrategicFitWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := c.WeightSum()

	// Weights must sum to a positive number.
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	// Weights should be close to 1.0 (allow tolerance for floating-point).
	if math.Abs(sum-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1.0, got %.2f", sum))
	}

	// Bases live on the 0-100 sub-score scale.
	bases := map[string]float64{
		"urgency_base":       c.UrgencyBase,
		"value_base":         c.ValueBase,
		"propensity_base":    c.PropensityBase,
		"strategic_fit_base": c.StrategicFitBase,
	}
	for name, b := range bases {
		if b < 0 || b > 100 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 100", name))
		}
	}

	// Priority cutoffs must descend and stay on the score scale.
	if c.CriticalThreshold <= c.HighThreshold || c.HighThreshold <= c.MediumThreshold {
		errs = append(errs, "priority thresholds must descend: critical > high > medium")
	}
	if c.CriticalThreshold > 100 {
		errs = append(errs, "critical_threshold must be <= 100")
	}
	if c.MediumThreshold < 0 {
		errs = append(errs, "medium_threshold must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
