package config

// ScoringConfig holds the lead-scoring business rules: dimension weights,
// sub-score bases, and threshold bands. All values are named configuration
// so behavior stays testable, but the documented defaults (see
// scorer.DefaultScoringConfig) are the compatibility baseline.
type ScoringConfig struct {
	// Dimension weights (sum = 1.0).
	UrgencyWeight      float64 `yaml:"urgency_weight" mapstructure:"urgency_weight"`
	ValueWeight        float64 `yaml:"value_weight" mapstructure:"value_weight"`
	PropensityWeight   float64 `yaml:"propensity_weight" mapstructure:"propensity_weight"`
	StrategicFitWeight float64 `yaml:"strategic_fit_weight" mapstructure:"strategic_fit_weight"`

	// Sub-score bases.
	UrgencyBase      float64 `yaml:"urgency_base" mapstructure:"urgency_base"`
	ValueBase        float64 `yaml:"value_base" mapstructure:"value_base"`
	PropensityBase   float64 `yaml:"propensity_base" mapstructure:"propensity_base"`
	StrategicFitBase float64 `yaml:"strategic_fit_base" mapstructure:"strategic_fit_base"`

	// Urgency bands: days past EOL / past expiry. Within a dimension only
	// the largest qualifying band applies.
	EOLBands    []Band `yaml:"eol_bands" mapstructure:"eol_bands"`
	ExpiryBands []Band `yaml:"expiry_bands" mapstructure:"expiry_bands"`

	// Value bands: estimated deal value (USD) and account installed-base size.
	DealValueBands     []Band `yaml:"deal_value_bands" mapstructure:"deal_value_bands"`
	InstalledBaseBands []Band `yaml:"installed_base_bands" mapstructure:"installed_base_bands"`

	// Propensity bands: open opportunities and days since last delivered
	// project (recency bands match at-or-below the threshold).
	OpenOppBands       []Band `yaml:"open_opp_bands" mapstructure:"open_opp_bands"`
	ProjectRecencyBand []Band `yaml:"project_recency_bands" mapstructure:"project_recency_bands"`

	// Strategic fit.
	FavoredFamilies    []string           `yaml:"favored_families" mapstructure:"favored_families"`
	FavoredFamilyBoost float64            `yaml:"favored_family_boost" mapstructure:"favored_family_boost"`
	LeadTypeBoosts     map[string]float64 `yaml:"lead_type_boosts" mapstructure:"lead_type_boosts"`

	// Priority tier thresholds (inclusive lower bounds).
	CriticalThreshold float64 `yaml:"critical_threshold" mapstructure:"critical_threshold"`
	HighThreshold     float64 `yaml:"high_threshold" mapstructure:"high_threshold"`
	MediumThreshold   float64 `yaml:"medium_threshold" mapstructure:"medium_threshold"`
}

// Band is one threshold band: values at or past Threshold earn Boost.
type Band struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	Boost     float64 `yaml:"boost" mapstructure:"boost"`
}

// WeightSum returns the sum of the four dimension weights.
func (c ScoringConfig) WeightSum() float64 {
	return c.UrgencyWeight + c.ValueWeight + c.PropensityWeight + c.StrategicFitWeight
}
