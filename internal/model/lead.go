package model

// LeadType classifies the sales action a lead proposes.
type LeadType string

const (
	LeadRenewal         LeadType = "renewal"
	LeadHardwareRefresh LeadType = "hardware-refresh"
	LeadServiceGap      LeadType = "service-gap"
)

// LeadStatus tracks a lead through its lifecycle.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusClosed    LeadStatus = "closed"
)

// Priority is the discrete tier derived from a lead's overall score.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// SubScores holds the four independently computed scoring dimensions,
// each in [0,100].
type SubScores struct {
	Urgency      float64 `json:"urgency"`
	Value        float64 `json:"value"`
	Propensity   float64 `json:"propensity"`
	StrategicFit float64 `json:"strategic_fit"`
}

// ValueRange is an estimated deal size band.
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Lead is a candidate, scored sales action derived from exactly one
// installed product or opportunity.
type Lead struct {
	Key            string      `json:"key"`
	Type           LeadType    `json:"type"`
	ProductKey     string      `json:"product_key,omitempty"`
	OpportunityKey string      `json:"opportunity_key,omitempty"`
	AccountKey     int64       `json:"account_key"`
	Scores         SubScores   `json:"scores"`
	OverallScore   float64     `json:"overall_score"`
	Priority       Priority    `json:"priority"`
	Status         LeadStatus  `json:"status"`
	EstimatedValue *ValueRange `json:"estimated_value,omitempty"`
}

// Recommendation pairs a lead with a catalog entry, ranked for presentation.
// Recommendations are generated on demand and never persisted apart from
// the lead that produced them.
type Recommendation struct {
	LeadKey      string       `json:"lead_key"`
	Entry        CatalogEntry `json:"entry"`
	UrgencyLabel RiskLevel    `json:"urgency_label"`
	Confidence   int          `json:"confidence"`
	Rank         int          `json:"rank"`
}
