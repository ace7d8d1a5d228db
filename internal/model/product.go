package model

import "time"

// RiskLevel is the discrete urgency classification of an installed product.
type RiskLevel string

const (
	RiskUnknown  RiskLevel = "UNKNOWN"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// riskOrder ranks risk levels for sorting (higher = more urgent).
var riskOrder = map[RiskLevel]int{
	RiskUnknown:  0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the sort weight of the risk level; more urgent levels rank higher.
func (r RiskLevel) Rank() int {
	return riskOrder[r]
}

// InstalledProduct is a single asset in a customer's installed base,
// annotated by the engine with a risk level and product-family classification.
type InstalledProduct struct {
	Serial        string     `json:"serial"`
	Description   string     `json:"description"`
	Platform      string     `json:"platform,omitempty"`
	SupportStatus string     `json:"support_status,omitempty"`
	EOLDate       *time.Time `json:"eol_date,omitempty"`
	EOSDate       *time.Time `json:"eos_date,omitempty"`
	ServiceStart  *time.Time `json:"service_start,omitempty"`
	ServiceEnd    *time.Time `json:"service_end,omitempty"`
	AccountKey    int64      `json:"account_key"`

	// Derived by the engine.
	Risk          RiskLevel `json:"risk"`
	ProductFamily string    `json:"product_family,omitempty"`
}
