// Package risk derives a discrete urgency level for an installed product
// from its support status and lifecycle gaps.
package risk

import (
	"strings"
	"time"

	"github.com/sells-group/lead-engine/internal/model"
)

// Decision-table thresholds, in days.
const (
	eolCriticalDays  = 1825 // 5 years past end of life
	expiryUrgentDays = 180  // 6 months past coverage expiry
)

// uncoveredMarkers flag a support status as expired or uncovered.
var uncoveredMarkers = []string{"expired", "uncovered", "unsupported", "lapsed"}

// Classify applies the risk decision table, first match wins:
//
//	status absent/unparseable                      -> UNKNOWN
//	uncovered and EOL gap over 5 years             -> CRITICAL
//	uncovered and expiry gap over 6 months         -> HIGH
//	uncovered otherwise                            -> HIGH
//	anything else                                  -> MEDIUM
//
// Nil day counts simply fail their band; the function is total.
func Classify(supportStatus string, daysSinceEOL, daysSinceExpiry *int) model.RiskLevel {
	status := strings.TrimSpace(supportStatus)
	if status == "" {
		return model.RiskUnknown
	}

	if isUncovered(status) {
		if daysSinceEOL != nil && *daysSinceEOL > eolCriticalDays {
			return model.RiskCritical
		}
		if daysSinceExpiry != nil && *daysSinceExpiry > expiryUrgentDays {
			return model.RiskHigh
		}
		return model.RiskHigh
	}

	return model.RiskMedium
}

// ClassifyProduct computes the lifecycle gaps from an as-of date and
// classifies. The as-of date is always supplied by the caller; risk never
// reads the wall clock.
func ClassifyProduct(p model.InstalledProduct, asOf time.Time) model.RiskLevel {
	return Classify(p.SupportStatus, DaysSince(p.EOLDate, asOf), DaysSince(CoverageEnd(p), asOf))
}

// DaysSince returns the whole days between a date and the as-of date, or nil
// when the date is absent or in the future.
func DaysSince(date *time.Time, asOf time.Time) *int {
	if date == nil {
		return nil
	}
	days := int(asOf.Sub(*date).Hours() / 24)
	if days < 0 {
		return nil
	}
	return &days
}

// CoverageEnd picks the date the product's coverage lapsed: the service
// window end when present, otherwise end of service.
func CoverageEnd(p model.InstalledProduct) *time.Time {
	if p.ServiceEnd != nil {
		return p.ServiceEnd
	}
	return p.EOSDate
}

func isUncovered(status string) bool {
	s := strings.ToLower(status)
	for _, marker := range uncoveredMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
