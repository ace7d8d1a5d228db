package model

// FamilyOther is the best-effort fallback label when classification
// cannot place a product in any catalog family.
const FamilyOther = "OTHER"

// CatalogEntry is one row of the canonical service-and-SKU reference set,
// keyed by (product family, service name). Loaded once, immutable thereafter.
type CatalogEntry struct {
	ProductFamily   string   `json:"product_family"`
	Category        string   `json:"category,omitempty"`
	ServiceName     string   `json:"service_name"`
	ServiceType     string   `json:"service_type,omitempty"`
	SKUCodes        []string `json:"sku_codes,omitempty"`
	CreditCost      *int     `json:"credit_cost,omitempty"`
	ServicePriority int      `json:"service_priority"` // lower = higher priority
}

// MatchMethod names the tier that produced a product match.
type MatchMethod string

const (
	MatchExactKeyword MatchMethod = "exact_keyword"
	MatchKeywordDict  MatchMethod = "keyword_dictionary"
	MatchCategory     MatchMethod = "category"
	MatchNone         MatchMethod = "unmatched"
)

// Tiered match confidences. Anything below ConfidenceActionable is not a
// usable match for downstream recommendation.
const (
	ConfidenceExact      = 100
	ConfidenceDictionary = 85
	ConfidenceCategory   = 70
	ConfidenceActionable = 70
)

// MatchResult links an installed product to a catalog product family.
// A nil ProductFamily with confidence 0 means no tier succeeded.
type MatchResult struct {
	ProductKey    string      `json:"product_key"`
	ProductFamily *string     `json:"product_family,omitempty"`
	Confidence    int         `json:"confidence"`
	Method        MatchMethod `json:"method"`
}

// Actionable reports whether the match is reliable enough for recommendation.
func (m MatchResult) Actionable() bool {
	return m.ProductFamily != nil && m.Confidence >= ConfidenceActionable
}
