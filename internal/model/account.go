// Package model defines the typed records flowing through the lead engine:
// accounts, installed products, catalog entries, matches, leads, and
// recommendations. Parsing and coercion happen at the loader boundary;
// everything here is already typed, with pointers marking absent values.
package model

// Known external identifier schemes.
const (
	SchemeTerritory5 = "territory-5digit"
	SchemeCustomer9  = "customer-9digit"
	SchemeSalesforce = "salesforce"
	SchemeLegacyCRM  = "legacy-crm"
)

// UnknownAccountName is the sentinel substituted for missing or garbage
// account names so identity resolution never stalls on bad input.
const UnknownAccountName = "Unknown Account"

// ExternalID tags an identifier with its originating scheme.
type ExternalID struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
}

// Account is the unified customer identity record. Accounts are created on
// first reference, enriched as later rows resolve to the same identity, and
// merged — never deleted.
type Account struct {
	Key            int64        `json:"key"`
	Name           string       `json:"name"`
	NormalizedName string       `json:"normalized_name"`
	Territory      string       `json:"territory,omitempty"`
	ExternalIDs    []ExternalID `json:"external_ids,omitempty"`
}

// HasIdentifier reports whether the account carries the given scheme/value pair.
func (a *Account) HasIdentifier(scheme, value string) bool {
	for _, id := range a.ExternalIDs {
		if id.Scheme == scheme && id.Value == value {
			return true
		}
	}
	return false
}

// AccountAggregates holds the per-account historical aggregates consumed by
// the lead scorer. Computed once per batch from opportunity and project rows.
type AccountAggregates struct {
	AccountKey            int64 `json:"account_key"`
	InstalledBaseSize     int   `json:"installed_base_size"`
	OpenOpportunities     int   `json:"open_opportunities"`
	DaysSinceLastProject  *int  `json:"days_since_last_project,omitempty"`
	DeliveredProjectCount int   `json:"delivered_project_count"`
}
