package model

import "time"

// BatchCounters summarizes one engine run for logging and the CLI summary.
type BatchCounters struct {
	RowsIn          int              `json:"rows_in"`
	AccountsCreated int              `json:"accounts_created"`
	AccountsMerged  int              `json:"accounts_merged"`
	ProductsMatched int              `json:"products_matched"`
	LeadsByPriority map[Priority]int `json:"leads_by_priority"`
}

// BatchResult is the engine's full output bundle: every collection the
// external persistence/reporting layer reads back out. Slices are ordered
// deterministically (accounts by key, products and leads by product key).
type BatchResult struct {
	RunID           string             `json:"run_id"`
	AsOf            time.Time          `json:"as_of"`
	Accounts        []Account          `json:"accounts"`
	Products        []InstalledProduct `json:"products"`
	Matches         []MatchResult      `json:"matches"`
	Leads           []Lead             `json:"leads"`
	Recommendations []Recommendation   `json:"recommendations"`
	Counters        BatchCounters      `json:"counters"`
}
