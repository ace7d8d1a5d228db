package model

import "time"

// AccountRef carries whatever identity a source row knows about its owner.
// Any field may be empty; the resolver copes.
type AccountRef struct {
	Name       string `json:"name,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Scheme     string `json:"scheme,omitempty"`
	Territory  string `json:"territory,omitempty"`
}

// ProductRow is an installed-product record as handed over by the loader.
type ProductRow struct {
	Serial        string     `json:"serial,omitempty"`
	Description   string     `json:"description"`
	Platform      string     `json:"platform,omitempty"`
	SupportStatus string     `json:"support_status,omitempty"`
	EOLDate       *time.Time `json:"eol_date,omitempty"`
	EOSDate       *time.Time `json:"eos_date,omitempty"`
	ServiceStart  *time.Time `json:"service_start,omitempty"`
	ServiceEnd    *time.Time `json:"service_end,omitempty"`
	Account       AccountRef `json:"account"`
}

// OpportunityRow is an open or closed sales opportunity.
type OpportunityRow struct {
	ID             string     `json:"id,omitempty"`
	Account        AccountRef `json:"account"`
	ProductLine    string     `json:"product_line,omitempty"`
	Stage          string     `json:"stage,omitempty"`
	Open           bool       `json:"open"`
	EstimatedValue *float64   `json:"estimated_value,omitempty"`
}

// ProjectRow is a delivered (or in-flight) services project.
type ProjectRow struct {
	ID        string     `json:"id,omitempty"`
	Account   AccountRef `json:"account"`
	Status    string     `json:"status,omitempty"`
	Delivered bool       `json:"delivered"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// CatalogRow is one canonical catalog record as staged by the loader.
type CatalogRow struct {
	ProductFamily   string   `json:"product_family"`
	Category        string   `json:"category,omitempty"`
	ServiceName     string   `json:"service_name"`
	ServiceType     string   `json:"service_type,omitempty"`
	SKUCodes        []string `json:"sku_codes,omitempty"`
	CreditCost      *int     `json:"credit_cost,omitempty"`
	ServicePriority int      `json:"service_priority"`
	Aliases         []string `json:"aliases,omitempty"`  // alternate family names, exact-match tier
	Keywords        []string `json:"keywords,omitempty"` // model-number fragments, dictionary tier
}

// Batch bundles the staged source rows for one engine run.
type Batch struct {
	Products      []ProductRow     `json:"products"`
	Opportunities []OpportunityRow `json:"opportunities"`
	Projects      []ProjectRow     `json:"projects"`
}
