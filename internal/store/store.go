// Package store persists engine output and staged source rows. Two
// implementations: SQLite for local single-binary use, Postgres for shared
// deployments.
package store

import (
	"context"

	"github.com/sells-group/lead-engine/internal/model"
)

// LeadFilter specifies criteria for listing leads. An empty RunID means the
// most recent batch run.
type LeadFilter struct {
	RunID    string           `json:"run_id,omitempty"`
	Priority model.Priority   `json:"priority,omitempty"`
	Status   model.LeadStatus `json:"status,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the lead engine.
type Store interface {
	// Batch output
	SaveBatch(ctx context.Context, result *model.BatchResult) error
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	ListAccounts(ctx context.Context, runID string) ([]model.Account, error)
	ListRecommendations(ctx context.Context, leadKey string) ([]model.Recommendation, error)

	// Staged source rows (written by the external loader)
	StageRows(ctx context.Context, batch *model.Batch) error
	StageCatalog(ctx context.Context, rows []model.CatalogRow) error
	LoadRows(ctx context.Context) (*model.Batch, error)
	LoadCatalog(ctx context.Context) ([]model.CatalogRow, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
