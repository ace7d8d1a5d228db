package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-engine/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestPostgresStore_SaveBatch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result := &model.BatchResult{
		RunID: "run-1",
		AsOf:  asOf,
		Accounts: []model.Account{
			{Key: 1, Name: "Applied Materials, Inc."},
		},
		Leads: []model.Lead{
			{Key: "lead-A", Type: model.LeadHardwareRefresh, AccountKey: 1,
				OverallScore: 80.5, Priority: model.PriorityCritical, Status: model.LeadStatusNew},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO batch_runs`).
		WithArgs("run-1", asOf, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("run-1", int64(1), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs("run-1", "lead-A", string(model.PriorityCritical), string(model.LeadStatusNew), int64(1), 80.5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.SaveBatch(context.Background(), result)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBatchAssignsRunID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result := &model.BatchResult{AsOf: asOf}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO batch_runs`).
		WithArgs(pgxmock.AnyArg(), asOf, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveBatch(context.Background(), result))
	assert.NotEmpty(t, result.RunID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBatch_InsertError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	result := &model.BatchResult{RunID: "run-1", AsOf: time.Now().UTC()}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO batch_runs`).
		WithArgs("run-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.SaveBatch(context.Background(), result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert batch run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Every appended filter must advance the placeholder number in step with the
// argument list: priority $2, status $3, limit $4, offset $5.
func TestPostgresStore_ListLeads_FilterPlaceholders(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	lead := model.Lead{Key: "lead-A", Priority: model.PriorityCritical, Status: model.LeadStatusNew}
	rows := pgxmock.NewRows([]string{"payload"}).AddRow(mustJSON(t, lead))

	mock.ExpectQuery(`SELECT payload FROM leads WHERE run_id = COALESCE\(NULLIF\(\$1, ''\).* AND priority = \$2 AND status = \$3 ORDER BY overall_score DESC, key ASC LIMIT \$4 OFFSET \$5`).
		WithArgs("run-1", string(model.PriorityCritical), string(model.LeadStatusNew), 5, 2).
		WillReturnRows(rows)

	got, err := s.ListLeads(context.Background(), LeadFilter{
		RunID:    "run-1",
		Priority: model.PriorityCritical,
		Status:   model.LeadStatusNew,
		Limit:    5,
		Offset:   2,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lead-A", got[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"payload"}).
		AddRow(mustJSON(t, model.Lead{Key: "lead-A", OverallScore: 80})).
		AddRow(mustJSON(t, model.Lead{Key: "lead-B", OverallScore: 45}))

	// No filters: the run-ID expression is $1 and the limit lands on $2.
	mock.ExpectQuery(`SELECT payload FROM leads WHERE run_id = COALESCE\(NULLIF\(\$1, ''\).* ORDER BY overall_score DESC, key ASC LIMIT \$2`).
		WithArgs("", 100).
		WillReturnRows(rows)

	got, err := s.ListLeads(context.Background(), LeadFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lead-A", got[0].Key)
	assert.Equal(t, "lead-B", got[1].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM leads`).
		WithArgs("", 100).
		WillReturnError(assert.AnError)

	_, err := s.ListLeads(context.Background(), LeadFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list leads")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAccounts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"payload"}).
		AddRow(mustJSON(t, model.Account{Key: 1, Name: "Applied Materials, Inc."}))

	mock.ExpectQuery(`SELECT payload FROM accounts WHERE run_id = COALESCE\(NULLIF\(\$1, ''\).* ORDER BY key ASC`).
		WithArgs("run-1").
		WillReturnRows(rows)

	got, err := s.ListAccounts(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecommendations(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"payload"}).
		AddRow(mustJSON(t, model.Recommendation{LeadKey: "lead-A", Rank: 1})).
		AddRow(mustJSON(t, model.Recommendation{LeadKey: "lead-A", Rank: 2}))

	mock.ExpectQuery(`(?s)SELECT payload FROM recommendations.*WHERE lead_key = \$1.*ORDER BY rank ASC`).
		WithArgs("lead-A").
		WillReturnRows(rows)

	got, err := s.ListRecommendations(context.Background(), "lead-A")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Rank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StageCatalogReplaces(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM staged_catalog`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`INSERT INTO staged_catalog`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	rows := []model.CatalogRow{
		{ProductFamily: "COMPUTE", ServiceName: "Server Health Check", ServicePriority: 1},
	}
	assert.NoError(t, s.StageCatalog(context.Background(), rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
