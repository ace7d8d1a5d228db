package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. Keeping it narrow lets
// tests substitute a mock pool.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS batch_runs (
	id         TEXT PRIMARY KEY,
	as_of      TIMESTAMPTZ NOT NULL,
	counters   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accounts (
	run_id  TEXT NOT NULL REFERENCES batch_runs(id),
	key     BIGINT NOT NULL,
	payload JSONB NOT NULL,
	PRIMARY KEY (run_id, key)
);

CREATE TABLE IF NOT EXISTS products (
	run_id         TEXT NOT NULL REFERENCES batch_runs(id),
	serial         TEXT NOT NULL,
	risk           TEXT NOT NULL,
	product_family TEXT,
	payload        JSONB NOT NULL,
	PRIMARY KEY (run_id, serial)
);

CREATE TABLE IF NOT EXISTS matches (
	run_id      TEXT NOT NULL REFERENCES batch_runs(id),
	product_key TEXT NOT NULL,
	confidence  INTEGER NOT NULL,
	payload     JSONB NOT NULL,
	PRIMARY KEY (run_id, product_key)
);

CREATE TABLE IF NOT EXISTS leads (
	run_id        TEXT NOT NULL REFERENCES batch_runs(id),
	key           TEXT NOT NULL,
	priority      TEXT NOT NULL,
	status        TEXT NOT NULL,
	account_key   BIGINT NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL,
	payload       JSONB NOT NULL,
	PRIMARY KEY (run_id, key)
);

CREATE TABLE IF NOT EXISTS recommendations (
	run_id   TEXT NOT NULL REFERENCES batch_runs(id),
	lead_key TEXT NOT NULL,
	rank     INTEGER NOT NULL,
	payload  JSONB NOT NULL,
	PRIMARY KEY (run_id, lead_key, rank)
);

CREATE TABLE IF NOT EXISTS staged_products (
	seq     BIGSERIAL PRIMARY KEY,
	payload JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS staged_opportunities (
	seq     BIGSERIAL PRIMARY KEY,
	payload JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS staged_projects (
	seq     BIGSERIAL PRIMARY KEY,
	payload JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS staged_catalog (
	seq     BIGSERIAL PRIMARY KEY,
	payload JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_priority ON leads(run_id, priority);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(run_id, status);
CREATE INDEX IF NOT EXISTS idx_recommendations_lead ON recommendations(lead_key);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveBatch(ctx context.Context, result *model.BatchResult) error {
	if result.RunID == "" {
		result.RunID = uuid.New().String()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save batch")
	}
	defer tx.Rollback(ctx)

	countersJSON, err := json.Marshal(result.Counters)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal counters")
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO batch_runs (id, as_of, counters) VALUES ($1, $2, $3)`,
		result.RunID, result.AsOf, countersJSON,
	); err != nil {
		return eris.Wrap(err, "postgres: insert batch run")
	}

	for i := range result.Accounts {
		a := &result.Accounts[i]
		if err := pgInsertJSON(ctx, tx,
			`INSERT INTO accounts (run_id, key, payload) VALUES ($1, $2, $3)`,
			a, result.RunID, a.Key,
		); err != nil {
			return eris.Wrap(err, "postgres: insert account")
		}
	}

	for i := range result.Products {
		p := &result.Products[i]
		if err := pgInsertJSON(ctx, tx,
			`INSERT INTO products (run_id, serial, risk, product_family, payload) VALUES ($1, $2, $3, $4, $5)`,
			p, result.RunID, p.Serial, string(p.Risk), p.ProductFamily,
		); err != nil {
			return eris.Wrap(err, "postgres: insert product")
		}
	}

	for i := range result.Matches {
		m := &result.Matches[i]
		if err := pgInsertJSON(ctx, tx,
			`INSERT INTO matches (run_id, product_key, confidence, payload) VALUES ($1, $2, $3, $4)`,
			m, result.RunID, m.ProductKey, m.Confidence,
		); err != nil {
			return eris.Wrap(err, "postgres: insert match")
		}
	}

	for i := range result.Leads {
		l := &result.Leads[i]
		if err := pgInsertJSON(ctx, tx,
			`INSERT INTO leads (run_id, key, priority, status, account_key, overall_score, payload) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l, result.RunID, l.Key, string(l.Priority), string(l.Status), l.AccountKey, l.OverallScore,
		); err != nil {
			return eris.Wrap(err, "postgres: insert lead")
		}
	}

	for i := range result.Recommendations {
		r := &result.Recommendations[i]
		if err := pgInsertJSON(ctx, tx,
			`INSERT INTO recommendations (run_id, lead_key, rank, payload) VALUES ($1, $2, $3, $4)`,
			r, result.RunID, r.LeadKey, r.Rank,
		); err != nil {
			return eris.Wrap(err, "postgres: insert recommendation")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit save batch")
}

// pgLatestRunExpr resolves an empty run ID to the most recent batch run.
const pgLatestRunExpr = `COALESCE(NULLIF($1, ''), (SELECT id FROM batch_runs ORDER BY created_at DESC, id DESC LIMIT 1))`

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT payload FROM leads WHERE run_id = ` + pgLatestRunExpr
	args := []any{filter.RunID}

	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		query += ` AND priority = ` + placeholder(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = ` + placeholder(len(args))
	}
	query += ` ORDER BY overall_score DESC, key ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT ` + placeholder(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET ` + placeholder(len(args))
	}

	return pgQueryPayloads[model.Lead](ctx, s.pool, "postgres: list leads", query, args...)
}

func (s *PostgresStore) ListAccounts(ctx context.Context, runID string) ([]model.Account, error) {
	query := `SELECT payload FROM accounts WHERE run_id = ` + pgLatestRunExpr + ` ORDER BY key ASC`
	return pgQueryPayloads[model.Account](ctx, s.pool, "postgres: list accounts", query, runID)
}

func (s *PostgresStore) ListRecommendations(ctx context.Context, leadKey string) ([]model.Recommendation, error) {
	query := `SELECT payload FROM recommendations
	 WHERE lead_key = $1 AND run_id = (SELECT id FROM batch_runs ORDER BY created_at DESC, id DESC LIMIT 1)
	 ORDER BY rank ASC`
	return pgQueryPayloads[model.Recommendation](ctx, s.pool, "postgres: list recommendations", query, leadKey)
}

func (s *PostgresStore) StageRows(ctx context.Context, batch *model.Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin stage rows")
	}
	defer tx.Rollback(ctx)

	for i := range batch.Products {
		if err := pgInsertJSON(ctx, tx, `INSERT INTO staged_products (payload) VALUES ($1)`, &batch.Products[i]); err != nil {
			return eris.Wrap(err, "postgres: stage product")
		}
	}
	for i := range batch.Opportunities {
		if err := pgInsertJSON(ctx, tx, `INSERT INTO staged_opportunities (payload) VALUES ($1)`, &batch.Opportunities[i]); err != nil {
			return eris.Wrap(err, "postgres: stage opportunity")
		}
	}
	for i := range batch.Projects {
		if err := pgInsertJSON(ctx, tx, `INSERT INTO staged_projects (payload) VALUES ($1)`, &batch.Projects[i]); err != nil {
			return eris.Wrap(err, "postgres: stage project")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit stage rows")
}

func (s *PostgresStore) StageCatalog(ctx context.Context, rows []model.CatalogRow) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin stage catalog")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM staged_catalog`); err != nil {
		return eris.Wrap(err, "postgres: clear staged catalog")
	}
	for i := range rows {
		if err := pgInsertJSON(ctx, tx, `INSERT INTO staged_catalog (payload) VALUES ($1)`, &rows[i]); err != nil {
			return eris.Wrap(err, "postgres: stage catalog row")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit stage catalog")
}

func (s *PostgresStore) LoadRows(ctx context.Context) (*model.Batch, error) {
	products, err := pgQueryPayloads[model.ProductRow](ctx, s.pool, "postgres: load products",
		`SELECT payload FROM staged_products ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	opps, err := pgQueryPayloads[model.OpportunityRow](ctx, s.pool, "postgres: load opportunities",
		`SELECT payload FROM staged_opportunities ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	projects, err := pgQueryPayloads[model.ProjectRow](ctx, s.pool, "postgres: load projects",
		`SELECT payload FROM staged_projects ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}

	return &model.Batch{Products: products, Opportunities: opps, Projects: projects}, nil
}

func (s *PostgresStore) LoadCatalog(ctx context.Context) ([]model.CatalogRow, error) {
	return pgQueryPayloads[model.CatalogRow](ctx, s.pool, "postgres: load catalog",
		`SELECT payload FROM staged_catalog ORDER BY seq ASC`)
}

// helpers

func pgInsertJSON(ctx context.Context, tx pgx.Tx, query string, v any, args ...any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "marshal payload")
	}
	args = append(args, payload)
	_, err = tx.Exec(ctx, query, args...)
	return err
}

func pgQueryPayloads[T any](ctx context.Context, pool Pool, opName, query string, args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, opName)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, opName+" scan")
		}
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, eris.Wrap(err, opName+" unmarshal")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), opName+" iterate")
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
