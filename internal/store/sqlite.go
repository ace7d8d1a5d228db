package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS batch_runs (
	id         TEXT PRIMARY KEY,
	as_of      DATETIME NOT NULL,
	counters   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS accounts (
	run_id  TEXT NOT NULL REFERENCES batch_runs(id),
	key     INTEGER NOT NULL,
	payload TEXT NOT NULL,
	PRIMARY KEY (run_id, key)
);

CREATE TABLE IF NOT EXISTS products (
	run_id         TEXT NOT NULL REFERENCES batch_runs(id),
	serial         TEXT NOT NULL,
	risk           TEXT NOT NULL,
	product_family TEXT,
	payload        TEXT NOT NULL,
	PRIMARY KEY (run_id, serial)
);

CREATE TABLE IF NOT EXISTS matches (
	run_id      TEXT NOT NULL REFERENCES batch_runs(id),
	product_key TEXT NOT NULL,
	confidence  INTEGER NOT NULL,
	payload     TEXT NOT NULL,
	PRIMARY KEY (run_id, product_key)
);

CREATE TABLE IF NOT EXISTS leads (
	run_id        TEXT NOT NULL REFERENCES batch_runs(id),
	key           TEXT NOT NULL,
	priority      TEXT NOT NULL,
	status        TEXT NOT NULL,
	account_key   INTEGER NOT NULL,
	overall_score REAL NOT NULL,
	payload       TEXT NOT NULL,
	PRIMARY KEY (run_id, key)
);

CREATE TABLE IF NOT EXISTS recommendations (
	run_id   TEXT NOT NULL REFERENCES batch_runs(id),
	lead_key TEXT NOT NULL,
	rank     INTEGER NOT NULL,
	payload  TEXT NOT NULL,
	PRIMARY KEY (run_id, lead_key, rank)
);

CREATE TABLE IF NOT EXISTS staged_products (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS staged_opportunities (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS staged_projects (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS staged_catalog (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_priority ON leads(run_id, priority);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(run_id, status);
CREATE INDEX IF NOT EXISTS idx_recommendations_lead ON recommendations(lead_key);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveBatch persists one engine run and all of its output in a transaction.
// A run ID is assigned when the result does not carry one.
func (s *SQLiteStore) SaveBatch(ctx context.Context, result *model.BatchResult) error {
	if result.RunID == "" {
		result.RunID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save batch")
	}
	defer tx.Rollback()

	countersJSON, err := json.Marshal(result.Counters)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal counters")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batch_runs (id, as_of, counters, created_at) VALUES (?, ?, ?, ?)`,
		result.RunID, result.AsOf, string(countersJSON), time.Now().UTC(),
	); err != nil {
		return eris.Wrap(err, "sqlite: insert batch run")
	}

	for i := range result.Accounts {
		a := &result.Accounts[i]
		if err := insertJSON(ctx, tx,
			`INSERT INTO accounts (run_id, key, payload) VALUES (?, ?, ?)`,
			a, result.RunID, a.Key,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert account")
		}
	}

	for i := range result.Products {
		p := &result.Products[i]
		if err := insertJSON(ctx, tx,
			`INSERT INTO products (run_id, serial, risk, product_family, payload) VALUES (?, ?, ?, ?, ?)`,
			p, result.RunID, p.Serial, string(p.Risk), p.ProductFamily,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert product")
		}
	}

	for i := range result.Matches {
		m := &result.Matches[i]
		if err := insertJSON(ctx, tx,
			`INSERT INTO matches (run_id, product_key, confidence, payload) VALUES (?, ?, ?, ?)`,
			m, result.RunID, m.ProductKey, m.Confidence,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert match")
		}
	}

	for i := range result.Leads {
		l := &result.Leads[i]
		if err := insertJSON(ctx, tx,
			`INSERT INTO leads (run_id, key, priority, status, account_key, overall_score, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l, result.RunID, l.Key, string(l.Priority), string(l.Status), l.AccountKey, l.OverallScore,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert lead")
		}
	}

	for i := range result.Recommendations {
		r := &result.Recommendations[i]
		if err := insertJSON(ctx, tx,
			`INSERT INTO recommendations (run_id, lead_key, rank, payload) VALUES (?, ?, ?, ?)`,
			r, result.RunID, r.LeadKey, r.Rank,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert recommendation")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save batch")
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT payload FROM leads WHERE run_id = ` + latestRunExpr
	args := []any{filter.RunID}

	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, string(filter.Priority))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY overall_score DESC, key ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return queryPayloads[model.Lead](ctx, s.db, "sqlite: list leads", query, args...)
}

func (s *SQLiteStore) ListAccounts(ctx context.Context, runID string) ([]model.Account, error) {
	query := `SELECT payload FROM accounts WHERE run_id = ` + latestRunExpr + ` ORDER BY key ASC`
	return queryPayloads[model.Account](ctx, s.db, "sqlite: list accounts", query, runID)
}

func (s *SQLiteStore) ListRecommendations(ctx context.Context, leadKey string) ([]model.Recommendation, error) {
	query := `SELECT payload FROM recommendations
	 WHERE lead_key = ? AND run_id = (SELECT id FROM batch_runs ORDER BY created_at DESC, id DESC LIMIT 1)
	 ORDER BY rank ASC`
	return queryPayloads[model.Recommendation](ctx, s.db, "sqlite: list recommendations", query, leadKey)
}

// StageRows appends source rows for a later engine run.
func (s *SQLiteStore) StageRows(ctx context.Context, batch *model.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin stage rows")
	}
	defer tx.Rollback()

	for i := range batch.Products {
		if err := insertJSON(ctx, tx, `INSERT INTO staged_products (payload) VALUES (?)`, &batch.Products[i]); err != nil {
			return eris.Wrap(err, "sqlite: stage product")
		}
	}
	for i := range batch.Opportunities {
		if err := insertJSON(ctx, tx, `INSERT INTO staged_opportunities (payload) VALUES (?)`, &batch.Opportunities[i]); err != nil {
			return eris.Wrap(err, "sqlite: stage opportunity")
		}
	}
	for i := range batch.Projects {
		if err := insertJSON(ctx, tx, `INSERT INTO staged_projects (payload) VALUES (?)`, &batch.Projects[i]); err != nil {
			return eris.Wrap(err, "sqlite: stage project")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit stage rows")
}

// StageCatalog replaces the staged catalog wholesale; the catalog is an
// immutable reference set, not an append log.
func (s *SQLiteStore) StageCatalog(ctx context.Context, rows []model.CatalogRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin stage catalog")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staged_catalog`); err != nil {
		return eris.Wrap(err, "sqlite: clear staged catalog")
	}
	for i := range rows {
		if err := insertJSON(ctx, tx, `INSERT INTO staged_catalog (payload) VALUES (?)`, &rows[i]); err != nil {
			return eris.Wrap(err, "sqlite: stage catalog row")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit stage catalog")
}

func (s *SQLiteStore) LoadRows(ctx context.Context) (*model.Batch, error) {
	products, err := queryPayloads[model.ProductRow](ctx, s.db, "sqlite: load products",
		`SELECT payload FROM staged_products ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	opps, err := queryPayloads[model.OpportunityRow](ctx, s.db, "sqlite: load opportunities",
		`SELECT payload FROM staged_opportunities ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	projects, err := queryPayloads[model.ProjectRow](ctx, s.db, "sqlite: load projects",
		`SELECT payload FROM staged_projects ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}

	return &model.Batch{Products: products, Opportunities: opps, Projects: projects}, nil
}

func (s *SQLiteStore) LoadCatalog(ctx context.Context) ([]model.CatalogRow, error) {
	return queryPayloads[model.CatalogRow](ctx, s.db, "sqlite: load catalog",
		`SELECT payload FROM staged_catalog ORDER BY seq ASC`)
}

// latestRunExpr resolves an empty run ID to the most recent batch run.
const latestRunExpr = `COALESCE(NULLIF(?, ''), (SELECT id FROM batch_runs ORDER BY created_at DESC, id DESC LIMIT 1))`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertJSON marshals v as the trailing payload argument of an insert.
func insertJSON(ctx context.Context, ex execer, query string, v any, args ...any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "marshal payload")
	}
	args = append(args, string(payload))
	_, err = ex.ExecContext(ctx, query, args...)
	return err
}

// queryPayloads runs a single-column payload query and unmarshals each row.
func queryPayloads[T any](ctx context.Context, db *sql.DB, opName, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, opName)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, opName+" scan")
		}
		var v T
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, eris.Wrap(err, opName+" unmarshal")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), opName+" iterate")
}
