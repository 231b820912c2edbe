package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	title TEXT,
	keywords TEXT,
	category_code INTEGER DEFAULT 0,
	category_name TEXT,
	description TEXT,
	prompt TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_batch ON records(batch_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRecord inserts or replaces a record
func (s *sqliteStore) SaveRecord(ctx context.Context, r store.Record) error {
	if r.ID == "" || r.BatchID == "" {
		return fmt.Errorf("%w: record needs an ID and a batch ID", internalerr.ErrInvalidInput)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	kwJSON, err := json.Marshal(r.Keywords)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO records (id, batch_id, filename, status, error, title, keywords, category_code, category_name, description, prompt, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	batch_id=excluded.batch_id,
	filename=excluded.filename,
	status=excluded.status,
	error=excluded.error,
	title=excluded.title,
	keywords=excluded.keywords,
	category_code=excluded.category_code,
	category_name=excluded.category_name,
	description=excluded.description,
	prompt=excluded.prompt,
	created_at=excluded.created_at;
`, r.ID, r.BatchID, r.Filename, string(r.Status), r.Error, r.Title, string(kwJSON),
		r.CategoryCode, r.CategoryName, r.Description, r.Prompt, r.CreatedAt.UnixNano())
	return err
}

const recordColumns = `id, batch_id, filename, status, error, title, keywords, category_code, category_name, description, prompt, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (store.Record, error) {
	var (
		r                                             store.Record
		status                                        string
		errText, title, kwJSON, catName, desc, prompt sql.NullString
		created                                       int64
	)
	if err := row.Scan(&r.ID, &r.BatchID, &r.Filename, &status, &errText, &title, &kwJSON,
		&r.CategoryCode, &catName, &desc, &prompt, &created); err != nil {
		return store.Record{}, err
	}
	r.Status = store.Status(status)
	r.Error = errText.String
	r.Title = title.String
	r.CategoryName = catName.String
	r.Description = desc.String
	r.Prompt = prompt.String
	r.CreatedAt = time.Unix(0, created).UTC()
	if kwJSON.Valid && kwJSON.String != "" && kwJSON.String != "null" {
		if err := json.Unmarshal([]byte(kwJSON.String), &r.Keywords); err != nil {
			return store.Record{}, fmt.Errorf("decode keywords for %s: %w", r.ID, err)
		}
	}
	return r, nil
}

// GetRecord retrieves a record by ID
func (s *sqliteStore) GetRecord(ctx context.Context, id string) (store.Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, err
	}
	return r, true, nil
}

// ListBatch returns the records of one batch in insertion order
func (s *sqliteStore) ListBatch(ctx context.Context, batchID string) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records WHERE batch_id = ? ORDER BY rowid`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListBatches summarizes batches, most recent first
func (s *sqliteStore) ListBatches(ctx context.Context, limit int) ([]store.BatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT batch_id,
	COUNT(*),
	SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
	SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
	MIN(created_at)
FROM records
GROUP BY batch_id
ORDER BY MIN(created_at) DESC, batch_id DESC
LIMIT ?;
`, string(store.StatusCompleted), string(store.StatusError), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.BatchSummary
	for rows.Next() {
		var (
			b       store.BatchSummary
			created int64
		)
		if err := rows.Scan(&b.BatchID, &b.Total, &b.Completed, &b.Failed, &created); err != nil {
			return nil, err
		}
		b.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}
