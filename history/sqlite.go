package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/hazyhaar/streamprobe/dbopen"
)

// Schema creates the run-history table. seq orders records by insertion.
const Schema = `
CREATE TABLE IF NOT EXISTS run_history (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	test_date  TEXT NOT NULL,
	media_type TEXT NOT NULL,
	media_id   INTEGER NOT NULL,
	payload    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_history_media ON run_history(media_type, media_id);
`

// SQLite is a Store backed by a SQLite database. Records are kept as JSON
// payloads with the lookup columns alongside.
type SQLite struct {
	db       *sql.DB
	capacity int
	owned    bool
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string, capacity int) (*SQLite, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll())
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	s, err := NewSQLite(db, capacity)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLite wraps an open database, creating the schema if needed. The
// caller keeps ownership of db.
func NewSQLite(db *sql.DB, capacity int) (*SQLite, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &SQLite{db: db, capacity: capacity}, nil
}

func (s *SQLite) Append(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_history (id, test_date, media_type, media_id, payload) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, rec.TestDate, rec.MediaType, rec.MediaID, string(payload)); err != nil {
			return fmt.Errorf("history: insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM run_history WHERE seq NOT IN (SELECT seq FROM run_history ORDER BY seq DESC LIMIT ?)`,
			s.capacity); err != nil {
			return fmt.Errorf("history: evict: %w", err)
		}
		return nil
	})
}

func (s *SQLite) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM run_history ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		rec, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, id string) (Record, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM run_history WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("history: get: %w", err)
	}
	return decode(payload)
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM run_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("history: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM run_history`); err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}
	return nil
}

// Close closes the database when the store opened it.
func (s *SQLite) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

func decode(payload string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return Record{}, fmt.Errorf("history: decode: %w", err)
	}
	return rec, nil
}
