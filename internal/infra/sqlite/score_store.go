// Package sqlite persists the ledger in a local SQLite database for
// single-host deployments that want more than a JSON file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS ledger (
	id TEXT PRIMARY KEY,
	scores TEXT NOT NULL
)`

// ScoreStore keeps the ledger document as one row of the ledger table.
type ScoreStore struct {
	db *sql.DB
	id string
}

// Open creates the database file and schema if they are missing.
func Open(ctx context.Context, path string) (*ScoreStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger table: %w", err)
	}
	return &ScoreStore{db: db, id: "stats"}, nil
}

func (s *ScoreStore) Close() error {
	return s.db.Close()
}

func (s *ScoreStore) Load(ctx context.Context) (map[string]int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT scores FROM ledger WHERE id = ?`, s.id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	scores := map[string]int{}
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}
	return scores, nil
}

func (s *ScoreStore) Save(ctx context.Context, scores map[string]int) error {
	raw, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ledger (id, scores) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET scores = excluded.scores`,
		s.id, string(raw))
	if err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	return nil
}
