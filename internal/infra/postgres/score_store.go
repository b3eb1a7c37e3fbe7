package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreStore keeps the ledger document as one JSONB row of the ledger table.
type ScoreStore struct {
	pool *pgxpool.Pool
	id   string
}

func NewScoreStore(pool *pgxpool.Pool, id string) *ScoreStore {
	if id == "" {
		id = "stats"
	}
	return &ScoreStore{pool: pool, id: id}
}

func (s *ScoreStore) Load(ctx context.Context) (map[string]int, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT scores FROM ledger WHERE id=$1`, s.id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	scores := map[string]int{}
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}
	return scores, nil
}

func (s *ScoreStore) Save(ctx context.Context, scores map[string]int) error {
	raw, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO ledger (id, scores, updated_at) VALUES ($1, $2::jsonb, now())
ON CONFLICT (id) DO UPDATE SET scores=EXCLUDED.scores, updated_at=EXCLUDED.updated_at`, s.id, string(raw))
	if err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	return nil
}
