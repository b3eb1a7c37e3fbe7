package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ScoreStore keeps the whole ledger as one JSON string: SET {key} {"id":n,...}.
// SET replaces the value in one step, so readers never see a half-written document.
type ScoreStore struct {
	client *redis.Client
	key    string
}

func NewScoreStore(client *redis.Client, key string) *ScoreStore {
	if key == "" {
		key = "roboclic:stats"
	}
	return &ScoreStore{client: client, key: key}
}

func (s *ScoreStore) Load(ctx context.Context) (map[string]int, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scores: %w", err)
	}
	scores := map[string]int{}
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return scores, nil
}

func (s *ScoreStore) Save(ctx context.Context, scores map[string]int) error {
	raw, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set scores: %w", err)
	}
	return nil
}
