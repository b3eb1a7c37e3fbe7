package memory

import (
	"context"
	"sync"
)

// ScoreStore keeps the ledger document in memory. Scores are lost on restart.
type ScoreStore struct {
	mu     sync.Mutex
	scores map[string]int
	// SaveErr, when set, makes every Save fail without touching the document.
	SaveErr error
}

func NewScoreStore(initial map[string]int) *ScoreStore {
	return &ScoreStore{scores: clone(initial)}
}

func (s *ScoreStore) Load(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.scores), nil
}

func (s *ScoreStore) Save(_ context.Context, scores map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.scores = clone(scores)
	return nil
}

func clone(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
