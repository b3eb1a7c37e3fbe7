package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ScoreStore keeps the ledger as one JSON object on disk. Saves go through a
// temporary file and a rename, so a failed write leaves the old file intact.
type ScoreStore struct {
	path       string
	createTemp func(dir, pattern string) (*os.File, error)
}

func NewScoreStore(path string) *ScoreStore {
	return &ScoreStore{path: path, createTemp: os.CreateTemp}
}

func (s *ScoreStore) Load(_ context.Context) (map[string]int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	scores := map[string]int{}
	if len(data) == 0 {
		return scores, nil
	}
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return scores, nil
}

func (s *ScoreStore) Save(_ context.Context, scores map[string]int) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	tmp, err := s.createTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp scores: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close scores: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace scores: %w", err)
	}
	return nil
}
