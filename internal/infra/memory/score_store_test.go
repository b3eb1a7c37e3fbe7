package memory

import (
	"context"
	"errors"
	"testing"
)

func TestScoreStoreKeepsDocumentOnFailedSave(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore(map[string]int{"hugo": 2})

	store.SaveErr = errors.New("disk full")
	if err := store.Save(ctx, map[string]int{"hugo": 3}); err == nil {
		t.Fatalf("expected save error")
	}
	got, _ := store.Load(ctx)
	if got["hugo"] != 2 {
		t.Fatalf("expected previous document intact, got %v", got)
	}

	store.SaveErr = nil
	loaded, _ := store.Load(ctx)
	loaded["hugo"] = 99
	again, _ := store.Load(ctx)
	if again["hugo"] != 2 {
		t.Fatalf("expected Load to return a copy, got %v", again)
	}
}
