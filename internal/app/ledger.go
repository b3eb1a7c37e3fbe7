package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"roboclic/internal/domain"
)

// ScoreStore persists the whole ledger document. Load returns an empty map
// when nothing was saved yet; Save replaces the document as a whole.
type ScoreStore interface {
	Load(ctx context.Context) (map[string]int, error)
	Save(ctx context.Context, scores map[string]int) error
}

// Ledger counts how many guess rounds each participant has been the answer of.
//
// Every increment loads the whole document, mutates it and saves it back.
// Increments within this process are serialized; two processes sharing one
// store can still lose an update (last writer wins).
type Ledger struct {
	store    ScoreStore
	registry *domain.Registry
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex

	subMu       sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLedger(store ScoreStore, registry *domain.Registry, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = discardLogger()
	}
	return &Ledger{
		store:       store,
		registry:    registry,
		logger:      logger,
		now:         time.Now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Increment adds one to participantID. Unknown ids are ignored and report false.
func (l *Ledger) Increment(ctx context.Context, participantID string) (bool, error) {
	if !l.registry.Has(participantID) {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	scores, err := l.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load ledger: %w", err)
	}
	next := make(map[string]int, len(scores)+1)
	for id, n := range scores {
		next[id] = n
	}
	next[participantID]++
	if err := l.store.Save(ctx, next); err != nil {
		return false, fmt.Errorf("save ledger: %w", err)
	}

	l.logger.DebugContext(ctx, "ledger incremented", "participant", participantID, "score", next[participantID])
	l.broadcast(l.leaderboard(next))
	return true, nil
}

// Snapshot returns known participants with a score, highest first.
func (l *Ledger) Snapshot(ctx context.Context) (domain.Leaderboard, error) {
	scores, err := l.store.Load(ctx)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load ledger: %w", err)
	}
	return l.leaderboard(scores), nil
}

// Lookup resolves a typed name against registry ids and returns the display
// name with its score. Names matching nobody are title-cased with score 0.
func (l *Ledger) Lookup(ctx context.Context, query string) (string, int, error) {
	key := NormalizeName(query)
	for _, p := range l.registry.Participants() {
		if NormalizeName(p.ID) != key {
			continue
		}
		scores, err := l.store.Load(ctx)
		if err != nil {
			return "", 0, fmt.Errorf("load ledger: %w", err)
		}
		return p.Name, scores[p.ID], nil
	}
	return titleName(key), 0, nil
}

// Subscribe returns a channel of leaderboards published after each increment.
// The caller must invoke the returned cancel function to avoid leaks.
func (l *Ledger) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := l.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan domain.Leaderboard, 8)

	l.subMu.Lock()
	l.subscribers[ch] = struct{}{}
	l.subMu.Unlock()

	ch <- initial

	cancel := func() {
		l.subMu.Lock()
		if _, ok := l.subscribers[ch]; ok {
			delete(l.subscribers, ch)
			close(ch)
		}
		l.subMu.Unlock()
	}
	return ch, cancel, nil
}

func (l *Ledger) broadcast(lb domain.Leaderboard) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for ch := range l.subscribers {
		select {
		case ch <- lb:
		default:
			// drop the stale update so a slow reader never blocks an increment
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func (l *Ledger) leaderboard(scores map[string]int) domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(scores))
	for id, score := range scores {
		p, ok := l.registry.Lookup(id)
		if !ok {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: id,
			DisplayName:   p.Name,
			Score:         score,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return l.registry.Position(entries[i].ParticipantID) < l.registry.Position(entries[j].ParticipantID)
	})
	return domain.Leaderboard{Entries: entries, UpdatedAt: l.now()}
}
