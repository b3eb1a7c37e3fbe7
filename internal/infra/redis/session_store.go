package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"roboclic/internal/domain"
)

// Sessions are stored as hashes: HSET guess:{chatID}:{userID} initiator .. participant .. prompt ..
// They carry no expiry; a pending round waits until it is completed or restarted.
var (
	selectScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], 'participant', ARGV[1], 'prompt', ARGV[2])
return 1
`)
	takeScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'participant') == 0 then return {} end
local v = redis.call('HGETALL', KEYS[1])
redis.call('DEL', KEYS[1])
return v
`)
)

// SessionStore is a Redis implementation of app.SessionRepository. Pending
// rounds survive a restart and can be shared by several bot processes.
type SessionStore struct {
	client *redis.Client
	prefix string
}

func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "guess"
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) Start(ctx context.Context, key domain.SessionKey, session domain.GuessSession) error {
	k := s.key(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k,
			"initiator", session.Initiator,
			"prompt", session.PromptRef,
			"started", session.StartedAt.UTC().Format(time.RFC3339Nano),
		)
		return nil
	})
	return err
}

func (s *SessionStore) Select(ctx context.Context, key domain.SessionKey, participantID string, promptRef int64) (bool, error) {
	n, err := selectScript.Run(ctx, s.client, []string{s.key(key)}, participantID, promptRef).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SessionStore) Take(ctx context.Context, key domain.SessionKey) (domain.GuessSession, bool, error) {
	values, err := takeScript.Run(ctx, s.client, []string{s.key(key)}).StringSlice()
	if err != nil {
		return domain.GuessSession{}, false, err
	}
	if len(values) == 0 {
		return domain.GuessSession{}, false, nil
	}
	session, err := decodeSession(values)
	if err != nil {
		return domain.GuessSession{}, false, err
	}
	return session, true, nil
}

func (s *SessionStore) key(key domain.SessionKey) string {
	return fmt.Sprintf("%s:%d:%d", s.prefix, key.ChatID, key.UserID)
}

func decodeSession(values []string) (domain.GuessSession, error) {
	var session domain.GuessSession
	for i := 0; i+1 < len(values); i += 2 {
		field, value := values[i], values[i+1]
		switch field {
		case "initiator":
			session.Initiator = value
		case "participant":
			session.ParticipantID = value
		case "prompt":
			ref, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return domain.GuessSession{}, fmt.Errorf("decode prompt ref: %w", err)
			}
			session.PromptRef = ref
		case "started":
			if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
				session.StartedAt = ts
			}
		}
	}
	return session, nil
}
