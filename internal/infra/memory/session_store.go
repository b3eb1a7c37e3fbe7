package memory

import (
	"context"
	"sync"

	"roboclic/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions vanish with the process.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[domain.SessionKey]domain.GuessSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.SessionKey]domain.GuessSession),
	}
}

func (s *SessionStore) Start(_ context.Context, key domain.SessionKey, session domain.GuessSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = session
	return nil
}

func (s *SessionStore) Select(_ context.Context, key domain.SessionKey, participantID string, promptRef int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[key]
	if !ok {
		return false, nil
	}
	session.ParticipantID = participantID
	session.PromptRef = promptRef
	s.sessions[key] = session
	return true, nil
}

func (s *SessionStore) Take(_ context.Context, key domain.SessionKey) (domain.GuessSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[key]
	if !ok || !session.Ready() {
		return domain.GuessSession{}, false, nil
	}
	delete(s.sessions, key)
	return session, true, nil
}

// Len is the number of pending sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
