package app

import (
	"context"

	"roboclic/internal/corpus"
	"roboclic/internal/domain"
)

// Resources is built once at startup and shared read-only by every component.
type Resources struct {
	Corpus       *corpus.Corpus
	Participants *domain.Registry
	Birthdays    *domain.Birthdays
	OptionLimit  int
}

// Messenger abstracts the chat delivery channel (Telegram in production).
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)
	SendChoices(ctx context.Context, chatID int64, text string, rows [][]domain.Choice) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	SendQuiz(ctx context.Context, chatID int64, quiz domain.Quiz, anonymous bool) error
	SendPoll(ctx context.Context, chatID int64, question string, options []string) error
}

// SessionRepository abstracts where pending guess sessions live (in-memory, Redis).
type SessionRepository interface {
	// Start stores a fresh session, replacing any pending one for key.
	Start(ctx context.Context, key domain.SessionKey, session domain.GuessSession) error
	// Select records the chosen participant; false when no session is pending.
	Select(ctx context.Context, key domain.SessionKey, participantID string, promptRef int64) (bool, error)
	// Take removes and returns the session only once a participant was selected.
	Take(ctx context.Context, key domain.SessionKey) (domain.GuessSession, bool, error)
}

// LineRepository serves the lines of named quote files.
type LineRepository interface {
	Lines(ctx context.Context, name string) ([]string, error)
}
