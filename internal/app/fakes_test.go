package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"roboclic/internal/corpus"
	"roboclic/internal/domain"
	"roboclic/internal/infra/memory"
)

var (
	errDeleteRefused = errors.New("message can't be deleted")
	errSendRefused   = errors.New("chat not found")
)

type sentMessage struct {
	ChatID int64
	Text   string
	Rows   [][]domain.Choice
}

type sentQuiz struct {
	ChatID    int64
	Quiz      domain.Quiz
	Anonymous bool
}

type fakeMessenger struct {
	mu         sync.Mutex
	nextID     int64
	messages   []sentMessage
	edits      []string
	deletes    []int64
	quizzes    []sentQuiz
	polls      []string
	failDelete bool
	failSend   bool
}

func (m *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSend {
		return 0, errSendRefused
	}
	m.nextID++
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Text: text})
	return m.nextID, nil
}

func (m *fakeMessenger) SendChoices(_ context.Context, chatID int64, text string, rows [][]domain.Choice) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Text: text, Rows: rows})
	return m.nextID, nil
}

func (m *fakeMessenger) EditMessage(_ context.Context, _, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, text)
	return nil
}

func (m *fakeMessenger) DeleteMessage(_ context.Context, _, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, messageID)
	if m.failDelete {
		return errDeleteRefused
	}
	return nil
}

func (m *fakeMessenger) SendQuiz(_ context.Context, chatID int64, quiz domain.Quiz, anonymous bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes = append(m.quizzes, sentQuiz{ChatID: chatID, Quiz: quiz, Anonymous: anonymous})
	return nil
}

func (m *fakeMessenger) SendPoll(_ context.Context, _ int64, question string, _ []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls = append(m.polls, question)
	return nil
}

func (m *fakeMessenger) quizCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quizzes)
}

func testRegistry(t *testing.T) *domain.Registry {
	t.Helper()
	reg, err := domain.NewRegistry([]domain.Participant{
		{ID: "hugo", Name: "Hugo"},
		{ID: "lea", Name: "Léa"},
		{ID: "max", Name: "Max"},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func testResources(t *testing.T) *Resources {
	t.Helper()
	reg := testRegistry(t)
	birthdays, err := domain.NewBirthdays(reg, []domain.Birthday{{ParticipantID: "max", Date: "12 juin"}})
	if err != nil {
		t.Fatalf("birthdays: %v", err)
	}
	c, err := corpus.New([]corpus.Block{
		{Source: "A", Lines: []string{"a1", "a2"}},
		{Source: "B", Lines: []string{"b1"}},
	})
	if err != nil {
		t.Fatalf("corpus: %v", err)
	}
	return &Resources{Corpus: c, Participants: reg, Birthdays: birthdays, OptionLimit: DefaultOptionLimit}
}

type guessFixture struct {
	svc       *GuessService
	messenger *fakeMessenger
	scores    *memory.ScoreStore
	sessions  *memory.SessionStore
}

func newGuessFixture(t *testing.T, cfg GuessConfig) *guessFixture {
	t.Helper()
	res := testResources(t)
	messenger := &fakeMessenger{}
	scores := memory.NewScoreStore(nil)
	sessions := memory.NewSessionStore()
	ledger := NewLedger(scores, res.Participants, nil)
	svc := NewGuessService(res, NewQuizBuilder(DefaultOptionLimit, false), sessions, ledger, messenger, cfg, nil)
	return &guessFixture{svc: svc, messenger: messenger, scores: scores, sessions: sessions}
}
