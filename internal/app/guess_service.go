package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"roboclic/internal/domain"
)

const (
	PromptWho      = "Qui l'a dit ?"
	PromptWhat     = "Qu'est-ce qui a été dit ?"
	keyboardWidth  = 4
	callbackPrefix = "guess:"
)

// GuessConfig holds the chat-level switches of the guess game.
type GuessConfig struct {
	// ScoreChats restricts ledger updates to these chats; empty means every chat.
	ScoreChats []int64
	// AdminChatID receives a copy of each answer; zero disables it.
	AdminChatID int64
}

// GuessResult describes a completed round.
type GuessResult struct {
	Quiz        domain.Quiz
	Participant domain.Participant
	Scored      bool
	Outcomes    []Outcome
}

// GuessService runs the two-phase "who said it" flow:
// Start shows a keyboard, Select records who, Submit takes the text and
// emits the quiz.
type GuessService struct {
	res       *Resources
	builder   *QuizBuilder
	sessions  SessionRepository
	ledger    *Ledger
	messenger Messenger
	cfg       GuessConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewGuessService(res *Resources, builder *QuizBuilder, sessions SessionRepository, ledger *Ledger, messenger Messenger, cfg GuessConfig, logger *slog.Logger) *GuessService {
	if logger == nil {
		logger = discardLogger()
	}
	return &GuessService{
		res:       res,
		builder:   builder,
		sessions:  sessions,
		ledger:    ledger,
		messenger: messenger,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// CallbackData is the keyboard payload selecting participantID.
func CallbackData(participantID string) string {
	return callbackPrefix + participantID
}

// ParseCallbackData extracts the participant id from a keyboard payload.
func ParseCallbackData(data string) (string, bool) {
	if len(data) <= len(callbackPrefix) || data[:len(callbackPrefix)] != callbackPrefix {
		return "", false
	}
	return data[len(callbackPrefix):], true
}

// Start opens a session for key, replacing any pending one.
func (s *GuessService) Start(ctx context.Context, key domain.SessionKey, initiator string, triggerID int64) ([]Outcome, error) {
	participants := s.res.Participants.Participants()
	if len(participants) == 0 {
		return nil, domain.ErrNoParticipants
	}

	promptID, err := s.messenger.SendChoices(ctx, key.ChatID, PromptWho, keyboardRows(participants, keyboardWidth))
	if err != nil {
		return nil, fmt.Errorf("send guess keyboard: %w", err)
	}
	if err := s.sessions.Start(ctx, key, domain.GuessSession{
		Initiator: initiator,
		PromptRef: promptID,
		StartedAt: s.now(),
	}); err != nil {
		return nil, fmt.Errorf("store guess session: %w", err)
	}
	s.logger.InfoContext(ctx, "guess started", "chat_id", key.ChatID, "user_id", key.UserID, "initiator", initiator)

	deleted := attempt(ctx, s.logger, "delete trigger message", func() error {
		return s.messenger.DeleteMessage(ctx, key.ChatID, triggerID)
	}, "chat_id", key.ChatID, "message_id", triggerID)
	return []Outcome{deleted}, nil
}

// Select records which participant the pending round is about and turns the
// keyboard into the text prompt.
func (s *GuessService) Select(ctx context.Context, key domain.SessionKey, participantID string, promptID int64) error {
	p, ok := s.res.Participants.Lookup(participantID)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownParticipant, participantID)
	}
	ok, err := s.sessions.Select(ctx, key, participantID, promptID)
	if err != nil {
		return fmt.Errorf("select participant: %w", err)
	}
	if !ok {
		return domain.ErrNoPendingGuess
	}
	s.logger.InfoContext(ctx, "guess participant selected", "chat_id", key.ChatID, "participant", p.Name)

	if err := s.messenger.EditMessage(ctx, key.ChatID, promptID, PromptWhat); err != nil {
		return fmt.Errorf("edit guess prompt: %w", err)
	}
	return nil
}

// Submit completes the round with the quoted text. It reports false when key
// has no session waiting for text, in which case the message is left alone.
func (s *GuessService) Submit(ctx context.Context, key domain.SessionKey, text string, messageID int64) (GuessResult, bool, error) {
	session, ok, err := s.sessions.Take(ctx, key)
	if err != nil {
		return GuessResult{}, false, fmt.Errorf("take guess session: %w", err)
	}
	if !ok {
		return GuessResult{}, false, nil
	}

	p, ok := s.res.Participants.Lookup(session.ParticipantID)
	if !ok {
		return GuessResult{}, true, fmt.Errorf("%w: %q", domain.ErrUnknownParticipant, session.ParticipantID)
	}
	s.logger.InfoContext(ctx, "guess text received", "chat_id", key.ChatID, "participant", p.Name, "text", text)

	result := GuessResult{Participant: p}
	result.Outcomes = append(result.Outcomes,
		attempt(ctx, s.logger, "delete guess prompt", func() error {
			return s.messenger.DeleteMessage(ctx, key.ChatID, session.PromptRef)
		}, "chat_id", key.ChatID, "message_id", session.PromptRef),
		attempt(ctx, s.logger, "delete guess text", func() error {
			return s.messenger.DeleteMessage(ctx, key.ChatID, messageID)
		}, "chat_id", key.ChatID, "message_id", messageID),
	)

	quiz, err := s.builder.Bounded(fmt.Sprintf("Qui a dit ça : \"%s\"", text), p.Name, s.res.Participants.Names())
	if err != nil {
		return result, true, fmt.Errorf("build guess quiz: %w", err)
	}
	result.Quiz = quiz
	if err := s.messenger.SendQuiz(ctx, key.ChatID, quiz, false); err != nil {
		return result, true, fmt.Errorf("send guess quiz: %w", err)
	}

	var ledgerErr error
	if s.scored(key.ChatID) {
		result.Scored, ledgerErr = s.ledger.Increment(ctx, p.ID)
		if ledgerErr != nil {
			s.logger.ErrorContext(ctx, "ledger update failed", "participant", p.ID, "err", ledgerErr)
		}
	}

	if s.cfg.AdminChatID != 0 {
		result.Outcomes = append(result.Outcomes, attempt(ctx, s.logger, "notify admin", func() error {
			_, err := s.messenger.SendMessage(ctx, s.cfg.AdminChatID,
				fmt.Sprintf("Poll started by @%s\nThe answer is \"%s\"", session.Initiator, p.Name))
			return err
		}))
	}
	return result, true, ledgerErr
}

func (s *GuessService) scored(chatID int64) bool {
	if len(s.cfg.ScoreChats) == 0 {
		return true
	}
	for _, id := range s.cfg.ScoreChats {
		if id == chatID {
			return true
		}
	}
	return false
}

func keyboardRows(participants []domain.Participant, width int) [][]domain.Choice {
	rows := make([][]domain.Choice, 0, (len(participants)+width-1)/width)
	for start := 0; start < len(participants); start += width {
		end := min(start+width, len(participants))
		row := make([]domain.Choice, 0, end-start)
		for _, p := range participants[start:end] {
			row = append(row, domain.Choice{Label: p.Name, Data: CallbackData(p.ID)})
		}
		rows = append(rows, row)
	}
	return rows
}
