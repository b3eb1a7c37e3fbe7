package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"roboclic/internal/app"
	"roboclic/internal/domain"
)

var builtinCommands = []string{
	"birthday", "bureau", "help", "hugo", "jul", "noel", "poll", "reuf", "stats", "year",
}

type UpdateHandler struct {
	client    *Client
	messenger app.Messenger
	guess     *app.GuessService
	commands  *app.Commands
	botName   string
	logger    *slog.Logger
}

func NewUpdateHandler(client *Client, messenger app.Messenger, guess *app.GuessService, commands *app.Commands, botName string, logger *slog.Logger) *UpdateHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &UpdateHandler{
		client:    client,
		messenger: messenger,
		guess:     guess,
		commands:  commands,
		botName:   botName,
		logger:    logger,
	}
}

func (h *UpdateHandler) Handle(ctx context.Context, upd Update) {
	if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
		return
	}
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	}
}

func (h *UpdateHandler) handleMessage(ctx context.Context, msg *Message) {
	if msg.From == nil {
		return
	}
	key := domain.SessionKey{ChatID: msg.Chat.ID, UserID: msg.From.ID}

	cmd, args, ok := h.parseCommand(msg)
	if !ok {
		if strings.HasPrefix(msg.Text, "/") || msg.Text == "" {
			return
		}
		if _, _, err := h.guess.Submit(ctx, key, msg.Text, msg.MessageID); err != nil {
			h.logger.ErrorContext(ctx, "guess submit failed", "chat_id", key.ChatID, "user_id", key.UserID, "err", err)
		}
		return
	}

	if err := h.runCommand(ctx, msg, key, cmd, args); err != nil {
		h.logger.ErrorContext(ctx, "command failed", "command", cmd, "chat_id", key.ChatID, "user_id", key.UserID, "err", err)
	}
}

func (h *UpdateHandler) runCommand(ctx context.Context, msg *Message, key domain.SessionKey, cmd string, args []string) error {
	chatID := msg.Chat.ID
	switch cmd {
	case "poll":
		_, err := h.guess.Start(ctx, key, msg.From.Handle(), msg.MessageID)
		return err
	case "jul":
		_, err := h.commands.QuoteGame(ctx, chatID)
		return err
	case "birthday":
		_, err := h.commands.BirthdayGame(ctx, chatID)
		return err
	case "stats":
		text, err := h.commands.StatsText(ctx, args)
		if err != nil {
			return err
		}
		return h.reply(ctx, chatID, text)
	case "year":
		return h.reply(ctx, chatID, h.commands.YearText())
	case "reuf":
		return h.reply(ctx, chatID, h.commands.PhoneText("reuf"))
	case "noel":
		return h.reply(ctx, chatID, h.commands.PhoneText("père Noël"))
	case "hugo":
		return h.reply(ctx, chatID, "???")
	case "bureau":
		return h.commands.Office(ctx, chatID)
	case "help":
		return h.reply(ctx, chatID, h.commands.HelpText(args, h.commandNames()))
	}

	if h.commands.IsQuote(cmd) {
		text, err := h.commands.QuoteText(ctx, cmd)
		if err != nil {
			return err
		}
		return h.reply(ctx, chatID, text)
	}
	if text, ok := h.commands.CountdownText(cmd); ok {
		return h.reply(ctx, chatID, text)
	}
	return nil
}

func (h *UpdateHandler) handleCallback(ctx context.Context, cb *CallbackQuery) {
	answer := ""
	defer func() {
		if err := h.client.AnswerCallbackQuery(ctx, cb.ID, answer, answer != ""); err != nil {
			h.logger.InfoContext(ctx, "answer callback failed", "err", err)
		}
	}()

	participantID, ok := app.ParseCallbackData(cb.Data)
	if !ok || cb.Message == nil {
		answer = "Choix inconnu"
		return
	}
	key := domain.SessionKey{ChatID: cb.Message.Chat.ID, UserID: cb.From.ID}

	err := h.guess.Select(ctx, key, participantID, cb.Message.MessageID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoPendingGuess):
		answer = "Aucune partie en cours, lance /poll"
	case errors.Is(err, domain.ErrUnknownParticipant):
		answer = "Choix inconnu"
	default:
		h.logger.ErrorContext(ctx, "guess select failed", "chat_id", key.ChatID, "user_id", key.UserID, "err", err)
	}
}

func (h *UpdateHandler) reply(ctx context.Context, chatID int64, text string) error {
	_, err := h.messenger.SendMessage(ctx, chatID, text)
	return err
}

func (h *UpdateHandler) commandNames() []string {
	return append(append([]string(nil), builtinCommands...), h.commands.Configured()...)
}

// parseCommand reads a leading bot_command entity. Commands addressed to
// another bot (/cmd@other_bot) are not ours.
func (h *UpdateHandler) parseCommand(msg *Message) (string, []string, bool) {
	for _, e := range msg.Entities {
		if e.Type != "bot_command" || e.Offset != 0 || e.Length > len(msg.Text) {
			continue
		}
		cmd := strings.TrimPrefix(msg.Text[:e.Length], "/")
		if name, target, found := strings.Cut(cmd, "@"); found {
			if h.botName != "" && !strings.EqualFold(target, h.botName) {
				return "", nil, false
			}
			cmd = name
		}
		return strings.ToLower(cmd), strings.Fields(msg.Text[e.Length:]), true
	}
	return "", nil, false
}
