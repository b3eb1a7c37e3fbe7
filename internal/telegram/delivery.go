package telegram

import (
	"context"

	"roboclic/internal/domain"
)

// Delivery adapts Client to app.Messenger.
type Delivery struct {
	client *Client
}

func NewDelivery(client *Client) *Delivery {
	return &Delivery{client: client}
}

func (d *Delivery) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	return d.client.SendMessage(ctx, chatID, text, nil)
}

func (d *Delivery) SendChoices(ctx context.Context, chatID int64, text string, rows [][]domain.Choice) (int64, error) {
	return d.client.SendMessage(ctx, chatID, text, keyboard(rows))
}

func (d *Delivery) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	return d.client.EditMessageText(ctx, chatID, messageID, text)
}

func (d *Delivery) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return d.client.DeleteMessage(ctx, chatID, messageID)
}

func (d *Delivery) SendQuiz(ctx context.Context, chatID int64, quiz domain.Quiz, anonymous bool) error {
	correct := quiz.CorrectIndex
	return d.client.SendPoll(ctx, SendPollRequest{
		ChatID:          chatID,
		Question:        quiz.Question,
		Options:         pollOptions(quiz.Options),
		IsAnonymous:     anonymous,
		Type:            "quiz",
		CorrectOptionID: &correct,
	})
}

func (d *Delivery) SendPoll(ctx context.Context, chatID int64, question string, options []string) error {
	return d.client.SendPoll(ctx, SendPollRequest{
		ChatID:   chatID,
		Question: question,
		Options:  pollOptions(options),
		Type:     "regular",
	})
}

func keyboard(rows [][]domain.Choice) InlineKeyboardMarkup {
	kb := InlineKeyboardMarkup{InlineKeyboard: make([][]InlineKeyboardButton, 0, len(rows))}
	for _, row := range rows {
		buttons := make([]InlineKeyboardButton, 0, len(row))
		for _, c := range row {
			buttons = append(buttons, InlineKeyboardButton{Text: c.Label, CallbackData: c.Data})
		}
		kb.InlineKeyboard = append(kb.InlineKeyboard, buttons)
	}
	return kb
}

func pollOptions(options []string) []InputPollOption {
	out := make([]InputPollOption, len(options))
	for i, o := range options {
		out[i] = InputPollOption{Text: o}
	}
	return out
}
