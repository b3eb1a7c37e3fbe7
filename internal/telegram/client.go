// Package telegram talks to the Bot API over plain HTTPS and turns incoming
// updates into guess game and command calls.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	// requestTimeout bounds a regular call; long polls get it on top of their wait.
	requestTimeout = 30 * time.Second
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	slack      time.Duration
}

func NewClient(token string) *Client {
	return NewClientWithBaseURL(fmt.Sprintf("%s/bot%s", defaultAPIURL, token), nil)
}

// NewClientWithBaseURL points the client at another Bot API server; baseURL
// already includes the /bot<token> path. Deadlines are set per call, so
// httpClient should not carry a Timeout shorter than the long-poll wait.
func NewClientWithBaseURL(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, slack: requestTimeout}
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	return c.callWithin(ctx, c.slack, method, payload)
}

func (c *Client) callWithin(ctx context.Context, timeout time.Duration, method string, payload any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("telegram %s: %s", method, apiResp.Description)
	}
	return apiResp.Result, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup any) (int64, error) {
	req := SendMessageRequest{ChatID: chatID, Text: text}
	if replyMarkup != nil {
		rm, err := json.Marshal(replyMarkup)
		if err != nil {
			return 0, err
		}
		req.ReplyMarkup = rm
	}

	result, err := c.call(ctx, "sendMessage", req)
	if err != nil {
		return 0, err
	}
	var msg MessageResult
	if err := json.Unmarshal(result, &msg); err != nil {
		return 0, fmt.Errorf("decode message: %w", err)
	}
	return msg.MessageID, nil
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	_, err := c.call(ctx, "editMessageText", EditMessageTextRequest{ChatID: chatID, MessageID: messageID, Text: text})
	return err
}

func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	_, err := c.call(ctx, "deleteMessage", DeleteMessageRequest{ChatID: chatID, MessageID: messageID})
	return err
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	_, err := c.call(ctx, "answerCallbackQuery", AnswerCallbackQueryRequest{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       showAlert,
	})
	return err
}

func (c *Client) SendPoll(ctx context.Context, req SendPollRequest) error {
	_, err := c.call(ctx, "sendPoll", req)
	return err
}

// GetUpdates long-polls for updates after offset, waiting up to timeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	result, err := c.callWithin(ctx, timeout+c.slack, "getUpdates", GetUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout.Seconds()),
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}
