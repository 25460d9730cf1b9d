// Package telegram implements the notify.Notifier boundary over the
// Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ykarpov/chorebank/internal/notify"
)

const defaultBaseURL = "https://api.telegram.org"

// Client sends messages through the Bot API sendMessage method.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New creates a Telegram client for the given bot token.
func New(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
	}
}

// NewWithBaseURL creates a client against a non-default API host (tests).
func NewWithBaseURL(token, baseURL string) *Client {
	c := New(token)
	c.baseURL = baseURL
	return c
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendDirect delivers one message to the user's chat. Any transport or API
// failure comes back wrapped in notify.ErrDelivery.
func (c *Client) SendDirect(ctx context.Context, userID int64, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: userID, Text: text})
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", notify.ErrDelivery, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", notify.ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", notify.ErrDelivery, err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("%w: decode response: %v", notify.ErrDelivery, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("%w: telegram: %s (status %d)", notify.ErrDelivery, apiResp.Description, resp.StatusCode)
	}
	return nil
}
