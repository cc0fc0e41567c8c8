package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"leaderdesk/internal/domain"
)

// ChatWebhook relays assistant conversations to the chat automation
// endpoint.
type ChatWebhook struct {
	url    string
	client *http.Client
}

// NewChatWebhook builds the relay. An empty URL leaves the assistant
// unavailable; every Send fails with ErrChatUnavailable.
func NewChatWebhook(url string, client *http.Client) *ChatWebhook {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ChatWebhook{url: url, client: client}
}

// chatRequest is the outbound body: the message plus trailing context.
type chatRequest struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"history"`
}

// chatResponse is the assistant's reply envelope.
type chatResponse struct {
	TipContent string   `json:"tipContent"`
	Sources    []string `json:"sources,omitempty"`
}

// Send posts the message with history context and returns the
// assistant's suggested tip content.
func (c *ChatWebhook) Send(ctx context.Context, message string, history []domain.ChatMessage) (string, error) {
	if c.url == "" {
		return "", domain.ErrChatUnavailable
	}

	body, err := json.Marshal(chatRequest{Message: message, History: history})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrChatUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrChatUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrChatUnavailable, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode reply: %v", domain.ErrChatUnavailable, err)
	}
	return out.TipContent, nil
}
