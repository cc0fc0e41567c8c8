package usecases

import (
	"context"
	"sync"
	"time"

	"leaderdesk/internal/domain"
)

// historyWindow is how many recent messages travel with each relay
// call as conversational context.
const historyWindow = 5

// AssistantRelay forwards a message plus recent history to the
// assistant backend and returns its reply.
type AssistantRelay interface {
	Send(ctx context.Context, message string, history []domain.ChatMessage) (string, error)
}

// Chat keeps the in-memory assistant conversation for the session and
// relays each message with a sliding window of context.
type Chat struct {
	relay AssistantRelay
	now   func() time.Time

	mu      sync.Mutex
	history []domain.ChatMessage
}

func NewChat(relay AssistantRelay) *Chat {
	return &Chat{relay: relay, now: time.Now}
}

// Send records the user message, relays it with the trailing history
// window, and records the reply. A relay failure leaves the user
// message in the history so a retry carries it as context.
func (c *Chat) Send(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	c.history = append(c.history, domain.ChatMessage{
		Role:      domain.RoleUser,
		Content:   message,
		Timestamp: c.now(),
	})
	window := lastN(c.history, historyWindow)
	c.mu.Unlock()

	reply, err := c.relay.Send(ctx, message, window)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.history = append(c.history, domain.ChatMessage{
		Role:      domain.RoleAssistant,
		Content:   reply,
		Timestamp: c.now(),
	})
	c.mu.Unlock()
	return reply, nil
}

// History returns a copy of the conversation so far.
func (c *Chat) History() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, len(c.history))
	copy(out, c.history)
	return out
}

// Clear drops the conversation.
func (c *Chat) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

func lastN(msgs []domain.ChatMessage, n int) []domain.ChatMessage {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
