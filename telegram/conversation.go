// Copyright (c) 2024 tgkit

package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const ConvDefaultTimeout = 60 * time.Second

type nextStepEntry struct {
	handler  MessageHandler
	preds    []predicate
	deadline time.Time
}

// conversationTracker holds at most one pending next-step handler per
// chat. Entries are one-shot and last-registration-wins.
type conversationTracker struct {
	mu    sync.Mutex
	steps map[int64]*nextStepEntry
}

func newConversationTracker() *conversationTracker {
	return &conversationTracker{steps: make(map[int64]*nextStepEntry)}
}

// take consumes the entry pending for the update's chat. A filter miss
// leaves the entry armed and returns nil, so the update falls through
// to the normal registry. Expired entries are dropped lazily here.
func (t *conversationTracker) take(u *Update) *nextStepEntry {
	msg := u.Message
	if msg == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.steps[msg.Chat.ID]
	if !ok {
		return nil
	}
	if !entry.deadline.IsZero() && time.Now().After(entry.deadline) {
		delete(t.steps, msg.Chat.ID)
		return nil
	}
	if !matchesAll(entry.preds, u) {
		return nil
	}
	delete(t.steps, msg.Chat.ID)
	return entry
}

func (t *conversationTracker) set(chatID int64, entry *nextStepEntry) {
	t.mu.Lock()
	t.steps[chatID] = entry
	t.mu.Unlock()
}

func (t *conversationTracker) clear(chatID int64) bool {
	t.mu.Lock()
	_, ok := t.steps[chatID]
	delete(t.steps, chatID)
	t.mu.Unlock()
	return ok
}

// SetNextStep arranges for handler to receive the next message from
// chatID, ahead of the normal handler registry. Any previously pending
// handler for that chat is discarded without being invoked. When the
// optional filters reject the incoming message, it falls through to the
// registry and the step stays armed.
func (c *Client) SetNextStep(chatID int64, handler MessageHandler, filters ...Filters) error {
	return c.setNextStep(chatID, handler, 0, filters)
}

// SetNextStepWithTimeout is SetNextStep with an expiry; an entry older
// than timeout is ignored and dropped on the next delivery.
func (c *Client) SetNextStepWithTimeout(chatID int64, timeout time.Duration, handler MessageHandler, filters ...Filters) error {
	return c.setNextStep(chatID, handler, timeout, filters)
}

func (c *Client) setNextStep(chatID int64, handler MessageHandler, timeout time.Duration, filters []Filters) error {
	if handler == nil {
		return errors.New("next-step handler cannot be nil")
	}
	preds, err := resolveFilters(c.filters, c.botName, CategoryMessage, filters)
	if err != nil {
		return err
	}
	entry := &nextStepEntry{handler: handler, preds: preds}
	if timeout > 0 {
		entry.deadline = time.Now().Add(timeout)
	}
	c.conversations.set(chatID, entry)
	return nil
}

// ClearNextStep drops the pending next-step handler for chatID,
// reporting whether one existed.
func (c *Client) ClearNextStep(chatID int64) bool {
	return c.conversations.clear(chatID)
}

// Conversation is a blocking question-and-answer helper over the
// next-step machinery.
type Conversation struct {
	client  *Client
	chatID  int64
	timeout time.Duration
	lastMsg *Message
}

func (c *Client) NewConversation(chatID int64, timeout ...time.Duration) *Conversation {
	t := ConvDefaultTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		t = timeout[0]
	}
	return &Conversation{client: c, chatID: chatID, timeout: t}
}

func (cv *Conversation) SetTimeout(timeout time.Duration) *Conversation {
	cv.timeout = timeout
	return cv
}

// Respond sends text into the conversation's chat.
func (cv *Conversation) Respond(ctx context.Context, text string) (*Message, error) {
	return cv.client.SendMessage(ctx, cv.chatID, text)
}

// GetResponse blocks until the next message from the chat arrives, the
// conversation times out, or ctx is cancelled.
func (cv *Conversation) GetResponse(ctx context.Context) (*Message, error) {
	resp := make(chan *Message, 1)
	err := cv.client.SetNextStep(cv.chatID, func(_ *Context, m *Message) error {
		resp <- m
		return nil
	})
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(cv.timeout)
	defer timer.Stop()

	select {
	case m := <-resp:
		cv.lastMsg = m
		return m, nil
	case <-timer.C:
		cv.client.ClearNextStep(cv.chatID)
		return nil, errors.Errorf("no response from chat %d within %s", cv.chatID, cv.timeout)
	case <-ctx.Done():
		cv.client.ClearNextStep(cv.chatID)
		return nil, ctx.Err()
	}
}

// Ask sends a prompt and waits for the reply.
func (cv *Conversation) Ask(ctx context.Context, text string) (*Message, error) {
	if _, err := cv.Respond(ctx, text); err != nil {
		return nil, err
	}
	return cv.GetResponse(ctx)
}

// LastMessage returns the most recent reply seen by GetResponse.
func (cv *Conversation) LastMessage() *Message {
	return cv.lastMsg
}
