// Copyright (c) 2024 tgkit

package telegram

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/pkg/errors"

	"github.com/tgkit/tgkit/internal/utils"
)

type (
	MessageHandler              func(ctx *Context, m *Message) error
	CallbackHandler             func(ctx *Context, q *CallbackQuery) error
	InlineHandler               func(ctx *Context, q *InlineQuery) error
	ChosenInlineResultHandler   func(ctx *Context, r *ChosenInlineResult) error
	ShippingHandler             func(ctx *Context, q *ShippingQuery) error
	PreCheckoutHandler          func(ctx *Context, q *PreCheckoutQuery) error
	PollHandler                 func(ctx *Context, p *Poll) error
	PollAnswerHandler           func(ctx *Context, a *PollAnswer) error
	ChatMemberHandler           func(ctx *Context, m *ChatMemberUpdated) error
	ChatJoinRequestHandler      func(ctx *Context, r *ChatJoinRequest) error
	MessageReactionHandler      func(ctx *Context, r *MessageReactionUpdated) error
	MessageReactionCountHandler func(ctx *Context, r *MessageReactionCountUpdated) error
)

// ErrContinuePropagation lets a matched handler decline an update:
// matching continues with the next registered handler instead of
// stopping at the first match.
var ErrContinuePropagation = errors.New("[ContinuePropagation] continue to the next matching handler")

// Handle identifies a registration for later removal.
type Handle interface {
	Category() UpdateCategory
}

type handle struct {
	category UpdateCategory
	preds    []predicate
	invoke   func(*Context, *Update) error
}

func (h *handle) Category() UpdateCategory { return h.category }

func (h *handle) matches(u *Update) bool {
	return matchesAll(h.preds, u)
}

func (h *handle) invokeSafe(ctx *Context, u *Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx.client.Log.Errorf("handler panic: %v\n%s", r, debug.Stack())
			err = errors.New("handler panic recovered")
		}
	}()
	return h.invoke(ctx, u)
}

// maxProcessedIDs bounds the dedup set; beyond it the oldest knowledge
// is discarded wholesale.
const maxProcessedIDs = 10000

// UpdateDispatcher keeps one ordered handler list per update category.
// Registration order is preserved and significant: dispatch walks the
// list and the first matching handler wins.
type UpdateDispatcher struct {
	mu        sync.RWMutex
	handles   map[UpdateCategory][]*handle
	processed *utils.SyncSet[int]
	log       *utils.Logger
}

func newUpdateDispatcher(log *utils.Logger) *UpdateDispatcher {
	return &UpdateDispatcher{
		handles:   make(map[UpdateCategory][]*handle),
		processed: utils.NewSyncSet[int](),
		log:       log,
	}
}

func (d *UpdateDispatcher) add(h *handle) {
	d.mu.Lock()
	d.handles[h.category] = append(d.handles[h.category], h)
	d.mu.Unlock()
}

func (d *UpdateDispatcher) remove(target Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for cat, handles := range d.handles {
		for i, h := range handles {
			if h == target {
				d.handles[cat] = append(handles[:i:i], handles[i+1:]...)
				return true
			}
		}
	}
	return false
}

func (d *UpdateDispatcher) snapshot(cat UpdateCategory) []*handle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	handles := d.handles[cat]
	out := make([]*handle, len(handles))
	copy(out, handles)
	return out
}

// markProcessed reports whether the update id is new within this
// session. Webhook redeliveries and overlapping fetches hit the same id
// twice; the second delivery is dropped.
func (d *UpdateDispatcher) markProcessed(id int) bool {
	if d.processed.Len() > maxProcessedIDs {
		d.processed.Clear()
	}
	return d.processed.Add(id)
}

// RemoveHandle detaches a previously registered handler.
func (c *Client) RemoveHandle(h Handle) error {
	if !c.dispatcher.remove(h) {
		return errors.New("[UnknownHandle] handle is not registered")
	}
	return nil
}

// ProcessUpdate routes one update through the middleware chain, the
// conversation tracker and the handler registry. It never returns an
// error: handler and middleware failures are logged and fed to the post
// hooks, so one misbehaving update cannot take the loop down.
func (c *Client) ProcessUpdate(ctx context.Context, u *Update) {
	if u == nil {
		return
	}
	cat := u.Category()
	if cat == categoryUnknown {
		c.Log.Debugf("dropping update %d with no known variant", u.UpdateID)
		return
	}
	if u.UpdateID != 0 && !c.dispatcher.markProcessed(u.UpdateID) {
		c.Log.Debugf("skipping already processed update %d", u.UpdateID)
		return
	}

	mctx := newContext(ctx, c, u)
	chain := c.middlewareChain()

	skipHandler := false
	for i, mw := range chain {
		err := mw.PreProcess(mctx, u)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrSkipHandler) {
			skipHandler = true
			continue
		}
		c.Log.WithError(err).Errorf("middleware aborted update %d", u.UpdateID)
		runPostHooks(chain[:i], mctx, u, err)
		return
	}

	var handlerErr error
	if !skipHandler {
		handlerErr = c.dispatch(mctx, u, cat)
		if handlerErr != nil {
			c.Log.WithError(handlerErr).Errorf("handler failed for update %d", u.UpdateID)
		}
	}

	runPostHooks(chain, mctx, u, handlerErr)
}

// runPostHooks runs post-process in reverse registration order, so the
// first middleware wraps outermost.
func runPostHooks(chain []Middleware, ctx *Context, u *Update, handlerErr error) {
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].PostProcess(ctx, u, handlerErr)
	}
}

func (c *Client) dispatch(ctx *Context, u *Update, cat UpdateCategory) error {
	// A pending next-step entry intercepts the chat's next message
	// before the registry is consulted.
	if cat == CategoryMessage {
		if step := c.conversations.take(u); step != nil {
			h := &handle{category: cat, invoke: func(ctx *Context, u *Update) error {
				return step.handler(ctx, u.Message)
			}}
			return h.invokeSafe(ctx, u)
		}
	}

	for _, h := range c.dispatcher.snapshot(cat) {
		if !h.matches(u) {
			continue
		}
		err := h.invokeSafe(ctx, u)
		if errors.Is(err, ErrContinuePropagation) {
			continue
		}
		return err
	}
	return nil
}

func (c *Client) addHandle(cat UpdateCategory, invoke func(*Context, *Update) error, filters []Filters) (Handle, error) {
	preds, err := resolveFilters(c.filters, c.botName, cat, filters)
	if err != nil {
		return nil, err
	}
	h := &handle{category: cat, preds: preds, invoke: invoke}
	c.dispatcher.add(h)
	return h, nil
}

// OnMessage registers a handler for new messages. Handlers are
// consulted in registration order; the first whose filters pass gets
// the update.
func (c *Client) OnMessage(handler MessageHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryMessage, func(ctx *Context, u *Update) error {
		return handler(ctx, u.Message)
	}, filters)
}

// OnCommand registers a message handler for a single /command.
func (c *Client) OnCommand(command string, handler MessageHandler) (Handle, error) {
	return c.OnMessage(handler, Filters{Commands: []string{command}})
}

func (c *Client) OnEditedMessage(handler MessageHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryEditedMessage, func(ctx *Context, u *Update) error {
		return handler(ctx, u.EditedMessage)
	}, filters)
}

func (c *Client) OnChannelPost(handler MessageHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryChannelPost, func(ctx *Context, u *Update) error {
		return handler(ctx, u.ChannelPost)
	}, filters)
}

func (c *Client) OnEditedChannelPost(handler MessageHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryEditedChannelPost, func(ctx *Context, u *Update) error {
		return handler(ctx, u.EditedChannelPost)
	}, filters)
}

func (c *Client) OnCallback(handler CallbackHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryCallbackQuery, func(ctx *Context, u *Update) error {
		return handler(ctx, u.CallbackQuery)
	}, filters)
}

func (c *Client) OnInline(handler InlineHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryInlineQuery, func(ctx *Context, u *Update) error {
		return handler(ctx, u.InlineQuery)
	}, filters)
}

func (c *Client) OnChosenInlineResult(handler ChosenInlineResultHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryChosenInlineResult, func(ctx *Context, u *Update) error {
		return handler(ctx, u.ChosenInlineResult)
	}, filters)
}

func (c *Client) OnShippingQuery(handler ShippingHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryShippingQuery, func(ctx *Context, u *Update) error {
		return handler(ctx, u.ShippingQuery)
	}, filters)
}

func (c *Client) OnPreCheckoutQuery(handler PreCheckoutHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryPreCheckoutQuery, func(ctx *Context, u *Update) error {
		return handler(ctx, u.PreCheckoutQuery)
	}, filters)
}

func (c *Client) OnPoll(handler PollHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryPoll, func(ctx *Context, u *Update) error {
		return handler(ctx, u.Poll)
	}, filters)
}

func (c *Client) OnPollAnswer(handler PollAnswerHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryPollAnswer, func(ctx *Context, u *Update) error {
		return handler(ctx, u.PollAnswer)
	}, filters)
}

func (c *Client) OnMyChatMember(handler ChatMemberHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryMyChatMember, func(ctx *Context, u *Update) error {
		return handler(ctx, u.MyChatMember)
	}, filters)
}

func (c *Client) OnChatMember(handler ChatMemberHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryChatMember, func(ctx *Context, u *Update) error {
		return handler(ctx, u.ChatMember)
	}, filters)
}

func (c *Client) OnChatJoinRequest(handler ChatJoinRequestHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryChatJoinRequest, func(ctx *Context, u *Update) error {
		return handler(ctx, u.ChatJoinRequest)
	}, filters)
}

func (c *Client) OnMessageReaction(handler MessageReactionHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryMessageReaction, func(ctx *Context, u *Update) error {
		return handler(ctx, u.MessageReaction)
	}, filters)
}

func (c *Client) OnMessageReactionCount(handler MessageReactionCountHandler, filters ...Filters) (Handle, error) {
	return c.addHandle(CategoryMessageReactionCount, func(ctx *Context, u *Update) error {
		return handler(ctx, u.MessageReactionCount)
	}, filters)
}
