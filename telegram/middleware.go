// Copyright (c) 2024 tgkit

package telegram

import (
	"context"

	"github.com/pkg/errors"
)

// ErrSkipHandler can be returned from a middleware's PreProcess to skip
// the handler for this update without treating it as a failure: the
// remaining pre hooks and every post hook still run, with a nil handler
// error.
var ErrSkipHandler = errors.New("[SkipHandler] skip handler for this update")

// Middleware wraps every dispatched update. PostProcess always runs for
// a middleware whose PreProcess succeeded, in reverse registration
// order, and receives the handler error (or nil). Returning an error
// from PreProcess aborts the update: the handler is not invoked and only
// the middlewares already entered get their PostProcess, carrying that
// error.
type Middleware interface {
	PreProcess(ctx *Context, u *Update) error
	PostProcess(ctx *Context, u *Update, handlerErr error)
}

// MiddlewareFunc adapts plain functions into a Middleware. Either hook
// may be nil.
type MiddlewareFunc struct {
	Pre  func(ctx *Context, u *Update) error
	Post func(ctx *Context, u *Update, handlerErr error)
}

func (m MiddlewareFunc) PreProcess(ctx *Context, u *Update) error {
	if m.Pre == nil {
		return nil
	}
	return m.Pre(ctx, u)
}

func (m MiddlewareFunc) PostProcess(ctx *Context, u *Update, handlerErr error) {
	if m.Post == nil {
		return
	}
	m.Post(ctx, u, handlerErr)
}

// Context is the update-scoped state threaded through pre-process, the
// handler and post-process. A fresh one is created per update and
// discarded afterwards; those three phases run on one goroutine, so no
// locking is needed.
type Context struct {
	context.Context

	client *Client
	update *Update
	values map[string]any
	locale string
}

func newContext(parent context.Context, client *Client, u *Update) *Context {
	if parent == nil {
		parent = context.Background()
	}
	return &Context{
		Context: parent,
		client:  client,
		update:  u,
		values:  make(map[string]any),
	}
}

func (c *Context) Client() *Client { return c.client }

func (c *Context) Update() *Update { return c.update }

// Set stores an arbitrary value for later phases of this update.
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// MustGet returns the stored value or panics; for keys a pre-process
// hook is contracted to have set.
func (c *Context) MustGet(key string) any {
	v, ok := c.values[key]
	if !ok {
		panic("telegram: context key not set: " + key)
	}
	return v
}

// Locale is the language binding resolved for this update, typically by
// an i18n middleware. Empty until SetLocale is called.
func (c *Context) Locale() string { return c.locale }

func (c *Context) SetLocale(locale string) { c.locale = locale }

// Reply sends text to the chat the update originated from. A
// convenience for handlers that already hold the context.
func (c *Context) Reply(text string) (*Message, error) {
	if msg := c.update.EffectiveMessage(); msg != nil {
		return c.client.SendMessage(c.Context, msg.Chat.ID, text)
	}
	if q := c.update.CallbackQuery; q != nil && q.ChatID() != 0 {
		return c.client.SendMessage(c.Context, q.ChatID(), text)
	}
	return nil, errors.New("update has no chat to reply to")
}

// UseMiddleware appends mw to the chain consulted around every
// dispatched update. Registration order is significant: pre hooks run
// in this order, post hooks in reverse.
func (c *Client) UseMiddleware(mw Middleware) {
	c.mwMu.Lock()
	c.middlewares = append(c.middlewares, mw)
	c.mwMu.Unlock()
}

func (c *Client) middlewareChain() []Middleware {
	c.mwMu.RLock()
	defer c.mwMu.RUnlock()
	chain := make([]Middleware, len(c.middlewares))
	copy(chain, c.middlewares)
	return chain
}
