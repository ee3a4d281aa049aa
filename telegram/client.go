// Copyright (c) 2024 tgkit

// Package telegram is the high-level Bot API client: handler
// registration with composable filters, next-step conversations,
// middleware and the polling/webhook update sources. The wire transport
// lives in the root tgkit package.
package telegram

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/tgkit/tgkit"
	"github.com/tgkit/tgkit/internal/utils"
)

// ClientConfig configures a Client. Only Token is required.
type ClientConfig struct {
	// Bot token from @BotFather.
	Token string
	// Bot API server, default https://api.telegram.org.
	APIURL string
	// Per-call deadline for plain (non long-poll) requests.
	RequestTimeout time.Duration
	// Extra attempts the transport gives retryable failures.
	MaxRetries int
	// Log level (trace, debug, info, warn, error, none), default info.
	LogLevel string
	// Logger overrides the default logger entirely.
	Logger *utils.Logger
}

// Client is the main struct of the library.
type Client struct {
	transport     *tgkit.Transport
	dispatcher    *UpdateDispatcher
	filters       *FilterRegistry
	conversations *conversationTracker

	mwMu        sync.RWMutex
	middlewares []Middleware

	me atomic.Pointer[User]

	Log *utils.Logger

	runCtx   context.Context
	stop     context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewClient(config ClientConfig) (*Client, error) {
	if config.Token == "" {
		return nil, errors.New("bot token cannot be empty")
	}

	log := config.Logger
	if log == nil {
		log = utils.NewLogger("tgkit")
	}
	if config.LogLevel != "" {
		log.SetLevel(utils.ParseLogLevel(config.LogLevel))
	}

	opts := []tgkit.Option{tgkit.WithLogger(log.WithPrefix("tgkit [transport]"))}
	if config.APIURL != "" {
		opts = append(opts, tgkit.WithAPIURL(config.APIURL))
	}
	if config.RequestTimeout > 0 {
		opts = append(opts, tgkit.WithTimeout(config.RequestTimeout))
	}
	if config.MaxRetries > 0 {
		opts = append(opts, tgkit.WithMaxRetries(config.MaxRetries))
	}

	runCtx, stop := context.WithCancel(context.Background())
	c := &Client{
		transport:     tgkit.New(config.Token, opts...),
		filters:       NewFilterRegistry(),
		conversations: newConversationTracker(),
		Log:           log,
		runCtx:        runCtx,
		stop:          stop,
	}
	c.dispatcher = newUpdateDispatcher(log.WithPrefix("tgkit [dispatcher]"))
	return c, nil
}

// Stop signals every running update source (polling loop, webhook
// server) to shut down and interrupts an in-flight long poll.
func (c *Client) Stop() {
	c.stopOnce.Do(c.stop)
}

// Idle blocks the calling goroutine until Stop and waits for the update
// sources to drain.
func (c *Client) Idle() {
	<-c.runCtx.Done()
	c.wg.Wait()
}

// RegisterFilter adds a custom filter under key for use in
// Filters.Custom declarations. Duplicate keys are rejected.
func (c *Client) RegisterFilter(key string, filter CustomFilter) error {
	return c.filters.Register(key, filter)
}

// ReplaceFilter installs a custom filter, overriding any previous
// registration of the key.
func (c *Client) ReplaceFilter(key string, filter CustomFilter) {
	c.filters.Replace(key, filter)
}

// Call invokes a raw Bot API method. Escape hatch for methods the
// client does not wrap.
func (c *Client) Call(ctx context.Context, method string, params any, files map[string]tgkit.NamedReader) (json.RawMessage, error) {
	return c.transport.Call(ctx, method, params, files)
}

func (c *Client) invoke(ctx context.Context, method string, params any, result any) error {
	raw, err := c.transport.Call(ctx, method, params, nil)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return errors.Wrapf(err, "decoding %s result", method)
	}
	return nil
}

// GetMe fetches and caches the bot's own identity.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.invoke(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	c.me.Store(&me)
	return &me, nil
}

// Me returns the cached bot identity, nil before the first GetMe.
func (c *Client) Me() *User {
	return c.me.Load()
}

// botName feeds the command filter's @mention check; empty until the
// identity is known.
func (c *Client) botName() string {
	if me := c.me.Load(); me != nil {
		return me.Username
	}
	return ""
}

// GetUpdatesParams mirrors the getUpdates request.
type GetUpdatesParams struct {
	Offset         int      `tg:"offset,omitempty"`
	Limit          int      `tg:"limit,omitempty"`
	Timeout        int      `tg:"timeout,omitempty"`
	AllowedUpdates []string `tg:"allowed_updates,omitempty"`
}

// GetUpdates performs one long poll against the update queue. The
// result is ordered by ascending update id; an empty batch means the
// server-side timeout elapsed without news.
func (c *Client) GetUpdates(ctx context.Context, params GetUpdatesParams) ([]*Update, error) {
	var updates []*Update
	if err := c.invoke(ctx, "getUpdates", &params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendOptions tunes SendMessage.
type SendOptions struct {
	ParseMode             string
	DisableWebPagePreview bool
	DisableNotification   bool
	ReplyToMessageID      int
	ReplyMarkup           any
}

type sendMessageParams struct {
	ChatID                int64  `tg:"chat_id"`
	Text                  string `tg:"text"`
	ParseMode             string `tg:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `tg:"disable_web_page_preview,omitempty"`
	DisableNotification   bool   `tg:"disable_notification,omitempty"`
	ReplyToMessageID      int    `tg:"reply_to_message_id,omitempty"`
	ReplyMarkup           any    `tg:"reply_markup,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts ...*SendOptions) (*Message, error) {
	params := sendMessageParams{ChatID: chatID, Text: text}
	if len(opts) > 0 && opts[0] != nil {
		opt := opts[0]
		params.ParseMode = opt.ParseMode
		params.DisableWebPagePreview = opt.DisableWebPagePreview
		params.DisableNotification = opt.DisableNotification
		params.ReplyToMessageID = opt.ReplyToMessageID
		params.ReplyMarkup = opt.ReplyMarkup
	}
	var msg Message
	if err := c.invoke(ctx, "sendMessage", &params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReplyTo sends text as a reply to m.
func (c *Client) ReplyTo(ctx context.Context, m *Message, text string) (*Message, error) {
	return c.SendMessage(ctx, m.Chat.ID, text, &SendOptions{ReplyToMessageID: m.MessageID})
}

type answerCallbackParams struct {
	CallbackQueryID string `tg:"callback_query_id"`
	Text            string `tg:"text,omitempty"`
	ShowAlert       bool   `tg:"show_alert,omitempty"`
}

// AnswerCallbackQuery acknowledges a button press, optionally with a
// toast or alert.
func (c *Client) AnswerCallbackQuery(ctx context.Context, queryID, text string, showAlert bool) error {
	params := answerCallbackParams{CallbackQueryID: queryID, Text: text, ShowAlert: showAlert}
	return c.invoke(ctx, "answerCallbackQuery", &params, nil)
}

type setWebhookParams struct {
	URL            string   `tg:"url"`
	SecretToken    string   `tg:"secret_token,omitempty"`
	AllowedUpdates []string `tg:"allowed_updates,omitempty"`
	MaxConnections int      `tg:"max_connections,omitempty"`
}

// SetWebhook registers url as the push destination for updates. The
// secret, when set, is echoed back by the server on every delivery and
// verified by WebhookHandler.
func (c *Client) SetWebhook(ctx context.Context, url, secret string, allowedUpdates []string) error {
	params := setWebhookParams{URL: url, SecretToken: secret, AllowedUpdates: allowedUpdates}
	return c.invoke(ctx, "setWebhook", &params, nil)
}

type deleteWebhookParams struct {
	DropPendingUpdates bool `tg:"drop_pending_updates,omitempty"`
}

func (c *Client) DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error {
	params := deleteWebhookParams{DropPendingUpdates: dropPendingUpdates}
	return c.invoke(ctx, "deleteWebhook", &params, nil)
}

func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.invoke(ctx, "getWebhookInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
