// Copyright (c) 2024 tgkit

// Package tgkit implements the HTTP transport of the Telegram Bot API:
// a single Call primitive with form/multipart encoding, a bounded retry
// budget and a typed error taxonomy. Everything above the wire lives in
// the telegram package.
package tgkit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tgkit/tgkit/internal/utils"
)

const DefaultAPIURL = "https://api.telegram.org"

// NamedReader is an upload payload: a reader that knows the filename to
// present to the remote side.
type NamedReader interface {
	io.Reader
	Name() string
}

type namedReader struct {
	io.Reader
	name string
}

func (r namedReader) Name() string { return r.name }

// File wraps a reader into a NamedReader.
func File(name string, r io.Reader) NamedReader {
	return namedReader{Reader: r, name: name}
}

// FileBytes wraps an in-memory payload into a NamedReader.
func FileBytes(name string, data []byte) NamedReader {
	return namedReader{Reader: bytes.NewReader(data), name: name}
}

type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result"`
	ErrorCode   int                 `json:"error_code"`
	Description string              `json:"description"`
	Parameters  *ResponseParameters `json:"parameters"`
}

// ResponseParameters is the optional advice the Bot API attaches to a
// rejection.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// Transport performs calls against the Bot API on behalf of a single
// token. It is safe for concurrent use; the underlying connection pool
// is shared and bounded.
type Transport struct {
	token      string
	apiURL     string
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	log        *utils.Logger
}

type Option func(*Transport)

// WithAPIURL points the transport at a different API server (a local
// Bot API server, or a test double).
func WithAPIURL(apiURL string) Option {
	return func(t *Transport) { t.apiURL = strings.TrimRight(apiURL, "/") }
}

// WithTimeout sets the per-call deadline applied when the caller's
// context has none. Long-poll callers pass their own deadline instead.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) { t.timeout = d }
}

// WithMaxRetries sets how many extra attempts a retryable failure gets.
func WithMaxRetries(n int) Option {
	return func(t *Transport) { t.maxRetries = n }
}

func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) { t.client = client }
}

func WithLogger(log *utils.Logger) Option {
	return func(t *Transport) { t.log = log }
}

func New(token string, opts ...Option) *Transport {
	t := &Transport{
		token:      token,
		apiURL:     DefaultAPIURL,
		timeout:    30 * time.Second,
		maxRetries: 2,
		log:        utils.NewLogger("tgkit [transport]"),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = &http.Client{
			Transport: &http.Transport{
				MaxConnsPerHost:     16,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return t
}

// Logger exposes the transport's logger so the owning client can align
// its level.
func (t *Transport) Logger() *utils.Logger {
	return t.log
}

type filePayload struct {
	field string
	name  string
	data  []byte
}

// Call invokes a Bot API method and returns the raw result payload.
// params is a struct with `tg` tags (see encodeParams) or nil. Retryable
// failures (timeout, 5xx, flood control) are re-attempted within the
// retry budget; the last error is returned once it is exhausted.
func (t *Transport) Call(ctx context.Context, method string, params any, files map[string]NamedReader) (json.RawMessage, error) {
	values, err := encodeParams(params)
	if err != nil {
		return nil, errors.Wrap(err, method)
	}

	// Uploads are buffered once so every attempt can rebuild the body.
	var payloads []filePayload
	for field, f := range files {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: reading upload %q", method, field)
		}
		payloads = append(payloads, filePayload{field: field, name: f.Name(), data: data})
	}

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			if err := t.waitRetry(ctx, lastErr, attempt); err != nil {
				return nil, err
			}
			t.log.WithError(lastErr).Warnf("retrying %s (attempt %d/%d)", method, attempt+1, t.maxRetries+1)
		}

		result, err := t.do(ctx, method, values, payloads)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !shouldRetry(err) {
			break
		}
	}
	return nil, lastErr
}

func (t *Transport) waitRetry(ctx context.Context, cause error, attempt int) error {
	delay := time.Duration(500*attempt) * time.Millisecond
	var respErr *ErrResponseCode
	if errors.As(cause, &respErr) && respErr.RetryAfter > 0 {
		delay = time.Duration(respErr.RetryAfter) * time.Second
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transport) do(ctx context.Context, method string, values url.Values, files []filePayload) (json.RawMessage, error) {
	if _, ok := ctx.Deadline(); !ok && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	var (
		body        io.Reader
		contentType string
	)
	if len(files) > 0 {
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for key := range values {
			if err := w.WriteField(key, values.Get(key)); err != nil {
				return nil, errors.Wrap(err, method)
			}
		}
		for _, f := range files {
			part, err := w.CreateFormFile(f.field, f.name)
			if err != nil {
				return nil, errors.Wrap(err, method)
			}
			if _, err := part.Write(f.data); err != nil {
				return nil, errors.Wrap(err, method)
			}
		}
		if err := w.Close(); err != nil {
			return nil, errors.Wrap(err, method)
		}
		body = buf
		contentType = w.FormDataContentType()
	} else {
		body = strings.NewReader(values.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL(method), body)
	if err != nil {
		return nil, errors.Wrap(err, method)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, method)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, method)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &ErrHTTPStatus{Code: resp.StatusCode, Method: method}
		}
		return nil, &ErrBadResponse{Method: method, Cause: err}
	}

	if !envelope.OK {
		respErr := &ErrResponseCode{
			Code:        envelope.ErrorCode,
			Message:     codeName(envelope.ErrorCode),
			Description: describe(envelope.ErrorCode, envelope.Description),
			Method:      method,
		}
		if envelope.Parameters != nil {
			respErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		return nil, respErr
	}

	return envelope.Result, nil
}

func (t *Transport) methodURL(method string) string {
	return t.apiURL + "/bot" + t.token + "/" + method
}
