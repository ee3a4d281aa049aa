// Copyright (c) 2024 tgkit

package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postUpdate(t *testing.T, h http.Handler, u *Update, secret string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(u)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(raw)))
	if secret != "" {
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookDispatchesUpdate(t *testing.T) {
	c := newTestClient(t)

	handled := make(chan string, 1)
	_, err := c.OnMessage(func(ctx *Context, m *Message) error {
		handled <- m.Text
		return nil
	})
	require.NoError(t, err)

	h := c.WebhookHandler("")
	rec := postUpdate(t, h, textUpdate(1, "pushed"), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case text := <-handled:
		assert.Equal(t, "pushed", text)
	case <-time.After(2 * time.Second):
		t.Fatal("update was acknowledged but never dispatched")
	}
}

func TestWebhookSecretToken(t *testing.T) {
	c := newTestClient(t)

	var handled atomic.Int32
	_, err := c.OnMessage(func(ctx *Context, m *Message) error {
		handled.Add(1)
		return nil
	})
	require.NoError(t, err)

	h := c.WebhookHandler("s3cret")

	rec := postUpdate(t, h, textUpdate(1, "no secret"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postUpdate(t, h, textUpdate(1, "wrong secret"), "guess")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postUpdate(t, h, textUpdate(1, "right secret"), "s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Eventually(t, func() bool { return handled.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebhookRejectsBadRequests(t *testing.T) {
	c := newTestClient(t)
	h := c.WebhookHandler("")

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{broken"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookAcksBeforeHandlerFinishes(t *testing.T) {
	c := newTestClient(t)

	release := make(chan struct{})
	entered := make(chan struct{})
	_, err := c.OnMessage(func(ctx *Context, m *Message) error {
		close(entered)
		<-release
		return nil
	})
	require.NoError(t, err)

	h := c.WebhookHandler("")

	done := make(chan int, 1)
	go func() {
		rec := postUpdate(t, h, textUpdate(1, "slow"), "")
		done <- rec.Code
	}()

	// The 200 must come back while the handler is still running.
	select {
	case code := <-done:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook response blocked on the handler")
	}
	<-entered
	close(release)
}

func TestListenWebhookServesHealth(t *testing.T) {
	c := newTestClient(t)

	done := make(chan error, 1)
	go func() { done <- c.ListenWebhook("127.0.0.1:0", "/webhook", "") }()

	// The listener picks an ephemeral port we cannot see, so this only
	// exercises startup and graceful shutdown.
	time.Sleep(50 * time.Millisecond)
	c.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook server did not shut down")
	}
}
