// Copyright (c) 2024 tgkit

package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler returns an http.Handler that accepts update
// deliveries pushed by the Bot API. The request is acknowledged as
// soon as the payload parses; dispatch runs on its own goroutine so a
// slow handler cannot stall Telegram's delivery queue. A non-empty
// secret must match the delivery header exactly.
func (c *Client) WebhookHandler(secret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if secret != "" {
			got := r.Header.Get(secretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				c.Log.Warn("webhook delivery with bad secret token")
				w.WriteHeader(http.StatusForbidden)
				return
			}
		}

		var u Update
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			c.Log.WithError(err).Warn("webhook delivery with malformed body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.ProcessUpdate(c.runCtx, &u)
		}()
	})
}

// ListenWebhook serves WebhookHandler at path on addr and blocks until
// Stop, then shuts the server down gracefully. A /health endpoint is
// mounted for load balancer probes.
func (c *Client) ListenWebhook(addr, path, secret string) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodPost, path, c.WebhookHandler(secret))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Log.WithField("addr", addr).Info("webhook server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-c.runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	c.Log.Info("webhook server stopped")
	return nil
}
