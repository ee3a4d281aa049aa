// Copyright (c) 2024 tgkit

package telegram

import (
	"context"
	"sync"
	"time"
)

const (
	defaultPollTimeout = 30
	defaultPollLimit   = 100

	pollBackoffBase = time.Second
	pollBackoffMax  = 60 * time.Second
)

// PollerOptions tunes the long-poll loop.
type PollerOptions struct {
	// Server-side hold in seconds, default 30.
	Timeout int
	// Max updates per batch (1..100), default 100.
	Limit int
	// Update categories to subscribe to; empty keeps the server
	// default set.
	AllowedUpdates []string
	// Drop updates queued while the bot was offline before the loop
	// starts.
	SkipPending bool
	// Dispatch each update of a batch on its own goroutine. Trades
	// per-chat ordering for throughput.
	Concurrent bool
	// Consecutive fetch failures tolerated before the loop gives up.
	// Zero retries forever.
	MaxRetries int
}

// StartPolling runs Polling on a fresh goroutine and returns
// immediately. Fetch errors after the loop exits surface on the
// client's logger; use Polling directly to observe them.
func (c *Client) StartPolling(opts ...*PollerOptions) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Polling(opts...); err != nil {
			c.Log.WithError(err).Error("polling stopped")
		}
	}()
}

// Polling fetches updates in a loop and dispatches every batch,
// blocking until Stop is called or the consecutive-failure budget is
// spent. The cursor only advances past updates that were handed to the
// dispatcher, so a fetch failure re-delivers nothing and loses nothing.
func (c *Client) Polling(opts ...*PollerOptions) error {
	opt := &PollerOptions{}
	if len(opts) > 0 && opts[0] != nil {
		opt = opts[0]
	}
	timeout := opt.Timeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	limit := opt.Limit
	if limit <= 0 || limit > defaultPollLimit {
		limit = defaultPollLimit
	}

	if _, err := c.GetMe(c.runCtx); err != nil {
		return err
	}

	offset := 0
	if opt.SkipPending {
		skipped, last, err := c.skipPending(opt.AllowedUpdates)
		if err != nil {
			return err
		}
		if skipped > 0 {
			offset = last + 1
			c.Log.Debugf("skipped %d pending updates", skipped)
		}
	}

	c.Log.WithField("timeout", timeout).Info("polling started")

	failures := 0
	for {
		select {
		case <-c.runCtx.Done():
			c.Log.Info("polling stopped")
			return nil
		default:
		}

		// Client-side deadline a bit past the server hold, so a
		// healthy empty poll is not mistaken for a timeout.
		fetchCtx, cancel := context.WithTimeout(c.runCtx, time.Duration(timeout+10)*time.Second)
		updates, err := c.GetUpdates(fetchCtx, GetUpdatesParams{
			Offset:         offset,
			Limit:          limit,
			Timeout:        timeout,
			AllowedUpdates: opt.AllowedUpdates,
		})
		cancel()

		if err != nil {
			if c.runCtx.Err() != nil {
				c.Log.Info("polling stopped")
				return nil
			}
			failures++
			if opt.MaxRetries > 0 && failures > opt.MaxRetries {
				return err
			}
			wait := pollBackoff(failures)
			log := c.Log.WithError(err).WithField("retry_in", wait.String())
			if failures > 3 {
				log.Error("update fetch failed")
			} else {
				log.Warn("update fetch failed")
			}
			select {
			case <-time.After(wait):
			case <-c.runCtx.Done():
				return nil
			}
			continue
		}
		failures = 0

		if len(updates) == 0 {
			continue
		}
		c.dispatchBatch(updates, opt.Concurrent)
		offset = updates[len(updates)-1].UpdateID + 1
	}
}

// skipPending drains the queued backlog with zero-timeout fetches and
// reports how many updates were discarded plus the last id seen.
func (c *Client) skipPending(allowed []string) (int, int, error) {
	skipped, last := 0, 0
	for {
		ctx, cancel := context.WithTimeout(c.runCtx, 10*time.Second)
		updates, err := c.GetUpdates(ctx, GetUpdatesParams{
			Offset:         last + 1,
			Limit:          defaultPollLimit,
			Timeout:        0,
			AllowedUpdates: allowed,
		})
		cancel()
		if err != nil {
			return skipped, last, err
		}
		if len(updates) == 0 {
			return skipped, last, nil
		}
		skipped += len(updates)
		last = updates[len(updates)-1].UpdateID
	}
}

func (c *Client) dispatchBatch(updates []*Update, concurrent bool) {
	if concurrent {
		var wg sync.WaitGroup
		for _, u := range updates {
			wg.Add(1)
			go func(u *Update) {
				defer wg.Done()
				c.ProcessUpdate(c.runCtx, u)
			}(u)
		}
		wg.Wait()
		return
	}
	for _, u := range updates {
		c.ProcessUpdate(c.runCtx, u)
	}
}

func pollBackoff(failures int) time.Duration {
	wait := pollBackoffBase << uint(failures-1)
	if wait <= 0 || wait > pollBackoffMax {
		wait = pollBackoffMax
	}
	return wait
}
