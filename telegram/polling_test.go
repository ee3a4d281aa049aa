// Copyright (c) 2024 tgkit

package telegram

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBotAPI serves getMe plus a scripted sequence of getUpdates
// batches, recording the offset of every poll.
type fakeBotAPI struct {
	mu      sync.Mutex
	batches [][]*Update
	offsets []int
	fail    int
	calls   int
}

func (f *fakeBotAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/bot123456:test-token/getMe":
			fmt.Fprint(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Test","username":"testbot"}}`)
		case r.URL.Path == "/bot123456:test-token/getUpdates":
			_ = r.ParseForm()
			offset, _ := strconv.Atoi(r.PostFormValue("offset"))

			f.mu.Lock()
			f.offsets = append(f.offsets, offset)
			f.calls++
			// 409 is not retried by the transport itself, so every
			// scripted failure costs the poll loop exactly one attempt.
			if f.fail > 0 {
				f.fail--
				f.mu.Unlock()
				w.WriteHeader(http.StatusConflict)
				fmt.Fprint(w, `{"ok":false,"error_code":409,"description":"Conflict: terminated by other getUpdates request"}`)
				return
			}
			var batch []*Update
			if len(f.batches) > 0 {
				batch = f.batches[0]
				f.batches = f.batches[1:]
			}
			f.mu.Unlock()

			raw, _ := json.Marshal(batch)
			fmt.Fprintf(w, `{"ok":true,"result":%s}`, raw)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (f *fakeBotAPI) seenOffsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.offsets...)
}

func newPollingClient(t *testing.T, api *fakeBotAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		Token:    "123456:test-token",
		APIURL:   srv.URL,
		LogLevel: "none",
	})
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c
}

func TestPollingAdvancesOffset(t *testing.T) {
	api := &fakeBotAPI{batches: [][]*Update{
		{textUpdate(1, "a"), textUpdate(1, "b")},
	}}
	firstID := api.batches[0][0].UpdateID
	lastID := api.batches[0][1].UpdateID
	c := newPollingClient(t, api)

	handled := make(chan string, 4)
	_, err := c.OnMessage(func(ctx *Context, m *Message) error {
		handled <- m.Text
		return nil
	})
	require.NoError(t, err)

	c.StartPolling(&PollerOptions{Timeout: 1})

	assert.Equal(t, "a", <-handled)
	assert.Equal(t, "b", <-handled)

	// The poll after the batch must ask past the last dispatched id.
	require.Eventually(t, func() bool {
		for _, off := range api.seenOffsets() {
			if off == lastID+1 {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	c.Stop()
	c.Idle()

	offsets := api.seenOffsets()
	assert.Equal(t, 0, offsets[0])
	assert.NotContains(t, offsets, firstID+1)
}

func TestPollingRetriesFetchFailures(t *testing.T) {
	api := &fakeBotAPI{
		fail:    1,
		batches: [][]*Update{{textUpdate(1, "after failure")}},
	}
	c := newPollingClient(t, api)

	handled := make(chan string, 1)
	_, err := c.OnMessage(func(ctx *Context, m *Message) error {
		handled <- m.Text
		return nil
	})
	require.NoError(t, err)

	c.StartPolling(&PollerOptions{Timeout: 1})

	select {
	case text := <-handled:
		assert.Equal(t, "after failure", text)
	case <-time.After(5 * time.Second):
		t.Fatal("update never arrived after a transient fetch failure")
	}
}

func TestPollingGivesUpAfterMaxRetries(t *testing.T) {
	api := &fakeBotAPI{fail: 10}
	c := newPollingClient(t, api)

	done := make(chan error, 1)
	go func() { done <- c.Polling(&PollerOptions{Timeout: 1, MaxRetries: 1}) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("polling did not give up")
	}
}

func TestPollingStops(t *testing.T) {
	api := &fakeBotAPI{}
	c := newPollingClient(t, api)

	done := make(chan error, 1)
	go func() { done <- c.Polling(&PollerOptions{Timeout: 1}) }()

	time.Sleep(50 * time.Millisecond)
	c.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestPollingConcurrentDispatchesBatchOnce(t *testing.T) {
	batch := []*Update{
		textUpdate(1, "a"),
		textUpdate(2, "b"),
		textUpdate(3, "c"),
		textUpdate(4, "d"),
		textUpdate(5, "e"),
	}
	api := &fakeBotAPI{batches: [][]*Update{batch}}
	c := newPollingClient(t, api)

	handled := make(chan int, len(batch)*2)
	_, err := c.OnMessage(func(ctx *Context, m *Message) error {
		handled <- m.MessageID
		return nil
	})
	require.NoError(t, err)

	c.StartPolling(&PollerOptions{Timeout: 1, Concurrent: true})

	seen := make(map[int]int)
	for i := 0; i < len(batch); i++ {
		select {
		case id := <-handled:
			seen[id]++
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of %d updates dispatched", i, len(batch))
		}
	}

	// The batch is fully dispatched before the cursor advances, so the
	// next poll cannot redeliver any of it.
	require.Eventually(t, func() bool {
		last := batch[len(batch)-1].UpdateID
		for _, off := range api.seenOffsets() {
			if off == last+1 {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	c.Stop()
	c.Idle()

	for _, u := range batch {
		assert.Equal(t, 1, seen[u.Message.MessageID], "update %d", u.UpdateID)
	}
	assert.Len(t, seen, len(batch))

	select {
	case id := <-handled:
		t.Fatalf("message %d dispatched twice", id)
	default:
	}
}

func TestPollingSkipPending(t *testing.T) {
	stale := textUpdate(1, "stale backlog")
	fresh := textUpdate(1, "fresh")
	api := &fakeBotAPI{batches: [][]*Update{
		{stale},
		nil, // backlog drained
		{fresh},
	}}
	c := newPollingClient(t, api)

	handled := make(chan string, 2)
	_, err := c.OnMessage(func(ctx *Context, m *Message) error {
		handled <- m.Text
		return nil
	})
	require.NoError(t, err)

	c.StartPolling(&PollerOptions{Timeout: 1, SkipPending: true})

	select {
	case text := <-handled:
		assert.Equal(t, "fresh", text)
	case <-time.After(5 * time.Second):
		t.Fatal("fresh update never arrived")
	}
}
