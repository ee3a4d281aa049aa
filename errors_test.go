// Copyright (c) 2024 tgkit

package tgkit

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsTimeout(t *testing.T) {
	assert.False(t, IsTimeout(nil))
	assert.False(t, IsTimeout(errors.New("plain")))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(errors.Wrap(context.DeadlineExceeded, "getUpdates")))
	assert.False(t, IsTimeout(context.Canceled))
}

func TestShouldRetry(t *testing.T) {
	assert.False(t, shouldRetry(errors.New("plain")))
	assert.False(t, shouldRetry(&ErrResponseCode{Code: 400}))
	assert.False(t, shouldRetry(&ErrHTTPStatus{Code: 404}))

	assert.True(t, shouldRetry(&ErrResponseCode{Code: 429, RetryAfter: 3}))
	assert.True(t, shouldRetry(&ErrResponseCode{Code: 500}))
	assert.True(t, shouldRetry(&ErrHTTPStatus{Code: 502}))
	assert.True(t, shouldRetry(errors.Wrap(&ErrHTTPStatus{Code: 500}, "sendMessage")))
	assert.True(t, shouldRetry(context.DeadlineExceeded))
}

func TestErrResponseCodeMessage(t *testing.T) {
	err := &ErrResponseCode{
		Code:        429,
		Message:     codeName(429),
		Description: describe(429, ""),
		Method:      "sendMessage",
	}
	assert.Contains(t, err.Error(), "TooManyRequests")
	assert.Contains(t, err.Error(), "sendMessage")
	assert.Contains(t, err.Error(), "429")
}

func TestDescribeFallbacks(t *testing.T) {
	assert.Equal(t, "remote text", describe(400, "remote text"))
	assert.Equal(t, "Flood control, retry after the indicated delay.", describe(429, ""))
	assert.Equal(t, "Forbidden", describe(403, ""))
	assert.Equal(t, "Error418", describe(418, ""))
}
