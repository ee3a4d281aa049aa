// Copyright (c) 2024 tgkit

package tgkit

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// ErrResponseCode is a request the Bot API accepted over HTTP but
// rejected at the application level (the envelope carried ok=false).
type ErrResponseCode struct {
	Code        int
	Message     string
	Description string
	Method      string
	RetryAfter  int
}

func (e *ErrResponseCode) Error() string {
	return fmt.Sprintf("[%s] %s (code %d, method %s)", e.Message, e.Description, e.Code, e.Method)
}

// ErrHTTPStatus is a non-200 response whose body did not carry a
// decodable API envelope.
type ErrHTTPStatus struct {
	Code   int
	Method string
}

func (e *ErrHTTPStatus) Error() string {
	return fmt.Sprintf("[HttpStatus] unexpected status %d (method %s)", e.Code, e.Method)
}

// ErrBadResponse is a response body that could not be decoded as JSON.
type ErrBadResponse struct {
	Method string
	Cause  error
}

func (e *ErrBadResponse) Error() string {
	return fmt.Sprintf("[BadResponse] invalid json body (method %s): %v", e.Method, e.Cause)
}

func (e *ErrBadResponse) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether err terminated in a network timeout or a
// context deadline, at any depth of wrapping.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// shouldRetry reports whether another attempt can change the outcome:
// timeouts, server-side 5xx and flood control. Everything else is a
// caller mistake and retrying would just repeat it.
func shouldRetry(err error) bool {
	if IsTimeout(err) {
		return true
	}
	var httpErr *ErrHTTPStatus
	if errors.As(err, &httpErr) {
		return httpErr.Code >= 500
	}
	var respErr *ErrResponseCode
	if errors.As(err, &respErr) {
		return respErr.Code == 429 || respErr.Code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// codeName gives the canonical short name the Bot API pairs with an
// error_code, used as the Message of an ErrResponseCode.
func codeName(code int) string {
	if name, ok := errorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Error%d", code)
}

var errorNames = map[int]string{
	400: "BadRequest",
	401: "Unauthorized",
	402: "PaymentRequired",
	403: "Forbidden",
	404: "NotFound",
	406: "NotAcceptable",
	409: "Conflict",
	413: "PayloadTooLarge",
	420: "FloodWait",
	429: "TooManyRequests",
	500: "Internal",
	502: "BadGateway",
}

// descriptions for rejections whose remote text is terse or absent.
var errorDescriptions = map[int]string{
	401: "The bot token is invalid or was revoked.",
	404: "The bot token is malformed or the method does not exist.",
	409: "Another getUpdates consumer or an active webhook already holds this token.",
	429: "Flood control, retry after the indicated delay.",
}

func describe(code int, remote string) string {
	if remote != "" {
		return remote
	}
	if desc, ok := errorDescriptions[code]; ok {
		return desc
	}
	return codeName(code)
}
