package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jg-phare/chunkfold/pkg/types"
)

// ErrClosed is returned by Next after the consumer closed the stream.
var ErrClosed = errors.New("stream: closed")

// FetchError is a failure reported by the API, either as the HTTP status of
// the request or as an error record inside the stream.
type FetchError struct {
	types.ResponseError
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("stream: %s (%d): %s", e.Kind(), e.Code, e.Text())
}

// Kind classifies the error code.
func (e *FetchError) Kind() string {
	kind, _ := classifyCode(e.Code)
	return kind
}

// Retryable reports whether the same request may succeed later.
func (e *FetchError) Retryable() bool {
	_, retryable := classifyCode(e.Code)
	return retryable
}

// NewFetchError builds a FetchError from an HTTP status and response body.
// Bodies that are not JSON are kept as a JSON string.
func NewFetchError(status int, body []byte) *FetchError {
	var msg json.RawMessage
	switch {
	case len(body) == 0:
		msg, _ = json.Marshal(http.StatusText(status))
	case json.Valid(body):
		msg = json.RawMessage(body)
	default:
		msg, _ = json.Marshal(string(body))
	}
	return &FetchError{types.ResponseError{Code: status, Message: msg}}
}

// AsFetchError reports whether err is or wraps a *FetchError.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func classifyCode(code int) (kind string, retryable bool) {
	switch code {
	case 401:
		return "authentication_failed", false
	case 402, 403:
		return "billing_error", false
	case 400, 404, 422:
		return "invalid_request", false
	case 408:
		return "timeout", true
	case 429, 529:
		return "rate_limit", true
	case 500, 502, 503, 504:
		return "server_error", true
	default:
		return "unknown", false
	}
}
