package types

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ResponseError is the error record the API sends in-band, either as a
// whole stream payload or inside a chunk's error field.
type ResponseError struct {
	Code    int             `json:"code"`
	Message json.RawMessage `json:"message"`
}

// Error implements error.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Text())
}

// Text renders the message as plain text. String messages are unquoted;
// anything else is returned as raw JSON.
func (e *ResponseError) Text() string {
	if len(e.Message) == 0 {
		return ""
	}
	r := gjson.ParseBytes(e.Message)
	if r.Type == gjson.String {
		return r.String()
	}
	return string(e.Message)
}

// IsResponseError reports whether data is a JSON object with a numeric code
// and a message field. Any JSON value, null included, counts as a message.
// Malformed JSON is never an error record.
func IsResponseError(data []byte) bool {
	if !gjson.ValidBytes(data) {
		return false
	}
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return false
	}
	if r.Get("code").Type != gjson.Number {
		return false
	}
	return r.Get("message").Exists()
}

// ParseResponseError decodes data when it carries the error record shape.
func ParseResponseError(data []byte) (*ResponseError, bool) {
	if !IsResponseError(data) {
		return nil, false
	}
	r := gjson.ParseBytes(data)
	return &ResponseError{
		Code:    int(r.Get("code").Int()),
		Message: json.RawMessage(r.Get("message").Raw),
	}, true
}

// Equal reports whether two error records carry the same code and message.
func (e *ResponseError) Equal(o *ResponseError) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Code == o.Code && string(e.Message) == string(o.Message)
}
