// Package api provides error types for allocation service responses.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"
)

// RemoteError is returned for any failed remote call. StatusCode is 0 when
// the request never got a response (connection refused, timeout).
type RemoteError struct {
	Op         string
	StatusCode int
	Detail     string
	Body       string
	Err        error
}

// Error returns the human-readable detail.
func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failed", e.Op)
}

// Unwrap returns the network cause, if any.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether the call failed before a response arrived.
func (e *RemoteError) IsNetwork() bool {
	return e.StatusCode == 0
}

// IsNotFound reports whether err is a RemoteError with status 404.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == nethttp.StatusNotFound
}

// ExtractDetail turns an error response body into one display string.
//
// Precedence:
//  1. JSON "detail" string
//  2. JSON "detail" list of validation errors: their "msg" fields joined with "; "
//  3. any other JSON "detail": compact JSON
//  4. JSON "message" or "error" string
//  5. the trimmed raw body
//  6. "<code> <status text>" for an empty body
func ExtractDetail(statusCode int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return strings.TrimSpace(fmt.Sprintf("%d %s", statusCode, nethttp.StatusText(statusCode)))
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err == nil {
		if raw, ok := envelope["detail"]; ok && !isNull(raw) {
			return detailText(raw)
		}
		for _, key := range []string{"message", "error"} {
			if raw, ok := envelope[key]; ok {
				var s string
				if json.Unmarshal(raw, &s) == nil && s != "" {
					return s
				}
			}
		}
	}

	return string(trimmed)
}

func detailText(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}
	return string(raw)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
