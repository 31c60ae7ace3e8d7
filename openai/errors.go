package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
)

// Error is the error object backends embed in rejection and fault responses.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param"`
	Code    any    `json:"code"`
}

// IsEmpty reports whether the error object carries no meaningful information.
// Some backends attach an all-empty error object to successful responses.
func (e Error) IsEmpty() bool {
	return e.Message == "" && e.Type == "" && e.Param == "" && e.Code == nil
}

func (e Error) String() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return e.Message
}

// RequestError is a validation-class rejection: the backend refused the
// request before generating anything (malformed schema, bad parameters).
type RequestError struct {
	StatusCode int
	Detail     Error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request rejected (status %d): %s", e.StatusCode, e.Detail.String())
}

// APIError is a backend/server-class fault, distinguished from a validation
// rejection: the request was acceptable but the backend failed to serve it.
type APIError struct {
	StatusCode int
	Detail     Error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Detail.String())
}

// IsRequestError reports whether err is (or wraps) a validation rejection.
func IsRequestError(err error) bool {
	var target *RequestError
	return errors.As(err, &target)
}

// IsAPIError reports whether err is (or wraps) a backend/server fault.
func IsAPIError(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// errorEnvelope is the standard `{"error": {...}}` rejection body.
type errorEnvelope struct {
	Error Error `json:"error"`
}

// classifyHTTPError maps a non-2xx response to exactly one taxonomy member:
// 400/422 with a parseable error body is a RequestError, everything else is
// an APIError. The raw body is preserved when no structured error is present.
func classifyHTTPError(statusCode int, body []byte) error {
	detail := Error{}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && !envelope.Error.IsEmpty() {
		detail = envelope.Error
	} else {
		var direct Error
		if err := json.Unmarshal(body, &direct); err == nil && !direct.IsEmpty() {
			detail = direct
		}
	}

	if detail.IsEmpty() {
		detail.Message = strings.TrimSpace(string(body))
	}

	if statusCode == 400 || statusCode == 422 {
		return &RequestError{StatusCode: statusCode, Detail: detail}
	}
	return &APIError{StatusCode: statusCode, Detail: detail}
}
