package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an upstream failure for display.
type Kind int

const (
	KindGeneric Kind = iota
	KindInvalidCredential
	KindQuotaExceeded
	KindMalformedRequest
	KindServiceUnavailable
	KindEmptyResponse
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredential:
		return "invalid_credential"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindMalformedRequest:
		return "malformed_request"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return "generic"
	}
}

// UpstreamError is a failed model call.
type UpstreamError struct {
	Kind    Kind
	Status  int    // HTTP status, 0 when no response was received
	Message string // upstream message, possibly truncated
	Err     error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString("vision: ")
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Classify returns the Kind of err. Errors that are not an *UpstreamError
// are generic, except context deadlines which count as unavailability.
func Classify(err error) Kind {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindServiceUnavailable
	}
	return KindGeneric
}

// UserMessage renders err as a per-image message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch Classify(err) {
	case KindInvalidCredential:
		return "AI generation failed: the API key is missing or invalid."
	case KindQuotaExceeded:
		return "AI generation failed: quota exceeded or rate limited, try again later."
	case KindMalformedRequest:
		return "AI generation failed: the request was rejected as malformed (unsupported image?)."
	case KindServiceUnavailable:
		return "AI generation failed: the service is temporarily unavailable."
	case KindEmptyResponse:
		return "AI generation failed: the model returned no text (empty or blocked response)."
	default:
		return "AI generation failed: " + err.Error()
	}
}

// kindForStatus maps an HTTP status and body to a Kind.
func kindForStatus(status int, body string) Kind {
	switch {
	case status == http.StatusBadRequest:
		// Gemini reports a bad key as 400 INVALID_ARGUMENT.
		if strings.Contains(body, "API key not valid") || strings.Contains(body, "API_KEY_INVALID") {
			return KindInvalidCredential
		}
		return KindMalformedRequest
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindInvalidCredential
	case status == http.StatusTooManyRequests:
		return KindQuotaExceeded
	case status == http.StatusRequestTimeout, status/100 == 5:
		return KindServiceUnavailable
	default:
		return KindGeneric
	}
}
