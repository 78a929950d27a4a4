// Package retry wraps provider calls with exponential backoff, classifying
// errors into retryable and non-retryable kinds.
package retry

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorKind categorizes a failure for retry and surfacing decisions. These
// are the kinds named in the runtime's error taxonomy, not Go type names.
type ErrorKind string

const (
	KindConfiguration        ErrorKind = "configuration"
	KindAuthentication       ErrorKind = "authentication"
	KindRateLimited          ErrorKind = "rate_limited"
	KindServiceUnavailable   ErrorKind = "service_unavailable"
	KindNetwork              ErrorKind = "network"
	KindCommunication        ErrorKind = "communication"
	KindModel                ErrorKind = "model"
	KindUnexpectedStopReason ErrorKind = "unexpected_stop_reason"
	KindUnknown              ErrorKind = "unknown"
)

// IsRetryable reports whether a kind should be retried by the backoff
// engine: RateLimited, ServiceUnavailable, Network, and Communication are
// the only retryable kinds.
func (k ErrorKind) IsRetryable() bool {
	switch k {
	case KindRateLimited, KindServiceUnavailable, KindNetwork, KindCommunication:
		return true
	default:
		return false
	}
}

// ProviderError is a structured error from a model provider, carrying the
// classification the retry engine and caller need.
type ProviderError struct {
	Kind      ErrorKind
	Provider  string
	Status    int
	Code      string
	Message   string
	RequestID string
	Cause     error
}

// Error implements error.
func (e *ProviderError) Error() string {
	var parts []string
	parts = append(parts, "["+string(e.Kind)+"]")
	if e.Provider != "" {
		parts = append(parts, e.Provider)
	}
	if e.Status != 0 {
		parts = append(parts, http.StatusText(e.Status))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.Cause }

// NewProviderError wraps cause, classifying it from its error text.
func NewProviderError(provider string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Cause: cause, Message: causeMessage(cause), Kind: ClassifyError(cause)}
}

func causeMessage(cause error) string {
	if cause == nil {
		return ""
	}
	return cause.Error()
}

// WithStatus records an HTTP status code and reclassifies from it.
func (e *ProviderError) WithStatus(status int) *ProviderError {
	e.Status = status
	e.Kind = classifyStatusCode(status)
	return e
}

// WithCode records a provider-specific error code and reclassifies from
// it when recognized.
func (e *ProviderError) WithCode(code string) *ProviderError {
	e.Code = code
	if kind := classifyErrorCode(code); kind != KindUnknown {
		e.Kind = kind
	}
	return e
}

// ClassifyError inspects an error's text and returns its ErrorKind.
// Providers that can supply a structured status or code should prefer
// WithStatus/WithCode; this is the fallback for opaque errors.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	s := strings.ToLower(err.Error())

	switch {
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded") || strings.Contains(s, "context deadline"):
		return KindNetwork
	case strings.Contains(s, "rate limit") || strings.Contains(s, "rate_limit") || strings.Contains(s, "too many requests") || strings.Contains(s, "429"):
		return KindRateLimited
	case strings.Contains(s, "unauthorized") || strings.Contains(s, "invalid api key") || strings.Contains(s, "invalid_api_key") || strings.Contains(s, "authentication") || strings.Contains(s, "401") || strings.Contains(s, "403"):
		return KindAuthentication
	case strings.Contains(s, "content_filter") || strings.Contains(s, "content policy") || strings.Contains(s, "safety") || strings.Contains(s, "blocked") || strings.Contains(s, "context too long") || strings.Contains(s, "context_length_exceeded"):
		return KindModel
	case strings.Contains(s, "connection refused") || strings.Contains(s, "connection reset") || strings.Contains(s, "no such host") || strings.Contains(s, "network"):
		return KindNetwork
	case strings.Contains(s, "internal server") || strings.Contains(s, "server error") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "504"):
		return KindServiceUnavailable
	case strings.Contains(s, "500"):
		return KindServiceUnavailable
	case strings.Contains(s, "missing required") || strings.Contains(s, "invalid model") || strings.Contains(s, "bad request") || strings.Contains(s, "400"):
		return KindConfiguration
	default:
		return KindCommunication
	}
}

func classifyStatusCode(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthentication
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusBadRequest:
		return KindConfiguration
	case status >= 500:
		return KindServiceUnavailable
	default:
		return KindUnknown
	}
}

func classifyErrorCode(code string) ErrorKind {
	switch strings.ToLower(code) {
	case "rate_limit_error", "rate_limit_exceeded":
		return KindRateLimited
	case "authentication_error", "invalid_api_key":
		return KindAuthentication
	case "content_policy_violation", "content_filter", "context_length_exceeded":
		return KindModel
	case "server_error", "internal_error", "service_unavailable":
		return KindServiceUnavailable
	case "invalid_request_error":
		return KindConfiguration
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether err should be retried: ProviderErrors use
// their recorded Kind, other errors are classified from their text.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind.IsRetryable()
	}
	return ClassifyError(err).IsRetryable()
}
