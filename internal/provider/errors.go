package provider

import (
	"errors"
	"fmt"
	"strings"
)

// BackendError is an error status answered by the upstream service.
// Message is a summary, never the raw upstream body.
type BackendError struct {
	StatusCode int
	Status     string // upstream status token, e.g. RESOURCE_EXHAUSTED
	Message    string
}

func (e *BackendError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

func IsRateLimit(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.StatusCode == 429
}

func IsQuotaExhausted(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.StatusCode == 402
}

func IsAuth(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && (be.StatusCode == 401 || be.StatusCode == 403)
}

// overloadHints are message fragments the upstream uses for transient
// saturation that doesn't arrive as a clean 429/5xx.
var overloadHints = []string{"overloaded", "try again later", "temporarily unavailable", "deadline exceeded"}

// IsRetryable reports whether another attempt at the same call could
// plausibly succeed: rate-limit status, server-error status, or an
// overload-indicating message. Auth, quota and bad-request failures are
// never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		if be.StatusCode == 429 || (be.StatusCode >= 500 && be.StatusCode < 600) {
			return true
		}
		if IsAuth(err) || IsQuotaExhausted(err) {
			return false
		}
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range overloadHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
