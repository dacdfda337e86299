// Error classification and backoff policy for bulk link operations.
package linking

import (
	"errors"
	"strings"
	"time"

	"github.com/sietch-tools/poilink/pkg/types"
)

// maxRetryDelay caps the exponential backoff.
const maxRetryDelay = 30 * time.Second

// Classify converts a raw failure into an EnhancedError: a machine-readable
// type and severity plus user-facing guidance and a retryable flag. Sentinel
// errors from pkg/types are matched first, then message substrings and
// well-known backend codes.
func Classify(err error) *types.EnhancedError {
	if err == nil {
		return nil
	}
	var enhanced *types.EnhancedError
	if errors.As(err, &enhanced) {
		return enhanced
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case errors.Is(err, types.ErrMissingActor):
		return &types.EnhancedError{
			Type:            types.ErrorAuthentication,
			Severity:        types.SeverityHigh,
			Message:         msg,
			UserMessage:     "You must be signed in to create links.",
			SuggestedAction: "Provide an authenticated actor and try again.",
			Retryable:       false,
		}

	case errors.Is(err, ErrNoCombinations),
		errors.Is(err, types.ErrEntityExclusive),
		errors.Is(err, types.ErrInvalidLinkType),
		errors.Is(err, types.ErrInvalidQuantity),
		errors.Is(err, types.ErrInvalidID):
		return &types.EnhancedError{
			Type:            types.ErrorValidation,
			Severity:        types.SeverityMedium,
			Message:         msg,
			UserMessage:     "Some of your selections are invalid.",
			SuggestedAction: "Check the POI and item/schematic selections and try again.",
			Retryable:       false,
		}

	case containsAny(lower, "rate limit", "too many requests", "429"):
		return &types.EnhancedError{
			Type:            types.ErrorRateLimit,
			Severity:        types.SeverityMedium,
			Message:         msg,
			UserMessage:     "Links are being created too quickly.",
			SuggestedAction: "Wait a few seconds and retry with a smaller batch size.",
			Retryable:       true,
		}

	case containsAny(lower, "network", "connection refused", "connection reset", "timeout", "no such host", "broken pipe"):
		return &types.EnhancedError{
			Type:            types.ErrorNetwork,
			Severity:        types.SeverityMedium,
			Message:         msg,
			UserMessage:     "There was a problem reaching the backend.",
			SuggestedAction: "Check connectivity and try again; the operation is safe to retry.",
			Retryable:       true,
			TechnicalDetails: msg,
		}

	case containsAny(lower, "constraint", "duplicate", "unique", "23505", "sqlite_constraint"):
		return &types.EnhancedError{
			Type:            types.ErrorDatabase,
			Severity:        types.SeverityHigh,
			Message:         msg,
			UserMessage:     "The backend rejected some links as conflicting.",
			SuggestedAction: "Duplicate links are prevented automatically; review what already exists.",
			Retryable:       false,
			TechnicalDetails: msg,
		}

	case containsAny(lower, "auth", "unauthorized", "forbidden", "permission denied"):
		return &types.EnhancedError{
			Type:            types.ErrorAuthentication,
			Severity:        types.SeverityHigh,
			Message:         msg,
			UserMessage:     "Your session is not authorized for this operation.",
			SuggestedAction: "Sign in again and retry.",
			Retryable:       false,
		}

	case containsAny(lower, "validation", "invalid"):
		return &types.EnhancedError{
			Type:            types.ErrorValidation,
			Severity:        types.SeverityMedium,
			Message:         msg,
			UserMessage:     "Some of your selections are invalid.",
			SuggestedAction: "Check the POI and item/schematic selections and try again.",
			Retryable:       false,
		}
	}

	return &types.EnhancedError{
		Type:            types.ErrorUnknown,
		Severity:        types.SeverityMedium,
		Message:         msg,
		UserMessage:     "An unexpected error occurred.",
		SuggestedAction: "Try again; if the problem persists, report it with the error details.",
		Retryable:       true,
		TechnicalDetails: msg,
	}
}

// RetryDelay returns the backoff before retry number attempt (counted from
// 0): base doubled per attempt, capped at 30 seconds.
func RetryDelay(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if attempt < 0 {
		attempt = 0
	}
	// 2^attempt would overflow long before the cap matters.
	if attempt > 30 {
		return maxRetryDelay
	}
	delay := base << uint(attempt)
	if delay > maxRetryDelay || delay <= 0 {
		return maxRetryDelay
	}
	return delay
}

// ShouldRetry reports whether another automatic attempt is warranted.
func ShouldRetry(err *types.EnhancedError, attempt, maxRetries int) bool {
	if err == nil || !err.Retryable {
		return false
	}
	return attempt < maxRetries
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
