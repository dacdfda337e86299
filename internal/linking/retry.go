package linking

import (
	"context"
	"fmt"
	"time"

	"github.com/sietch-tools/poilink/pkg/types"
)

// CreateWithRetry wraps Create with classification-driven automatic retry:
// the whole operation is re-run while the failure is retryable and attempts
// remain, waiting an exponential backoff between runs. Every retry is
// appended to the result's RetryHistory; a first failure that is not
// retryable leaves the history empty. The terminal CanRetry flag reflects
// whether a manual re-trigger could still help.
func (c *Creator) CreateWithRetry(ctx context.Context, sel Selection, opts Options) (*Result, error) {
	opts = c.applyDefaults(opts)

	result, err := c.Create(ctx, sel, opts)

	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if result.Success || !result.CanRetry {
			break
		}

		delay := RetryDelay(attempt, opts.RetryDelay)

		select {
		case <-ctx.Done():
			result.Errors = append(result.Errors, fmt.Sprintf("retry cancelled: %v", ctx.Err()))
			return result, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		case <-time.After(delay):
		}

		retryStart := c.now()
		history := result.RetryHistory

		result, err = c.Create(ctx, sel, opts)

		attemptRecord := newRetryAttempt(attempt+1, retryStart, delay, result)
		result.RetryHistory = append(history, attemptRecord)
	}

	return result, err
}

// newRetryAttempt records the outcome of one retry run.
func newRetryAttempt(attempt int, start time.Time, delay time.Duration, result *Result) (record types.RetryAttempt) {
	record.Attempt = attempt
	record.Timestamp = start
	record.Delay = delay
	record.Success = result.Success
	if !result.Success && len(result.EnhancedErrors) > 0 {
		record.Error = result.EnhancedErrors[0]
	}
	return record
}
