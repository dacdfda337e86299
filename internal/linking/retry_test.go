package linking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateWithRetryNonRetryableStopsImmediately(t *testing.T) {
	store := newFakeStore()
	store.failNextCreates = 100
	store.createErr = errors.New("UNIQUE constraint failed: poi_entity_links")
	creator, _ := newTestCreator(store)

	opts := testOptions()
	opts.MaxRetries = 3
	opts.RetryDelay = time.Millisecond

	result, err := creator.CreateWithRetry(context.Background(), testSelection(), opts)
	if err != nil {
		t.Fatalf("CreateWithRetry failed: %v", err)
	}

	if len(result.RetryHistory) != 0 {
		t.Errorf("RetryHistory has %d entries for a non-retryable failure, want 0", len(result.RetryHistory))
	}
	if result.CanRetry {
		t.Error("CanRetry = true for a database constraint failure")
	}
	if store.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1 (no retries)", store.createCalls)
	}
}

func TestCreateWithRetrySucceedsOnSecondAttempt(t *testing.T) {
	store := newFakeStore()
	store.failNextCreates = 1
	store.createErr = errors.New("network timeout talking to backend")
	creator, _ := newTestCreator(store)

	opts := testOptions()
	opts.MaxRetries = 3
	opts.RetryDelay = time.Millisecond

	result, err := creator.CreateWithRetry(context.Background(), testSelection(), opts)
	if err != nil {
		t.Fatalf("CreateWithRetry failed: %v", err)
	}

	if !result.Success {
		t.Error("Success = false after a recovering retry")
	}
	if result.Created != 4 {
		t.Errorf("Created = %d, want 4", result.Created)
	}
	if len(result.RetryHistory) != 1 {
		t.Fatalf("RetryHistory has %d entries, want 1", len(result.RetryHistory))
	}
	attempt := result.RetryHistory[0]
	if attempt.Attempt != 1 || !attempt.Success {
		t.Errorf("attempt = %+v, want attempt 1 success", attempt)
	}
	if attempt.Error != nil {
		t.Errorf("successful attempt carries error %v", attempt.Error)
	}
}

func TestCreateWithRetryExhaustsAttempts(t *testing.T) {
	store := newFakeStore()
	store.failNextCreates = 100
	store.createErr = errors.New("rate limit exceeded")
	creator, _ := newTestCreator(store)

	opts := testOptions()
	opts.MaxRetries = 3
	opts.RetryDelay = time.Millisecond

	result, err := creator.CreateWithRetry(context.Background(), testSelection(), opts)
	if err != nil {
		t.Fatalf("CreateWithRetry failed: %v", err)
	}

	if result.Success {
		t.Error("Success = true after every attempt failed")
	}
	if len(result.RetryHistory) != 3 {
		t.Fatalf("RetryHistory has %d entries, want MaxRetries = 3", len(result.RetryHistory))
	}
	for i, attempt := range result.RetryHistory {
		if attempt.Attempt != i+1 {
			t.Errorf("attempt %d numbered %d", i, attempt.Attempt)
		}
		if attempt.Success {
			t.Errorf("attempt %d marked successful", i+1)
		}
		if attempt.Error == nil {
			t.Errorf("attempt %d has no classified error", i+1)
		}
	}
	// Exponential backoff: 1ms, 2ms, 4ms.
	for i, want := range []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond} {
		if result.RetryHistory[i].Delay != want {
			t.Errorf("attempt %d delay = %v, want %v", i+1, result.RetryHistory[i].Delay, want)
		}
	}
	// Automatic retries are exhausted but a manual re-trigger may still help.
	if !result.CanRetry {
		t.Error("CanRetry = false after a retryable terminal failure")
	}
	// Initial run + 3 retries.
	if store.createCalls != 4 {
		t.Errorf("createCalls = %d, want 4", store.createCalls)
	}
}

func TestCreateWithRetryCancelledDuringBackoff(t *testing.T) {
	store := newFakeStore()
	store.failNextCreates = 100
	store.createErr = errors.New("network timeout talking to backend")
	creator, _ := newTestCreator(store)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	opts := testOptions()
	opts.MaxRetries = 3
	opts.RetryDelay = 5 * time.Second

	result, err := creator.CreateWithRetry(ctx, testSelection(), opts)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if len(result.RetryHistory) != 0 {
		t.Errorf("RetryHistory has %d entries, want 0 (cancelled before retry ran)", len(result.RetryHistory))
	}
	if store.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", store.createCalls)
	}
}
