package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		AddJitter:    false, // Disable for predictable tests
	}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), testConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), testConfig(), func() error {
		attempts++
		return errors.New("persistent error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	base := errors.New("user logic rejected")
	attempts := 0
	err := Do(context.Background(), testConfig(), func() error {
		attempts++
		return NonRetryable(base)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, base)
	assert.True(t, IsNonRetryable(err))
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := testConfig()
	cfg.MaxAttempts = 5
	cfg.InitialDelay = 100 * time.Millisecond

	attempts := 0
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, cfg, func() error {
		attempts++
		return errors.New("keep going")
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, attempts, 5)
}

func TestRetry_ConfigValidation(t *testing.T) {
	bad := testConfig()
	bad.InitialDelay = -1
	assert.Error(t, Do(context.Background(), bad, func() error { return nil }))

	bad = testConfig()
	bad.MaxDelay = 5 * time.Millisecond // below InitialDelay
	assert.Error(t, Do(context.Background(), bad, func() error { return nil }))
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{MaxAttempts: 0, AddJitter: false}, func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), testConfig(), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("not yet")
		}
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestNonRetryable_NilPassthrough(t *testing.T) {
	assert.Nil(t, NonRetryable(nil))
	assert.False(t, IsNonRetryable(errors.New("ordinary")))
}

func TestPresetConfigs(t *testing.T) {
	q := Quick()
	assert.Equal(t, 10, q.MaxAttempts)
	assert.True(t, q.AddJitter)

	p := Persistent()
	assert.Equal(t, 30, p.MaxAttempts)
	assert.Greater(t, p.MaxDelay, q.MaxDelay)

	// Conflict retries re-read almost immediately, jittered
	c := Conflicts()
	assert.True(t, c.AddJitter)
	assert.Less(t, c.InitialDelay, q.InitialDelay)
	assert.Less(t, c.MaxDelay, q.MaxDelay)
}

func TestBackoff_CappedAtMaxDelay(t *testing.T) {
	cfg := Config{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     40 * time.Millisecond,
		Multiplier:   3.0,
		AddJitter:    false,
	}

	assert.Equal(t, 10*time.Millisecond, cfg.backoff(1))
	assert.Equal(t, 30*time.Millisecond, cfg.backoff(2))
	assert.Equal(t, 40*time.Millisecond, cfg.backoff(3))
	assert.Equal(t, 40*time.Millisecond, cfg.backoff(10))
}
