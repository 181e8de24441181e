package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), Linear(3, time.Millisecond), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := WithRetry(context.Background(), Linear(3, time.Millisecond), func() error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_RecoversMidway(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), Linear(5, time.Millisecond), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, Linear(3, time.Hour), func() error {
		return errors.New("always")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff_Linear(t *testing.T) {
	cfg := Linear(3, 5*time.Second)
	assert.Equal(t, 5*time.Second, calculateBackoff(0, cfg))
	assert.Equal(t, 10*time.Second, calculateBackoff(1, cfg))
	assert.Equal(t, 15*time.Second, calculateBackoff(2, cfg))
}

func TestCalculateBackoff_ExponentialCapped(t *testing.T) {
	cfg := Config{MaxAttempts: 10, InitialBackoff: time.Second, MaxBackoff: 4 * time.Second, Multiplier: 2.0}
	assert.Equal(t, time.Second, calculateBackoff(0, cfg))
	assert.Equal(t, 2*time.Second, calculateBackoff(1, cfg))
	assert.Equal(t, 4*time.Second, calculateBackoff(2, cfg))
	assert.Equal(t, 4*time.Second, calculateBackoff(5, cfg))
}
