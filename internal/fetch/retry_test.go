package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryWithBackoff_Permanent(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0

	_, err := retryWithBackoff(context.Background(), fastRetry(), func() (int, error) {
		calls++
		return 0, Permanent(sentinel)
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	calls := 0

	got, err := retryWithBackoff(context.Background(), fastRetry(), func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoff_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	cfg := RetryConfig{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	_, err := retryWithBackoff(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, errors.New("down")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
