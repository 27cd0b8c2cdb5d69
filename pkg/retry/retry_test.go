package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return New(WithMaxAttempts(attempts), WithInitialDelay(time.Millisecond), WithMaxDelay(2*time.Millisecond), WithJitter(0))
}

func TestDo_RetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentAndUnwraps(t *testing.T) {
	base := errors.New("bad request")
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(base)
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, base, err)
}

func TestDo_PlainErrorsAreNotRetriedByDefault(t *testing.T) {
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("plain")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsLastErrorAfterMaxAttempts(t *testing.T) {
	base := errors.New("still down")
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(base)
	})

	assert.Equal(t, 3, calls)
	assert.Same(t, base, err)
}

func TestDo_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fastRetrier(3).Do(ctx, func(ctx context.Context) error {
		t.Fatal("operation must not run")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), fastRetrier(2), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, Retryable(errors.New("once"))
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDelay_IsCapped(t *testing.T) {
	r := New(WithInitialDelay(time.Second), WithMaxDelay(3*time.Second), WithJitter(0))

	assert.Equal(t, time.Second, r.delay(1))
	assert.Equal(t, 2*time.Second, r.delay(2))
	assert.Equal(t, 3*time.Second, r.delay(5))
}

func TestWalletRetrier_ReportsEachRetry(t *testing.T) {
	var attempts []int
	r := WalletRetrier(
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(time.Millisecond),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
			assert.Error(t, err)
		}),
	)

	err := r.Do(context.Background(), func(ctx context.Context) error {
		return Retryable(errors.New("wallet down"))
	})

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}
