package retryx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var retried []int

	err := Do(context.Background(), Policy{
		Attempts: 10,
		OnRetry:  func(attempt int, err error) { retried = append(retried, attempt) },
	}, func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 4 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []int{1, 2, 3}, retried)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	retries := 0

	err := Do(context.Background(), Policy{
		Attempts: 10,
		OnRetry:  func(int, error) { retries++ },
	}, func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 10, calls)
	assert.Equal(t, 9, retries)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	boom := errors.New("boom")

	err := Do(context.Background(), Policy{Attempts: 5}, func(ctx context.Context, attempt int) error {
		calls++
		return Permanent(boom)
	})

	require.Error(t, err)
	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, func(ctx context.Context, attempt int) error {
		calls++
		return errTransient
	})
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, Policy{Attempts: 10, Delay: time.Hour}, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errTransient
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
