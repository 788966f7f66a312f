package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errBusy  = errors.New("busy")
	errFatal = errors.New("fatal")
)

func isBusy(err error) bool {
	return errors.Is(err, errBusy)
}

func fastRetrier(tries uint) *Retrier {
	return New(&Config{
		MaxTries:        tries,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}, isBusy)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastRetrier(5), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errBusy
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastRetrier(5), func() (int, error) {
		calls++
		return 0, errFatal
	})

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
}

func TestDoGivesUpAfterMaxTries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastRetrier(3), func() (int, error) {
		calls++
		return 0, errBusy
	})

	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 3, calls)
}

func TestNewDefaults(t *testing.T) {
	r := New(nil, nil)
	assert.Equal(t, uint(DefaultMaxTries), r.maxTries)
	assert.Equal(t, DefaultInitialInterval, r.initialInterval)
	assert.False(t, r.retryable(errBusy))
}
