package database

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), zerolog.Nop(), "test", 3, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	down := errors.New("connection refused")
	err := withRetry(context.Background(), zerolog.Nop(), "test", 1, func(context.Context) error {
		calls++
		return down
	})
	assert.ErrorIs(t, err, down)
	assert.Equal(t, 1, calls)
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, zerolog.Nop(), "test", 5, func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection refused")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
