package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBusyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked", errors.New("database is locked"), true},
		{"table locked", errors.New("database table is locked"), true},
		{"sqlite busy", errors.New("SQLITE_BUSY: database is busy"), true},
		{"sqlite locked", errors.New("SQLITE_LOCKED"), true},
		{"code 5", errors.New("busy (5)"), true},
		{"unrelated", errors.New("no such table: books"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isBusyError(tt.err))
		})
	}
}

func TestRetryWithBackoffSucceedsAfterBusy(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffStopsOnNonBusy(t *testing.T) {
	t.Parallel()

	attempts := 0
	wantErr := errors.New("syntax error")
	err := retryWithBackoff(context.Background(), 3, func() error {
		attempts++
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := retryWithBackoff(context.Background(), 2, func() error {
		attempts++
		return errors.New("database is locked")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}
