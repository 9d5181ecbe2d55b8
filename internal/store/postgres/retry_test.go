package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"tablepos/backend/internal/store"
)

func TestWithRetryReplaysSerializationFailures(t *testing.T) {
	s := &Store{}
	calls := 0
	err := s.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUpAsConflict(t *testing.T) {
	s := &Store{}
	calls := 0
	err := s.withRetry(context.Background(), func() error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	})

	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, len(retryDelays)+1, calls)
}

func TestWithRetryPassesThroughOtherErrors(t *testing.T) {
	s := &Store{}
	boom := errors.New("boom")
	calls := 0
	err := s.withRetry(context.Background(), func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPgErrorClassification(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.True(t, isForeignKeyViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}
