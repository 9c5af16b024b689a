package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"docproc/internal/domain"
)

func TestClassifyError_Nil(t *testing.T) {
	assert.NoError(t, classifyError("op", nil))
}

func TestClassifyError_ConstraintCodes(t *testing.T) {
	for _, code := range []string{"23505", "23503", "23514", "23502", "22003"} {
		t.Run(code, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: code, Message: "violates something"}

			err := classifyError("op", pgErr)

			assert.ErrorIs(t, err, domain.ErrConstraintViolation)
			assert.NotErrorIs(t, err, domain.ErrTransientStorage)
			assert.Equal(t, "violates something", domain.DetailOf(err))

			var got *pgconn.PgError
			assert.True(t, errors.As(err, &got))
		})
	}
}

func TestClassifyError_TransientCodes(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "08006", "57014"} {
		t.Run(code, func(t *testing.T) {
			err := classifyError("op", &pgconn.PgError{Code: code})

			assert.ErrorIs(t, err, domain.ErrTransientStorage)
			assert.NotErrorIs(t, err, domain.ErrConstraintViolation)
		})
	}
}

func TestClassifyError_DeadlineAndConnection(t *testing.T) {
	assert.ErrorIs(t, classifyError("op", context.DeadlineExceeded), domain.ErrTransientStorage)
	assert.ErrorIs(t, classifyError("op", errors.New("connection reset by peer")), domain.ErrTransientStorage)
}
