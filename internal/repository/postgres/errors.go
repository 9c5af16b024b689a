package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"docproc/internal/domain"
)

// PostgreSQL SQLSTATE codes for rows the database refused to store.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	classDataException      = "22"
)

// classifyError maps a storage failure to ConstraintViolation or
// TransientStorage. Serialization failures (40001), deadlocks (40P01),
// connection loss and deadline expiry are all transient. The original error
// stays reachable through errors.As.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && isConstraintCode(pgErr.Code) {
		e := domain.NewError(domain.ErrConstraintViolation, op, err)
		e.Detail = pgErr.Message
		return e
	}
	return domain.NewError(domain.ErrTransientStorage, op, err)
}

func isConstraintCode(code string) bool {
	switch code {
	case codeUniqueViolation, codeForeignKeyViolation, codeCheckViolation, codeNotNullViolation:
		return true
	}
	return strings.HasPrefix(code, classDataException)
}
