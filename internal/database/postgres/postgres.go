package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	sq "github.com/Masterminds/squirrel"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolationErrCode = "23505"

// qb builds queries with PostgreSQL placeholders for the dynamic link filters.
var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// isUniqueViolationError reports whether err is a unique constraint violation.
// When constraint is non-empty, the violated constraint name must contain it.
func isUniqueViolationError(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.SQLState() != uniqueViolationErrCode {
		return false
	}

	return constraint == "" || strings.Contains(pgErr.ConstraintName, constraint)
}
