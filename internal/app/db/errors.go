package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"
	undefinedTable  = "42P01"
)

// IsUniqueViolation reports whether err is a unique constraint violation. When constraint is not
// empty the violated constraint must carry that name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsMissingTable reports whether err was caused by a table that does not exist, which means the
// migrations were not applied to this database.
func IsMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
