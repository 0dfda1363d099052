package persistence

import (
	"errors"

	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint failure on
// either supported driver. constraint, when non-empty, must match (pq only).
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != pqUniqueViolation {
			return false
		}
		return constraint == "" || pqErr.Constraint == constraint
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		// 2601: duplicate key in unique index, 2627: unique constraint violation
		return msErr.Number == 2601 || msErr.Number == 2627
	}
	return false
}
