package persistence

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// uniqueViolationCode is the PostgreSQL error code for unique constraint violations
const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err was caused by a unique constraint.
// It understands GORM's translated error, the raw pq error, and the sqlite
// message used by in-memory tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
