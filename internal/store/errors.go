package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("store: entity not found")

// NotFoundError reports a missing entity or edge.
type NotFoundError struct {
	Label string
	ID    any
}

func (e *NotFoundError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("store: %s not found (id=%v)", e.Label, e.ID)
	}
	return fmt.Sprintf("store: %s not found", e.Label)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(err error) bool { return err == ErrNotFound }

// NewNotFoundError returns a NotFoundError for label and id.
func NewNotFoundError(label string, id any) *NotFoundError {
	return &NotFoundError{Label: label, ID: id}
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// PostgreSQL SQLSTATE codes (class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451
	mysqlForeignKeyChild  = 1452
)

// IsConstraintError reports whether err resulted from a unique or foreign key
// violation in any supported database.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) || IsForeignKeyConstraintError(err)
}

// IsUniqueConstraintError reports a duplicate key.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.SQLState() == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	// modernc.org/sqlite only exposes the message text.
	return containsAny(err.Error(),
		"UNIQUE constraint failed",
		"PRIMARY KEY constraint failed",
	)
}

// IsForeignKeyConstraintError reports a missing parent row or a parent row
// still referenced by children.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.SQLState() == pgForeignKeyViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlForeignKeyParent || myErr.Number == mysqlForeignKeyChild
	}
	return containsAny(err.Error(), "FOREIGN KEY constraint failed")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
