package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestNotFound(t *testing.T) {
	err := fmt.Errorf("update user: %w", NewNotFoundError("user", "42"))
	require.True(t, IsNotFound(err))
	require.True(t, errors.Is(err, ErrNotFound))
	require.Contains(t, err.Error(), "user not found (id=42)")
	require.False(t, IsNotFound(errors.New("boom")))
	require.False(t, IsNotFound(nil))
}

func TestConstraintClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unique, fk bool
	}{
		{"postgres unique", &pq.Error{Code: "23505"}, true, false},
		{"postgres fk", &pq.Error{Code: "23503"}, false, true},
		{"postgres other", &pq.Error{Code: "42P01"}, false, false},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true, false},
		{"mysql parent row", &mysql.MySQLError{Number: 1451}, false, true},
		{"mysql child row", &mysql.MySQLError{Number: 1452}, false, true},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: subscriptions.subscriber_id, subscriptions.author_id (2067)"), true, false},
		{"sqlite fk", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), false, true},
		{"wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true, false},
		{"plain", errors.New("connection refused"), false, false},
		{"nil", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			require.Equal(t, tt.fk, IsForeignKeyConstraintError(tt.err))
			require.Equal(t, tt.unique || tt.fk, IsConstraintError(tt.err))
		})
	}
}
