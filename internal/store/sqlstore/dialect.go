package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	// Database drivers selectable through Config.Store.Driver.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open. They match the database/sql registrations
// of the imported drivers.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// Drivers lists the supported driver names.
var Drivers = []string{SQLite, Postgres, MySQL}

type dialect struct {
	name string
	// numbered placeholders ($1, $2, ...) instead of '?'.
	numbered bool
	// insertIgnore renders an insert that skips rows whose key already exists.
	insertIgnore func(table string, cols []string, key string) string
}

var dialects = map[string]dialect{
	SQLite: {
		name:         SQLite,
		insertIgnore: onConflictDoNothing,
	},
	Postgres: {
		name:         Postgres,
		numbered:     true,
		insertIgnore: onConflictDoNothing,
	},
	MySQL: {
		name: MySQL,
		insertIgnore: func(table string, cols []string, _ string) string {
			return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES %s",
				table, strings.Join(cols, ", "), placeholders(len(cols)))
		},
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("sqlstore: unsupported driver %q (want one of %s)", driver, strings.Join(Drivers, ", "))
	}
	return d, nil
}

// rebind rewrites '?' placeholders for dialects with numbered parameters.
// Statements in this package never contain a literal '?'.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func onConflictDoNothing(table string, cols []string, key string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO NOTHING",
		table, strings.Join(cols, ", "), placeholders(len(cols)), key)
}

// placeholders returns "(?, ?, ...)" with n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return "()"
	}
	return "(" + strings.Repeat("?, ", n-1) + "?)"
}
