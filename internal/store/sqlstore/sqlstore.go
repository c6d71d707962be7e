// Package sqlstore implements store.Store on database/sql for SQLite,
// PostgreSQL and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hanpama/membergraph/internal/eventbus"
	"github.com/hanpama/membergraph/internal/events"
	"github.com/hanpama/membergraph/internal/store"
)

// DefaultSlowThreshold is used when no threshold is configured.
const DefaultSlowThreshold = 200 * time.Millisecond

// maxKeysPerStatement bounds the IN list of one statement; larger key sets
// are split across several statements of the same store call.
const maxKeysPerStatement = 500

// Store is a store.Store backed by a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
	slow    time.Duration
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for slow statement warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSlowThreshold logs statements slower than d at warn level. Zero
// disables the warning.
func WithSlowThreshold(d time.Duration) Option {
	return func(s *Store) { s.slow = d }
}

// Open opens and pings a database for driver and wraps it.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	if _, err := dialectFor(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if driver == SQLite {
		// A single connection serialises writers and keeps in-memory
		// databases alive for the lifetime of the pool.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", driver, err)
	}
	return New(db, driver, opts...)
}

// New wraps an existing handle. The caller keeps ownership of db unless
// Close is called on the returned Store.
func New(db *sql.DB, driver string, opts ...Option) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	s := &Store{
		db:      db,
		dialect: d,
		logger:  slog.Default(),
		slow:    DefaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string { return s.dialect.name }

func (s *Store) Close() error { return s.db.Close() }

// query runs a statement and calls scan once per row. Rows are fully drained
// and closed before query returns, so callers may issue further statements
// from scan's results without holding a connection.
func (s *Store) query(ctx context.Context, table, query string, args []any, scan func(*sql.Rows) error) error {
	query = s.dialect.rebind(query)
	start := s.start(ctx, "select", table, query)
	rows, err := s.db.QueryContext(ctx, query, args...)
	n := 0
	if err == nil {
		for rows.Next() {
			if err = scan(rows); err != nil {
				break
			}
			n++
		}
		if err == nil {
			err = rows.Err()
		}
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
	}
	s.finish(ctx, "select", table, query, args, n, err, start)
	return err
}

// exec runs a write statement and returns the number of affected rows.
func (s *Store) exec(ctx context.Context, op, table, query string, args ...any) (int64, error) {
	query = s.dialect.rebind(query)
	start := s.start(ctx, op, table, query)
	res, err := s.db.ExecContext(ctx, query, args...)
	var n int64
	if err == nil {
		n, err = res.RowsAffected()
	}
	s.finish(ctx, op, table, query, args, int(n), err, start)
	return n, err
}

func (s *Store) start(ctx context.Context, op, table, query string) time.Time {
	eventbus.Publish(ctx, events.StoreQueryStart{Operation: op, Table: table, Statement: query})
	return time.Now()
}

func (s *Store) finish(ctx context.Context, op, table, query string, args []any, rows int, err error, start time.Time) {
	d := time.Since(start)
	eventbus.Publish(ctx, events.StoreQueryFinish{
		Operation: op,
		Table:     table,
		Statement: query,
		Rows:      rows,
		Err:       err,
		Duration:  d,
	})
	if s.slow > 0 && d > s.slow {
		s.logger.WarnContext(ctx, "slow query detected", "duration", d, "query", query, "args", len(args))
	}
}

// exists reports whether a row with id exists in table.
func (s *Store) exists(ctx context.Context, table, id string) (bool, error) {
	found := false
	err := s.query(ctx, table, "SELECT 1 FROM "+table+" WHERE id = ?", []any{id}, func(*sql.Rows) error {
		found = true
		return nil
	})
	return found, err
}

// forChunks calls fn for consecutive slices of keys with at most
// maxKeysPerStatement elements.
func forChunks[K any](keys []K, fn func(chunk []K) error) error {
	for len(keys) > 0 {
		n := min(len(keys), maxKeysPerStatement)
		if err := fn(keys[:n]); err != nil {
			return err
		}
		keys = keys[n:]
	}
	return nil
}

func anySlice[K any](keys []K) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

// setClause accumulates the assignments of a partial update.
type setClause struct {
	cols []string
	args []any
}

func (c *setClause) add(col string, v any) {
	c.cols = append(c.cols, col+" = ?")
	c.args = append(c.args, v)
}

// update applies set to the row identified by id. An empty set only checks
// that the row exists. Zero affected rows is re-checked with a lookup since
// MySQL reports changed rather than matched rows.
func (s *Store) update(ctx context.Context, table, label, id string, set setClause) error {
	if len(set.cols) > 0 {
		query := "UPDATE " + table + " SET " + strings.Join(set.cols, ", ") + " WHERE id = ?"
		n, err := s.exec(ctx, "update", table, query, append(set.args, id)...)
		if err != nil {
			return fmt.Errorf("update %s: %w", label, err)
		}
		if n > 0 {
			return nil
		}
	}
	ok, err := s.exists(ctx, table, id)
	if err != nil {
		return fmt.Errorf("update %s: %w", label, err)
	}
	if !ok {
		return store.NewNotFoundError(label, id)
	}
	return nil
}

// remove deletes the row identified by id.
func (s *Store) remove(ctx context.Context, table, label, id string) error {
	n, err := s.exec(ctx, "delete", table, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", label, err)
	}
	if n == 0 {
		return store.NewNotFoundError(label, id)
	}
	return nil
}
