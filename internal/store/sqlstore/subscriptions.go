package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
)

// related joins subscriptions to users. keyCol is the edge column the keys
// match; userCol is the column identifying the returned user.
func (s *Store) related(ctx context.Context, keyCol, userCol string, keys []string) ([]store.Related, error) {
	out := []store.Related{}
	err := forChunks(keys, func(chunk []string) error {
		query := "SELECT s." + keyCol + ", u.id, u.name, u.balance" +
			" FROM subscriptions s JOIN users u ON u.id = s." + userCol +
			" WHERE s." + keyCol + " IN " + placeholders(len(chunk)) +
			" ORDER BY s." + keyCol + ", u.id"
		return s.query(ctx, "subscriptions", query, anySlice(chunk), func(rows *sql.Rows) error {
			r := store.Related{User: &model.User{}}
			if err := rows.Scan(&r.Key, &r.User.ID, &r.User.Name, &r.User.Balance); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
	})
	return out, err
}

func (s *Store) SubscribedTo(ctx context.Context, subscriberIDs []string) ([]store.Related, error) {
	out, err := s.related(ctx, "subscriber_id", "author_id", subscriberIDs)
	if err != nil {
		return nil, fmt.Errorf("load subscribed-to users: %w", err)
	}
	return out, nil
}

func (s *Store) Subscribers(ctx context.Context, authorIDs []string) ([]store.Related, error) {
	out, err := s.related(ctx, "author_id", "subscriber_id", authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	return out, nil
}

// Subscribe inserts the edge. A duplicate pair fails with a unique
// constraint error.
func (s *Store) Subscribe(ctx context.Context, sub model.Subscription) error {
	_, err := s.exec(ctx, "insert", "subscriptions",
		"INSERT INTO subscriptions (subscriber_id, author_id) VALUES (?, ?)",
		sub.SubscriberID, sub.AuthorID)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// Unsubscribe deletes the edge, failing with a NotFoundError when it does
// not exist.
func (s *Store) Unsubscribe(ctx context.Context, sub model.Subscription) error {
	n, err := s.exec(ctx, "delete", "subscriptions",
		"DELETE FROM subscriptions WHERE subscriber_id = ? AND author_id = ?",
		sub.SubscriberID, sub.AuthorID)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if n == 0 {
		return store.NewNotFoundError("subscription", sub.SubscriberID+"->"+sub.AuthorID)
	}
	return nil
}
