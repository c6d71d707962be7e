package sqlstore

import (
	"context"
	"fmt"

	"github.com/hanpama/membergraph/internal/model"
)

// Foreign keys cascade so that deleting a user removes its profile, posts
// and subscription edges in the same statement. Table-level constraints are
// used because MySQL ignores inline column references.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS member_types (
	id VARCHAR(16) NOT NULL PRIMARY KEY,
	discount DOUBLE PRECISION NOT NULL,
	posts_limit_per_month INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS users (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	balance DOUBLE PRECISION NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS profiles (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	is_male BOOLEAN NOT NULL,
	year_of_birth INTEGER NOT NULL,
	user_id VARCHAR(36) NOT NULL UNIQUE,
	member_type_id VARCHAR(16) NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
	FOREIGN KEY (member_type_id) REFERENCES member_types (id)
)`,
	`CREATE TABLE IF NOT EXISTS posts (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	content TEXT NOT NULL,
	author_id VARCHAR(36) NOT NULL,
	FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
	subscriber_id VARCHAR(36) NOT NULL,
	author_id VARCHAR(36) NOT NULL,
	PRIMARY KEY (subscriber_id, author_id),
	FOREIGN KEY (subscriber_id) REFERENCES users (id) ON DELETE CASCADE,
	FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE
)`,
}

// SeedMemberTypes is the reference data inserted by Migrate.
var SeedMemberTypes = []model.MemberType{
	{ID: model.MemberTypeBasic, Discount: 2.3, PostsLimitPerMonth: 20},
	{ID: model.MemberTypeBusiness, Discount: 7.7, PostsLimitPerMonth: 100},
}

// Migrate creates missing tables and seeds member types. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.exec(ctx, "migrate", "", stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	seed := s.dialect.insertIgnore("member_types", []string{"id", "discount", "posts_limit_per_month"}, "id")
	for _, mt := range SeedMemberTypes {
		if _, err := s.exec(ctx, "insert", "member_types", seed, string(mt.ID), mt.Discount, mt.PostsLimitPerMonth); err != nil {
			return fmt.Errorf("sqlstore: seed member type %s: %w", mt.ID, err)
		}
	}
	return nil
}
