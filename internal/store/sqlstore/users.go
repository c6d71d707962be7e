package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
)

const userColumns = "id, name, balance"

func (s *Store) users(ctx context.Context, where string, args ...any) ([]*model.User, error) {
	out := []*model.User{}
	err := s.query(ctx, "users", "SELECT "+userColumns+" FROM users"+where+" ORDER BY id", args, func(rows *sql.Rows) error {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Balance); err != nil {
			return err
		}
		out = append(out, u)
		return nil
	})
	return out, err
}

// Users returns every user ordered by id, eager-loading the relations named
// in include with one extra statement per relation.
func (s *Store) Users(ctx context.Context, include model.UserInclude) ([]*model.User, error) {
	users, err := s.users(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if !include.Any() {
		return users, nil
	}
	if err := s.loadUserEdges(ctx, users, include); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) loadUserEdges(ctx context.Context, users []*model.User, include model.UserInclude) error {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	if include.Posts {
		posts, err := s.PostsByAuthors(ctx, ids)
		if err != nil {
			return err
		}
		byAuthor := make(map[string][]*model.Post)
		for _, p := range posts {
			byAuthor[p.AuthorID] = append(byAuthor[p.AuthorID], p)
		}
		for _, u := range users {
			u.Edges.SetPosts(byAuthor[u.ID])
		}
	}
	if include.Profile {
		profiles, err := s.ProfilesByUsers(ctx, ids)
		if err != nil {
			return err
		}
		byUser := make(map[string]*model.Profile, len(profiles))
		for _, p := range profiles {
			byUser[p.UserID] = p
		}
		for _, u := range users {
			u.Edges.SetProfile(byUser[u.ID])
		}
	}
	if include.UserSubscribedTo {
		related, err := s.SubscribedTo(ctx, ids)
		if err != nil {
			return err
		}
		grouped := groupRelated(related)
		for _, u := range users {
			u.Edges.SetUserSubscribedTo(grouped[u.ID])
		}
	}
	if include.SubscribedToUser {
		related, err := s.Subscribers(ctx, ids)
		if err != nil {
			return err
		}
		grouped := groupRelated(related)
		for _, u := range users {
			u.Edges.SetSubscribedToUser(grouped[u.ID])
		}
	}
	return nil
}

func groupRelated(related []store.Related) map[string][]*model.User {
	out := make(map[string][]*model.User)
	for _, r := range related {
		out[r.Key] = append(out[r.Key], r.User)
	}
	return out
}

func (s *Store) User(ctx context.Context, id string) (*model.User, error) {
	out, err := s.users(ctx, " WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(out) == 0 {
		return nil, store.NewNotFoundError("user", id)
	}
	return out[0], nil
}

func (s *Store) CreateUser(ctx context.Context, in model.CreateUserInput) (*model.User, error) {
	u := &model.User{ID: model.NewID(), Name: in.Name, Balance: in.Balance}
	_, err := s.exec(ctx, "insert", "users",
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?)", u.ID, u.Name, u.Balance)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, in model.ChangeUserInput) (*model.User, error) {
	var set setClause
	if in.Name != nil {
		set.add("name", *in.Name)
	}
	if in.Balance != nil {
		set.add("balance", *in.Balance)
	}
	if err := s.update(ctx, "users", "user", id, set); err != nil {
		return nil, err
	}
	return s.User(ctx, id)
}

// DeleteUser removes the user; profile, posts and subscription edges go with
// it through ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.remove(ctx, "users", "user", id)
}
