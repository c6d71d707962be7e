package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
)

const postColumns = "id, title, content, author_id"

func (s *Store) posts(ctx context.Context, where string, args ...any) ([]*model.Post, error) {
	out := []*model.Post{}
	err := s.query(ctx, "posts", "SELECT "+postColumns+" FROM posts"+where+" ORDER BY id", args, func(rows *sql.Rows) error {
		p := &model.Post{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (s *Store) Posts(ctx context.Context) ([]*model.Post, error) {
	out, err := s.posts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return out, nil
}

func (s *Store) Post(ctx context.Context, id string) (*model.Post, error) {
	out, err := s.posts(ctx, " WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if len(out) == 0 {
		return nil, store.NewNotFoundError("post", id)
	}
	return out[0], nil
}

func (s *Store) PostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	out := []*model.Post{}
	err := forChunks(authorIDs, func(chunk []string) error {
		found, err := s.posts(ctx, " WHERE author_id IN "+placeholders(len(chunk)), anySlice(chunk)...)
		out = append(out, found...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return out, nil
}

func (s *Store) CreatePost(ctx context.Context, in model.CreatePostInput) (*model.Post, error) {
	p := &model.Post{ID: model.NewID(), Title: in.Title, Content: in.Content, AuthorID: in.AuthorID}
	_, err := s.exec(ctx, "insert", "posts",
		"INSERT INTO posts ("+postColumns+") VALUES (?, ?, ?, ?)",
		p.ID, p.Title, p.Content, p.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, in model.ChangePostInput) (*model.Post, error) {
	var set setClause
	if in.Title != nil {
		set.add("title", *in.Title)
	}
	if in.Content != nil {
		set.add("content", *in.Content)
	}
	if err := s.update(ctx, "posts", "post", id, set); err != nil {
		return nil, err
	}
	return s.Post(ctx, id)
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.remove(ctx, "posts", "post", id)
}
