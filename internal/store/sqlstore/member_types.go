package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
)

const memberTypeColumns = "id, discount, posts_limit_per_month"

func scanMemberType(rows *sql.Rows) (*model.MemberType, error) {
	mt := &model.MemberType{}
	var id string
	if err := rows.Scan(&id, &mt.Discount, &mt.PostsLimitPerMonth); err != nil {
		return nil, err
	}
	mt.ID = model.MemberTypeID(id)
	return mt, nil
}

func (s *Store) memberTypes(ctx context.Context, where string, args ...any) ([]*model.MemberType, error) {
	out := []*model.MemberType{}
	err := s.query(ctx, "member_types", "SELECT "+memberTypeColumns+" FROM member_types"+where+" ORDER BY id", args, func(rows *sql.Rows) error {
		mt, err := scanMemberType(rows)
		if err != nil {
			return err
		}
		out = append(out, mt)
		return nil
	})
	return out, err
}

func (s *Store) MemberTypes(ctx context.Context) ([]*model.MemberType, error) {
	out, err := s.memberTypes(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list member types: %w", err)
	}
	return out, nil
}

func (s *Store) MemberType(ctx context.Context, id model.MemberTypeID) (*model.MemberType, error) {
	out, err := s.memberTypes(ctx, " WHERE id = ?", string(id))
	if err != nil {
		return nil, fmt.Errorf("get member type: %w", err)
	}
	if len(out) == 0 {
		return nil, store.NewNotFoundError("member type", id)
	}
	return out[0], nil
}

func (s *Store) MemberTypesByIDs(ctx context.Context, ids []model.MemberTypeID) ([]*model.MemberType, error) {
	out := []*model.MemberType{}
	err := forChunks(ids, func(chunk []model.MemberTypeID) error {
		keys := make([]any, len(chunk))
		for i, id := range chunk {
			keys[i] = string(id)
		}
		found, err := s.memberTypes(ctx, " WHERE id IN "+placeholders(len(chunk)), keys...)
		out = append(out, found...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load member types: %w", err)
	}
	return out, nil
}
