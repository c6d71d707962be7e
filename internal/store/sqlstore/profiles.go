package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
)

const profileColumns = "id, is_male, year_of_birth, user_id, member_type_id"

func (s *Store) profiles(ctx context.Context, where string, args ...any) ([]*model.Profile, error) {
	out := []*model.Profile{}
	err := s.query(ctx, "profiles", "SELECT "+profileColumns+" FROM profiles"+where+" ORDER BY id", args, func(rows *sql.Rows) error {
		p := &model.Profile{}
		var memberType string
		if err := rows.Scan(&p.ID, &p.IsMale, &p.YearOfBirth, &p.UserID, &memberType); err != nil {
			return err
		}
		p.MemberTypeID = model.MemberTypeID(memberType)
		out = append(out, p)
		return nil
	})
	return out, err
}

func (s *Store) Profiles(ctx context.Context) ([]*model.Profile, error) {
	out, err := s.profiles(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

func (s *Store) Profile(ctx context.Context, id string) (*model.Profile, error) {
	out, err := s.profiles(ctx, " WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if len(out) == 0 {
		return nil, store.NewNotFoundError("profile", id)
	}
	return out[0], nil
}

func (s *Store) ProfilesByUsers(ctx context.Context, userIDs []string) ([]*model.Profile, error) {
	out := []*model.Profile{}
	err := forChunks(userIDs, func(chunk []string) error {
		found, err := s.profiles(ctx, " WHERE user_id IN "+placeholders(len(chunk)), anySlice(chunk)...)
		out = append(out, found...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return out, nil
}

func (s *Store) CreateProfile(ctx context.Context, in model.CreateProfileInput) (*model.Profile, error) {
	p := &model.Profile{
		ID:           model.NewID(),
		IsMale:       in.IsMale,
		YearOfBirth:  in.YearOfBirth,
		UserID:       in.UserID,
		MemberTypeID: in.MemberTypeID,
	}
	_, err := s.exec(ctx, "insert", "profiles",
		"INSERT INTO profiles ("+profileColumns+") VALUES (?, ?, ?, ?, ?)",
		p.ID, p.IsMale, p.YearOfBirth, p.UserID, string(p.MemberTypeID))
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, in model.ChangeProfileInput) (*model.Profile, error) {
	var set setClause
	if in.IsMale != nil {
		set.add("is_male", *in.IsMale)
	}
	if in.YearOfBirth != nil {
		set.add("year_of_birth", *in.YearOfBirth)
	}
	if in.MemberTypeID != nil {
		set.add("member_type_id", string(*in.MemberTypeID))
	}
	if err := s.update(ctx, "profiles", "profile", id, set); err != nil {
		return nil, err
	}
	return s.Profile(ctx, id)
}

func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	return s.remove(ctx, "profiles", "profile", id)
}
