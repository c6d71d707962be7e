package model

import "fmt"

type CreateUserInput struct {
	Name    string
	Balance float64
}

type CreateProfileInput struct {
	IsMale       bool
	YearOfBirth  int
	UserID       string
	MemberTypeID MemberTypeID
}

type CreatePostInput struct {
	Title    string
	Content  string
	AuthorID string
}

// ChangeUserInput is a partial update; nil fields are left untouched.
type ChangeUserInput struct {
	Name    *string
	Balance *float64
}

func (in ChangeUserInput) IsEmpty() bool { return in.Name == nil && in.Balance == nil }

// ChangeProfileInput is a partial update; nil fields are left untouched.
type ChangeProfileInput struct {
	IsMale       *bool
	YearOfBirth  *int
	MemberTypeID *MemberTypeID
}

func (in ChangeProfileInput) IsEmpty() bool {
	return in.IsMale == nil && in.YearOfBirth == nil && in.MemberTypeID == nil
}

// ChangePostInput is a partial update; nil fields are left untouched.
type ChangePostInput struct {
	Title   *string
	Content *string
}

func (in ChangePostInput) IsEmpty() bool { return in.Title == nil && in.Content == nil }

// The decoders below read coerced argument maps produced by the executor.
// Absent keys and explicit nulls both leave patch fields nil.

func DecodeCreateUserInput(m map[string]any) (in CreateUserInput, err error) {
	if in.Name, err = required[string](m, "name"); err != nil {
		return in, err
	}
	in.Balance, err = required[float64](m, "balance")
	return in, err
}

func DecodeCreateProfileInput(m map[string]any) (in CreateProfileInput, err error) {
	if in.IsMale, err = required[bool](m, "isMale"); err != nil {
		return in, err
	}
	if in.YearOfBirth, err = required[int](m, "yearOfBirth"); err != nil {
		return in, err
	}
	if in.UserID, err = required[string](m, "userId"); err != nil {
		return in, err
	}
	mt, err := required[string](m, "memberTypeId")
	if err != nil {
		return in, err
	}
	if in.MemberTypeID, err = ParseMemberTypeID(mt); err != nil {
		return in, &InputError{Field: "memberTypeId", Err: err}
	}
	return in, nil
}

func DecodeCreatePostInput(m map[string]any) (in CreatePostInput, err error) {
	if in.Title, err = required[string](m, "title"); err != nil {
		return in, err
	}
	if in.Content, err = required[string](m, "content"); err != nil {
		return in, err
	}
	in.AuthorID, err = required[string](m, "authorId")
	return in, err
}

func DecodeChangeUserInput(m map[string]any) (in ChangeUserInput, err error) {
	if in.Name, err = optional[string](m, "name"); err != nil {
		return in, err
	}
	in.Balance, err = optional[float64](m, "balance")
	return in, err
}

func DecodeChangeProfileInput(m map[string]any) (in ChangeProfileInput, err error) {
	if in.IsMale, err = optional[bool](m, "isMale"); err != nil {
		return in, err
	}
	if in.YearOfBirth, err = optional[int](m, "yearOfBirth"); err != nil {
		return in, err
	}
	mt, err := optional[string](m, "memberTypeId")
	if err != nil || mt == nil {
		return in, err
	}
	id, err := ParseMemberTypeID(*mt)
	if err != nil {
		return in, &InputError{Field: "memberTypeId", Err: err}
	}
	in.MemberTypeID = &id
	return in, nil
}

func DecodeChangePostInput(m map[string]any) (in ChangePostInput, err error) {
	if in.Title, err = optional[string](m, "title"); err != nil {
		return in, err
	}
	in.Content, err = optional[string](m, "content")
	return in, err
}

func required[T any](m map[string]any, key string) (T, error) {
	var zero T
	v, ok := m[key]
	if !ok || v == nil {
		return zero, &InputError{Field: key, Err: fmt.Errorf("value is required")}
	}
	t, ok := v.(T)
	if !ok {
		return zero, &InputError{Field: key, Err: fmt.Errorf("expected %T, got %T", zero, v)}
	}
	return t, nil
}

func optional[T any](m map[string]any, key string) (*T, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return nil, &InputError{Field: key, Err: fmt.Errorf("expected %T, got %T", zero, v)}
	}
	return &t, nil
}
