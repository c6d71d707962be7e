package model

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh random entity identifier.
func NewID() string { return uuid.NewString() }

// ParseID accepts a UUID string and returns it in canonical form. Any other
// value, including non-string literals, is rejected.
func ParseID(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("UUID must be a string, got %T", v)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid UUID", s)
	}
	return id.String(), nil
}

// ParseMemberTypeID accepts one of the tier names.
func ParseMemberTypeID(v any) (MemberTypeID, error) {
	var id MemberTypeID
	switch s := v.(type) {
	case string:
		id = MemberTypeID(s)
	case MemberTypeID:
		id = s
	default:
		return "", fmt.Errorf("member type id must be a string, got %T", v)
	}
	if !id.Valid() {
		return "", fmt.Errorf("unknown member type %q", id)
	}
	return id, nil
}
