// Package store defines the persistence boundary used by the loaders, the
// root field resolvers and the mutation handlers. Bulk finders take a key
// slice and return every matching record in one call; callers partition the
// result by key.
package store

import (
	"context"

	"github.com/hanpama/membergraph/internal/model"
)

// Related pairs a user with the key it was fetched for. It is the row shape
// of the subscription edge finders, where one key maps to many users.
type Related struct {
	Key  string
	User *model.User
}

// Store is implemented by sqlstore.Store and decorated by Recorder.
// Single-record finders return a NotFoundError when nothing matches.
type Store interface {
	MemberTypes(ctx context.Context) ([]*model.MemberType, error)
	MemberType(ctx context.Context, id model.MemberTypeID) (*model.MemberType, error)
	MemberTypesByIDs(ctx context.Context, ids []model.MemberTypeID) ([]*model.MemberType, error)

	Users(ctx context.Context, include model.UserInclude) ([]*model.User, error)
	User(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, in model.CreateUserInput) (*model.User, error)
	UpdateUser(ctx context.Context, id string, in model.ChangeUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error

	// SubscribedTo returns the authors followed by each subscriber, keyed by
	// subscriber id.
	SubscribedTo(ctx context.Context, subscriberIDs []string) ([]Related, error)
	// Subscribers returns the followers of each author, keyed by author id.
	Subscribers(ctx context.Context, authorIDs []string) ([]Related, error)
	Subscribe(ctx context.Context, sub model.Subscription) error
	Unsubscribe(ctx context.Context, sub model.Subscription) error

	Profiles(ctx context.Context) ([]*model.Profile, error)
	Profile(ctx context.Context, id string) (*model.Profile, error)
	ProfilesByUsers(ctx context.Context, userIDs []string) ([]*model.Profile, error)
	CreateProfile(ctx context.Context, in model.CreateProfileInput) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id string, in model.ChangeProfileInput) (*model.Profile, error)
	DeleteProfile(ctx context.Context, id string) error

	Posts(ctx context.Context) ([]*model.Post, error)
	Post(ctx context.Context, id string) (*model.Post, error)
	PostsByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error)
	CreatePost(ctx context.Context, in model.CreatePostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, id string, in model.ChangePostInput) (*model.Post, error)
	DeletePost(ctx context.Context, id string) error
}
