package resolve

import (
	"context"
	"fmt"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
)

// Status strings returned by the delete and subscription mutations.
const (
	StatusUserDeleted     = "User deleted"
	StatusUserNotFound    = "User not found"
	StatusProfileDeleted  = "Profile deleted"
	StatusProfileNotFound = "Profile not found"
	StatusPostDeleted     = "Post deleted"
	StatusPostNotFound    = "Post not found"
	StatusSubscribed      = "Subscribed"
	StatusUnsubscribed    = "Unsubscribed"
)

func (r *Runtime) mutate(ctx context.Context, field string, args map[string]any) (any, error) {
	switch field {
	case "createUser":
		in, err := model.DecodeCreateUserInput(dto(args))
		if err != nil {
			return nil, err
		}
		return r.store.CreateUser(ctx, in)
	case "createProfile":
		in, err := model.DecodeCreateProfileInput(dto(args))
		if err != nil {
			return nil, err
		}
		return r.store.CreateProfile(ctx, in)
	case "createPost":
		in, err := model.DecodeCreatePostInput(dto(args))
		if err != nil {
			return nil, err
		}
		return r.store.CreatePost(ctx, in)

	case "changeUser":
		in, err := model.DecodeChangeUserInput(dto(args))
		if err != nil {
			return nil, err
		}
		return r.store.UpdateUser(ctx, argID(args), in)
	case "changeProfile":
		in, err := model.DecodeChangeProfileInput(dto(args))
		if err != nil {
			return nil, err
		}
		return r.store.UpdateProfile(ctx, argID(args), in)
	case "changePost":
		in, err := model.DecodeChangePostInput(dto(args))
		if err != nil {
			return nil, err
		}
		return r.store.UpdatePost(ctx, argID(args), in)

	case "deleteUser":
		return deleteIfExists(ctx, argID(args), r.store.User, r.store.DeleteUser,
			StatusUserDeleted, StatusUserNotFound)
	case "deleteProfile":
		return deleteIfExists(ctx, argID(args), r.store.Profile, r.store.DeleteProfile,
			StatusProfileDeleted, StatusProfileNotFound)
	case "deletePost":
		return deleteIfExists(ctx, argID(args), r.store.Post, r.store.DeletePost,
			StatusPostDeleted, StatusPostNotFound)

	case "subscribeTo":
		if err := r.store.Subscribe(ctx, subscription(args)); err != nil {
			return nil, err
		}
		return StatusSubscribed, nil
	case "unsubscribeFrom":
		// No existence check: a missing edge fails in the store.
		if err := r.store.Unsubscribe(ctx, subscription(args)); err != nil {
			return nil, err
		}
		return StatusUnsubscribed, nil
	}
	return nil, fmt.Errorf("resolve: unknown mutation %s", field)
}

// deleteIfExists looks id up first and only deletes a record that exists.
// A missing record is reported through the notFound status, not an error.
func deleteIfExists[T any](
	ctx context.Context,
	id string,
	find func(context.Context, string) (*T, error),
	remove func(context.Context, string) error,
	deleted, notFound string,
) (any, error) {
	if _, err := find(ctx, id); store.IsNotFound(err) {
		return notFound, nil
	} else if err != nil {
		return nil, err
	}
	if err := remove(ctx, id); err != nil {
		return nil, err
	}
	return deleted, nil
}

func dto(args map[string]any) map[string]any {
	m, _ := args["dto"].(map[string]any)
	return m
}

func subscription(args map[string]any) model.Subscription {
	sub, _ := args["userId"].(string)
	author, _ := args["authorId"].(string)
	return model.Subscription{SubscriberID: sub, AuthorID: author}
}
