package resolve

import (
	"fmt"

	"github.com/hanpama/membergraph/internal/entity"
	"github.com/hanpama/membergraph/internal/loaders"
	"github.com/hanpama/membergraph/internal/model"
)

// deferred is a relation value readable after the loaders were dispatched.
type deferred struct {
	index int
	get   func() (any, error)
}

func ready(v any) func() (any, error) {
	return func() (any, error) { return v, nil }
}

func thunk[V any](get func() (V, error)) func() (any, error) {
	return func() (any, error) { return get() }
}

// enqueue registers the key of one relation field on its loader. Relations
// already eager-loaded on the parent are returned as is.
func (r *Runtime) enqueue(ls *loaders.Loaders, rel entity.Relation, source any) (func() (any, error), error) {
	switch src := source.(type) {
	case *model.User:
		switch rel.Loader {
		case loaders.ProfileByUserName:
			if p, err := src.Edges.ProfileOrErr(); err == nil {
				return ready(p), nil
			}
			return thunk(ls.ProfileByUser.Load(src.ID).Get), nil
		case loaders.PostsByAuthorName:
			if posts, err := src.Edges.PostsOrErr(); err == nil {
				return ready(posts), nil
			}
			return thunk(ls.PostsByAuthor.Load(src.ID).Get), nil
		case loaders.SubscribedToBySubscriberName:
			if users, err := src.Edges.UserSubscribedToOrErr(); err == nil {
				return ready(users), nil
			}
			return thunk(ls.SubscribedToBySubscriber.Load(src.ID).Get), nil
		case loaders.SubscribersByAuthorName:
			if users, err := src.Edges.SubscribedToUserOrErr(); err == nil {
				return ready(users), nil
			}
			return thunk(ls.SubscribersByAuthor.Load(src.ID).Get), nil
		}
	case *model.Profile:
		if rel.Loader == loaders.MemberTypeByIDName {
			return thunk(ls.MemberTypeByID.Load(src.MemberTypeID).Get), nil
		}
	}
	return nil, fmt.Errorf("resolve: no loader %q for %s.%s on %T", rel.Loader, rel.Owner, rel.Field, source)
}
