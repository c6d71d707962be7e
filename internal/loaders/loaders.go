// Package loaders wires the relation loaders of one request to the store.
package loaders

import (
	"context"

	"github.com/hanpama/membergraph/internal/dataloader"
	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
)

// Loader names, as registered in the Registry.
const (
	PostsByAuthorName            = "posts-by-author"
	MemberTypeByIDName           = "memberType-by-id"
	ProfileByUserName            = "profile-by-user"
	SubscribedToBySubscriberName = "subscribedTo-by-subscriber"
	SubscribersByAuthorName      = "subscribers-by-author"
)

// Loaders holds the typed relation loaders of a single request.
type Loaders struct {
	PostsByAuthor            *dataloader.Loader[string, []*model.Post]
	MemberTypeByID           *dataloader.Loader[model.MemberTypeID, *model.MemberType]
	ProfileByUser            *dataloader.Loader[string, *model.Profile]
	SubscribedToBySubscriber *dataloader.Loader[string, []*model.User]
	SubscribersByAuthor      *dataloader.Loader[string, []*model.User]

	registry *dataloader.Registry
}

// New builds a fresh set of loaders backed by st. Callers create one per
// request and drop it when the request ends.
func New(st store.Store, opts ...dataloader.Option) *Loaders {
	ls := &Loaders{
		PostsByAuthor: dataloader.New(PostsByAuthorName,
			func(ctx context.Context, ids []string) ([][]*model.Post, []error) {
				posts, err := st.PostsByAuthors(ctx, ids)
				if err != nil {
					return nil, []error{err}
				}
				groups := dataloader.GroupByKey(posts, func(p *model.Post) string { return p.AuthorID })
				return dataloader.OrderGroupsByKeys(ids, groups), nil
			}, opts...),
		MemberTypeByID: dataloader.New(MemberTypeByIDName,
			func(ctx context.Context, ids []model.MemberTypeID) ([]*model.MemberType, []error) {
				mts, err := st.MemberTypesByIDs(ctx, ids)
				if err != nil {
					return nil, []error{err}
				}
				return dataloader.OrderByKeys(ids, mts, func(mt *model.MemberType) model.MemberTypeID { return mt.ID }), nil
			}, opts...),
		ProfileByUser: dataloader.New(ProfileByUserName,
			func(ctx context.Context, ids []string) ([]*model.Profile, []error) {
				profiles, err := st.ProfilesByUsers(ctx, ids)
				if err != nil {
					return nil, []error{err}
				}
				return dataloader.OrderByKeys(ids, profiles, func(p *model.Profile) string { return p.UserID }), nil
			}, opts...),
		SubscribedToBySubscriber: dataloader.New(SubscribedToBySubscriberName,
			relatedBatch(st.SubscribedTo), opts...),
		SubscribersByAuthor: dataloader.New(SubscribersByAuthorName,
			relatedBatch(st.Subscribers), opts...),
		registry: dataloader.NewRegistry(),
	}
	for _, d := range []dataloader.Dispatcher{
		ls.PostsByAuthor,
		ls.MemberTypeByID,
		ls.ProfileByUser,
		ls.SubscribedToBySubscriber,
		ls.SubscribersByAuthor,
	} {
		ls.registry.MustRegister(d)
	}
	return ls
}

func relatedBatch(find func(context.Context, []string) ([]store.Related, error)) dataloader.BatchFunc[string, []*model.User] {
	return func(ctx context.Context, ids []string) ([][]*model.User, []error) {
		related, err := find(ctx, ids)
		if err != nil {
			return nil, []error{err}
		}
		groups := make(map[string][]*model.User, len(ids))
		for _, r := range related {
			groups[r.Key] = append(groups[r.Key], r.User)
		}
		return dataloader.OrderGroupsByKeys(ids, groups), nil
	}
}

// Registry exposes the underlying registry.
func (ls *Loaders) Registry() *dataloader.Registry { return ls.registry }

// Pending returns the number of keys waiting across all loaders.
func (ls *Loaders) Pending() int { return ls.registry.Pending() }

// Dispatch flushes every loader with pending keys.
func (ls *Loaders) Dispatch(ctx context.Context) error { return ls.registry.DispatchAll(ctx) }

// ClearAll drops cached results, used after a write.
func (ls *Loaders) ClearAll() { ls.registry.ClearAll() }

type ctxKey struct{}

// NewContext returns a copy of ctx carrying ls.
func NewContext(ctx context.Context, ls *Loaders) context.Context {
	return context.WithValue(ctx, ctxKey{}, ls)
}

// FromContext returns the loaders carried by ctx.
func FromContext(ctx context.Context) (*Loaders, bool) {
	ls, ok := ctx.Value(ctxKey{}).(*Loaders)
	return ls, ok
}
