package resolve

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hanpama/membergraph/internal/entity"
	"github.com/hanpama/membergraph/internal/executor"
	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/projection"
	"github.com/hanpama/membergraph/internal/store"
)

// resolveRoots runs the root query fields at indices concurrently, writing
// into results.
func (r *Runtime) resolveRoots(ctx context.Context, tasks []executor.AsyncResolveTask, indices []int, results []executor.AsyncResolveResult) {
	if len(indices) == 0 {
		return
	}
	var g errgroup.Group
	for _, i := range indices {
		g.Go(func() error {
			t := tasks[i]
			v, err := r.root(ctx, t)
			if err != nil {
				results[i].Error = r.graphQLError(ctx, t.ObjectType+"."+t.Field, err)
				return nil
			}
			results[i].Value = v
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runtime) root(ctx context.Context, t executor.AsyncResolveTask) (any, error) {
	switch t.Field {
	case "memberTypes":
		return r.store.MemberTypes(ctx)
	case "memberType":
		id, err := model.ParseMemberTypeID(t.Args["id"])
		if err != nil {
			return nil, err
		}
		return nullIfMissing(r.store.MemberType(ctx, id))
	case "users":
		return r.store.Users(ctx, r.usersInclude(t))
	case "user":
		return nullIfMissing(r.store.User(ctx, argID(t.Args)))
	case "posts":
		return r.store.Posts(ctx)
	case "post":
		return nullIfMissing(r.store.Post(ctx, argID(t.Args)))
	case "profiles":
		return r.store.Profiles(ctx)
	case "profile":
		return nullIfMissing(r.store.Profile(ctx, argID(t.Args)))
	}
	return nil, fmt.Errorf("resolve: unknown root field %s", t.Field)
}

// usersInclude intersects the selection under root users with the User
// relation fields.
func (r *Runtime) usersInclude(t executor.AsyncResolveTask) model.UserInclude {
	selected := projection.Collect(t.Fields, t.Fragments, entity.UserType)
	return model.IncludeFor(selected.Intersect(r.graph.RelationFields(entity.UserType)))
}

// nullIfMissing maps a NotFoundError of a nullable single root field to null.
func nullIfMissing[T any](v *T, err error) (any, error) {
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func argID(args map[string]any) string {
	id, _ := args["id"].(string)
	return id
}
