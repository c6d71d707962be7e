// Package resolve is the executor Runtime of the entity graph. It projects
// scalar fields off loaded records, resolves relation fields through the
// request's loaders (or the include set eager-loaded by root users), and
// runs the mutation handlers.
package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanpama/membergraph/internal/entity"
	"github.com/hanpama/membergraph/internal/executor"
	"github.com/hanpama/membergraph/internal/loaders"
	"github.com/hanpama/membergraph/internal/store"
)

// Runtime implements executor.Runtime.
type Runtime struct {
	graph  *entity.Graph
	store  store.Store
	logger *slog.Logger
}

var _ executor.Runtime = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for internal errors.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Runtime over graph and st.
func New(graph *entity.Graph, st store.Store, opts ...Option) *Runtime {
	r := &Runtime{graph: graph, store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveSync resolves mutation root fields and scalar fields.
func (r *Runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	if objectType == entity.MutationType {
		v, err := r.mutate(ctx, field, args)
		if err != nil {
			return nil, r.graphQLError(ctx, objectType+"."+field, err)
		}
		if ls, ok := loaders.FromContext(ctx); ok {
			ls.ClearAll()
		}
		return v, nil
	}
	return project(objectType, field, source)
}

// BatchResolveAsync resolves one depth of relation fields. Root fields call
// the store concurrently; every other relation enqueues its key on a loader,
// and all loaders are flushed once before the results are read back.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))

	ls, ok := loaders.FromContext(ctx)
	if !ok {
		ls = loaders.New(r.store)
	}

	var (
		roots   []int
		pending []deferred
	)
	for i, t := range tasks {
		rel, ok := r.graph.Relation(t.ObjectType, t.Field)
		if !ok {
			results[i].Error = fmt.Errorf("resolve: %s.%s is not a relation field", t.ObjectType, t.Field)
			continue
		}
		if rel.Strategy == entity.Direct {
			roots = append(roots, i)
			continue
		}
		d, err := r.enqueue(ls, rel, t.Source)
		if err != nil {
			results[i].Error = err
			continue
		}
		pending = append(pending, deferred{index: i, get: d})
	}

	r.resolveRoots(ctx, tasks, roots, results)

	if len(pending) == 0 {
		return results
	}
	// Dispatch errors also reach each affected thunk, so they are read back
	// per element below.
	_ = ls.Dispatch(ctx)
	for _, d := range pending {
		t := tasks[d.index]
		v, err := d.get()
		if err != nil {
			results[d.index].Error = r.graphQLError(ctx, t.ObjectType+"."+t.Field, err)
			continue
		}
		results[d.index].Value = v
	}
	return results
}

// SerializeLeafValue converts scalars and enums to their JSON form.
func (r *Runtime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	return serializeLeaf(typeName, value)
}
