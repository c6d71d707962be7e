package dataloader

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Dispatcher is the untyped view of a Loader held by a Registry.
type Dispatcher interface {
	Name() string
	Pending() int
	Dispatch(ctx context.Context) error
	ClearAll()
}

// Registry owns the loaders of one request and flushes them together.
type Registry struct {
	mu      sync.Mutex
	loaders []Dispatcher
	byName  map[string]Dispatcher

	// serializes DispatchAll
	dispatchMu sync.Mutex
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Dispatcher)}
}

// Register adds d. Names must be unique within a registry.
func (r *Registry) Register(d Dispatcher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[d.Name()]; ok {
		return fmt.Errorf("dataloader: loader %q already registered", d.Name())
	}
	r.byName[d.Name()] = d
	r.loaders = append(r.loaders, d)
	return nil
}

// MustRegister is like Register but panics if the name is taken.
func (r *Registry) MustRegister(d Dispatcher) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup returns the loader registered under name.
func (r *Registry) Lookup(name string) (Dispatcher, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byName[name]
	return d, ok
}

// Pending sums the pending keys of every loader.
func (r *Registry) Pending() int {
	n := 0
	for _, d := range r.snapshot() {
		n += d.Pending()
	}
	return n
}

// DispatchAll flushes every loader that has pending keys. Loaders are
// independent, so their batches run concurrently. Every thunk is completed
// before DispatchAll returns, including on error.
func (r *Registry) DispatchAll(ctx context.Context) error {
	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()

	var g errgroup.Group
	for _, d := range r.snapshot() {
		if d.Pending() == 0 {
			continue
		}
		g.Go(func() error { return d.Dispatch(ctx) })
	}
	return g.Wait()
}

// ClearAll empties the cache of every loader.
func (r *Registry) ClearAll() {
	for _, d := range r.snapshot() {
		d.ClearAll()
	}
}

func (r *Registry) snapshot() []Dispatcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Dispatcher(nil), r.loaders...)
}
