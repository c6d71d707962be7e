// Package dataloader coalesces single-key lookups into bulk fetches.
//
// A Loader collects the keys passed to Load into a pending batch and hands
// the distinct keys to its BatchFunc when Dispatch is called. Every call to
// Load returns a Thunk; repeated keys share the same Thunk, and completed
// keys stay cached for the lifetime of the Loader. Loaders are meant to live
// for a single request.
package dataloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hanpama/membergraph/internal/eventbus"
	"github.com/hanpama/membergraph/internal/events"
)

// ErrNotDispatched is returned by Thunk.Get when the batch holding the key
// has not been dispatched yet.
var ErrNotDispatched = errors.New("dataloader: value requested before dispatch")

// BatchFunc fetches the values for keys. It must return one value per key in
// key order. The error slice may be nil, hold a single error that applies to
// every key, or hold one error per key.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, []error)

// Thunk is the deferred result of a Load.
type Thunk[V any] struct {
	done  chan struct{}
	value V
	err   error
}

func newThunk[V any]() *Thunk[V] { return &Thunk[V]{done: make(chan struct{})} }

// Get returns the loaded value. It does not block; callers read thunks after
// dispatching the loader.
func (t *Thunk[V]) Get() (V, error) {
	select {
	case <-t.done:
		return t.value, t.err
	default:
		var zero V
		return zero, ErrNotDispatched
	}
}

// Done reports whether the thunk has a result.
func (t *Thunk[V]) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Thunk[V]) complete(v V, err error) {
	t.value, t.err = v, err
	close(t.done)
}

// Option configures a Loader.
type Option func(*config)

type config struct {
	maxBatch int
}

// WithMaxBatch splits dispatched keys into bulk calls of at most n keys.
// Zero means unlimited.
func WithMaxBatch(n int) Option {
	return func(c *config) { c.maxBatch = n }
}

// Loader batches and caches lookups of V by K.
type Loader[K comparable, V any] struct {
	name  string
	fetch BatchFunc[K, V]
	cfg   config

	mu      sync.Mutex
	cache   map[K]*Thunk[V]
	pending []K
}

// New creates a Loader. name identifies the loader in a Registry and in
// dispatch events.
func New[K comparable, V any](name string, fetch BatchFunc[K, V], opts ...Option) *Loader[K, V] {
	l := &Loader[K, V]{
		name:  name,
		fetch: fetch,
		cache: make(map[K]*Thunk[V]),
	}
	for _, opt := range opts {
		opt(&l.cfg)
	}
	return l
}

func (l *Loader[K, V]) Name() string { return l.name }

// Load returns the thunk for key, enqueuing the key if it is neither cached
// nor already pending.
func (l *Loader[K, V]) Load(key K) *Thunk[V] {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.cache[key]; ok {
		return t
	}
	t := newThunk[V]()
	l.cache[key] = t
	l.pending = append(l.pending, key)
	return t
}

// LoadMany calls Load for each key and returns the thunks in key order.
func (l *Loader[K, V]) LoadMany(keys []K) []*Thunk[V] {
	out := make([]*Thunk[V], len(keys))
	for i, k := range keys {
		out[i] = l.Load(k)
	}
	return out
}

// Pending returns the number of distinct keys waiting for dispatch.
func (l *Loader[K, V]) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Prime stores a completed value for key unless the key is already known.
// It reports whether the value was stored.
func (l *Loader[K, V]) Prime(key K, value V) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[key]; ok {
		return false
	}
	t := newThunk[V]()
	t.complete(value, nil)
	l.cache[key] = t
	return true
}

// Clear drops key from the cache. Pending keys are not affected.
func (l *Loader[K, V]) Clear(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.cache[key]; ok && t.Done() {
		delete(l.cache, key)
	}
}

// ClearAll drops every completed entry from the cache.
func (l *Loader[K, V]) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, t := range l.cache {
		if t.Done() {
			delete(l.cache, k)
		}
	}
}

// Dispatch fetches every pending key and completes the waiting thunks. Keys
// that fail are evicted so a later Load retries them. The returned error is
// the first batch-wide failure, if any.
func (l *Loader[K, V]) Dispatch(ctx context.Context) error {
	l.mu.Lock()
	keys := l.pending
	l.pending = nil
	thunks := make([]*Thunk[V], len(keys))
	for i, k := range keys {
		thunks[i] = l.cache[k]
	}
	l.mu.Unlock()

	if len(keys) == 0 {
		return nil
	}

	size := len(keys)
	if l.cfg.maxBatch > 0 {
		size = l.cfg.maxBatch
	}
	var first error
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		if err := l.run(ctx, keys[start:end], thunks[start:end]); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (l *Loader[K, V]) run(ctx context.Context, keys []K, thunks []*Thunk[V]) error {
	start := time.Now()
	values, errs := l.fetch(ctx, keys)

	var batchErr error
	switch {
	case len(errs) == 1 && len(keys) > 1:
		batchErr, errs = errs[0], nil
	case len(errs) > 0 && len(errs) != len(keys):
		batchErr = fmt.Errorf("dataloader %s: batch returned %d errors for %d keys", l.name, len(errs), len(keys))
	}
	if batchErr == nil && len(values) != len(keys) {
		batchErr = firstError(errs)
		if batchErr == nil {
			batchErr = fmt.Errorf("dataloader %s: batch returned %d values for %d keys", l.name, len(values), len(keys))
		}
	}

	var failed []int
	for i, t := range thunks {
		var (
			v   V
			err = batchErr
		)
		if err == nil {
			v = values[i]
			if len(errs) > 0 {
				err = errs[i]
			}
		}
		if err != nil {
			failed = append(failed, i)
		}
		t.complete(v, err)
	}

	if len(failed) > 0 {
		l.mu.Lock()
		for _, i := range failed {
			if l.cache[keys[i]] == thunks[i] {
				delete(l.cache, keys[i])
			}
		}
		l.mu.Unlock()
	}

	eventbus.Publish(ctx, events.LoaderDispatch{
		Loader:   l.name,
		Keys:     len(keys),
		Err:      batchErr,
		Duration: time.Since(start),
	})
	return batchErr
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
