// Package reqid carries a per-request identifier through context so that
// events emitted by different layers can be correlated.
package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header is the HTTP header used to propagate request IDs.
const Header = "X-Request-Id"

type key struct{}

// NewContext returns a copy of parent with a new random request ID stored.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, string) {
	return WithID(parent, uuid.NewString())
}

// WithID stores id in a copy of parent.
func WithID(parent context.Context, id string) (context.Context, string) {
	return context.WithValue(parent, key{}, id), id
}

// FromRequest reuses an incoming request ID when it is a valid UUID and
// otherwise generates a fresh one.
func FromRequest(r *http.Request) (context.Context, string) {
	if v := r.Header.Get(Header); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			return WithID(r.Context(), v)
		}
	}
	return NewContext(r.Context())
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}
