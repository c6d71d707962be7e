package server

import (
	"net/http"
)

// Routes holds the handlers mounted by NewMux.
type Routes struct {
	GraphQL http.Handler
	// SDL is served at /schema.graphql.
	SDL string
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// NewMux mounts the GraphQL endpoint at /graphql and /, plus the schema,
// metrics and health endpoints.
func NewMux(rt Routes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/graphql", rt.GraphQL)
	mux.Handle("/{$}", rt.GraphQL)
	mux.HandleFunc("GET /schema.graphql", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/graphql; charset=utf-8")
		_, _ = w.Write([]byte(rt.SDL))
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}
	return mux
}
