// Package gateway runs one GraphQL request end to end: parse, validate,
// install a fresh loader set, execute, and shape the response.
package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/hanpama/membergraph/internal/dataloader"
	"github.com/hanpama/membergraph/internal/entity"
	"github.com/hanpama/membergraph/internal/eventbus"
	"github.com/hanpama/membergraph/internal/events"
	"github.com/hanpama/membergraph/internal/executor"
	"github.com/hanpama/membergraph/internal/language"
	"github.com/hanpama/membergraph/internal/loaders"
	"github.com/hanpama/membergraph/internal/reqid"
	"github.com/hanpama/membergraph/internal/resolve"
	"github.com/hanpama/membergraph/internal/store"
	"github.com/hanpama/membergraph/internal/validate"
)

// Request is one GraphQL operation request.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

type Options struct {
	// MaxDepth is the selection depth limit; 0 means validate.DefaultMaxDepth.
	MaxDepth int
	// MaxBatch caps the keys of one loader call; 0 means unlimited.
	MaxBatch int
	Logger   *slog.Logger
}

type Option func(*Options)

func WithMaxDepth(n int) Option        { return func(o *Options) { o.MaxDepth = n } }
func WithMaxBatch(n int) Option        { return func(o *Options) { o.MaxBatch = n } }
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Gateway executes requests against the entity graph backed by a store.
type Gateway struct {
	graph  *entity.Graph
	store  store.Store
	gate   *validate.Gate
	exec   *executor.Executor
	opt    Options
	logger *slog.Logger
}

// New returns a Gateway over graph and st.
func New(graph *entity.Graph, st store.Store, opts ...Option) *Gateway {
	op := Options{Logger: slog.Default()}
	for _, f := range opts {
		f(&op)
	}
	rt := resolve.New(graph, st, resolve.WithLogger(op.Logger))
	return &Gateway{
		graph:  graph,
		store:  st,
		gate:   validate.New(graph.Source, validate.WithMaxDepth(op.MaxDepth)),
		exec:   executor.NewExecutor(rt, graph.Schema),
		opt:    op,
		logger: op.Logger,
	}
}

// MaxDepth returns the enforced depth limit.
func (g *Gateway) MaxDepth() int { return g.gate.MaxDepth() }

// Execute runs req. A document that fails to parse or validate is rejected
// with data null and no resolver runs.
func (g *Gateway) Execute(ctx context.Context, req Request) *Response {
	start := time.Now()
	finish := events.GraphQLFinish{Query: req.Query, OperationName: req.OperationName}

	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		resp := errorResponse(language.AsError(err))
		g.reject(ctx, finish, resp, start)
		return resp
	}

	op := operationFor(doc, req.OperationName)
	if op != nil {
		finish.OperationType = string(op.Operation)
		finish.Depth = validate.Depth(op, doc.Fragments)
	}

	if errs := g.gate.Validate(doc); len(errs) > 0 {
		resp := &Response{Errors: make([]Error, len(errs))}
		for i, e := range errs {
			resp.Errors[i] = fromLanguageError(e)
		}
		g.reject(ctx, finish, resp, start)
		return resp
	}

	var lopts []dataloader.Option
	if g.opt.MaxBatch > 0 {
		lopts = append(lopts, dataloader.WithMaxBatch(g.opt.MaxBatch))
	}
	ctx = loaders.NewContext(ctx, loaders.New(g.store, lopts...))

	eventbus.Publish(ctx, events.GraphQLStart{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: finish.OperationType,
	})
	result := g.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)

	resp := fromResult(result)
	finish.Errors = resp.errs()
	finish.Duration = time.Since(start)
	eventbus.Publish(ctx, finish)
	return resp
}

func (g *Gateway) reject(ctx context.Context, finish events.GraphQLFinish, resp *Response, start time.Time) {
	rid, _ := reqid.FromContext(ctx)
	g.logger.InfoContext(ctx, "graphql request rejected",
		slog.String("request_id", rid),
		slog.String("operation", finish.OperationName),
		slog.Int("depth", finish.Depth),
		slog.Int("errors", len(resp.Errors)),
	)
	finish.Rejected = true
	finish.Errors = resp.errs()
	finish.Duration = time.Since(start)
	eventbus.Publish(ctx, finish)
}

// operationFor picks the operation the executor will run, or nil when the
// name does not resolve to exactly one operation.
func operationFor(doc *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" {
		if len(doc.Operations) == 1 {
			return doc.Operations[0]
		}
		return nil
	}
	return doc.Operations.ForName(name)
}
