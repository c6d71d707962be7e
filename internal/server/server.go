// Package server exposes the gateway over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/hanpama/membergraph/internal/eventbus"
	"github.com/hanpama/membergraph/internal/events"
	"github.com/hanpama/membergraph/internal/gateway"
	"github.com/hanpama/membergraph/internal/reqid"
)

// Executor runs a single GraphQL request. *gateway.Gateway implements it.
type Executor interface {
	Execute(ctx context.Context, req gateway.Request) *gateway.Response
}

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the gateway, and writes GraphQL responses.
type Handler struct {
	exec   Executor
	opt    Options
	logger *slog.Logger
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	Logger *slog.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a new GraphQL HTTP handler over exec.
func New(exec Executor, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	logger := op.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{exec: exec, opt: op, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, rid := reqid.FromRequest(r)
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	w.Header().Set(reqid.Header, rid)

	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{RequestID: rid, Request: r})
	status, ops := h.serve(ctx, w, r)
	elapsed := time.Since(start)
	eventbus.Publish(ctx, events.HTTPFinish{
		RequestID:  rid,
		Request:    r,
		Status:     status,
		Operations: ops,
		Duration:   elapsed,
	})
	h.logger.DebugContext(ctx, "http request",
		slog.String("request_id", rid),
		slog.String("method", r.Method),
		slog.Int("status", status),
		slog.Int("operations", ops),
		slog.Duration("duration", elapsed),
	)
}

// serve writes the response and reports the status code and the number of
// operations executed.
func (h *Handler) serve(ctx context.Context, w http.ResponseWriter, r *http.Request) (int, int) {
	cors := len(h.opt.CORS.AllowedOrigins) > 0
	switch r.Method {
	case http.MethodOptions:
		if cors {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		w.WriteHeader(http.StatusNoContent)
		return http.StatusNoContent, 0
	case http.MethodGet, http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, gateway.ErrorResponse("method not allowed"), h.opt.Pretty)
		return http.StatusMethodNotAllowed, 0
	}

	req, batch, rerr := parseRequest(r, h.opt.MaxBodyBytes)
	if rerr != nil {
		writeJSON(w, rerr.status, gateway.ErrorResponse(rerr.msg), h.opt.Pretty)
		return rerr.status, 0
	}
	if cors {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch == nil {
		writeJSON(w, http.StatusOK, h.exec.Execute(ctx, req), h.opt.Pretty)
		return http.StatusOK, 1
	}
	// Batched operations share the request context and run in order.
	out := make([]*gateway.Response, len(batch))
	for i := range batch {
		out[i] = h.exec.Execute(ctx, batch[i])
	}
	writeJSON(w, http.StatusOK, out, h.opt.Pretty)
	return http.StatusOK, len(batch)
}

// requestError is a malformed request reported before any operation runs.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

// parseRequest decodes a single request or, for a JSON array body, a batch.
func parseRequest(r *http.Request, maxBody int64) (gateway.Request, []gateway.Request, *requestError) {
	if r.Method == http.MethodGet {
		req, err := parseQueryString(r)
		return req, nil, err
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return gateway.Request{}, nil, &requestError{status: http.StatusUnsupportedMediaType, msg: "unsupported Content-Type"}
	}
	defer r.Body.Close()
	var reader io.Reader = r.Body
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return gateway.Request{}, nil, badRequest("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return gateway.Request{}, nil, &requestError{status: http.StatusRequestEntityTooLarge, msg: "body too large"}
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []gateway.Request
		if err := json.Unmarshal(body, &batch); err != nil {
			return gateway.Request{}, nil, badRequest("invalid JSON")
		}
		if len(batch) == 0 {
			return gateway.Request{}, nil, badRequest("empty batch")
		}
		return gateway.Request{}, batch, nil
	}
	var req gateway.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return gateway.Request{}, nil, badRequest("invalid JSON")
	}
	if req.Query == "" {
		return gateway.Request{}, nil, badRequest("missing 'query'")
	}
	return req, nil, nil
}

func parseQueryString(r *http.Request) (gateway.Request, *requestError) {
	params := r.URL.Query()
	req := gateway.Request{
		Query:         params.Get("query"),
		OperationName: params.Get("operationName"),
	}
	if req.Query == "" {
		return req, badRequest("missing 'query'")
	}
	if v := params.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
			return req, badRequest("invalid 'variables' JSON")
		}
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	wildcard := slices.Contains(opts.AllowedOrigins, "*")
	switch {
	case wildcard:
		w.Header().Set("Access-Control-Allow-Origin", "*")
	case slices.Contains(opts.AllowedOrigins, origin):
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	default:
		return
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	}
}
