// Package otel turns lifecycle events from the bus into OpenTelemetry spans.
package otel

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hanpama/membergraph/internal/eventbus"
	"github.com/hanpama/membergraph/internal/events"
	"github.com/hanpama/membergraph/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Setup configures OpenTelemetry and attaches subscribers to bus.
// If endpoint is empty, no telemetry is configured.
func Setup(bus *eventbus.Bus, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Register(bus, tp.Tracer("membergraph"))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // rid -> trace.Span
	gqlSpans  sync.Map // rid -> trace.Span
}

// Register subscribes span handlers to bus and returns a function removing
// them.
func Register(bus *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register(bus)
}

// parent returns ctx carrying the innermost open span of its request.
func (s *subscriber) parent(ctx context.Context) context.Context {
	rid, _ := reqid.FromContext(ctx)
	if v, ok := s.gqlSpans.Load(rid); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	if v, ok := s.httpSpans.Load(rid); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}

// finished records a span that already ended, backdated by d.
func (s *subscriber) finished(ctx context.Context, name string, d time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := s.tracer.Start(s.parent(ctx), name,
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}

func (s *subscriber) register(b *eventbus.Bus) func() {
	unsubs := []func(){
		eventbus.SubscribeTo(b, func(ctx context.Context, e events.HTTPStart) {
			_, span := s.tracer.Start(ctx, "http.request")
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				attribute.String("http.target", e.Request.URL.Path),
				attribute.String("http.request_id", e.RequestID),
			)
			s.httpSpans.Store(e.RequestID, span)
		}),

		eventbus.SubscribeTo(b, func(_ context.Context, e events.HTTPFinish) {
			v, ok := s.httpSpans.LoadAndDelete(e.RequestID)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				semconv.HTTPStatusCodeKey.Int(e.Status),
				attribute.Int("graphql.operation_count", e.Operations),
			)
			if e.Status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(e.Status))
			}
			span.End()
		}),

		eventbus.SubscribeTo(b, func(ctx context.Context, e events.GraphQLStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx), "graphql.operation")
			span.SetAttributes(
				attribute.String("graphql.operation.name", e.OperationName),
				attribute.String("graphql.operation.type", e.OperationType),
			)
			s.gqlSpans.Store(rid, span)
		}),

		eventbus.SubscribeTo(b, func(ctx context.Context, e events.GraphQLFinish) {
			if e.Rejected {
				s.finished(ctx, "graphql.validate", e.Duration, nil,
					attribute.String("graphql.operation.name", e.OperationName),
					attribute.Int("graphql.depth", e.Depth),
					attribute.Int("graphql.error_count", len(e.Errors)),
				)
				return
			}
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.gqlSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.Int("graphql.depth", e.Depth),
				attribute.Int("graphql.error_count", len(e.Errors)),
			)
			span.End()
		}),

		eventbus.SubscribeTo(b, func(ctx context.Context, e events.LoaderDispatch) {
			s.finished(ctx, "loader.dispatch", e.Duration, e.Err,
				attribute.String("loader.name", e.Loader),
				attribute.Int("loader.keys", e.Keys),
			)
		}),

		eventbus.SubscribeTo(b, func(ctx context.Context, e events.StoreQueryFinish) {
			s.finished(ctx, "store."+e.Operation, e.Duration, e.Err,
				semconv.DBSQLTableKey.String(e.Table),
				semconv.DBStatementKey.String(e.Statement),
				attribute.Int("db.rows", e.Rows),
			)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
