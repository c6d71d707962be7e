package executor

import (
	"context"

	language "github.com/hanpama/membergraph/internal/language"
)

// Runtime is the host integration surface used by the Executor.
//
// The Executor runs breadth-first. At each depth it drains synchronous fields
// through ResolveSync, then calls BatchResolveAsync once with every async
// field collected at that depth. The next depth starts only after the batch
// returns and its results are completed. A runtime that defers work (for
// example behind loaders) can therefore flush all of a depth's pending work
// inside a single BatchResolveAsync call.
//
// Errors returned from any method become located GraphQL errors. When the
// error wraps a *language.Error its message and extensions are kept.
// Implementations must not mutate source or args.
type Runtime interface {
	// ResolveSync resolves a field marked sync. Return (nil, nil) for null.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one depth of async fields. It must return
	// one result per task, results[i] belonging to tasks[i]. Failures are per
	// element.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// SerializeLeafValue converts a scalar or enum value into a JSON-safe Go
	// value. Enums serialize to their name.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

type AsyncResolveTask struct {
	// ObjectType is the parent object type name; the root type for root fields.
	ObjectType string
	// Field is the field name being resolved.
	Field string
	// Source is the parent value, nil for root fields.
	Source any
	// Args are the coerced field arguments.
	Args map[string]any
	// Path is the response path of the field.
	Path Path
	// Fields are the AST nodes merged under this response name. Together
	// with Fragments they describe the requested sub-selection.
	Fields    []*language.Field
	Fragments language.FragmentDefinitionList
}

type AsyncResolveResult struct {
	// Value is the raw value prior to completion, nil on error.
	Value any
	// Error fails this element only.
	Error error
}
