package executor_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/membergraph/internal/executor"
	language "github.com/hanpama/membergraph/internal/language"
	schema "github.com/hanpama/membergraph/internal/schema"
)

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	require.NoError(t, err)
	return d
}

// mustSchema loads sdl and marks the listed "Type.field" entries async.
func mustSchema(t *testing.T, sdl string, async ...string) *schema.Schema {
	t.Helper()
	_, s, err := schema.Load("test.graphql", sdl)
	require.NoError(t, err)
	for _, key := range async {
		typeName, fieldName, _ := strings.Cut(key, ".")
		f := s.Field(typeName, fieldName)
		require.NotNil(t, f, key)
		f.SetAsync(true)
	}
	return s
}

// prop projects a key off a map source.
func prop(name string) executor.MockResolver {
	return func(_ context.Context, source any, _ map[string]any) (any, error) {
		return source.(map[string]any)[name], nil
	}
}

func run(t *testing.T, s *schema.Schema, rt executor.Runtime, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	return executor.NewExecutor(rt, s).ExecuteRequest(context.Background(), mustParseQuery(t, query), "", vars, nil)
}
