package executor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/gqlerror"

	executor "github.com/hanpama/membergraph/internal/executor"
)

const blogSDL = `
type Query {
  a: String
  b: String
  authors: [Author!]!
  author(id: ID!): Author
}

type Mutation {
  first: String
  second: String
}

type Author {
  id: ID!
  name: String
  posts: [Post!]!
  best: Post
}

type Post {
  id: ID!
  title: String!
  author: Author!
}
`

func blogRuntime() *executor.MockRuntime {
	authors := []any{
		map[string]any{"id": "1", "name": "ann"},
		map[string]any{"id": "2", "name": "bob"},
		map[string]any{"id": "3", "name": "cy"},
	}
	return executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.a":       executor.NewMockValueResolver("A"),
		"Query.b":       executor.NewMockValueResolver("B"),
		"Query.authors": executor.NewMockValueResolver(authors),
		"Author.id":     prop("id"),
		"Author.name":   prop("name"),
		"Author.posts": func(_ context.Context, source any, _ map[string]any) (any, error) {
			id := source.(map[string]any)["id"].(string)
			return []any{map[string]any{"id": "p" + id, "title": "t" + id}}, nil
		},
		"Post.id":    prop("id"),
		"Post.title": prop("title"),
	})
}

func TestSyncFieldsResolveInlineAndAsyncFieldsBatch(t *testing.T) {
	s := mustSchema(t, blogSDL, "Query.b")
	rt := blogRuntime()

	got := run(t, s, rt, "{ a b }", nil)

	want := &executor.ExecutionResult{
		Data:   map[string]any{"a": "A", "b": "B"},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []executor.Call{
		{Kind: "sync", ObjectType: "Query", Field: "a", Args: map[string]any{}},
		{Kind: "async", ObjectType: "Query", Field: "b", Args: map[string]any{}, BatchID: 1},
	}
	if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestOneBatchPerAsyncDepth(t *testing.T) {
	s := mustSchema(t, blogSDL, "Query.authors", "Author.posts")
	rt := blogRuntime()

	got := run(t, s, rt, "{ authors { name posts { title } } }", nil)
	require.Empty(t, got.Errors)

	want := map[string]any{"authors": []any{
		map[string]any{"name": "ann", "posts": []any{map[string]any{"title": "t1"}}},
		map[string]any{"name": "bob", "posts": []any{map[string]any{"title": "t2"}}},
		map[string]any{"name": "cy", "posts": []any{map[string]any{"title": "t3"}}},
	}}
	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	batches := rt.Batches()
	require.Len(t, batches, 2)
	require.Len(t, batches[0], 1)
	require.Len(t, batches[1], 3)
	for i, task := range batches[1] {
		require.Equal(t, "posts", task.Field)
		require.Equal(t, executor.Path{"authors", i, "posts"}, task.Path)
	}
}

func TestAsyncTaskCarriesSelection(t *testing.T) {
	s := mustSchema(t, blogSDL, "Query.authors")
	rt := blogRuntime()

	got := run(t, s, rt, `
		query { authors { id ...More } authors { name } }
		fragment More on Author { posts { id } }`, nil)
	require.Empty(t, got.Errors)

	batches := rt.Batches()
	require.Len(t, batches, 1)
	task := batches[0][0]
	require.Len(t, task.Fields, 2, "both authors nodes merge under one response name")
	require.NotNil(t, task.Fragments.ForName("More"))
}

func TestErrorsKeepMessageAndExtensions(t *testing.T) {
	s := mustSchema(t, blogSDL, "Query.author")
	notFound := &gqlerror.Error{Message: "author 9 not found", Extensions: map[string]any{"code": "NOT_FOUND"}}
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.author": executor.NewMockErrorResolver(fmt.Errorf("resolve author: %w", notFound)),
		"Query.a":      executor.NewMockErrorResolver(fmt.Errorf("boom")),
	})

	got := run(t, s, rt, `{ a author(id: "9") { id } }`, nil)

	want := &executor.ExecutionResult{
		Data: map[string]any{"a": nil, "author": nil},
		Errors: []executor.GraphQLError{
			{Message: "boom", Path: executor.Path{"a"}},
			{Message: "author 9 not found", Path: executor.Path{"author"}, Extensions: map[string]any{"code": "NOT_FOUND"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestNonNullPropagation(t *testing.T) {
	t.Run("sync child nulls its parent", func(t *testing.T) {
		s := mustSchema(t, blogSDL, "Query.authors", "Author.posts")
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.authors": executor.NewMockValueResolver([]any{map[string]any{"id": "1"}}),
			"Author.best":   executor.NewMockValueResolver(map[string]any{"id": "p1"}),
			"Post.id":       prop("id"),
		})

		got := run(t, s, rt, "{ authors { best { id title } } }", nil)
		want := &executor.ExecutionResult{
			Data: map[string]any{"authors": []any{map[string]any{"best": nil}}},
			Errors: []executor.GraphQLError{{
				Message: "Cannot return null for non-nullable field authors[0].best.title",
				Path:    executor.Path{"authors", 0, "best", "title"},
			}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("async failure drops queued descendants", func(t *testing.T) {
		s := mustSchema(t, blogSDL, "Query.authors", "Author.posts", "Post.author")
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.authors": executor.NewMockValueResolver([]any{map[string]any{"id": "1"}, map[string]any{"id": "2"}}),
			"Author.id":     prop("id"),
			"Author.posts": func(_ context.Context, source any, _ map[string]any) (any, error) {
				if source.(map[string]any)["id"] == "1" {
					return nil, fmt.Errorf("posts unavailable")
				}
				return []any{map[string]any{"id": "p2"}}, nil
			},
			"Post.author": executor.NewMockValueResolver(map[string]any{"id": "2"}),
		})

		got := run(t, s, rt, "{ a authors { id posts { author { id } } } }", nil)
		want := &executor.ExecutionResult{
			Data: nil,
			Errors: []executor.GraphQLError{
				{Message: "posts unavailable", Path: executor.Path{"authors", 0, "posts"}},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
		// the second author's posts were discarded with the nulled field, so
		// no Post.author batch ran
		require.Len(t, rt.Batches(), 2)
	})

	t.Run("nullable ancestor absorbs async failure", func(t *testing.T) {
		s := mustSchema(t, blogSDL, "Query.authors", "Post.author")
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.a":       executor.NewMockValueResolver("A"),
			"Query.authors": executor.NewMockValueResolver([]any{map[string]any{"id": "1"}, map[string]any{"id": "2"}}),
			"Author.id":     prop("id"),
			"Author.best": func(_ context.Context, source any, _ map[string]any) (any, error) {
				return map[string]any{"id": "p" + source.(map[string]any)["id"].(string)}, nil
			},
			"Post.id": prop("id"),
			"Post.author": func(_ context.Context, source any, _ map[string]any) (any, error) {
				if source.(map[string]any)["id"] == "p1" {
					return nil, fmt.Errorf("author gone")
				}
				return map[string]any{"id": "2"}, nil
			},
		})

		got := run(t, s, rt, "{ a authors { id best { id author { id } } } }", nil)
		want := &executor.ExecutionResult{
			Data: map[string]any{
				"a": "A",
				"authors": []any{
					map[string]any{"id": "1", "best": nil},
					map[string]any{"id": "2", "best": map[string]any{"id": "p2", "author": map[string]any{"id": "2"}}},
				},
			},
			Errors: []executor.GraphQLError{
				{Message: "author gone", Path: executor.Path{"authors", 0, "best", "author"}},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestNilSliceCompletesAsEmptyList(t *testing.T) {
	s := mustSchema(t, blogSDL, "Query.authors")
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.authors": executor.NewMockValueResolver([]map[string]any(nil)),
	})
	got := run(t, s, rt, "{ authors { id } }", nil)
	require.Empty(t, got.Errors)
	require.Equal(t, map[string]any{"authors": []any{}}, got.Data)
}

func TestMutationFieldsResolveInDocumentOrder(t *testing.T) {
	s := mustSchema(t, blogSDL)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Mutation.first":  executor.NewMockValueResolver("1"),
		"Mutation.second": executor.NewMockValueResolver("2"),
	})
	doc := mustParseQuery(t, "mutation { second first again: second }")
	got := executor.NewExecutor(rt, s).ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, got.Errors)

	var order []string
	for _, c := range rt.GetCalls() {
		order = append(order, c.Field)
	}
	require.Equal(t, []string{"second", "first", "second"}, order)
	require.Equal(t, map[string]any{"second": "2", "first": "1", "again": "2"}, got.Data)
}

func TestMutationSubtreeCompletesBeforeNextField(t *testing.T) {
	s := mustSchema(t, `
type Query { ok: String }
type Mutation {
  lock: Box
  unlock: Box
}
type Box { locked: Boolean }`, "Box.locked")

	locked := false
	setLocked := func(v bool) executor.MockResolver {
		return func(context.Context, any, map[string]any) (any, error) {
			locked = v
			return map[string]any{}, nil
		}
	}
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Mutation.lock":   setLocked(true),
		"Mutation.unlock": setLocked(false),
		"Box.locked": func(context.Context, any, map[string]any) (any, error) {
			return locked, nil
		},
	})

	got := run(t, s, rt, "mutation { a: lock { locked } b: unlock { locked } }", nil)
	require.Empty(t, got.Errors)
	require.Equal(t, map[string]any{
		"a": map[string]any{"locked": true},
		"b": map[string]any{"locked": false},
	}, got.Data)

	var order []string
	for _, c := range rt.GetCalls() {
		order = append(order, c.Kind+":"+c.Field)
	}
	require.Equal(t, []string{"sync:lock", "async:locked", "sync:unlock", "async:locked"}, order)
}

func TestFieldCollection(t *testing.T) {
	s := mustSchema(t, blogSDL, "Query.authors")
	rt := blogRuntime()

	got := run(t, s, rt, `
		query($withName: Boolean!) {
			authors {
				__typename
				id @skip(if: true)
				... on Author { name @include(if: $withName) }
				...Ids
			}
		}
		fragment Ids on Author { key: id }`, map[string]any{"withName": false})
	require.Empty(t, got.Errors)

	first := got.Data.(map[string]any)["authors"].([]any)[0]
	require.Equal(t, map[string]any{"__typename": "Author", "key": "1"}, first)
}

func TestOperationSelection(t *testing.T) {
	s := mustSchema(t, blogSDL)
	rt := blogRuntime()
	doc := mustParseQuery(t, "query A { a } query B { b }")
	ex := executor.NewExecutor(rt, s)

	got := ex.ExecuteRequest(context.Background(), doc, "B", nil, nil)
	require.Equal(t, map[string]any{"b": "B"}, got.Data)

	got = ex.ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Nil(t, got.Data)
	require.Len(t, got.Errors, 1)

	got = ex.ExecuteRequest(context.Background(), doc, "C", nil, nil)
	require.Equal(t, "Unknown operation named 'C'.", got.Errors[0].Message)
}

func TestNonNullRootFailureNullsData(t *testing.T) {
	s := mustSchema(t, `
type Query { ok: String }
type Mutation {
  create: String!
  after: String
}`)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Mutation.create": executor.NewMockErrorResolver(fmt.Errorf("duplicate")),
		"Mutation.after":  executor.NewMockValueResolver("ran"),
	})
	got := run(t, s, rt, "mutation { create after }", nil)
	require.Nil(t, got.Data)
	require.Equal(t, []executor.GraphQLError{{Message: "duplicate", Path: executor.Path{"create"}}}, got.Errors)
	require.Len(t, rt.GetCalls(), 1, "fields after the failed root field are not run")
}
