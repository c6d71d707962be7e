package gateway_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/membergraph/internal/entity"
	"github.com/hanpama/membergraph/internal/eventbus"
	"github.com/hanpama/membergraph/internal/events"
	"github.com/hanpama/membergraph/internal/gateway"
	"github.com/hanpama/membergraph/internal/store"
	"github.com/hanpama/membergraph/internal/testutil"
)

var graph = entity.MustNew()

func setup(t *testing.T, opts ...gateway.Option) (*gateway.Gateway, store.Store, *store.Recorder) {
	t.Helper()
	st := testutil.NewStore(t)
	rec := store.NewRecorder(st, nil)
	return gateway.New(graph, rec, opts...), st, rec
}

func captureFinish(t *testing.T) *[]events.GraphQLFinish {
	t.Helper()
	b := eventbus.New()
	eventbus.Use(b)
	t.Cleanup(func() { eventbus.Use(nil) })
	var got []events.GraphQLFinish
	eventbus.SubscribeTo(b, func(_ context.Context, e events.GraphQLFinish) { got = append(got, e) })
	return &got
}

func TestExecuteBatchesNestedRelations(t *testing.T) {
	gw, st, rec := setup(t)
	finished := captureFinish(t)

	author := testutil.CreateUser(t, st, "author", 0)
	testutil.CreatePost(t, st, author, "p1")
	for _, name := range []string{"f1", "f2", "f3"} {
		testutil.Subscribe(t, st, testutil.CreateUser(t, st, name, 0), author)
	}

	resp := gw.Execute(context.Background(), gateway.Request{
		Query:     `query Followers($id: UUID!) { user(id: $id) { subscribedToUser { name posts { id } profile { id } } } }`,
		Variables: map[string]any{"id": author.ID},
	})
	require.Empty(t, resp.Errors)
	followers := resp.Data.(map[string]any)["user"].(map[string]any)["subscribedToUser"].([]any)
	require.Len(t, followers, 3)

	require.Equal(t, 1, rec.Count("Subscribers"))
	require.Equal(t, 1, rec.Count("PostsByAuthors"))
	require.Equal(t, 1, rec.Count("ProfilesByUsers"))

	require.Len(t, *finished, 1)
	got := (*finished)[0]
	require.False(t, got.Rejected)
	require.Equal(t, "query", got.OperationType)
	require.Equal(t, "Followers", got.OperationName)
	require.Equal(t, 3, got.Depth)
}

func TestExecuteRejectsTooDeep(t *testing.T) {
	gw, _, rec := setup(t, gateway.WithMaxDepth(2))
	finished := captureFinish(t)
	require.Equal(t, 2, gw.MaxDepth())

	resp := gw.Execute(context.Background(), gateway.Request{
		Query: `{ users { userSubscribedTo { userSubscribedTo { id } } } }`,
	})
	require.Nil(t, resp.Data)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, "'' exceeds maximum operation depth of 2", resp.Errors[0].Message)
	require.Equal(t, []gateway.Location{{Line: 1, Column: 1}}, resp.Errors[0].Locations)
	require.Empty(t, rec.Calls(), "no resolver runs for a rejected document")

	require.Len(t, *finished, 1)
	require.True(t, (*finished)[0].Rejected)
	require.Equal(t, 3, (*finished)[0].Depth)
}

func TestExecuteRejectsSyntaxAndSchemaErrors(t *testing.T) {
	gw, _, rec := setup(t)

	resp := gw.Execute(context.Background(), gateway.Request{Query: `{ users { id `})
	require.Nil(t, resp.Data)
	require.Len(t, resp.Errors, 1)
	require.NotEmpty(t, resp.Errors[0].Locations)

	resp = gw.Execute(context.Background(), gateway.Request{Query: `{ users { id email } posts { nope } }`})
	require.Nil(t, resp.Data)
	require.Len(t, resp.Errors, 2)
	require.Empty(t, rec.Calls())
}

func TestExecuteSelectsNamedOperation(t *testing.T) {
	gw, st, _ := setup(t)
	testutil.CreateUser(t, st, "ann", 5)

	doc := `query Names { users { name } } query Types { memberTypes { id } }`
	resp := gw.Execute(context.Background(), gateway.Request{Query: doc, OperationName: "Names"})
	require.Empty(t, resp.Errors)
	require.Equal(t, map[string]any{"users": []any{map[string]any{"name": "ann"}}}, resp.Data)

	resp = gw.Execute(context.Background(), gateway.Request{Query: doc})
	require.Len(t, resp.Errors, 1)
	require.Nil(t, resp.Data)
}

func TestExecuteMutationThenQuery(t *testing.T) {
	gw, st, _ := setup(t)
	u := testutil.CreateUser(t, st, "ann", 5)

	resp := gw.Execute(context.Background(), gateway.Request{
		Query: `mutation($dto: CreatePostInput!) { createPost(dto: $dto) { title authorId } }`,
		Variables: map[string]any{"dto": map[string]any{
			"title": "hello", "content": "world", "authorId": u.ID,
		}},
	})
	require.Empty(t, resp.Errors)
	require.Equal(t, map[string]any{"title": "hello", "authorId": u.ID},
		resp.Data.(map[string]any)["createPost"])

	resp = gw.Execute(context.Background(), gateway.Request{
		Query:     `query($id: UUID!) { user(id: $id) { posts { title } } }`,
		Variables: map[string]any{"id": u.ID},
	})
	require.Empty(t, resp.Errors)
	require.Equal(t, []any{map[string]any{"title": "hello"}},
		resp.Data.(map[string]any)["user"].(map[string]any)["posts"])
}

func TestExecuteMutationSubtreesRunInOrder(t *testing.T) {
	gw, st, _ := setup(t)
	ann := testutil.CreateUser(t, st, "ann", 1)
	bob := testutil.CreateUser(t, st, "bob", 1)

	resp := gw.Execute(context.Background(), gateway.Request{
		Query: `mutation($u: UUID!, $a: UUID!) {
			before: changeUser(id: $u, dto: {}) { userSubscribedTo { id } }
			subscribeTo(userId: $u, authorId: $a)
			after: changeUser(id: $u, dto: {}) { userSubscribedTo { id } }
		}`,
		Variables: map[string]any{"u": ann.ID, "a": bob.ID},
	})
	require.Empty(t, resp.Errors)
	data := resp.Data.(map[string]any)
	require.Equal(t, map[string]any{"userSubscribedTo": []any{}}, data["before"])
	require.Equal(t, "Subscribed", data["subscribeTo"])
	require.Equal(t, map[string]any{"userSubscribedTo": []any{map[string]any{"id": bob.ID}}}, data["after"])
}

func TestExecuteReportsStoreErrors(t *testing.T) {
	gw, _, _ := setup(t)
	resp := gw.Execute(context.Background(), gateway.Request{
		Query:     `mutation($u: UUID!, $a: UUID!) { unsubscribeFrom(userId: $u, authorId: $a) }`,
		Variables: map[string]any{"u": "6f9619ff-8b86-d011-b42d-00c04fc964ff", "a": "7f9619ff-8b86-d011-b42d-00c04fc964ff"},
	})
	require.Nil(t, resp.Data)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, []any{"unsubscribeFrom"}, resp.Errors[0].Path)
	require.Equal(t, "NOT_FOUND", resp.Errors[0].Extensions["code"])
}
