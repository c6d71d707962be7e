package loaders

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
	"github.com/hanpama/membergraph/internal/testutil"
)

func TestPostsByAuthorGroupsOneCall(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	a := testutil.CreateUser(t, st, "a", 0)
	b := testutil.CreateUser(t, st, "b", 0)
	c := testutil.CreateUser(t, st, "c", 0)
	pa := testutil.CreatePost(t, st, a, "a1")
	pb1 := testutil.CreatePost(t, st, b, "b1")
	pb2 := testutil.CreatePost(t, st, b, "b2")

	rec := store.NewRecorder(st, nil)
	ls := New(rec)

	thunks := ls.PostsByAuthor.LoadMany([]string{b.ID, a.ID, c.ID, b.ID})
	require.Equal(t, 3, ls.Pending())
	require.NoError(t, ls.Dispatch(ctx))

	require.Equal(t, 1, rec.Count("PostsByAuthors"))
	require.Equal(t, []string{b.ID, a.ID, c.ID}, rec.Calls()[0].Keys)

	ids := func(posts []*model.Post) []string {
		out := []string{}
		for _, p := range posts {
			out = append(out, p.ID)
		}
		return out
	}
	var got [][]string
	for _, th := range thunks {
		posts, err := th.Get()
		require.NoError(t, err)
		got = append(got, ids(posts))
	}
	wantB := []string{pb1.ID, pb2.ID}
	if pb2.ID < pb1.ID {
		wantB = []string{pb2.ID, pb1.ID}
	}
	want := [][]string{wantB, {pa.ID}, {}, wantB}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("posts mismatch (-want +got):\n%s", diff)
	}
	for _, p := range must(thunks[1].Get()) {
		require.Equal(t, a.ID, p.AuthorID)
	}
}

func TestSingleLoadersYieldAbsence(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	a := testutil.CreateUser(t, st, "a", 0)
	b := testutil.CreateUser(t, st, "b", 0)
	prof := testutil.CreateProfile(t, st, a, model.MemberTypeBusiness)

	rec := store.NewRecorder(st, nil)
	ls := New(rec)

	pa, pb := ls.ProfileByUser.Load(a.ID), ls.ProfileByUser.Load(b.ID)
	mt := ls.MemberTypeByID.Load(model.MemberTypeBusiness)
	unknown := ls.MemberTypeByID.Load("GOLD")
	require.NoError(t, ls.Dispatch(ctx))

	got, err := pa.Get()
	require.NoError(t, err)
	require.Equal(t, prof.ID, got.ID)

	got, err = pb.Get()
	require.NoError(t, err)
	require.Nil(t, got)

	m, err := mt.Get()
	require.NoError(t, err)
	require.Equal(t, 100, m.PostsLimitPerMonth)
	m, err = unknown.Get()
	require.NoError(t, err)
	require.Nil(t, m)

	require.Equal(t, 1, rec.Count("ProfilesByUsers"))
	require.Equal(t, 1, rec.Count("MemberTypesByIDs"))
}

func TestSubscriptionLoaders(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	a := testutil.CreateUser(t, st, "a", 0)
	b := testutil.CreateUser(t, st, "b", 0)
	c := testutil.CreateUser(t, st, "c", 0)
	testutil.Subscribe(t, st, a, b)
	testutil.Subscribe(t, st, a, c)
	testutil.Subscribe(t, st, c, b)

	rec := store.NewRecorder(st, nil)
	ls := New(rec)

	following := ls.SubscribedToBySubscriber.LoadMany([]string{a.ID, b.ID})
	followers := ls.SubscribersByAuthor.LoadMany([]string{b.ID, a.ID})
	require.NoError(t, ls.Dispatch(ctx))

	userIDs := func(th interface{ Get() ([]*model.User, error) }) []string {
		users, err := th.Get()
		require.NoError(t, err)
		out := []string{}
		for _, u := range users {
			out = append(out, u.ID)
		}
		return out
	}
	require.ElementsMatch(t, []string{b.ID, c.ID}, userIDs(following[0]))
	require.Empty(t, userIDs(following[1]))
	require.ElementsMatch(t, []string{a.ID, c.ID}, userIDs(followers[0]))
	require.Empty(t, userIDs(followers[1]))

	require.Equal(t, 1, rec.Count("SubscribedTo"))
	require.Equal(t, 1, rec.Count("Subscribers"))
}

func TestLoadersAreRequestScoped(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	a := testutil.CreateUser(t, st, "a", 0)
	rec := store.NewRecorder(st, nil)

	first := New(rec)
	first.PostsByAuthor.Load(a.ID)
	require.NoError(t, first.Dispatch(ctx))

	testutil.CreatePost(t, st, a, "late")

	second := New(rec)
	th := second.PostsByAuthor.Load(a.ID)
	require.NoError(t, second.Dispatch(ctx))
	posts, err := th.Get()
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, 2, rec.Count("PostsByAuthors"))

	got, ok := FromContext(NewContext(ctx, second))
	require.True(t, ok)
	require.Same(t, second, got)
	_, ok = FromContext(ctx)
	require.False(t, ok)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func TestNewRegistersEveryLoader(t *testing.T) {
	ls := New(testutil.NewStore(t))
	for _, name := range []string{
		PostsByAuthorName,
		MemberTypeByIDName,
		ProfileByUserName,
		SubscribedToBySubscriberName,
		SubscribersByAuthorName,
	} {
		_, ok := ls.Registry().Lookup(name)
		require.True(t, ok, name)
	}
}
