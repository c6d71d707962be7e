package sqlstore_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
	"github.com/hanpama/membergraph/internal/testutil"
)

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	st := testutil.NewStore(t)
	require.NoError(t, st.Migrate(context.Background()))

	mts, err := st.MemberTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, mts, 2)
	require.Equal(t, model.MemberTypeBasic, mts[0].ID)
	require.Equal(t, 20, mts[0].PostsLimitPerMonth)
	require.Equal(t, 7.7, mts[1].Discount)

	_, err = st.MemberType(context.Background(), "GOLD")
	require.True(t, store.IsNotFound(err))
}

func TestSQLiteUsersWithRelations(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	ann := testutil.CreateUser(t, st, "Ann", 10)
	bob := testutil.CreateUser(t, st, "Bob", 20)
	testutil.CreatePost(t, st, ann, "hello")
	testutil.CreatePost(t, st, ann, "again")
	testutil.CreateProfile(t, st, bob, model.MemberTypeBusiness)
	testutil.Subscribe(t, st, ann, bob)

	users, err := st.Users(ctx, model.UserInclude{Posts: true, Profile: true, UserSubscribedTo: true, SubscribedToUser: true})
	require.NoError(t, err)
	require.Len(t, users, 2)

	byName := map[string]*model.User{}
	for _, u := range users {
		byName[u.Name] = u
	}

	posts, err := byName["Ann"].Edges.PostsOrErr()
	require.NoError(t, err)
	require.Len(t, posts, 2)
	profile, err := byName["Ann"].Edges.ProfileOrErr()
	require.NoError(t, err)
	require.Nil(t, profile)
	following, err := byName["Ann"].Edges.UserSubscribedToOrErr()
	require.NoError(t, err)
	require.Len(t, following, 1)
	require.Equal(t, bob.ID, following[0].ID)

	profile, err = byName["Bob"].Edges.ProfileOrErr()
	require.NoError(t, err)
	require.Equal(t, model.MemberTypeBusiness, profile.MemberTypeID)
	followers, err := byName["Bob"].Edges.SubscribedToUserOrErr()
	require.NoError(t, err)
	require.Len(t, followers, 1)
	require.Equal(t, ann.ID, followers[0].ID)
}

func TestSQLiteBulkFindersMatchKeys(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	a := testutil.CreateUser(t, st, "a", 0)
	b := testutil.CreateUser(t, st, "b", 0)
	c := testutil.CreateUser(t, st, "c", 0)
	testutil.CreateProfile(t, st, a, model.MemberTypeBasic)
	testutil.CreateProfile(t, st, c, model.MemberTypeBasic)
	testutil.Subscribe(t, st, a, c)
	testutil.Subscribe(t, st, b, c)

	profiles, err := st.ProfilesByUsers(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	require.Equal(t, a.ID, profiles[0].UserID)

	subs, err := st.Subscribers(ctx, []string{c.ID, a.ID})
	require.NoError(t, err)
	var ids []string
	for _, r := range subs {
		require.Equal(t, c.ID, r.Key)
		ids = append(ids, r.User.ID)
	}
	want := []string{a.ID, b.ID}
	sort.Strings(want)
	require.Equal(t, want, ids)

	mts, err := st.MemberTypesByIDs(ctx, []model.MemberTypeID{model.MemberTypeBusiness})
	require.NoError(t, err)
	require.Len(t, mts, 1)
}

func TestSQLitePartialUpdate(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	u := testutil.CreateUser(t, st, "Ann", 10)

	balance := 42.5
	got, err := st.UpdateUser(ctx, u.ID, model.ChangeUserInput{Balance: &balance})
	require.NoError(t, err)
	require.Equal(t, "Ann", got.Name)
	require.Equal(t, 42.5, got.Balance)

	same, err := st.UpdateUser(ctx, u.ID, model.ChangeUserInput{})
	require.NoError(t, err)
	require.Equal(t, got, same)

	_, err = st.UpdateUser(ctx, model.NewID(), model.ChangeUserInput{Balance: &balance})
	require.True(t, store.IsNotFound(err))
	_, err = st.UpdatePost(ctx, model.NewID(), model.ChangePostInput{})
	require.True(t, store.IsNotFound(err))
}

func TestSQLiteConstraintErrors(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	a := testutil.CreateUser(t, st, "a", 0)
	b := testutil.CreateUser(t, st, "b", 0)
	testutil.Subscribe(t, st, a, b)

	err := st.Subscribe(ctx, model.Subscription{SubscriberID: a.ID, AuthorID: b.ID})
	require.True(t, store.IsUniqueConstraintError(err), "got %v", err)

	_, err = st.CreatePost(ctx, model.CreatePostInput{Title: "t", Content: "c", AuthorID: model.NewID()})
	require.True(t, store.IsForeignKeyConstraintError(err), "got %v", err)

	testutil.CreateProfile(t, st, a, model.MemberTypeBasic)
	_, err = st.CreateProfile(ctx, model.CreateProfileInput{UserID: a.ID, MemberTypeID: model.MemberTypeBasic})
	require.True(t, store.IsUniqueConstraintError(err), "got %v", err)

	err = st.Unsubscribe(ctx, model.Subscription{SubscriberID: b.ID, AuthorID: a.ID})
	require.True(t, store.IsNotFound(err))
	require.NoError(t, st.Unsubscribe(ctx, model.Subscription{SubscriberID: a.ID, AuthorID: b.ID}))
}

func TestSQLiteDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	a := testutil.CreateUser(t, st, "a", 0)
	b := testutil.CreateUser(t, st, "b", 0)
	testutil.CreatePost(t, st, a, "p")
	testutil.CreateProfile(t, st, a, model.MemberTypeBasic)
	testutil.Subscribe(t, st, a, b)
	testutil.Subscribe(t, st, b, a)

	require.NoError(t, st.DeleteUser(ctx, a.ID))

	posts, err := st.Posts(ctx)
	require.NoError(t, err)
	require.Empty(t, posts)
	profiles, err := st.Profiles(ctx)
	require.NoError(t, err)
	require.Empty(t, profiles)
	subs, err := st.Subscribers(ctx, []string{b.ID})
	require.NoError(t, err)
	require.Empty(t, subs)

	require.True(t, store.IsNotFound(st.DeleteUser(ctx, a.ID)))
	_, err = st.User(ctx, a.ID)
	require.True(t, store.IsNotFound(err))
}
