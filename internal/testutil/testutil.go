// Package testutil builds migrated in-memory stores and seed data for tests
// across packages.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/membergraph/internal/model"
	"github.com/hanpama/membergraph/internal/store"
	"github.com/hanpama/membergraph/internal/store/sqlstore"
)

// NewStore opens a migrated in-memory SQLite store private to the test.
func NewStore(t testing.TB) *sqlstore.Store {
	t.Helper()
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, t.Name()) + "_" + uuid.NewString()[:8]
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	st, err := sqlstore.Open(context.Background(), sqlstore.SQLite, dsn, sqlstore.WithSlowThreshold(0))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func CreateUser(t testing.TB, st store.Store, name string, balance float64) *model.User {
	t.Helper()
	u, err := st.CreateUser(context.Background(), model.CreateUserInput{Name: name, Balance: balance})
	require.NoError(t, err)
	return u
}

func CreatePost(t testing.TB, st store.Store, author *model.User, title string) *model.Post {
	t.Helper()
	p, err := st.CreatePost(context.Background(), model.CreatePostInput{
		Title:    title,
		Content:  title + " content",
		AuthorID: author.ID,
	})
	require.NoError(t, err)
	return p
}

func CreateProfile(t testing.TB, st store.Store, user *model.User, mt model.MemberTypeID) *model.Profile {
	t.Helper()
	p, err := st.CreateProfile(context.Background(), model.CreateProfileInput{
		IsMale:       true,
		YearOfBirth:  1990,
		UserID:       user.ID,
		MemberTypeID: mt,
	})
	require.NoError(t, err)
	return p
}

func Subscribe(t testing.TB, st store.Store, subscriber, author *model.User) {
	t.Helper()
	require.NoError(t, st.Subscribe(context.Background(), model.Subscription{
		SubscriberID: subscriber.ID,
		AuthorID:     author.ID,
	}))
}
