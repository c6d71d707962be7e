package reqid

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}

func TestFromRequest(t *testing.T) {
	incoming := uuid.NewString()
	r := httptest.NewRequest("GET", "/graphql", nil)
	r.Header.Set(Header, incoming)
	_, id := FromRequest(r)
	require.Equal(t, incoming, id)

	r = httptest.NewRequest("GET", "/graphql", nil)
	r.Header.Set(Header, "not-a-uuid")
	_, id = FromRequest(r)
	require.NotEqual(t, "not-a-uuid", id)
}
