package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }
type pong struct{ N int }

func TestPublishRoutesByType(t *testing.T) {
	b := New()
	Use(b)
	t.Cleanup(func() { Use(nil) })

	var pings, pongs []int
	SubscribeTo(b, func(_ context.Context, p ping) { pings = append(pings, p.N) })
	SubscribeTo(b, func(_ context.Context, p pong) { pongs = append(pongs, p.N) })

	Publish(context.Background(), ping{N: 1})
	Publish(context.Background(), pong{N: 2})
	Publish(context.Background(), ping{N: 3})

	require.Equal(t, []int{1, 3}, pings)
	require.Equal(t, []int{2}, pongs)
}

func TestUnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	b := New()
	Use(b)
	t.Cleanup(func() { Use(nil) })

	var first, second int
	unsubFirst := Subscribe(func(context.Context, ping) { first++ })
	Subscribe(func(context.Context, ping) { second++ })

	Publish(context.Background(), ping{})
	unsubFirst()
	unsubFirst()
	Publish(context.Background(), ping{})

	require.Equal(t, 1, first)
	require.Equal(t, 2, second)
}

func TestPublishWithoutBus(t *testing.T) {
	Use(nil)
	called := false
	unsub := Subscribe(func(context.Context, ping) { called = true })
	Publish(context.Background(), ping{})
	unsub()
	require.False(t, called)
}
