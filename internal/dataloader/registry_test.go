package dataloader

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRegistryDispatchAll(t *testing.T) {
	var upperLog, lowerLog batchLog
	upper := upperLoader(&upperLog)
	lower := New("lower", func(_ context.Context, keys []string) ([]string, []error) {
		lowerLog.record(keys)
		return keys, nil
	})
	idle := New("idle", func(_ context.Context, keys []int) ([]int, []error) {
		t.Fatal("idle loader dispatched")
		return nil, nil
	})

	r := NewRegistry()
	require.NoError(t, r.Register(upper))
	require.NoError(t, r.Register(lower))
	require.NoError(t, r.Register(idle))
	require.Error(t, r.Register(New("upper", func(context.Context, []int) ([]int, []error) { return nil, nil })))
	require.Panics(t, func() {
		r.MustRegister(New("lower", func(context.Context, []int) ([]int, []error) { return nil, nil }))
	})

	got, ok := r.Lookup("lower")
	require.True(t, ok)
	require.Same(t, Dispatcher(lower), got)

	a := upper.Load("a")
	lower.Load("x")
	lower.Load("y")
	require.Equal(t, 3, r.Pending())

	require.NoError(t, r.DispatchAll(context.Background()))
	require.Zero(t, r.Pending())

	v, err := a.Get()
	require.NoError(t, err)
	require.Equal(t, "A", v)
	if diff := cmp.Diff([][]string{{"x", "y"}}, lowerLog.calls); diff != "" {
		t.Errorf("lower calls mismatch (-want +got):\n%s", diff)
	}

	r.ClearAll()
	upper.Load("a")
	require.Equal(t, 1, r.Pending())
}

func TestRegistryDispatchAllReportsError(t *testing.T) {
	boom := errors.New("boom")
	failing := New("failing", func(context.Context, []int) ([]int, []error) {
		return nil, []error{boom}
	})
	var log batchLog
	ok := upperLoader(&log)

	r := NewRegistry()
	require.NoError(t, r.Register(failing))
	require.NoError(t, r.Register(ok))

	th := ok.Load("a")
	failing.Load(1)
	require.ErrorIs(t, r.DispatchAll(context.Background()), boom)

	v, err := th.Get()
	require.NoError(t, err)
	require.Equal(t, "A", v)
}

func TestOrderHelpers(t *testing.T) {
	type row struct {
		owner string
		n     int
	}
	rows := []row{{"b", 1}, {"a", 2}, {"b", 3}}
	key := func(r row) string { return r.owner }

	single := OrderByKeys([]string{"a", "c", "b"}, rows, key)
	require.Equal(t, []row{{"a", 2}, {}, {"b", 1}}, single)

	groups := OrderGroupsByKeys([]string{"b", "c", "a", "b"}, GroupByKey(rows, key))
	want := [][]row{{{"b", 1}, {"b", 3}}, {}, {{"a", 2}}, {{"b", 1}, {"b", 3}}}
	if diff := cmp.Diff(want, groups, cmp.AllowUnexported(row{})); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, groups[1])
}
