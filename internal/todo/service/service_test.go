package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/tododocker/todo-backend/internal/todo"
	"github.com/tododocker/todo-backend/pkg/metrics"
)

// fakeProber reports a fixed reachability and counts probes
type fakeProber struct {
	up    bool
	calls int
}

func (f *fakeProber) IsConnected(ctx context.Context) bool {
	f.calls++
	return f.up
}

// fakeRepo keeps items in memory and lists them newest first like the Mongo repo
type fakeRepo struct {
	items       []todo.Item
	listErr     error
	createErr   error
	emptyID     bool
	listCalls   int
	createCalls int
}

func (f *fakeRepo) List(ctx context.Context) ([]todo.Item, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]todo.Item(nil), f.items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, item *todo.Item) (string, error) {
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.emptyID {
		return "", nil
	}
	item.ID = fmt.Sprintf("%024x", len(f.items)+1)
	f.items = append(f.items, *item)
	return item.ID, nil
}

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

func TestListTodos_Disconnected(t *testing.T) {
	repo := &fakeRepo{items: []todo.Item{{ID: "1", Name: "x"}}}
	svc := NewService(&fakeProber{up: false}, repo)

	items := svc.ListTodos(context.Background())
	require.NotNil(t, items)
	require.Empty(t, items)
	require.Zero(t, repo.listCalls, "repository must not be queried while disconnected")
}

func TestListTodos_QueryErrorIsSwallowed(t *testing.T) {
	before := testutil.ToFloat64(metrics.TodoOperations.WithLabelValues("list", "error"))
	repo := &fakeRepo{listErr: errors.New("socket closed")}
	svc := NewService(&fakeProber{up: true}, repo)

	items := svc.ListTodos(context.Background())
	require.NotNil(t, items)
	require.Empty(t, items)
	require.Equal(t, 1, repo.listCalls)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.TodoOperations.WithLabelValues("list", "error")))
}

func TestAddThenList(t *testing.T) {
	repo := &fakeRepo{}
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	svc := NewService(&fakeProber{up: true}, repo, WithClock(steppingClock(start, time.Second)))
	ctx := context.Background()

	pairs := [][2]string{{"Buy milk", "2 liters"}, {"Call mom", "Sunday"}, {"x", "y"}}
	for _, p := range pairs {
		require.True(t, svc.AddTodo(ctx, p[0], p[1], "192.0.2.10"))
	}

	items := svc.ListTodos(ctx)
	require.Len(t, items, len(pairs))
	for _, p := range pairs {
		found := false
		for _, it := range items {
			if it.Name == p[0] && it.Description == p[1] {
				found = true
				require.False(t, it.Completed)
				require.NotEmpty(t, it.ID)
				require.Equal(t, "192.0.2.10", it.IPAddress)
				require.Equal(t, time.UTC, it.CreatedAt.Location())
			}
		}
		require.True(t, found, "item %q missing from listing", p[0])
	}

	for i := 1; i < len(items); i++ {
		require.False(t, items[i-1].CreatedAt.Before(items[i].CreatedAt), "listing must be newest first")
	}
	require.Equal(t, "x", items[0].Name)
}

func TestAddTodo_Disconnected(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(&fakeProber{up: false}, repo)

	require.False(t, svc.AddTodo(context.Background(), "a", "b", "127.0.0.1"))
	require.Zero(t, repo.createCalls)
}

func TestAddTodo_InsertFailures(t *testing.T) {
	ctx := context.Background()

	failing := &fakeRepo{createErr: errors.New("E11000 duplicate key")}
	require.False(t, NewService(&fakeProber{up: true}, failing).AddTodo(ctx, "a", "b", ""))
	require.Equal(t, 1, failing.createCalls)

	unconfirmed := &fakeRepo{emptyID: true}
	require.False(t, NewService(&fakeProber{up: true}, unconfirmed).AddTodo(ctx, "a", "b", ""))
}

func TestHealthCheck_ReprobesEveryCall(t *testing.T) {
	p := &fakeProber{up: true}
	svc := NewService(p, &fakeRepo{})
	ctx := context.Background()

	require.True(t, svc.HealthCheck(ctx).Healthy)
	p.up = false
	require.False(t, svc.HealthCheck(ctx).Healthy)
	p.up = true
	require.True(t, svc.HealthCheck(ctx).Healthy)
	require.Equal(t, 3, p.calls)
}
