package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/tododocker/todo-backend/internal/config"
	"github.com/tododocker/todo-backend/internal/todo"
	"github.com/tododocker/todo-backend/internal/todo/service"
)

type stubService struct {
	up    bool
	addrs []string
}

func (s *stubService) ListTodos(ctx context.Context) []todo.Item { return []todo.Item{} }
func (s *stubService) AddTodo(ctx context.Context, name, description, clientAddress string) bool {
	s.addrs = append(s.addrs, clientAddress)
	return s.up
}
func (s *stubService) HealthCheck(ctx context.Context) service.Health {
	return service.Health{Healthy: s.up}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.AllowOrigins = []string{"*"}
	cfg.API.Version = "2.0"
	cfg.API.DatabaseLabel = "MongoDB"
	return cfg
}

func TestRouter_Wiring(t *testing.T) {
	r := newRouter(testConfig(), &stubService{up: false}, nil)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api", http.StatusInternalServerError},
		{http.MethodGet, "/health", http.StatusServiceUnavailable},
		{http.MethodGet, "/swagger/doc.json", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodOptions, "/submittodoitem", http.StatusNoContent},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		require.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), "%s %s", tc.method, tc.path)
	}
}

func TestRouter_RateLimitEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 0.5
	cfg.RateLimit.Burst = 1
	r := newRouter(cfg, &stubService{up: true}, nil)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/submittodoitem", strings.NewReader(`{"item_name":"a","item_description":"b"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusCreated, post())
	require.Equal(t, http.StatusTooManyRequests, post())
}

// postFrom submits a todo from the httptest peer (192.0.2.1) claiming to
// forward for xff.
func postFrom(r http.Handler, xff string) int {
	req := httptest.NewRequest(http.MethodPost, "/submittodoitem", strings.NewReader(`{"item_name":"a","item_description":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", xff)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRouter_ForwardedForIgnoredByDefault(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rdb.Close()

	limiters := map[string]*redis.Client{"memory": nil, "redis": rdb}
	for name, client := range limiters {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			cfg.RateLimit.Enabled = true
			cfg.RateLimit.RPS = 0.01
			cfg.RateLimit.Burst = 1
			cfg.RateLimit.WindowSeconds = 60
			svc := &stubService{up: true}
			r := newRouter(cfg, svc, client)

			var codes []int
			for _, xff := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3", "203.0.113.4", "203.0.113.5"} {
				codes = append(codes, postFrom(r, xff))
			}
			require.Equal(t, []int{201, 429, 429, 429, 429}, codes)
			require.Equal(t, []string{"192.0.2.1"}, svc.addrs, "stored address must be the peer")
		})
	}
}

func TestRouter_TrustedProxyForwardsClientIP(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrustedProxies = []string{"192.0.2.1"}
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 0.01
	cfg.RateLimit.Burst = 1
	svc := &stubService{up: true}
	r := newRouter(cfg, svc, nil)

	require.Equal(t, http.StatusCreated, postFrom(r, "203.0.113.1"))
	require.Equal(t, http.StatusCreated, postFrom(r, "203.0.113.2"))
	require.Equal(t, http.StatusTooManyRequests, postFrom(r, "203.0.113.1"))
	require.Equal(t, []string{"203.0.113.1", "203.0.113.2"}, svc.addrs)
}

func TestRouter_InvalidTrustedProxiesTrustsNone(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrustedProxies = []string{"not-an-ip"}
	svc := &stubService{up: true}
	r := newRouter(cfg, svc, nil)

	require.Equal(t, http.StatusCreated, postFrom(r, "203.0.113.9"))
	require.Equal(t, []string{"192.0.2.1"}, svc.addrs)
}

func TestConnectRedis(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	cfg := testConfig()
	cfg.Redis.Host = m.Host()
	cfg.Redis.Port = m.Port()
	ctx := context.Background()

	// limiter disabled: no client
	require.Nil(t, connectRedis(ctx, cfg))

	cfg.RateLimit.Enabled = true
	cfg.RateLimit.UseRedis = true
	client := connectRedis(ctx, cfg)
	require.NotNil(t, client)
	require.NoError(t, client.Close())

	m.Close()
	require.Nil(t, connectRedis(ctx, cfg))
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
