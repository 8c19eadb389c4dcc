package service

import (
	"context"
	"time"

	"github.com/tododocker/todo-backend/internal/todo"
	"github.com/tododocker/todo-backend/internal/todo/repository"
	"github.com/tododocker/todo-backend/pkg/logger"
	"github.com/tododocker/todo-backend/pkg/metrics"
)

// Prober answers whether the database is reachable right now.
// *database.Manager satisfies it.
type Prober interface {
	IsConnected(ctx context.Context) bool
}

// Health is the result of a connectivity check.
type Health struct {
	Healthy bool `json:"healthy"`
}

// Service defines the todo operations used by the handler layer. Every
// operation re-checks connectivity first and never returns database errors:
// failures are logged and surface as an empty list or false.
type Service interface {
	ListTodos(ctx context.Context) []todo.Item
	AddTodo(ctx context.Context, name, description, clientAddress string) bool
	HealthCheck(ctx context.Context) Health
}

type Option func(*todoService)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *todoService) { s.now = now }
}

func NewService(db Prober, repo repository.Repository, opts ...Option) Service {
	s := &todoService{db: db, repo: repo, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type todoService struct {
	db   Prober
	repo repository.Repository
	now  func() time.Time
}

func (s *todoService) ListTodos(ctx context.Context) []todo.Item {
	if !s.db.IsConnected(ctx) {
		logger.Errorf("list todos: database connection not available")
		metrics.TodoOperations.WithLabelValues("list", "unavailable").Inc()
		return []todo.Item{}
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		logger.Errorf("error fetching todos: %v", err)
		metrics.TodoOperations.WithLabelValues("list", "error").Inc()
		return []todo.Item{}
	}
	metrics.TodoOperations.WithLabelValues("list", "ok").Inc()
	return items
}

// AddTodo expects name and description already trimmed and non-empty.
func (s *todoService) AddTodo(ctx context.Context, name, description, clientAddress string) bool {
	if !s.db.IsConnected(ctx) {
		logger.Errorf("add todo: database connection not available")
		metrics.TodoOperations.WithLabelValues("create", "unavailable").Inc()
		return false
	}
	item := todo.NewItem(name, description, clientAddress, s.now())
	id, err := s.repo.Create(ctx, item)
	if err != nil || id == "" {
		logger.Errorf("error saving todo %q: %v", name, err)
		metrics.TodoOperations.WithLabelValues("create", "error").Inc()
		return false
	}
	logger.Infof("todo saved with id %s", id)
	metrics.TodoOperations.WithLabelValues("create", "ok").Inc()
	return true
}

func (s *todoService) HealthCheck(ctx context.Context) Health {
	return Health{Healthy: s.db.IsConnected(ctx)}
}
