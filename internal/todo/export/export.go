// Package export writes point-in-time snapshots of the todo list to object
// storage. A snapshot has the same shape as the GET /api response.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tododocker/todo-backend/internal/storage"
	"github.com/tododocker/todo-backend/internal/todo"
	"github.com/tododocker/todo-backend/internal/todo/service"
	"github.com/tododocker/todo-backend/pkg/logger"
)

// ErrDatabaseUnavailable is returned instead of writing an empty snapshot
// while the database is unreachable.
var ErrDatabaseUnavailable = errors.New("database connection not available")

// Uploader stores an object. *storage.MinIOStorage satisfies it.
type Uploader interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

type Snapshot struct {
	Todos    []todo.Item `json:"todos"`
	Metadata Metadata    `json:"metadata"`
}

type Metadata struct {
	Version     string    `json:"version"`
	LastUpdated string    `json:"last_updated"`
	TotalTodos  int       `json:"total_todos"`
	Database    string    `json:"database"`
	ExportedAt  time.Time `json:"exported_at"`
}

type Exporter struct {
	svc      service.Service
	up       Uploader
	prefix   string
	version  string
	database string
	now      func() time.Time
}

func NewExporter(svc service.Service, up Uploader, prefix, version, database string) *Exporter {
	return &Exporter{svc: svc, up: up, prefix: prefix, version: version, database: database, now: time.Now}
}

// Run uploads one snapshot and returns its object key.
func (e *Exporter) Run(ctx context.Context) (string, error) {
	if !e.svc.HealthCheck(ctx).Healthy {
		return "", ErrDatabaseUnavailable
	}
	at := e.now().UTC()
	todos := e.svc.ListTodos(ctx)
	snap := Snapshot{
		Todos: todos,
		Metadata: Metadata{
			Version:     e.version,
			LastUpdated: at.Format("2006-01-02"),
			TotalTodos:  len(todos),
			Database:    e.database,
			ExportedAt:  at,
		},
	}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	key := storage.SnapshotKey(e.prefix, at)
	if err := e.up.UploadFile(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", err
	}
	logger.Infof("exported %d todos to %s", len(todos), key)
	return key, nil
}
