package storage

import (
	"errors"
	"path"
	"strings"
	"time"

	"github.com/tododocker/todo-backend/internal/config"
)

var ErrNotConfigured = errors.New("minio endpoint not configured")

func validate(cfg config.MinIOConfig) error {
	if cfg.Endpoint == "" {
		return ErrNotConfigured
	}
	if cfg.Bucket == "" {
		return errors.New("minio bucket not configured")
	}
	return nil
}

// SnapshotKey names an export object: <prefix>/todos-20240501T120000Z.json
func SnapshotKey(prefix string, at time.Time) string {
	name := "todos-" + at.UTC().Format("20060102T150405Z") + ".json"
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
