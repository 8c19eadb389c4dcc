// Command export writes a JSON snapshot of all todos to the configured MinIO
// bucket and prints a presigned download URL.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tododocker/todo-backend/internal/config"
	"github.com/tododocker/todo-backend/internal/database"
	"github.com/tododocker/todo-backend/internal/storage"
	"github.com/tododocker/todo-backend/internal/todo/export"
	"github.com/tododocker/todo-backend/internal/todo/repository"
	"github.com/tododocker/todo-backend/internal/todo/service"
	"github.com/tododocker/todo-backend/pkg/logger"
)

func main() {
	prefix := flag.String("prefix", "exports", "object key prefix")
	expiry := flag.Duration("url-expiry", 24*time.Hour, "lifetime of the presigned URL")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	mgr := database.NewManager(
		database.WithConnectTimeout(cfg.MongoDB.Timeout),
		database.WithPingTimeout(cfg.MongoDB.PingTimeout),
	)
	mgr.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.MongoDB.Collection)

	code := run(ctx, cfg, mgr, *prefix, *expiry, os.Stdout)

	cancel()
	if err := mgr.Close(context.Background()); err != nil {
		logger.Warnf("mongo disconnect: %v", err)
	}
	os.Exit(code)
}

// run exports one snapshot through mgr and writes the download URL to out.
// It returns the process exit code; mgr is left open for the caller to close.
func run(ctx context.Context, cfg *config.Config, mgr *database.Manager, prefix string, expiry time.Duration, out io.Writer) int {
	if !mgr.IsConnected(ctx) {
		logger.Errorf("export aborted: database unreachable")
		return 1
	}
	svc := service.NewService(mgr, repository.NewMongoRepo(mgr.Collection()))

	store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		logger.Errorf("object storage: %v", err)
		return 1
	}

	key, err := export.NewExporter(svc, store, prefix, cfg.API.Version, cfg.API.DatabaseLabel).Run(ctx)
	if err != nil {
		logger.Errorf("export failed: %v", err)
		return 1
	}
	logger.Infof("snapshot written to %s/%s", cfg.MinIO.Bucket, key)

	url, err := store.GetPresignedURL(ctx, key, expiry)
	if err != nil {
		logger.Warnf("could not presign %s: %v", key, err)
		return 0
	}
	fmt.Fprintln(out, url)
	return 0
}
