// Command dbcheck probes the configured MongoDB once and exits 0 when it
// answers, 1 otherwise. Intended for container health checks and CI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tododocker/todo-backend/internal/config"
	"github.com/tododocker/todo-backend/internal/database"
	"github.com/tododocker/todo-backend/pkg/logger"
)

func main() {
	timeout := flag.Duration("timeout", 0, "overall deadline (defaults to MONGODB_TIMEOUT)")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)
	os.Exit(check(cfg, *timeout))
}

func check(cfg *config.Config, timeout time.Duration) int {
	if timeout <= 0 {
		timeout = cfg.MongoDB.Timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	mgr := database.NewManager(
		database.WithConnectTimeout(cfg.MongoDB.Timeout),
		database.WithPingTimeout(cfg.MongoDB.PingTimeout),
	)
	defer func() { _ = mgr.Close(context.Background()) }()

	if !mgr.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.MongoDB.Collection) {
		fmt.Println("unhealthy")
		return 1
	}
	fmt.Printf("healthy: %s/%s\n", cfg.MongoDB.Database, cfg.MongoDB.Collection)
	return 0
}
