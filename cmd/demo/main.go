// Command demo runs the catalog with an in-memory store pre-filled with a
// generated catalog, for trying the API without any infrastructure.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"ProductCatalog/internal/config"
	"ProductCatalog/internal/service"
	"ProductCatalog/pkg/kit"
)

func main() {
	cfg, err := config.Load("demo", config.DemoDefaults)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	cfg.StoreBackend = config.BackendMemory
	cfg.RedisAddr = ""

	log, err := kit.NewLogger(cfg.Service, cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := service.Run(context.Background(), cfg, log); err != nil {
		log.Fatal("demo stopped", zap.Error(err))
	}
}
