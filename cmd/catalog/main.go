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
	cfg, err := config.Load("catalog", config.CatalogDefaults)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := kit.NewLogger(cfg.Service, cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := service.Run(context.Background(), cfg, log); err != nil {
		log.Fatal("catalog stopped", zap.Error(err))
	}
}
