// Package service wires configuration, storage and the HTTP handler into a
// running catalog process.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ProductCatalog/internal/cache"
	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/config"
	"ProductCatalog/pkg/kit"
)

const (
	writeLimitWindow = time.Minute
	seedTimeout      = 30 * time.Second
)

// Run serves the catalog described by cfg until ctx ends or a shutdown signal arrives.
func Run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, closeStore, err := OpenStore(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore.Close(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}()

	if err := seed(ctx, cfg, store, log); err != nil {
		return err
	}

	s := &catalog.Server{Store: store, Log: log}
	if cfg.WriteLimitPerMin > 0 {
		s.WriteLimiter = kit.NewIPRateLimiter(cfg.WriteLimitPerMin, writeLimitWindow)
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        cfg.Service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	return kit.RunHTTPServer(ctx, cfg.Addr(), h, log, cfg.ShutdownTimeout)
}

type closers []io.Closer

func (cs closers) Close() error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		errs = append(errs, cs[i].Close())
	}
	return errors.Join(errs...)
}

// OpenStore builds the configured backend, optionally fronted by the Redis cache.
// The returned closer releases every connection the store holds.
func OpenStore(ctx context.Context, cfg config.Config, log *zap.Logger, reg prometheus.Registerer) (catalog.Store, io.Closer, error) {
	newID, err := catalog.NewIDGenerator(cfg.IDScheme, cfg.IDSize)
	if err != nil {
		return nil, nil, err
	}

	var (
		store catalog.Store
		cs    closers
	)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := catalog.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		cs = append(cs, db)

		pg := catalog.NewPostgresStore(db, newID)
		if err := pg.Migrate(ctx); err != nil {
			_ = cs.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		store = pg
	default:
		store = catalog.NewMemStore(newID)
	}
	log.Info("store ready", zap.String("backend", cfg.StoreBackend), zap.String("id_scheme", cfg.IDScheme))

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rc := cache.NewRedis(client, cache.DefaultPrefix, cfg.CacheTTL, reg)
		cs = append(cs, rc)

		if err := rc.Ping(ctx); err != nil {
			_ = cs.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		store = catalog.NewCachedStore(store, rc, log)
		log.Info("read-through cache enabled", zap.String("redis", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
	}

	return store, cs, nil
}

func seed(ctx context.Context, cfg config.Config, store catalog.Store, log *zap.Logger) error {
	items, err := catalog.SeedProducts(cfg.Seed, cfg.SeedCount)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	n, err := catalog.SeedIfEmpty(ctx, store, items)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info("store seeded", zap.String("mode", cfg.Seed), zap.Int("products", n))
	}
	return nil
}
