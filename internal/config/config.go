// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Service string

	Port            string
	ShutdownTimeout time.Duration

	StoreBackend string
	DatabaseURL  string
	RedisAddr    string
	CacheTTL     time.Duration

	IDScheme string
	IDSize   int

	Seed      string
	SeedCount int

	MetricsEnabled bool
	MetricsToken   string

	WriteLimitPerMin int

	LogLevel       string
	LogDevelopment bool
}

// Defaults are the per-service values used when the environment is silent.
type Defaults struct {
	Port         string
	Seed         string
	StoreBackend string
}

var (
	CatalogDefaults = Defaults{Port: "3001", Seed: "catalog", StoreBackend: BackendMemory}
	DemoDefaults    = Defaults{Port: "3000", Seed: "generated", StoreBackend: BackendMemory}
)

// Load reads the environment for service. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load(service string, d Defaults) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, d)
	v.AutomaticEnv()
	// BACKEND_PORT is the older name for PORT.
	if err := v.BindEnv("PORT", "PORT", "BACKEND_PORT"); err != nil {
		return Config{}, fmt.Errorf("bind PORT: %w", err)
	}

	cfg := Config{
		Service:          service,
		Port:             strings.TrimPrefix(v.GetString("PORT"), ":"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		StoreBackend:     strings.ToLower(v.GetString("STORE_BACKEND")),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		CacheTTL:         v.GetDuration("CACHE_TTL"),
		IDScheme:         strings.ToLower(v.GetString("ID_SCHEME")),
		IDSize:           v.GetInt("ID_SIZE"),
		Seed:             strings.ToLower(v.GetString("SEED")),
		SeedCount:        v.GetInt("SEED_COUNT"),
		MetricsEnabled:   v.GetBool("METRICS_ENABLED"),
		MetricsToken:     v.GetString("METRICS_TOKEN"),
		WriteLimitPerMin: v.GetInt("WRITE_LIMIT_PER_MIN"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogDevelopment:   v.GetBool("LOG_DEVELOPMENT"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Defaults) {
	v.SetDefault("PORT", d.Port)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("STORE_BACKEND", d.StoreBackend)
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("ID_SCHEME", "nanoid")
	v.SetDefault("ID_SIZE", 6)
	v.SetDefault("SEED", d.Seed)
	v.SetDefault("SEED_COUNT", 100)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("WRITE_LIMIT_PER_MIN", 0)
	v.SetDefault("LOG_LEVEL", "info")
}

func (c Config) validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND %q is not one of memory, postgres", c.StoreBackend))
	}
	if c.SeedCount < 0 {
		errs = append(errs, errors.New("SEED_COUNT must not be negative"))
	}
	if c.WriteLimitPerMin < 0 {
		errs = append(errs, errors.New("WRITE_LIMIT_PER_MIN must not be negative"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for Port.
func (c Config) Addr() string { return ":" + c.Port }
