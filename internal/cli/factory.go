package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/gamebook"
	"github.com/aretw0/gamebook/internal/config"
	"github.com/aretw0/gamebook/internal/logging"
	"github.com/aretw0/gamebook/pkg/adapters/badger"
	"github.com/aretw0/gamebook/pkg/adapters/file"
	"github.com/aretw0/gamebook/pkg/adapters/memory"
	"github.com/aretw0/gamebook/pkg/adapters/redis"
	"github.com/aretw0/gamebook/pkg/adapters/sqlite"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/observability"
	"github.com/aretw0/gamebook/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Env bundles everything a command needs. Close releases the store.
type Env struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    ports.SessionStore
	Engine   *gamebook.Engine
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Setup opens the configured store and builds an engine on top of it.
// extra hooks run after the metrics and logging hooks.
func Setup(cfg *config.Config, debug bool, extra ...domain.LifecycleHooks) (*Env, error) {
	logger := createLogger(cfg, debug)
	env := &Env{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	// 1. Store
	store, locker, err := env.openStore()
	if err != nil {
		_ = env.Close()
		return nil, err
	}
	env.Store = store

	// 2. Observability
	env.Metrics = observability.NewMetrics(env.Registry)
	sets := []domain.LifecycleHooks{env.Metrics.Hooks(), observability.LoggingHooks(logger)}
	sets = append(sets, extra...)

	// 3. Engine
	opts := []gamebook.Option{
		gamebook.WithLogger(logger),
		gamebook.WithLifecycleHooks(observability.Combine(sets...)),
		gamebook.WithTagInference(cfg.Parser.TagInference),
		gamebook.WithMaxSteps(cfg.Search.MaxSteps),
		gamebook.WithSearchTimeout(cfg.Search.Timeout),
	}
	if locker != nil {
		opts = append(opts, gamebook.WithLocker(locker, cfg.Store.Redis.LockTTL))
	}
	env.Engine = gamebook.New(store, opts...)

	logger.Debug("Environment ready", "driver", cfg.Store.Driver, "path", cfg.StorePath(), "lock", locker != nil)
	return env, nil
}

// openStore returns the session store and, when enabled, the Redis session lock.
func (e *Env) openStore() (ports.SessionStore, ports.DistributedLocker, error) {
	cfg := e.Config
	rc := cfg.Store.Redis

	var store ports.SessionStore
	var redisStore *redis.Store
	switch cfg.Store.Driver {
	case config.DriverMemory:
		store = memory.NewStore()
	case config.DriverFile, "":
		store = file.New(cfg.StorePath())
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.StorePath())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		e.closers = append(e.closers, s.Close)
		store = s
	case config.DriverBadger:
		s, err := badger.Open(badger.Config{Path: cfg.StorePath(), Logger: e.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		e.closers = append(e.closers, s.Close)
		store = s
	case config.DriverRedis:
		redisStore = newRedisStore(rc)
		e.closers = append(e.closers, redisStore.Close)
		store = redisStore
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if !rc.Lock {
		return store, nil, nil
	}
	if redisStore == nil {
		redisStore = newRedisStore(rc)
		e.closers = append(e.closers, redisStore.Close)
	}
	prefix := rc.Prefix
	if prefix == "" {
		prefix = redis.DefaultPrefix
	}
	return store, redis.NewLocker(redisStore.Client(), prefix), nil
}

func newRedisStore(rc config.RedisConfig) *redis.Store {
	opts := []redis.Option{redis.WithTTL(rc.TTL)}
	if rc.Prefix != "" {
		opts = append(opts, redis.WithPrefix(rc.Prefix))
	}
	return redis.New(rc.Addr, rc.Password, rc.DB, opts...)
}

// createLogger configures the application logger.
// It always writes to Stderr so Stdout stays clean for CSV, Mermaid or JSON-RPC.
func createLogger(cfg *config.Config, debug bool) *slog.Logger {
	level := logging.ParseLevel(cfg.Log.Level)
	if debug {
		level = slog.LevelDebug
	}
	return logging.New(level, cfg.Log.Format)
}
