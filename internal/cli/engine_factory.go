package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/twsgraph"
	"github.com/aretw0/twsgraph/internal/classify"
	"github.com/aretw0/twsgraph/internal/config"
	"github.com/aretw0/twsgraph/pkg/adapters/memory"
	"github.com/aretw0/twsgraph/pkg/adapters/redis"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/observability"
	"github.com/aretw0/twsgraph/pkg/persistence/middleware"
	"github.com/aretw0/twsgraph/pkg/ports"
)

// createEngine initializes an engine with standard CLI conventions.
func createEngine(cfg *config.Config, logger *slog.Logger, debug bool, extra ...domain.LifecycleHooks) (*twsgraph.Engine, error) {
	classifier, err := classify.New(cfg.Patterns())
	if err != nil {
		return nil, fmt.Errorf("invalid classify patterns: %w", err)
	}

	// 1. Hooks: pipeline events are logged only in debug mode
	var hooks domain.LifecycleHooks
	if debug {
		hooks = observability.LoggingHooks(logger)
	}
	for _, h := range extra {
		hooks = hooks.Merge(h)
	}

	// 2. Initialize
	return twsgraph.New(
		twsgraph.WithLogger(logger),
		twsgraph.WithLifecycleHooks(hooks),
		twsgraph.WithParserOptions(cfg.ParserOptions()),
		twsgraph.WithStrictAuxiliary(cfg.Parser.StrictAuxiliary),
		twsgraph.WithClassifier(classifier),
	), nil
}

// workspaceBackend is the store a server keeps workspaces in, with the
// distributed locker to use alongside it (nil for the in-memory store).
type workspaceBackend struct {
	store  ports.WorkspaceStore
	locker ports.DistributedLocker
	close  func() error
}

// createBackend selects Redis when an address is configured, memory otherwise.
func createBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*workspaceBackend, error) {
	rc := cfg.Server.Redis
	if rc.Addr == "" {
		logger.Debug("Using in-memory workspace store")
		return &workspaceBackend{store: memory.NewStore(), close: func() error { return nil }}, nil
	}

	enc, err := rc.Encryption()
	if err != nil {
		return nil, err
	}

	store := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithTTL(rc.TTL), redis.WithPrefix(rc.Prefix))
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", rc.Addr, err)
	}
	logger.Info("Using Redis workspace store", "addr", rc.Addr, "ttl", rc.TTL, "encrypted", enc != nil)

	var ws ports.WorkspaceStore = store
	if enc != nil {
		ws = middleware.Chain(store, middleware.NewEncryptionMiddleware(*enc))
	}
	return &workspaceBackend{
		store:  ws,
		locker: redis.NewLocker(store.Client(), rc.Prefix),
		close:  store.Close,
	}, nil
}
