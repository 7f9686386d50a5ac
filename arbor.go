package arbor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/file"
	arborhttp "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/record"
	"github.com/aretw0/arbor/pkg/session"
)

// logStream keeps logs off stdout, which carries command output.
var logStream io.Writer = os.Stderr

// Workspace is the high-level entry point: a configured document store behind
// a session manager, with logging and metrics attached to every factory.
type Workspace struct {
	Config  config.Config
	Logger  *slog.Logger
	Store   ports.DocumentStore
	Manager *session.Manager
	Metrics *observability.Metrics

	hooks  domain.LifecycleHooks
	gen    ids.Generator
	closer func() error
}

// Option defines a functional option for configuring the Workspace.
type Option func(*Workspace)

// WithLogger overrides the logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.Logger = logger
	}
}

// WithStore bypasses the configured backend.
func WithStore(store ports.DocumentStore) Option {
	return func(w *Workspace) {
		w.Store = store
	}
}

// WithLifecycleHooks registers extra observability hooks, called after metrics.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workspace) {
		w.hooks = hooks
	}
}

// WithGenerator sets the id source for every factory.
func WithGenerator(gen ids.Generator) Option {
	return func(w *Workspace) {
		w.gen = gen
	}
}

// New builds a Workspace from cfg.
func New(cfg config.Config, opts ...Option) (*Workspace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &Workspace{Config: cfg, gen: ids.Default(), closer: func() error { return nil }}
	for _, opt := range opts {
		opt(w)
	}

	if w.Logger == nil {
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		w.Logger = logging.NewWithFormat(logStream, cfg.Log.Format, level)
	}

	var locker ports.DistributedLocker
	if w.Store == nil {
		store, lk, closer, err := openStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		w.Store, locker, w.closer = store, lk, closer
	}
	store, err := wrapStore(w.Store, cfg.Store)
	if err != nil {
		return nil, err
	}
	w.Store = store

	w.Metrics = observability.NewMetrics(nil)
	chain := []domain.LifecycleHooks{w.Metrics.Hooks()}
	if w.Logger.Enabled(context.Background(), slog.LevelDebug) {
		chain = append(chain, observability.LoggingHooks(w.Logger))
	}
	hooks := observability.Chain(append(chain, w.hooks)...)

	mgrOpts := []session.Option{
		session.WithLogger(w.Logger),
		session.WithGenerator(w.gen),
		session.WithLockTTL(cfg.Store.LockTTL),
		session.WithFactoryOptions(
			record.WithMaxDepth(cfg.MaxDepth),
			record.WithLifecycleHooks(hooks),
		),
	}
	if locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(locker))
	}
	w.Manager = session.NewManager(w.Store, mgrOpts...)

	w.Logger.Debug("workspace ready", "backend", cfg.Store.Backend, "max_depth", cfg.MaxDepth)
	return w, nil
}

func openStore(cfg config.StoreConfig) (ports.DocumentStore, ports.DistributedLocker, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "memory":
		return memory.NewStore(), nil, noop, nil
	case "file":
		format, err := file.ParseFormat(cfg.Format)
		if err != nil {
			return nil, nil, nil, err
		}
		return file.New(cfg.Dir, file.WithFormat(format)), nil, noop, nil
	case "redis":
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		return store, redis.NewLocker(store.Client(), cfg.Redis.Prefix), store.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// wrapStore applies encryption and redaction. Redaction runs first on save so
// the masked tree is what gets encrypted.
func wrapStore(store ports.DocumentStore, cfg config.StoreConfig) (ports.DocumentStore, error) {
	var mws []middleware.Middleware
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	if len(cfg.Redact) > 0 {
		redact, err := middleware.NewRedactionMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, redact)
	}
	return middleware.Chain(store, mws...), nil
}

// Handler returns the HTTP editing API, with /metrics when enabled.
func (w *Workspace) Handler() http.Handler {
	opts := []arborhttp.Option{
		arborhttp.WithLogger(w.Logger),
		arborhttp.WithVersion(strings.TrimSpace(Version)),
	}
	if w.Config.HTTP.Metrics {
		opts = append(opts, arborhttp.WithMetrics(w.Metrics))
	}
	return arborhttp.NewHandler(w.Manager, opts...)
}

// Close releases store connections.
func (w *Workspace) Close() error {
	return w.closer()
}
