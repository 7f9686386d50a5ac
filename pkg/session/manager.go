package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/migrations"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/aretw0/arbor/pkg/record"
)

// DefaultLockTTL bounds how long a crashed replica can hold a document.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates document access, ensuring one writer per document.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.DocumentStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	logger   *slog.Logger
	gen      ids.Generator
	factory  []record.Option
	migrator *migrations.Runner
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithGenerator sets the id source for new documents and for every factory the
// manager hands out.
func WithGenerator(gen ids.Generator) Option {
	return func(m *Manager) {
		m.gen = gen
	}
}

// WithFactoryOptions configures the project factories passed to Edit and View.
func WithFactoryOptions(opts ...record.Option) Option {
	return func(m *Manager) {
		m.factory = append(m.factory, opts...)
	}
}

// WithMigrations replaces the runner used by Create and Migrate.
func WithMigrations(r *migrations.Runner) Option {
	return func(m *Manager) {
		m.migrator = r
	}
}

// NewManager creates a new Manager over the given document store.
func NewManager(store ports.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		gen:     ids.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.migrator == nil {
		m.migrator = migrations.NewRunner(migrations.WithLogger(m.logger))
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(docID) after unlocking.
func (m *Manager) acquire(docID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[docID]
	if !exists {
		entry = &lockEntry{}
		m.locks[docID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(docID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[docID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, docID)
	}
}

func (m *Manager) factoryOptions() []record.Option {
	opts := []record.Option{record.WithGenerator(m.gen), record.WithLogger(m.logger)}
	return append(opts, m.factory...)
}

// Load retrieves a document from the store.
func (m *Manager) Load(ctx context.Context, docID string) (*domain.Record, error) {
	var doc *domain.Record
	err := m.WithLock(ctx, docID, func(ctx context.Context) error {
		var err error
		doc, err = m.store.Load(ctx, docID)
		return err
	})
	return doc, err
}

// Create initializes a new migrated project document under docID.
// It fails with domain.ErrIDConflict if the document already exists.
func (m *Manager) Create(ctx context.Context, docID, name string) (*domain.Record, error) {
	var doc *domain.Record
	err := m.WithLock(ctx, docID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, docID)
		if err == nil {
			return fmt.Errorf("%w: document %s already exists", domain.ErrIDConflict, docID)
		}
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("failed to check document existence: %w", err)
		}

		doc = project.NewDocument(m.gen.Next(), name)
		if _, err := m.migrator.Run(doc); err != nil {
			return err
		}
		if err := m.store.Save(ctx, docID, doc); err != nil {
			return fmt.Errorf("failed to initialize document: %w", err)
		}
		m.logger.Info("document created", "doc_id", docID, "project_id", doc.ID)
		return nil
	})
	return doc, err
}

// Save validates and persists the document.
func (m *Manager) Save(ctx context.Context, docID string, doc *domain.Record) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid document %s: %w", docID, err)
	}
	return m.WithLock(ctx, docID, func(ctx context.Context) error {
		return m.store.Save(ctx, docID, doc)
	})
}

// Delete removes the document from the store.
func (m *Manager) Delete(ctx context.Context, docID string) error {
	return m.WithLock(ctx, docID, func(ctx context.Context) error {
		return m.store.Delete(ctx, docID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// View runs fn over a project factory of the stored document without saving.
func (m *Manager) View(ctx context.Context, docID string, fn func(*project.Factory) error) error {
	return m.WithLock(ctx, docID, func(ctx context.Context) error {
		pf, err := m.open(ctx, docID)
		if err != nil {
			return err
		}
		return fn(pf)
	})
}

// Edit loads the document, runs fn over its project factory, validates the
// tree and saves it. Any error from fn or validation discards the edit.
func (m *Manager) Edit(ctx context.Context, docID string, fn func(*project.Factory) error) error {
	return m.WithLock(ctx, docID, func(ctx context.Context) error {
		pf, err := m.open(ctx, docID)
		if err != nil {
			return err
		}
		if err := fn(pf); err != nil {
			return err
		}
		if err := pf.Target().Validate(); err != nil {
			return fmt.Errorf("edit left document %s inconsistent: %w", docID, err)
		}
		if err := m.store.Save(ctx, docID, pf.Target()); err != nil {
			return fmt.Errorf("failed to save document %s: %w", docID, err)
		}
		return nil
	})
}

// Migrate upgrades the stored document and returns the versions applied.
func (m *Manager) Migrate(ctx context.Context, docID string) ([]int, error) {
	var applied []int
	err := m.WithLock(ctx, docID, func(ctx context.Context) error {
		doc, err := m.store.Load(ctx, docID)
		if err != nil {
			return err
		}
		applied, err = m.migrator.Run(doc)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			return nil
		}
		return m.store.Save(ctx, docID, doc)
	})
	return applied, err
}

func (m *Manager) open(ctx context.Context, docID string) (*project.Factory, error) {
	doc, err := m.store.Load(ctx, docID)
	if err != nil {
		return nil, err
	}
	return project.New(doc, m.factoryOptions()...)
}

// WithLock executes a function while holding the lock for the document.
func (m *Manager) WithLock(ctx context.Context, docID string, fn func(context.Context) error) error {
	entry := m.acquire(docID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(docID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, docID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"doc_id", docID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
