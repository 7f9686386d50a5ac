// Package migrations upgrades project documents in place, one numbered step at a time.
package migrations

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/project"
)

// Migration is one upgrade step.
type Migration interface {
	// Version is the document version the step produces.
	Version() int
	Name() string
	Execute(doc *domain.Record) error
}

// Runner applies registered migrations in version order.
type Runner struct {
	migrations []Migration
	logger     *slog.Logger
}

// Option configures the Runner.
type Option func(*Runner)

// WithLogger configures a logger for the Runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMigrations replaces the default migration set.
func WithMigrations(ms ...Migration) Option {
	return func(r *Runner) {
		r.migrations = ms
	}
}

// NewRunner creates a Runner with the built-in migrations.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		migrations: Default(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	sort.SliceStable(r.migrations, func(i, j int) bool {
		return r.migrations[i].Version() < r.migrations[j].Version()
	})
	return r
}

// Default returns the built-in migrations.
func Default() []Migration {
	return []Migration{createPredefinedVars{}}
}

// Latest returns the highest version the runner knows.
func (r *Runner) Latest() int {
	if len(r.migrations) == 0 {
		return 0
	}
	return r.migrations[len(r.migrations)-1].Version()
}

// Run upgrades doc to the latest version and returns the versions applied.
// The document's version prop is bumped after each successful step.
func (r *Runner) Run(doc *domain.Record) ([]int, error) {
	if doc.Type != domain.TypeProject {
		return nil, fmt.Errorf("migrations apply to %s records, got %s", domain.TypeProject, doc.Type)
	}
	current, _ := doc.Int(domain.PropVersion)

	var applied []int
	for _, m := range r.migrations {
		if int64(m.Version()) <= current {
			continue
		}
		if err := m.Execute(doc); err != nil {
			return applied, fmt.Errorf("migration %d (%s): %w", m.Version(), m.Name(), err)
		}
		doc.Set(domain.PropVersion, m.Version())
		applied = append(applied, m.Version())
		r.logger.Info("migration applied", "version", m.Version(), "name", m.Name(), "project_id", doc.ID)
	}
	return applied, nil
}

// createPredefinedVars adds every predefined variable to the project.
type createPredefinedVars struct{}

func (createPredefinedVars) Version() int { return 1 }
func (createPredefinedVars) Name() string { return "create_predefined_vars" }

func (createPredefinedVars) Execute(doc *domain.Record) error {
	pf, err := project.New(doc)
	if err != nil {
		return err
	}
	for _, name := range project.PredefinedVariables() {
		if _, err := pf.AddPredefinedVariable(name); err != nil {
			return err
		}
	}
	return nil
}
