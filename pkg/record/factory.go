package record

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
)

// Behavior is the per-record-type hook point for cascades.
// AfterInsert runs after Add, Duplicate and DuplicateDeep; BeforeDelete runs before
// Delete and DeleteDeep, once the target is known to exist.
type Behavior struct {
	AfterInsert  func(f *Factory, op domain.Op, rec *domain.Record) error
	BeforeDelete func(f *Factory, op domain.Op, id int64) error
}

// Factory is the generic engine over one record's children.
// It borrows exclusive mutable access to the wrapped record for the duration of each call.
type Factory struct {
	target    *domain.Record
	gen       ids.Generator
	maxDepth  int
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	behaviors map[domain.RecordType]Behavior
}

// Option configures a Factory.
type Option func(*Factory)

// WithGenerator sets the id source.
func WithGenerator(gen ids.Generator) Option {
	return func(f *Factory) {
		f.gen = gen
	}
}

// WithMaxDepth sets the recursion ceiling for deep copies.
func WithMaxDepth(depth int) Option {
	return func(f *Factory) {
		f.maxDepth = depth
	}
}

// WithLogger sets a structured logger. Mutations are logged at Debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Factory) {
		f.hooks = hooks
	}
}

// WithBehavior registers cascade hooks for records of type t.
func WithBehavior(t domain.RecordType, b Behavior) Option {
	return func(f *Factory) {
		if f.behaviors == nil {
			f.behaviors = make(map[domain.RecordType]Behavior)
		}
		f.behaviors[t] = b
	}
}

// New wraps target.
func New(target *domain.Record, opts ...Option) *Factory {
	f := &Factory{
		target:   target,
		gen:      ids.Default(),
		maxDepth: domain.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logging.NewNop()
	}
	if f.maxDepth <= 0 {
		f.maxDepth = domain.DefaultMaxDepth
	}
	return f
}

// Child wraps rec with the same generator, depth limit, logger and hooks, but no behaviors.
func (f *Factory) Child(rec *domain.Record) *Factory {
	return &Factory{
		target:   rec,
		gen:      f.gen,
		maxDepth: f.maxDepth,
		logger:   f.logger,
		hooks:    f.hooks,
	}
}

// Target returns the wrapped record.
func (f *Factory) Target() *domain.Record { return f.target }

// Generator returns the id source.
func (f *Factory) Generator() ids.Generator { return f.gen }

// MaxDepth returns the recursion ceiling.
func (f *Factory) MaxDepth() int { return f.maxDepth }

// Logger returns the factory logger.
func (f *Factory) Logger() *slog.Logger { return f.logger }

// Get returns a property of the wrapped record.
func (f *Factory) Get(key string) any { return f.target.Get(key) }

// Set assigns a property of the wrapped record.
func (f *Factory) Set(key string, value any) { f.target.Set(key, value) }

// Record looks up a direct child.
func (f *Factory) Record(t domain.RecordType, id int64) (*domain.Record, error) {
	c := f.target.Collection(t)
	if !c.Has(id) {
		return nil, notFound(t, id)
	}
	return c.Map[id], nil
}

// Records returns the children of type t in order.
// The slice is fresh; the records are the live nodes and must not be mutated directly.
func (f *Factory) Records(t domain.RecordType) []*domain.Record {
	return f.target.Collection(t).Records()
}

// RecordOrder returns a copy of the id ordering for t.
func (f *Factory) RecordOrder(t domain.RecordType) []int64 {
	c := f.target.Collection(t)
	if c == nil {
		return []int64{}
	}
	return slices.Clone(c.Order)
}

// FreshID returns an id not present in the collection for t nor in any exclude set.
func (f *Factory) FreshID(t domain.RecordType, exclude ...ids.Set) int64 {
	taken := []func(int64) bool{f.target.Collection(t).Has}
	for _, s := range exclude {
		taken = append(taken, s.Has)
	}
	return ids.Fresh(f.gen, taken...)
}

// AddRecord inserts rec into the collection matching rec.Type.
// position is an optional index into the ordering, clamped into [0, len(order)];
// the default appends.
// An id already present in that collection fails with domain.ErrIDConflict.
func (f *Factory) AddRecord(rec *domain.Record, position ...int) (*domain.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("cannot add nil record")
	}
	if rec.Type == "" {
		return nil, fmt.Errorf("cannot add record %d without a type", rec.ID)
	}
	c := f.target.EnsureCollection(rec.Type)
	if c.Has(rec.ID) {
		return nil, fmt.Errorf("%w: %s %d already exists under %s %d", domain.ErrIDConflict, rec.Type, rec.ID, f.target.Type, f.target.ID)
	}
	if rec.Props == nil {
		rec.Props = make(map[string]any)
	}
	f.insert(c, rec, pos(c, position))
	f.emit(domain.OpAdd, rec.Type, rec.ID, 0)

	if err := f.afterInsert(domain.OpAdd, rec); err != nil {
		f.unlink(c, rec.ID)
		return nil, err
	}
	return rec, nil
}

// CreateRecord builds a record of type t with a fresh id and the given props, then adds it.
func (f *Factory) CreateRecord(t domain.RecordType, props map[string]any, position ...int) (*domain.Record, error) {
	rec := domain.NewRecord(f.FreshID(t), t)
	for k, v := range props {
		rec.Props[k] = v
	}
	return f.AddRecord(rec, position...)
}

// DuplicateRecord deep-copies the child (t, id), gives the copy a fresh id and
// inserts it right after the source. Descendant ids are kept as they are.
func (f *Factory) DuplicateRecord(t domain.RecordType, id int64) (*domain.Record, error) {
	src, err := f.Record(t, id)
	if err != nil {
		return nil, err
	}
	dup, err := Clone(src, f.maxDepth)
	if err != nil {
		return nil, err
	}
	return f.placeDuplicate(domain.OpDuplicate, t, id, dup)
}

// DuplicateDeepRecord is DuplicateRecord with a fresh id for every descendant at every depth.
func (f *Factory) DuplicateDeepRecord(t domain.RecordType, id int64) (*domain.Record, error) {
	src, err := f.Record(t, id)
	if err != nil {
		return nil, err
	}
	dup, _, err := Remap(src, f.gen, f.maxDepth)
	if err != nil {
		return nil, err
	}
	return f.placeDuplicate(domain.OpDuplicateDeep, t, id, dup, SubtreeIDs(src), SubtreeIDs(dup))
}

func (f *Factory) placeDuplicate(op domain.Op, t domain.RecordType, srcID int64, dup *domain.Record, exclude ...ids.Set) (*domain.Record, error) {
	c := f.target.Collection(t)
	dup.ID = f.FreshID(t, exclude...)
	f.insert(c, dup, c.IndexOf(srcID)+1)
	f.emit(op, t, dup.ID, srcID)

	if err := f.afterInsert(op, dup); err != nil {
		f.unlink(c, dup.ID)
		return nil, err
	}
	return dup, nil
}

// DeleteRecord removes the child (t, id) from both map and order and returns it.
func (f *Factory) DeleteRecord(t domain.RecordType, id int64) (*domain.Record, error) {
	return f.remove(domain.OpDelete, t, id)
}

// DeleteDeepRecord removes the child (t, id) together with its whole subtree.
// Descendants are only reachable through the parent, so dropping the entry discards them.
func (f *Factory) DeleteDeepRecord(t domain.RecordType, id int64) (*domain.Record, error) {
	return f.remove(domain.OpDeleteDeep, t, id)
}

func (f *Factory) remove(op domain.Op, t domain.RecordType, id int64) (*domain.Record, error) {
	if _, err := f.Record(t, id); err != nil {
		return nil, err
	}
	if b, ok := f.behaviors[t]; ok && b.BeforeDelete != nil {
		if err := b.BeforeDelete(f, op, id); err != nil {
			return nil, err
		}
	}

	// The cascade may have reshaped the collection; look again.
	c := f.target.Collection(t)
	rec, ok := c.Map[id]
	if !ok {
		return nil, fmt.Errorf("cascade removed %s %d before its own delete: %w", t, id, domain.ErrNotFound)
	}
	f.unlink(c, id)
	f.emit(op, t, id, 0)
	return rec, nil
}

// ChangeRecordID gives the child (t, oldID) a fresh id, keeping its position.
func (f *Factory) ChangeRecordID(t domain.RecordType, oldID int64) (int64, error) {
	return f.ChangeRecordIDExcluding(t, oldID, nil)
}

// ChangeRecordIDExcluding is ChangeRecordID where the new id also avoids exclude.
func (f *Factory) ChangeRecordIDExcluding(t domain.RecordType, oldID int64, exclude ids.Set) (int64, error) {
	rec, err := f.Record(t, oldID)
	if err != nil {
		return 0, err
	}
	c := f.target.Collection(t)
	newID := f.FreshID(t, exclude)

	delete(c.Map, oldID)
	rec.ID = newID
	c.Map[newID] = rec
	c.Order[c.IndexOf(oldID)] = newID

	f.emit(domain.OpChangeID, t, newID, oldID)
	return newID, nil
}

func (f *Factory) insert(c *domain.Collection, rec *domain.Record, at int) {
	c.Map[rec.ID] = rec
	c.Order = slices.Insert(c.Order, at, rec.ID)
}

// unlink drops id from both map and order.
func (f *Factory) unlink(c *domain.Collection, id int64) {
	delete(c.Map, id)
	if i := c.IndexOf(id); i >= 0 {
		c.Order = slices.Delete(c.Order, i, i+1)
	}
}

func (f *Factory) afterInsert(op domain.Op, rec *domain.Record) error {
	b, ok := f.behaviors[rec.Type]
	if !ok || b.AfterInsert == nil {
		return nil
	}
	return b.AfterInsert(f, op, rec)
}

func (f *Factory) emit(op domain.Op, t domain.RecordType, id, prev int64) {
	f.logger.Debug("record mutated",
		"op", op,
		"type", t,
		"id", id,
		"prev_id", prev,
		"parent", f.target.Type,
		"parent_id", f.target.ID,
	)
	f.hooks.Emit(&domain.MutationEvent{
		Op:       op,
		Type:     t,
		ID:       id,
		PrevID:   prev,
		Parent:   f.target.Type,
		ParentID: f.target.ID,
	})
}

// pos resolves the optional insertion index, clamped into [0, len(order)].
func pos(c *domain.Collection, position []int) int {
	n := len(c.Order)
	if len(position) == 0 {
		return n
	}
	return min(max(position[0], 0), n)
}

func notFound(t domain.RecordType, id int64) error {
	return fmt.Errorf("%w: %s %d", domain.ErrNotFound, t, id)
}
