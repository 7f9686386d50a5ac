package scene

import (
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/record"
)

// Factory is the scene-level record factory.
type Factory struct {
	*record.Factory
}

// New wraps a scene record. Options are forwarded to the generic engine.
func New(rec *domain.Record, opts ...record.Option) (*Factory, error) {
	if rec == nil || rec.Type != domain.TypeScene {
		return nil, fmt.Errorf("expected %s record", domain.TypeScene)
	}
	sf := &Factory{}
	opts = append(slices.Clone(opts),
		record.WithBehavior(domain.TypeElement, record.Behavior{
			AfterInsert: func(_ *record.Factory, op domain.Op, rec *domain.Record) error {
				if op == domain.OpAdd {
					return nil
				}
				return sf.DedupeGroupElements(rec)
			},
			BeforeDelete: func(_ *record.Factory, _ domain.Op, id int64) error {
				return sf.pruneElementReferences(id)
			},
		}),
		record.WithBehavior(domain.TypeRule, record.Behavior{
			AfterInsert: func(_ *record.Factory, _ domain.Op, rec *domain.Record) error {
				return sf.DedupeWeTaIDs(rec)
			},
		}),
	)
	sf.Factory = record.New(rec, opts...)
	return sf, nil
}

// DeleteRulesForCoID removes every when_event and then_action referencing id,
// then deletes each rule left with no when_event and no then_action.
func (f *Factory) DeleteRulesForCoID(id int64) error {
	for _, rule := range f.Records(domain.TypeRule) {
		rf := f.Child(rule)
		for _, t := range []domain.RecordType{domain.TypeWhenEvent, domain.TypeThenAction} {
			for _, rec := range rf.Records(t) {
				if co, ok := rec.Int(domain.PropCoID); !ok || co != id {
					continue
				}
				if _, err := rf.DeleteRecord(t, rec.ID); err != nil {
					return fmt.Errorf("pruning rule %d: %w", rule.ID, err)
				}
			}
		}
		if len(rf.RecordOrder(domain.TypeWhenEvent)) == 0 && len(rf.RecordOrder(domain.TypeThenAction)) == 0 {
			if _, err := f.DeleteRecord(domain.TypeRule, rule.ID); err != nil {
				return fmt.Errorf("deleting emptied rule: %w", err)
			}
			f.Logger().Debug("rule emptied by cascade", "rule_id", rule.ID, "co_id", id)
		}
	}
	return nil
}

// pruneElementReferences runs before an element leaves the scene. Elements nested
// under it disappear with it, so references to them are pruned as well unless the
// same id still names an element elsewhere in the scene.
func (f *Factory) pruneElementReferences(id int64) error {
	target, err := f.Record(domain.TypeElement, id)
	if err != nil {
		return err
	}
	if err := f.DeleteRulesForCoID(id); err != nil {
		return err
	}

	var nested []int64
	walkElements(target, func(rec *domain.Record) {
		if rec != target {
			nested = append(nested, rec.ID)
		}
	})
	if len(nested) == 0 {
		return nil
	}

	remaining := ids.NewSet()
	for _, top := range f.Records(domain.TypeElement) {
		if top == target {
			continue
		}
		walkElements(top, func(rec *domain.Record) { remaining.Add(rec.ID) })
	}
	for _, nid := range nested {
		if nid == id || remaining.Has(nid) {
			continue
		}
		if err := f.DeleteRulesForCoID(nid); err != nil {
			return err
		}
	}
	return nil
}

// DedupeWeTaIDs reassigns the when_event / then_action ids of rule that collide
// with ids used by any other rule of the scene. Non-colliding ids are kept.
func (f *Factory) DedupeWeTaIDs(rule *domain.Record) error {
	collected := ids.NewSet()
	for _, r := range f.Records(domain.TypeRule) {
		if r.ID == rule.ID {
			continue
		}
		for _, t := range []domain.RecordType{domain.TypeWhenEvent, domain.TypeThenAction} {
			for _, id := range r.Collection(t).Order {
				collected.Add(id)
			}
		}
	}
	if len(collected) == 0 {
		return nil
	}

	rf := f.Child(rule)
	for _, t := range []domain.RecordType{domain.TypeWhenEvent, domain.TypeThenAction} {
		for _, id := range rf.RecordOrder(t) {
			if !collected.Has(id) {
				continue
			}
			if _, err := rf.ChangeRecordIDExcluding(t, id, collected); err != nil {
				return fmt.Errorf("deduping rule %d: %w", rule.ID, err)
			}
		}
	}
	return nil
}

// DedupeGroupElements gives every element nested in group, at any depth, a fresh
// id disjoint from every element id in the scene. Sibling order and nesting are kept.
// Non-group elements are left alone.
func (f *Factory) DedupeGroupElements(group *domain.Record) error {
	if !element.IsGroup(group) {
		return nil
	}
	taken := f.ElementIDs()

	type frame struct {
		rec   *domain.Record
		depth int
	}
	stack := []frame{{rec: group}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := fr.rec.Collection(domain.TypeElement)
		if c.Len() == 0 {
			continue
		}
		if fr.depth+1 > f.MaxDepth() {
			return fmt.Errorf("%w: group %d nests more than %d levels", domain.ErrTreeTooDeep, group.ID, f.MaxDepth())
		}

		children := c.Records()
		c.Map = make(map[int64]*domain.Record, len(children))
		c.Order = make([]int64, 0, len(children))

		gf := f.Child(fr.rec)
		for _, child := range children {
			child.ID = ids.Fresh(f.Generator(), taken.Has, c.Has)
			taken.Add(child.ID)
			if element.IsGroup(child) {
				stack = append(stack, frame{rec: child, depth: fr.depth + 1})
			}
			if _, err := gf.AddRecord(child); err != nil {
				return fmt.Errorf("re-adding group child: %w", err)
			}
		}
	}
	return nil
}

// ElementIDs returns the id of every element in the scene, at every depth.
func (f *Factory) ElementIDs() ids.Set {
	out := ids.NewSet()
	for _, top := range f.Records(domain.TypeElement) {
		walkElements(top, func(rec *domain.Record) { out.Add(rec.ID) })
	}
	return out
}

// FindElement locates an element at any depth and returns it with its parent.
func (f *Factory) FindElement(id int64) (parent, rec *domain.Record, err error) {
	type frame struct{ parent, rec *domain.Record }
	var stack []frame
	for _, top := range f.Records(domain.TypeElement) {
		stack = append(stack, frame{parent: f.Target(), rec: top})
	}
	for len(stack) > 0 {
		fr := stack[0]
		stack = stack[1:]
		if fr.rec.ID == id {
			return fr.parent, fr.rec, nil
		}
		for _, child := range fr.rec.Collection(domain.TypeElement).Records() {
			stack = append(stack, frame{parent: fr.rec, rec: child})
		}
	}
	return nil, nil, fmt.Errorf("%w: %s %d in scene %d", domain.ErrNotFound, domain.TypeElement, id, f.Target().ID)
}

// walkElements visits root and its nested elements in pre-order.
func walkElements(root *domain.Record, fn func(*domain.Record)) {
	stack := []*domain.Record{root}
	for len(stack) > 0 {
		rec := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(rec)
		children := rec.Collection(domain.TypeElement).Records()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}
