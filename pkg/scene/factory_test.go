package scene_test

import (
	"math/rand"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/record"
	"github.com/aretw0/arbor/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func el(id int64, name string, t element.Type) *domain.Record {
	r := domain.NewRecord(id, domain.TypeElement)
	r.Set(domain.PropName, name)
	r.Set(domain.PropElementType, string(t))
	return r
}

func weta(id int64, t domain.RecordType, coID int64) *domain.Record {
	r := domain.NewRecord(id, t)
	r.Set(domain.PropCoID, coID)
	return r
}

// rule builds a rule with explicit when_event / then_action children.
func rule(id int64, children ...*domain.Record) *domain.Record {
	r := domain.NewRecord(id, domain.TypeRule)
	f := record.New(r)
	for _, c := range children {
		if _, err := f.AddRecord(c); err != nil {
			panic(err)
		}
	}
	return r
}

func newScene(t *testing.T, opts ...record.Option) *scene.Factory {
	t.Helper()
	sf, err := scene.New(domain.NewRecord(1, domain.TypeScene), opts...)
	require.NoError(t, err)
	return sf
}

func mustAdd(t *testing.T, f *record.Factory, rec *domain.Record) *domain.Record {
	t.Helper()
	out, err := f.AddRecord(rec)
	require.NoError(t, err)
	return out
}

func TestNew_RejectsOtherTypes(t *testing.T) {
	_, err := scene.New(domain.NewRecord(1, domain.TypeRule))
	assert.Error(t, err)
	_, err = scene.New(nil)
	assert.Error(t, err)
}

func TestDeleteElement_CascadeRemovesEmptiedRule(t *testing.T) {
	sf := newScene(t)
	mustAdd(t, sf.Factory, el(5, "door", element.BasicElement))
	mustAdd(t, sf.Factory, rule(50,
		weta(60, domain.TypeWhenEvent, 5),
		weta(61, domain.TypeThenAction, 5),
	))

	removed, err := sf.DeleteRecord(domain.TypeElement, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), removed.ID, "cascade must not change the returned record")

	assert.Empty(t, sf.RecordOrder(domain.TypeElement))
	assert.Empty(t, sf.RecordOrder(domain.TypeRule))
	require.NoError(t, sf.Target().Validate())
}

func TestDeleteElement_CascadeKeepsRuleWithOtherReferences(t *testing.T) {
	sf := newScene(t)
	mustAdd(t, sf.Factory, el(5, "door", element.BasicElement))
	mustAdd(t, sf.Factory, el(6, "key", element.BasicElement))
	mustAdd(t, sf.Factory, rule(50,
		weta(60, domain.TypeWhenEvent, 5),
		weta(62, domain.TypeWhenEvent, 6),
		weta(61, domain.TypeThenAction, 5),
	))

	_, err := sf.DeleteDeepRecord(domain.TypeElement, 5)
	require.NoError(t, err)

	require.Equal(t, []int64{50}, sf.RecordOrder(domain.TypeRule))
	r, _ := sf.Record(domain.TypeRule, 50)
	rf := sf.Child(r)
	assert.Equal(t, []int64{62}, rf.RecordOrder(domain.TypeWhenEvent))
	assert.Empty(t, rf.RecordOrder(domain.TypeThenAction))
	assert.Empty(t, sf.DanglingReferences(nil))
}

func TestDeleteElement_NotFoundLeavesRulesAlone(t *testing.T) {
	sf := newScene(t)
	mustAdd(t, sf.Factory, rule(50))

	_, err := sf.DeleteRecord(domain.TypeElement, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []int64{50}, sf.RecordOrder(domain.TypeRule))
}

func TestDeleteElement_RemovesPreviouslyEmptyRules(t *testing.T) {
	sf := newScene(t)
	mustAdd(t, sf.Factory, el(5, "door", element.BasicElement))
	mustAdd(t, sf.Factory, rule(50))

	_, err := sf.DeleteRecord(domain.TypeElement, 5)
	require.NoError(t, err)
	assert.Empty(t, sf.RecordOrder(domain.TypeRule), "no empty rule survives an element delete")
}

func TestDeleteGroup_PrunesReferencesToNestedElements(t *testing.T) {
	sf := newScene(t)
	group := mustAdd(t, sf.Factory, el(1, "group", element.Group))
	mustAdd(t, sf.Child(group), el(2, "nested", element.Text))
	mustAdd(t, sf.Factory, el(3, "outside", element.Text))
	mustAdd(t, sf.Factory, rule(50, weta(60, domain.TypeWhenEvent, 2)))
	mustAdd(t, sf.Factory, rule(51, weta(61, domain.TypeWhenEvent, 3)))

	_, err := sf.DeleteRecord(domain.TypeElement, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{51}, sf.RecordOrder(domain.TypeRule))
}

func TestDeleteGroup_KeepsReferencesWhenIdStillLives(t *testing.T) {
	sf := newScene(t)
	group := mustAdd(t, sf.Factory, el(1, "group", element.Group))
	mustAdd(t, sf.Child(group), el(3, "nested", element.Text))
	mustAdd(t, sf.Factory, el(3, "outside", element.Text))
	mustAdd(t, sf.Factory, rule(50, weta(60, domain.TypeWhenEvent, 3)))

	_, err := sf.DeleteRecord(domain.TypeElement, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{50}, sf.RecordOrder(domain.TypeRule))
}

func TestAddRule_NoCollisionKeepsIds(t *testing.T) {
	sf := newScene(t)
	mustAdd(t, sf.Factory, rule(1,
		weta(20, domain.TypeWhenEvent, 5),
		weta(21, domain.TypeThenAction, 5),
	))

	added := mustAdd(t, sf.Factory, rule(2,
		weta(10, domain.TypeWhenEvent, 5),
		weta(11, domain.TypeWhenEvent, 5),
	))

	assert.Equal(t, []int64{10, 11}, added.Collection(domain.TypeWhenEvent).Order)
}

func TestAddRule_ReassignsOnlyCollidingIds(t *testing.T) {
	sf := newScene(t)
	mustAdd(t, sf.Factory, rule(1,
		weta(20, domain.TypeWhenEvent, 5),
		weta(21, domain.TypeThenAction, 5),
	))

	added := mustAdd(t, sf.Factory, rule(2,
		weta(10, domain.TypeWhenEvent, 5),
		weta(20, domain.TypeWhenEvent, 6),
		weta(21, domain.TypeThenAction, 7),
	))

	weOrder := added.Collection(domain.TypeWhenEvent).Order
	require.Len(t, weOrder, 2)
	assert.Equal(t, int64(10), weOrder[0])
	assert.NotEqual(t, int64(20), weOrder[1])
	assert.NotEqual(t, int64(21), weOrder[1])

	moved := added.Collection(domain.TypeWhenEvent).Map[weOrder[1]]
	co, _ := moved.Int(domain.PropCoID)
	assert.Equal(t, int64(6), co, "the reassigned record keeps its props and position")

	taOrder := added.Collection(domain.TypeThenAction).Order
	require.Len(t, taOrder, 1)
	assert.NotContains(t, []int64{20, 21}, taOrder[0])
	require.NoError(t, sf.Target().Validate())
}

func TestDuplicateRule_SceneWideUniqueIds(t *testing.T) {
	for _, deep := range []bool{false, true} {
		sf := newScene(t)
		mustAdd(t, sf.Factory, rule(1,
			weta(10, domain.TypeWhenEvent, 5),
			weta(11, domain.TypeThenAction, 5),
		))

		var dup *domain.Record
		var err error
		if deep {
			dup, err = sf.DuplicateDeepRecord(domain.TypeRule, 1)
		} else {
			dup, err = sf.DuplicateRecord(domain.TypeRule, 1)
		}
		require.NoError(t, err)

		assert.Equal(t, []int64{1, dup.ID}, sf.RecordOrder(domain.TypeRule))
		seen := ids.NewSet()
		for _, r := range sf.Records(domain.TypeRule) {
			for _, typ := range []domain.RecordType{domain.TypeWhenEvent, domain.TypeThenAction} {
				for _, id := range r.Collection(typ).Order {
					assert.False(t, seen.Has(id), "id %d used twice (deep=%v)", id, deep)
					seen.Add(id)
				}
			}
		}
		assert.Len(t, seen, 4)
	}
}

func buildNestedGroups(t *testing.T, sf *scene.Factory) *domain.Record {
	t.Helper()
	top := mustAdd(t, sf.Factory, el(1, "top", element.Group))
	nested := mustAdd(t, sf.Child(top), el(2, "nested", element.Group))
	mustAdd(t, sf.Child(top), el(3, "sibling", element.Text))
	mustAdd(t, sf.Child(nested), el(4, "a", element.Cube))
	mustAdd(t, sf.Child(nested), el(5, "b", element.Sphere))
	mustAdd(t, sf.Factory, el(6, "other", element.Text))
	return top
}

func names(recs []*domain.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.String(domain.PropName))
	}
	return out
}

func TestDuplicateGroup_RegeneratesNestedIds(t *testing.T) {
	for _, deep := range []bool{false, true} {
		sf := newScene(t)
		top := buildNestedGroups(t, sf)
		before := sf.ElementIDs()

		var dup *domain.Record
		var err error
		if deep {
			dup, err = sf.DuplicateDeepRecord(domain.TypeElement, top.ID)
		} else {
			dup, err = sf.DuplicateRecord(domain.TypeElement, top.ID)
		}
		require.NoError(t, err)

		var copyIDs []int64
		stack := []*domain.Record{dup}
		for len(stack) > 0 {
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			copyIDs = append(copyIDs, r.ID)
			stack = append(stack, r.Collection(domain.TypeElement).Records()...)
		}
		require.Len(t, copyIDs, 5)
		unique := ids.NewSet(copyIDs...)
		assert.Len(t, unique, 5)
		for _, id := range copyIDs {
			assert.False(t, before.Has(id), "copy reuses id %d (deep=%v)", id, deep)
		}

		assert.Equal(t, []string{"nested", "sibling"}, names(dup.Collection(domain.TypeElement).Records()))
		dupNested := dup.Collection(domain.TypeElement).Records()[0]
		assert.Equal(t, []string{"a", "b"}, names(dupNested.Collection(domain.TypeElement).Records()))

		assert.Equal(t, []string{"nested", "sibling"}, names(top.Collection(domain.TypeElement).Records()), "original untouched")
		assert.Equal(t, []int64{2, 3}, top.Collection(domain.TypeElement).Order)
		assert.Equal(t, []int64{1, dup.ID, 6}, sf.RecordOrder(domain.TypeElement))
		require.NoError(t, sf.Target().Validate())
	}
}

func TestAddGroup_KeepsIds(t *testing.T) {
	sf := newScene(t)
	g := el(1, "g", element.Group)
	mustAdd(t, record.New(g), el(2, "child", element.Text))

	mustAdd(t, sf.Factory, g)
	assert.Equal(t, []int64{2}, g.Collection(domain.TypeElement).Order)
}

func TestDedupeGroupElements_NonGroupIsNoop(t *testing.T) {
	sf := newScene(t)
	text := mustAdd(t, sf.Factory, el(1, "t", element.Text))
	require.NoError(t, sf.DedupeGroupElements(text))
	assert.Equal(t, int64(1), text.ID)
}

func TestDedupeGroupElements_TreeTooDeep(t *testing.T) {
	sf := newScene(t, record.WithMaxDepth(2))
	parent := mustAdd(t, sf.Factory, el(1, "g1", element.Group))
	for i := int64(2); i <= 4; i++ {
		parent = mustAdd(t, sf.Child(parent), el(i, "g", element.Group))
	}
	top, _ := sf.Record(domain.TypeElement, 1)
	assert.ErrorIs(t, sf.DedupeGroupElements(top), domain.ErrTreeTooDeep)
}

func TestDeepDuplicateDeleteSymmetry(t *testing.T) {
	sf := newScene(t)
	top := buildNestedGroups(t, sf)
	mustAdd(t, sf.Factory, rule(50,
		weta(60, domain.TypeWhenEvent, 6),
		weta(61, domain.TypeThenAction, 4),
	))
	before, err := record.Clone(sf.Target(), 0)
	require.NoError(t, err)

	dup, err := sf.DuplicateDeepRecord(domain.TypeElement, top.ID)
	require.NoError(t, err)
	_, err = sf.DeleteDeepRecord(domain.TypeElement, dup.ID)
	require.NoError(t, err)
	assert.Equal(t, before, sf.Target())

	dupRule, err := sf.DuplicateDeepRecord(domain.TypeRule, 50)
	require.NoError(t, err)
	_, err = sf.DeleteDeepRecord(domain.TypeRule, dupRule.ID)
	require.NoError(t, err)
	assert.Equal(t, before, sf.Target())
}

func TestRuleHelpersAndDanglingReferences(t *testing.T) {
	sf := newScene(t, record.WithGenerator(ids.NewSequence(1000)))
	door, err := sf.AddElement(element.BasicElement)
	require.NoError(t, err)
	r, err := sf.AddRule("open door")
	require.NoError(t, err)

	we, err := sf.AddWhenEvent(r.ID, door.ID, element.EventOnClick)
	require.NoError(t, err)
	ta, err := sf.AddThenAction(r.ID, 77, element.ActionHide)
	require.NoError(t, err)
	assert.NotEqual(t, we.ID, ta.ID)
	assert.True(t, sf.WeTaIDs().Has(we.ID))

	dangling := sf.DanglingReferences(nil)
	require.Len(t, dangling, 1)
	assert.Equal(t, scene.Reference{RuleID: r.ID, Type: domain.TypeThenAction, ID: ta.ID, CoID: 77}, dangling[0])
	assert.Empty(t, sf.DanglingReferences(ids.NewSet(77)))

	_, err = sf.AddWhenEvent(424242, door.ID, element.EventOnClick)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindElement(t *testing.T) {
	sf := newScene(t)
	buildNestedGroups(t, sf)

	parent, rec, err := sf.FindElement(5)
	require.NoError(t, err)
	assert.Equal(t, "b", rec.String(domain.PropName))
	assert.Equal(t, int64(2), parent.ID)

	_, _, err = sf.FindElement(99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestRandomOperations_KeepInvariants drives the factory with a seeded stream of
// operations and checks the collection invariant and reference integrity after each.
func TestRandomOperations_KeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sf := newScene(t)

	pick := func(order []int64) (int64, bool) {
		if len(order) == 0 {
			return 0, false
		}
		return order[rng.Intn(len(order))], true
	}

	for step := 0; step < 400; step++ {
		elements := sf.RecordOrder(domain.TypeElement)
		rules := sf.RecordOrder(domain.TypeRule)

		switch rng.Intn(7) {
		case 0:
			kind := element.Text
			if rng.Intn(2) == 0 {
				kind = element.Group
			}
			_, err := sf.AddElement(kind)
			require.NoError(t, err)
		case 1:
			if id, ok := pick(elements); ok {
				g, _ := sf.Record(domain.TypeElement, id)
				if element.IsGroup(g) {
					mustAdd(t, sf.Child(g), element.New(ids.Default(), element.Cube))
				}
			}
		case 2:
			if id, ok := pick(elements); ok {
				r, err := sf.AddRule("r")
				require.NoError(t, err)
				_, err = sf.AddWhenEvent(r.ID, id, element.EventOnClick)
				require.NoError(t, err)
				_, err = sf.AddThenAction(r.ID, id, element.ActionShow)
				require.NoError(t, err)
			}
		case 3:
			if id, ok := pick(elements); ok {
				_, err := sf.DuplicateRecord(domain.TypeElement, id)
				require.NoError(t, err)
			}
		case 4:
			if id, ok := pick(rules); ok {
				_, err := sf.DuplicateDeepRecord(domain.TypeRule, id)
				require.NoError(t, err)
			}
		case 5:
			if id, ok := pick(elements); ok {
				_, err := sf.DeleteRecord(domain.TypeElement, id)
				require.NoError(t, err)
			}
		case 6:
			if id, ok := pick(rules); ok {
				_, err := sf.DeleteDeepRecord(domain.TypeRule, id)
				require.NoError(t, err)
			}
		}

		require.NoError(t, sf.Target().Validate(), "step %d", step)
		require.Empty(t, sf.DanglingReferences(nil), "step %d", step)
		require.Len(t, sf.WeTaIDs(), countWeTa(sf), "step %d: when_event/then_action ids must be scene-wide unique", step)
	}
}

func countWeTa(sf *scene.Factory) int {
	n := 0
	for _, r := range sf.Records(domain.TypeRule) {
		n += r.Collection(domain.TypeWhenEvent).Len() + r.Collection(domain.TypeThenAction).Len()
	}
	return n
}
