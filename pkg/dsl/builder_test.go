package dsl_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/aretw0/arbor/pkg/record"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func showroom() *dsl.Builder {
	b := dsl.New("Showroom")
	b.Variable("score", project.VarNumber, 0)

	intro := b.Scene("intro")
	intro.Element("lamp", element.Light).Named("Ceiling lamp")
	props := intro.Group("props")
	props.Element("cube", element.Cube).Set("color", "red")
	props.Element("ball", element.Sphere)
	intro.Rule("toggle").
		When("lamp", element.EventOnClick).
		Then("props", element.ActionToggleShowHide).
		Then("score", "increment")
	return b
}

func TestBuild(t *testing.T) {
	doc, refs, err := showroom().Build(record.WithGenerator(ids.NewSequence(1)))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())
	require.NoError(t, schema.ValidateTree(doc, domain.DefaultMaxDepth))

	pf, err := project.New(doc)
	require.NoError(t, err)
	require.NoError(t, pf.Validate())

	sf, err := pf.Scene(refs["intro"])
	require.NoError(t, err)
	assert.Equal(t, []int64{refs["lamp"], refs["props"]}, sf.RecordOrder(domain.TypeElement))

	lamp, err := sf.Record(domain.TypeElement, refs["lamp"])
	require.NoError(t, err)
	assert.Equal(t, "Ceiling lamp", lamp.String(domain.PropName))

	group, err := sf.Record(domain.TypeElement, refs["props"])
	require.NoError(t, err)
	assert.Equal(t, []int64{refs["cube"], refs["ball"]}, group.Collection(domain.TypeElement).Order)
	assert.Equal(t, "red", group.Collection(domain.TypeElement).Map[refs["cube"]].String("color"))

	rule, err := sf.Record(domain.TypeRule, refs["toggle"])
	require.NoError(t, err)
	events := rule.Collection(domain.TypeWhenEvent).Records()
	require.Len(t, events, 1)
	co, _ := events[0].Int(domain.PropCoID)
	assert.Equal(t, refs["lamp"], co)

	actions := rule.Collection(domain.TypeThenAction).Records()
	require.Len(t, actions, 2)
	assert.Equal(t, string(domain.TypeElement), actions[0].String(domain.PropCoType))
	assert.Equal(t, string(domain.TypeVariable), actions[1].String(domain.PropCoType))
	co, _ = actions[1].Int(domain.PropCoID)
	assert.Equal(t, refs["score"], co)
}

func TestBuild_NestedIDsAreSceneUnique(t *testing.T) {
	_, refs, err := showroom().Build(record.WithGenerator(ids.NewSequence(1)))
	require.NoError(t, err)

	seen := map[int64]string{}
	for _, ref := range []string{"lamp", "props", "cube", "ball"} {
		id := refs[ref]
		prev, dup := seen[id]
		assert.False(t, dup, "%s and %s share id %d", ref, prev, id)
		seen[id] = ref
	}
}

func TestApply_ExistingProject(t *testing.T) {
	pf, err := project.New(project.NewDocument(7, "Existing"), record.WithGenerator(ids.NewSequence(50)))
	require.NoError(t, err)
	_, err = pf.AddScene("old")
	require.NoError(t, err)

	refs, err := showroom().Apply(pf)
	require.NoError(t, err)
	assert.Len(t, pf.Scenes(), 2)
	assert.Equal(t, pf.Scenes()[1].ID, refs["intro"])
}

func TestBuild_Errors(t *testing.T) {
	t.Run("unknown reference", func(t *testing.T) {
		b := dsl.New("x")
		b.Scene("s").Rule("r").When("ghost", element.EventOnClick)
		_, _, err := b.Build()
		assert.ErrorContains(t, err, `unknown reference "ghost"`)
	})

	t.Run("element of another scene", func(t *testing.T) {
		b := dsl.New("x")
		b.Scene("a").Element("lamp", element.Light)
		b.Scene("b").Rule("r").When("lamp", element.EventOnClick)
		_, _, err := b.Build()
		assert.ErrorContains(t, err, `unknown reference "lamp"`)
	})

	t.Run("duplicate reference", func(t *testing.T) {
		b := dsl.New("x")
		s := b.Scene("s")
		s.Element("lamp", element.Light)
		s.Element("lamp", element.Cube)
		_, _, err := b.Build()
		assert.ErrorContains(t, err, "duplicate reference")
	})

	t.Run("children of a non-group", func(t *testing.T) {
		b := dsl.New("x")
		b.Scene("s").Element("lamp", element.Light).Element("bulb", element.Sphere)
		_, _, err := b.Build()
		assert.ErrorContains(t, err, "only groups hold children")
	})

	t.Run("variable name taken", func(t *testing.T) {
		b := dsl.New("x")
		b.Variable("score", project.VarNumber, 0)
		b.Variable("score", project.VarNumber, 1)
		_, _, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrIDConflict)
	})
}
