package project_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject(t *testing.T) *project.Factory {
	t.Helper()
	pf, err := project.New(project.NewDocument(1, "demo"))
	require.NoError(t, err)
	return pf
}

func TestNew_RejectsOtherTypes(t *testing.T) {
	_, err := project.New(domain.NewRecord(1, domain.TypeScene))
	assert.Error(t, err)
}

func TestScenes(t *testing.T) {
	pf := newProject(t)
	sf, err := pf.AddScene("lobby")
	require.NoError(t, err)

	again, err := pf.Scene(sf.Target().ID)
	require.NoError(t, err)
	assert.Same(t, sf.Target(), again.Target())
	assert.Len(t, pf.Scenes(), 1)

	_, err = pf.Scene(12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSceneFactoryFromProjectCascades(t *testing.T) {
	pf := newProject(t)
	sf, err := pf.AddScene("lobby")
	require.NoError(t, err)

	door, err := sf.AddElement(element.BasicElement)
	require.NoError(t, err)
	r, err := sf.AddRule("r")
	require.NoError(t, err)
	_, err = sf.AddWhenEvent(r.ID, door.ID, element.EventOnClick)
	require.NoError(t, err)

	reopened, err := pf.Scene(sf.Target().ID)
	require.NoError(t, err)
	_, err = reopened.DeleteRecord(domain.TypeElement, door.ID)
	require.NoError(t, err)
	assert.Empty(t, reopened.RecordOrder(domain.TypeRule))
}

func TestAddPredefinedVariable_Idempotent(t *testing.T) {
	pf := newProject(t)

	first, err := pf.AddPredefinedVariable(project.VRModeVar)
	require.NoError(t, err)
	assert.Equal(t, "boolean", first.String(domain.PropVarType))
	assert.Equal(t, true, first.Get(domain.PropPredefined))

	second, err := pf.AddPredefinedVariable(project.VRModeVar)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, pf.Variables(), 1)

	_, err = pf.AddPredefinedVariable("nope")
	assert.Error(t, err)
}

func TestAddVariable_NameConflict(t *testing.T) {
	pf := newProject(t)
	_, err := pf.AddVariable("score", project.VarNumber, 0)
	require.NoError(t, err)
	_, err = pf.AddVariable("score", project.VarNumber, 0)
	assert.ErrorIs(t, err, domain.ErrIDConflict)
}

func TestValidate_VariablesResolveReferences(t *testing.T) {
	pf := newProject(t)
	sf, err := pf.AddScene("lobby")
	require.NoError(t, err)
	v, err := pf.AddVariable("score", project.VarNumber, 0)
	require.NoError(t, err)

	r, err := sf.AddRule("r")
	require.NoError(t, err)
	_, err = sf.AddThenAction(r.ID, v.ID, "var_increment")
	require.NoError(t, err)
	assert.NoError(t, pf.Validate())

	_, err = sf.AddThenAction(r.ID, 31337, "show")
	require.NoError(t, err)
	assert.ErrorContains(t, pf.Validate(), "dangling")
}
