package element_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AppliesDefaults(t *testing.T) {
	gen := ids.NewSequence(1)

	light := element.New(gen, element.Light)
	assert.Equal(t, int64(1), light.ID)
	assert.Equal(t, domain.TypeElement, light.Type)
	assert.Equal(t, "light", light.String(domain.PropElementType))
	assert.Equal(t, "Light", light.String(domain.PropName))
	assert.Equal(t, element.LightAmbient, light.Get(element.PropLightType))

	obj := element.New(gen, element.Object3D)
	src := obj.Get(element.PropSource).(map[string]any)
	src["name"] = "mutated.glb"
	again := element.New(gen, element.Object3D)
	assert.Equal(t, "logo.glb", again.Get(element.PropSource).(map[string]any)["name"], "defaults must not be shared")
}

func TestLookup_FallsBackToBasic(t *testing.T) {
	def := element.Lookup(element.Cube)
	assert.Equal(t, element.Cube, def.ElementType)
	assert.Equal(t, "Cube", def.DefaultName)
	assert.True(t, element.SupportsEvent(element.Cube, element.EventOnClick))
	assert.False(t, element.SupportsAction(element.Light, element.ActionShow))
	assert.True(t, element.SupportsAction(element.Object3D, element.ActionGLTFPresetStart))
}

func TestIsType(t *testing.T) {
	assert.True(t, element.IsType("group"))
	assert.False(t, element.IsType("spaceship"))
}

func TestFactory_Group(t *testing.T) {
	gen := ids.NewSequence(10)
	group := element.New(gen, element.Group)
	f, err := element.NewFactory(group)
	require.NoError(t, err)
	assert.True(t, f.IsGroup())

	child := element.New(gen, element.Text)
	_, err = f.AddChild(child)
	require.NoError(t, err)
	assert.Len(t, f.Children(), 1)

	textF, err := element.NewFactory(child)
	require.NoError(t, err)
	_, err = textF.AddChild(element.New(gen, element.Text))
	assert.Error(t, err)

	_, err = element.NewFactory(domain.NewRecord(1, domain.TypeRule))
	assert.Error(t, err)
}
