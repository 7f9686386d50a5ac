package element

// Property names used by the catalog.
const (
	PropSource         = "source"
	PropHidden         = "hidden"
	PropWireframe      = "wireframe"
	PropAutoRotate     = "auto_rotate"
	PropAutoAnimation  = "auto_animation"
	PropHoverAnimation = "hover_animation"
	PropLocked         = "locked"
	PropPlacer3D       = "placer_3d"
	PropScale          = "scale"
	PropAnimations     = "object3d_animations"
	PropBillboarding   = "billboarding"
	PropLightType      = "light_type"
	PropColor          = "color"
	PropIntensity      = "intensity"
	PropFallOff        = "fall_off"
	PropTargetElement  = "target_element_id"
)

// Rule vocabulary an element definition can expose.
const (
	EventOnClick       = "on_click"
	EventOnBeenClicked = "on_been_clicked"
	EventOnHover       = "on_hover"
	EventOnPress       = "on_press"
	EventOnRelease     = "on_release"

	ActionShow             = "show"
	ActionHide             = "hide"
	ActionToggleShowHide   = "toggle_showhide"
	ActionGLTFPresetStart  = "gltf_preset_start"
	ActionGLTFPresetStop   = "gltf_preset_stop"
	ActionGLTFPresetStartA = "gltf_preset_start_all"
	ActionGLTFPresetStopA  = "gltf_preset_stop_all"
)

// LightType values for light elements.
const (
	LightAmbient     = "ambient"
	LightPoint       = "point"
	LightDirectional = "directional"
)

// Definition is the static description of an element type.
type Definition struct {
	ElementType      Type
	DefaultName      string
	Properties       []string
	DefaultOverrides map[string]any
	Events           []string
	Actions          []string
}

var basicDefinition = Definition{
	ElementType:      BasicElement,
	DefaultName:      "Basic Element",
	Properties:       []string{"element_type"},
	DefaultOverrides: map[string]any{},
	Events:           []string{EventOnClick, EventOnBeenClicked, EventOnHover},
	Actions:          []string{ActionShow, ActionHide, ActionToggleShowHide},
}

var definitions = map[Type]Definition{
	BasicElement: basicDefinition,
	Group: {
		ElementType:      Group,
		DefaultName:      "Group",
		Properties:       append(clone(basicDefinition.Properties), PropHidden, PropLocked, PropPlacer3D),
		DefaultOverrides: map[string]any{},
		Events:           clone(basicDefinition.Events),
		Actions:          clone(basicDefinition.Actions),
	},
	Light: {
		ElementType: Light,
		DefaultName: "Light",
		Properties: append(clone(basicDefinition.Properties),
			PropLightType, PropColor, PropIntensity, PropFallOff, PropPlacer3D, PropTargetElement),
		DefaultOverrides: map[string]any{
			PropLightType: LightAmbient,
		},
	},
	Object3D: {
		ElementType: Object3D,
		DefaultName: "3D Object",
		Properties: append(clone(basicDefinition.Properties),
			PropSource, PropHidden, PropWireframe, PropAutoRotate, PropAutoAnimation,
			PropHoverAnimation, PropLocked, PropPlacer3D, PropScale, PropAnimations),
		DefaultOverrides: map[string]any{
			PropSource: map[string]any{
				"name": "logo.glb",
				"type": "THREED",
			},
			PropBillboarding: nil,
		},
		Events: append(clone(basicDefinition.Events), EventOnPress, EventOnRelease),
		Actions: append(clone(basicDefinition.Actions),
			ActionGLTFPresetStart, ActionGLTFPresetStop, ActionGLTFPresetStartA, ActionGLTFPresetStopA),
	},
}

// Lookup returns the definition for t. Types without a dedicated definition
// behave as basic elements with their own default name.
func Lookup(t Type) Definition {
	if def, ok := definitions[t]; ok {
		return def
	}
	def := basicDefinition
	def.ElementType = t
	if name, ok := DisplayNames[t]; ok {
		def.DefaultName = name
	}
	return def
}

// SupportsEvent reports whether rules may listen for event on elements of type t.
func SupportsEvent(t Type, event string) bool {
	for _, e := range Lookup(t).Events {
		if e == event {
			return true
		}
	}
	return false
}

// SupportsAction reports whether rules may trigger action on elements of type t.
func SupportsAction(t Type, action string) bool {
	for _, a := range Lookup(t).Actions {
		if a == action {
			return true
		}
	}
	return false
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
