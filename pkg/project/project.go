// Package project is the factory for the document root: scenes and project variables.
package project

import (
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/record"
	"github.com/aretw0/arbor/pkg/scene"
)

// VarType is the value type of a project variable.
type VarType string

const (
	VarString  VarType = "string"
	VarNumber  VarType = "number"
	VarBoolean VarType = "boolean"
)

// PredefinedVariableName names a variable every project carries.
type PredefinedVariableName string

const (
	BrowserVar     PredefinedVariableName = "browser_var"
	DeviceVar      PredefinedVariableName = "device_var"
	VIdentifierVar PredefinedVariableName = "v_identifier_var"
	FirstnameVar   PredefinedVariableName = "firstname_var"
	VRModeVar      PredefinedVariableName = "vrmode_var"
)

type predefined struct {
	varType VarType
	def     any
}

var predefinedVariables = map[PredefinedVariableName]predefined{
	BrowserVar:     {varType: VarString, def: ""},
	DeviceVar:      {varType: VarString, def: ""},
	VIdentifierVar: {varType: VarString, def: ""},
	FirstnameVar:   {varType: VarString, def: ""},
	VRModeVar:      {varType: VarBoolean, def: false},
}

// PredefinedVariables lists the predefined names in a stable order.
func PredefinedVariables() []PredefinedVariableName {
	return []PredefinedVariableName{BrowserVar, DeviceVar, VIdentifierVar, FirstnameVar, VRModeVar}
}

// Factory wraps a project record.
type Factory struct {
	*record.Factory
	opts []record.Option
}

// New wraps a project record. opts also configure the scene factories it hands out.
func New(rec *domain.Record, opts ...record.Option) (*Factory, error) {
	if rec == nil || rec.Type != domain.TypeProject {
		return nil, fmt.Errorf("expected %s record", domain.TypeProject)
	}
	return &Factory{
		Factory: record.New(rec, opts...),
		opts:    slices.Clone(opts),
	}, nil
}

// NewDocument creates an empty project record.
func NewDocument(id int64, name string) *domain.Record {
	rec := domain.NewRecord(id, domain.TypeProject)
	rec.Set(domain.PropName, name)
	rec.Set(domain.PropVersion, 0)
	return rec
}

// Scene returns a scene factory for the scene with the given id.
func (f *Factory) Scene(id int64) (*scene.Factory, error) {
	rec, err := f.Record(domain.TypeScene, id)
	if err != nil {
		return nil, err
	}
	return scene.New(rec, f.opts...)
}

// Scenes returns the scene records in order.
func (f *Factory) Scenes() []*domain.Record {
	return f.Records(domain.TypeScene)
}

// AddScene creates an empty scene.
func (f *Factory) AddScene(name string) (*scene.Factory, error) {
	rec, err := f.CreateRecord(domain.TypeScene, map[string]any{domain.PropName: name})
	if err != nil {
		return nil, err
	}
	return scene.New(rec, f.opts...)
}

// Variables returns the project variables in order.
func (f *Factory) Variables() []*domain.Record {
	return f.Records(domain.TypeVariable)
}

// VariableIDs returns the ids of all project variables.
func (f *Factory) VariableIDs() ids.Set {
	return ids.NewSet(f.RecordOrder(domain.TypeVariable)...)
}

// FindVariable looks a variable up by name.
func (f *Factory) FindVariable(name string) (*domain.Record, bool) {
	for _, v := range f.Variables() {
		if v.String(domain.PropName) == name {
			return v, true
		}
	}
	return nil, false
}

// AddVariable creates a variable. Names are unique within a project.
func (f *Factory) AddVariable(name string, varType VarType, def any) (*domain.Record, error) {
	if _, exists := f.FindVariable(name); exists {
		return nil, fmt.Errorf("%w: variable %q already exists", domain.ErrIDConflict, name)
	}
	return f.CreateRecord(domain.TypeVariable, map[string]any{
		domain.PropName:       name,
		domain.PropVarType:    string(varType),
		domain.PropVarDefault: def,
	})
}

// AddPredefinedVariable ensures the predefined variable exists. An existing
// variable with the same name is kept and returned.
func (f *Factory) AddPredefinedVariable(name PredefinedVariableName) (*domain.Record, error) {
	spec, ok := predefinedVariables[name]
	if !ok {
		return nil, fmt.Errorf("unknown predefined variable %q", name)
	}
	if v, exists := f.FindVariable(string(name)); exists {
		return v, nil
	}
	v, err := f.AddVariable(string(name), spec.varType, spec.def)
	if err != nil {
		return nil, err
	}
	v.Set(domain.PropPredefined, true)
	return v, nil
}

// Validate checks the collection invariant of the whole document and reports
// rule references that point at nothing.
func (f *Factory) Validate() error {
	if err := f.Target().Validate(); err != nil {
		return err
	}
	vars := f.VariableIDs()
	for _, s := range f.Scenes() {
		sf, err := scene.New(s, f.opts...)
		if err != nil {
			return err
		}
		if dangling := sf.DanglingReferences(vars); len(dangling) > 0 {
			d := dangling[0]
			return fmt.Errorf("scene %d: %d dangling references, first: %s %d in rule %d points at %d",
				s.ID, len(dangling), d.Type, d.ID, d.RuleID, d.CoID)
		}
	}
	return nil
}
