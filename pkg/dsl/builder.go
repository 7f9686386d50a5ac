package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/aretw0/arbor/pkg/record"
)

// Refs maps symbolic references to the ids they received.
type Refs map[string]int64

type variableSpec struct {
	name    string
	varType project.VarType
	def     any
}

// Builder manages the document construction.
type Builder struct {
	name      string
	variables []variableSpec
	scenes    []*SceneBuilder
}

// New creates a builder for a project called name.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Variable declares a project variable; its name doubles as its reference.
func (b *Builder) Variable(name string, varType project.VarType, def any) *Builder {
	b.variables = append(b.variables, variableSpec{name: name, varType: varType, def: def})
	return b
}

// Scene declares a scene; its name doubles as its reference.
func (b *Builder) Scene(name string) *SceneBuilder {
	sb := &SceneBuilder{name: name}
	b.scenes = append(b.scenes, sb)
	return sb
}

// Build creates a new project document with id 1 and applies the builder to it.
func (b *Builder) Build(opts ...record.Option) (*domain.Record, Refs, error) {
	pf, err := project.New(project.NewDocument(1, b.name), opts...)
	if err != nil {
		return nil, nil, err
	}
	refs, err := b.Apply(pf)
	if err != nil {
		return nil, nil, err
	}
	return pf.Target(), refs, nil
}

// Apply adds the declared variables and scenes to an existing project.
// References must be unique across the whole builder.
func (b *Builder) Apply(pf *project.Factory) (Refs, error) {
	refs := Refs{}
	claim := func(ref string, id int64) error {
		if _, dup := refs[ref]; dup {
			return fmt.Errorf("duplicate reference %q", ref)
		}
		refs[ref] = id
		return nil
	}

	vars := map[string]bool{}
	for _, v := range b.variables {
		rec, err := pf.AddVariable(v.name, v.varType, v.def)
		if err != nil {
			return nil, err
		}
		if err := claim(v.name, rec.ID); err != nil {
			return nil, err
		}
		vars[v.name] = true
	}
	for _, sb := range b.scenes {
		if err := sb.apply(pf, refs, vars, claim); err != nil {
			return nil, fmt.Errorf("scene %q: %w", sb.name, err)
		}
	}
	return refs, nil
}
