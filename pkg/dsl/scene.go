package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/aretw0/arbor/pkg/scene"
)

// SceneBuilder collects the elements and rules of one scene.
type SceneBuilder struct {
	name     string
	elements []*ElementBuilder
	rules    []*RuleBuilder
}

// Element declares a top-level element.
func (s *SceneBuilder) Element(ref string, t element.Type) *ElementBuilder {
	eb := newElement(ref, t)
	s.elements = append(s.elements, eb)
	return eb
}

// Group declares a top-level group.
func (s *SceneBuilder) Group(ref string) *ElementBuilder {
	return s.Element(ref, element.Group)
}

// Rule declares a rule; its name doubles as its reference.
func (s *SceneBuilder) Rule(name string) *RuleBuilder {
	rb := &RuleBuilder{name: name}
	s.rules = append(s.rules, rb)
	return rb
}

// ElementBuilder configures one element and, for groups, its children.
type ElementBuilder struct {
	ref      string
	typ      element.Type
	name     string
	props    map[string]any
	children []*ElementBuilder
}

func newElement(ref string, t element.Type) *ElementBuilder {
	return &ElementBuilder{ref: ref, typ: t, props: map[string]any{}}
}

// Named overrides the catalog's default display name.
func (e *ElementBuilder) Named(name string) *ElementBuilder {
	e.name = name
	return e
}

// Set assigns a property on top of the catalog defaults.
func (e *ElementBuilder) Set(key string, value any) *ElementBuilder {
	e.props[key] = value
	return e
}

// Element nests a child element and returns the child. Only groups accept children.
func (e *ElementBuilder) Element(ref string, t element.Type) *ElementBuilder {
	child := newElement(ref, t)
	e.children = append(e.children, child)
	return child
}

// RuleBuilder lists the triggers and effects of a rule.
type RuleBuilder struct {
	name    string
	events  []link
	actions []link
}

type link struct {
	ref  string
	verb string
}

// When adds a trigger on the element or variable named by ref.
func (r *RuleBuilder) When(ref, event string) *RuleBuilder {
	r.events = append(r.events, link{ref: ref, verb: event})
	return r
}

// Then adds an effect on the element or variable named by ref.
func (r *RuleBuilder) Then(ref, action string) *RuleBuilder {
	r.actions = append(r.actions, link{ref: ref, verb: action})
	return r
}

func (s *SceneBuilder) apply(pf *project.Factory, refs Refs, vars map[string]bool, claim func(string, int64) error) error {
	sf, err := pf.AddScene(s.name)
	if err != nil {
		return err
	}
	if err := claim(s.name, sf.Target().ID); err != nil {
		return err
	}

	// Elements first, so rules can reference any of them.
	local := map[string]bool{}
	for _, eb := range s.elements {
		rec, err := sf.AddElement(eb.typ)
		if err != nil {
			return err
		}
		if err := eb.populate(sf, rec, claim, local); err != nil {
			return err
		}
	}

	for _, rb := range s.rules {
		rule, err := sf.AddRule(rb.name)
		if err != nil {
			return err
		}
		if err := claim(rb.name, rule.ID); err != nil {
			return err
		}
		for _, l := range rb.events {
			if err := attach(rule.ID, l, refs, local, vars, sf.AddWhenEvent); err != nil {
				return fmt.Errorf("rule %q: %w", rb.name, err)
			}
		}
		for _, l := range rb.actions {
			if err := attach(rule.ID, l, refs, local, vars, sf.AddThenAction); err != nil {
				return fmt.Errorf("rule %q: %w", rb.name, err)
			}
		}
	}
	return nil
}

// populate names rec, applies props and adds the children depth-first.
// Nested ids avoid every element id of the scene so references stay unambiguous.
func (e *ElementBuilder) populate(sf *scene.Factory, rec *domain.Record, claim func(string, int64) error, local map[string]bool) error {
	if e.name != "" {
		rec.Set(domain.PropName, e.name)
	}
	for k, v := range e.props {
		rec.Set(k, v)
	}
	if err := claim(e.ref, rec.ID); err != nil {
		return err
	}
	local[e.ref] = true

	if len(e.children) == 0 {
		return nil
	}
	gf := element.Wrap(sf.Factory, rec)
	for _, child := range e.children {
		crec := element.New(sf.Generator(), child.typ)
		crec.ID = gf.FreshID(domain.TypeElement, sf.ElementIDs())
		if _, err := gf.AddChild(crec); err != nil {
			return err
		}
		if err := child.populate(sf, crec, claim, local); err != nil {
			return err
		}
	}
	return nil
}

// attach links a rule to an element of the same scene or to a project variable.
func attach(ruleID int64, l link, refs Refs, local, vars map[string]bool,
	add func(ruleID, coID int64, verb string) (*domain.Record, error)) error {
	if !local[l.ref] && !vars[l.ref] {
		return fmt.Errorf("unknown reference %q: rules may only target elements of their scene or variables", l.ref)
	}
	rec, err := add(ruleID, refs[l.ref], l.verb)
	if err != nil {
		return err
	}
	if vars[l.ref] {
		rec.Set(domain.PropCoType, string(domain.TypeVariable))
	}
	return nil
}
