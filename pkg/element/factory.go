// Package element describes element records: the element type catalog and a
// factory specialised for element records.
package element

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/record"
	"github.com/mohae/deepcopy"
)

// New builds an element record of type t with the catalog defaults applied.
// The record is not attached anywhere.
func New(gen ids.Generator, t Type) *domain.Record {
	def := Lookup(t)
	rec := domain.NewRecord(gen.Next(), domain.TypeElement)
	for k, v := range def.DefaultOverrides {
		rec.Props[k] = deepcopy.Copy(v)
	}
	rec.Props[domain.PropElementType] = string(t)
	rec.Props[domain.PropName] = def.DefaultName
	return rec
}

// Factory is a record factory over an element record.
type Factory struct {
	*record.Factory
}

// NewFactory wraps an element record.
func NewFactory(rec *domain.Record, opts ...record.Option) (*Factory, error) {
	if rec.Type != domain.TypeElement {
		return nil, fmt.Errorf("expected %s record, got %s", domain.TypeElement, rec.Type)
	}
	return &Factory{Factory: record.New(rec, opts...)}, nil
}

// Wrap returns a Factory sharing the configuration of parent.
func Wrap(parent *record.Factory, rec *domain.Record) *Factory {
	return &Factory{Factory: parent.Child(rec)}
}

// ElementType returns the element_type sub-tag.
func (f *Factory) ElementType() Type {
	return TypeOf(f.Target())
}

// IsGroup reports whether the element is a group.
func (f *Factory) IsGroup() bool {
	return f.ElementType() == Group
}

// Children returns the nested elements in order.
func (f *Factory) Children() []*domain.Record {
	return f.Records(domain.TypeElement)
}

// AddChild nests rec inside a group.
func (f *Factory) AddChild(rec *domain.Record, position ...int) (*domain.Record, error) {
	if !f.IsGroup() {
		return nil, fmt.Errorf("element %d is a %s, only groups hold children", f.Target().ID, f.ElementType())
	}
	return f.AddRecord(rec, position...)
}

// TypeOf reads the element_type of rec.
func TypeOf(rec *domain.Record) Type {
	return Type(rec.String(domain.PropElementType))
}

// IsGroup reports whether rec is a group element.
func IsGroup(rec *domain.Record) bool {
	return rec.Type == domain.TypeElement && TypeOf(rec) == Group
}
