package cli

import (
	"context"

	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/project"
)

// Create writes a new, fully migrated document. When b is not nil its
// variables and scenes are added on top.
func (d *Document) Create(ctx context.Context, name string, b *dsl.Builder) error {
	if _, err := d.Manager.Create(ctx, d.ID, name); err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	return d.Manager.Edit(ctx, d.ID, func(pf *project.Factory) error {
		_, err := b.Apply(pf)
		return err
	})
}

// Starter is the sample content of `arbor new --demo`: a lit room with a
// clickable switch that toggles a group of furniture.
func Starter() *dsl.Builder {
	b := dsl.New("")
	b.Variable("clicks", project.VarNumber, 0)

	room := b.Scene("Room")
	room.Element("lamp", element.Light).Named("Ceiling lamp")
	room.Element("switch", element.Hotspot).Named("Switch")
	furniture := room.Group("furniture").Named("Furniture")
	furniture.Element("table", element.Cube).Named("Table")
	furniture.Element("globe", element.Sphere).Named("Globe")
	room.Rule("Toggle furniture").
		When("switch", element.EventOnClick).
		Then("furniture", element.ActionToggleShowHide)
	return b
}
