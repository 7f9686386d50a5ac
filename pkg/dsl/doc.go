/*
Package dsl builds project documents with a fluent API.

Records are named by symbolic references instead of ids; rules point at those
references and Build resolves them once every id has been generated. All
records are created through the project and scene factories, so the result
obeys the same invariants as an interactively edited document.

Example usage:

	b := dsl.New("Showroom")
	b.Variable("score", project.VarNumber, 0)

	intro := b.Scene("intro")
	intro.Element("lamp", element.Light)
	intro.Group("props").
		Element("cube", element.Cube).Named("Red cube")
	intro.Rule("toggle").
		When("lamp", element.EventOnClick).
		Then("props", element.ActionToggleShowHide)

	doc, refs, err := b.Build(record.WithGenerator(ids.NewSequence(1)))
	// refs["lamp"] is the id of the light inside scene refs["intro"].
*/
package dsl
