/*
Package arbor is a record tree engine for authoring-tool projects.

A project document is a tree of typed records: scenes hold elements (which may
nest inside groups) and rules, rules hold when_event and then_action records
that point at elements by id, and the project holds variables. Every mutation
keeps sibling ids unique per type, keeps each collection's order in step with
its map, and cascades so rules never point at deleted elements.

# Packages

  - pkg/record: the generic factory (add, duplicate, delete, change id) with per-type behaviors.
  - pkg/scene, pkg/project, pkg/element: the typed factories and the element catalog.
  - pkg/session: single-writer editing of stored documents.
  - pkg/adapters: memory, file and Redis stores and the HTTP editing API.

# Usage

A Workspace wires a configured store, the session manager, metrics and logging:

	ws, err := arbor.New(config.Default())
	if err != nil {
		log.Fatal(err)
	}
	defer ws.Close()

	err = ws.Manager.Edit(ctx, "demo", func(pf *project.Factory) error {
		sf, err := pf.AddScene("intro")
		if err != nil {
			return err
		}
		_, err = sf.AddElement(element.Light)
		return err
	})
*/
package arbor
