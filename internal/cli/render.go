package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/project"
)

// Inspect writes a markdown outline of the document, styled for terminals.
func (d *Document) Inspect(ctx context.Context, w io.Writer, styled bool) error {
	doc, err := d.Load(ctx)
	if err != nil {
		return err
	}
	out, err := tui.NewRenderer(styled)(tui.Outline(doc))
	if err != nil {
		return fmt.Errorf("failed to render outline: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Graph returns the Mermaid diagram of one scene. A zero sceneID picks the first scene.
func (d *Document) Graph(ctx context.Context, sceneID int64, highlight []int64) (string, error) {
	var out string
	err := d.Manager.View(ctx, d.ID, func(pf *project.Factory) error {
		if sceneID == 0 {
			scenes := pf.Scenes()
			if len(scenes) == 0 {
				return fmt.Errorf("document %s has no scenes", d.ID)
			}
			sceneID = scenes[0].ID
		}
		sf, err := pf.Scene(sceneID)
		if err != nil {
			return err
		}
		var overlay *graph.GraphOverlay
		if len(highlight) > 0 {
			overlay = &graph.GraphOverlay{Highlight: highlight}
		}
		out = graph.GenerateMermaid(sf.Target(), overlay)
		return nil
	})
	return out, err
}
