package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

// Outline describes a project document as markdown: variables, then each
// scene with its nested elements and its rules.
func Outline(doc *domain.Record) string {
	var sb strings.Builder
	name := doc.String(domain.PropName)
	if name == "" {
		name = "Untitled project"
	}
	version, _ := doc.Int(domain.PropVersion)
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "Project `%d`, document version %d.\n\n", doc.ID, version)

	if vars := doc.Collection(domain.TypeVariable).Records(); len(vars) > 0 {
		sb.WriteString("## Variables\n\n")
		sb.WriteString("| id | name | type | default | predefined |\n|---|---|---|---|---|\n")
		for _, v := range vars {
			predefined, _ := v.Get(domain.PropPredefined).(bool)
			fmt.Fprintf(&sb, "| %d | %s | %s | %v | %t |\n",
				v.ID, v.String(domain.PropName), v.String(domain.PropVarType), v.Get(domain.PropVarDefault), predefined)
		}
		sb.WriteString("\n")
	}

	for _, scene := range doc.Collection(domain.TypeScene).Records() {
		fmt.Fprintf(&sb, "## Scene %d: %s\n\n", scene.ID, scene.String(domain.PropName))
		sb.WriteString(SceneOutline(scene))
	}
	return sb.String()
}

// SceneOutline lists a scene's element tree and rules as nested markdown lists.
func SceneOutline(scene *domain.Record) string {
	var sb strings.Builder

	elements := scene.Collection(domain.TypeElement).Records()
	fmt.Fprintf(&sb, "### Elements (%d)\n\n", len(elements))
	type frame struct {
		rec   *domain.Record
		depth int
	}
	stack := make([]frame, 0, len(elements))
	for i := len(elements) - 1; i >= 0; i-- {
		stack = append(stack, frame{rec: elements[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fmt.Fprintf(&sb, "%s- **%s** `%s` #%d\n", strings.Repeat("  ", f.depth),
			f.rec.String(domain.PropName), element.TypeOf(f.rec), f.rec.ID)
		children := f.rec.Collection(domain.TypeElement).Records()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{rec: children[i], depth: f.depth + 1})
		}
	}
	sb.WriteString("\n")

	rules := scene.Collection(domain.TypeRule).Records()
	fmt.Fprintf(&sb, "### Rules (%d)\n\n", len(rules))
	for _, rule := range rules {
		fmt.Fprintf(&sb, "- **%s** #%d\n", rule.String(domain.PropName), rule.ID)
		for _, we := range rule.Collection(domain.TypeWhenEvent).Records() {
			coID, _ := we.Int(domain.PropCoID)
			fmt.Fprintf(&sb, "  - when `%s` on %d\n", we.String(domain.PropEvent), coID)
		}
		for _, ta := range rule.Collection(domain.TypeThenAction).Records() {
			coID, _ := ta.Int(domain.PropCoID)
			fmt.Fprintf(&sb, "  - then `%s` on %d\n", ta.String(domain.PropAction), coID)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
