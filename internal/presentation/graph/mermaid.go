package graph

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

// GraphOverlay marks elements to emphasize on the graph.
type GraphOverlay struct {
	Highlight []int64
}

// GenerateMermaid produces a Mermaid flowchart of a scene: its element tree,
// its rules, and the co_id references of their when_event and then_action records.
// It applies semantic styling:
// - Scene: ((Circle))
// - Group element: [[Subroutine]]
// - Rule: {{Hexagon}}
// - when_event: [/Parallelogram/], then_action: [\Parallelogram\]
// - Default: [Rectangle]
// References that resolve to no element are drawn to a "missing" node.
func GenerateMermaid(scene *domain.Record, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	sceneKey := "scene_" + strconv.FormatInt(scene.ID, 10)
	sceneLabel := scene.String(domain.PropName)
	if sceneLabel == "" {
		sceneLabel = fmt.Sprintf("scene %d", scene.ID)
	}
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", sceneKey, escape(sceneLabel))

	// Elements, pre-order so nested groups read top-down.
	type frame struct {
		rec       *domain.Record
		key       string
		parentKey string
	}
	var stack []frame
	pushChildren := func(parent *domain.Record, parentKey, prefix string) {
		children := parent.Collection(domain.TypeElement).Records()
		for i := len(children) - 1; i >= 0; i-- {
			c := children[i]
			stack = append(stack, frame{rec: c, key: prefix + strconv.FormatInt(c.ID, 10), parentKey: parentKey})
		}
	}
	pushChildren(scene, sceneKey, "element_")
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		opener, closer := "[", "]"
		if element.IsGroup(f.rec) {
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s<br/>%s\"%s\n", f.key, opener, escape(elementLabel(f.rec)), element.TypeOf(f.rec), closer)
		fmt.Fprintf(&sb, "    %s --> %s\n", f.parentKey, f.key)
		pushChildren(f.rec, f.key, f.key+"_")
	}

	keys := elementKeys(scene)
	missing := map[string]bool{}
	var missingOrder []string

	for _, rule := range scene.Collection(domain.TypeRule).Records() {
		ruleKey := "rule_" + strconv.FormatInt(rule.ID, 10)
		label := rule.String(domain.PropName)
		if label == "" {
			label = fmt.Sprintf("rule %d", rule.ID)
		}
		fmt.Fprintf(&sb, "    %s{{\"%s\"}}\n", ruleKey, escape(label))
		fmt.Fprintf(&sb, "    %s --> %s\n", sceneKey, ruleKey)

		refs := []struct {
			t              domain.RecordType
			tag, prop      string
			opener, closer string
		}{
			{domain.TypeWhenEvent, "we", domain.PropEvent, "[/", "/]"},
			{domain.TypeThenAction, "ta", domain.PropAction, "[\\", "\\]"},
		}
		for _, kind := range refs {
			for _, ref := range rule.Collection(kind.t).Records() {
				refKey := fmt.Sprintf("%s_%s_%d", ruleKey, kind.tag, ref.ID)
				fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", refKey, kind.opener, escape(ref.String(kind.prop)), kind.closer)
				fmt.Fprintf(&sb, "    %s --> %s\n", ruleKey, refKey)

				coID, ok := ref.Int(domain.PropCoID)
				if !ok {
					continue
				}
				target, found := keys[coID]
				if !found {
					target = "missing_" + strconv.FormatInt(coID, 10)
					if !missing[target] {
						missing[target] = true
						missingOrder = append(missingOrder, target)
						fmt.Fprintf(&sb, "    %s((\"missing %d\"))\n", target, coID)
					}
				}
				fmt.Fprintf(&sb, "    %s -. co_id .-> %s\n", refKey, target)
			}
		}
	}

	var highlight []string
	if overlay != nil {
		for _, id := range overlay.Highlight {
			if key, ok := keys[id]; ok && !slices.Contains(highlight, key) {
				highlight = append(highlight, key)
			}
		}
	}

	if len(missingOrder) > 0 || len(highlight) > 0 {
		sb.WriteString("\n    %% Styles\n")
	}
	if len(missingOrder) > 0 {
		// Force black text (color:#000) for contrast on any theme.
		sb.WriteString("    classDef dangling fill:#ffebee,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")
		for _, key := range missingOrder {
			fmt.Fprintf(&sb, "    class %s dangling;\n", key)
		}
	}
	if len(highlight) > 0 {
		sb.WriteString("    classDef highlight fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, key := range highlight {
			fmt.Fprintf(&sb, "    class %s highlight;\n", key)
		}
	}

	return sb.String()
}

// elementKeys maps element ids to node keys, breadth first, so a co_id resolves
// to the same element a scene lookup would find.
func elementKeys(scene *domain.Record) map[int64]string {
	type item struct {
		rec    *domain.Record
		prefix string
	}
	keys := map[int64]string{}
	queue := []item{{rec: scene, prefix: "element_"}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		for _, c := range it.rec.Collection(domain.TypeElement).Records() {
			key := it.prefix + strconv.FormatInt(c.ID, 10)
			if _, seen := keys[c.ID]; !seen {
				keys[c.ID] = key
			}
			queue = append(queue, item{rec: c, prefix: key + "_"})
		}
	}
	return keys
}

func elementLabel(rec *domain.Record) string {
	if name := rec.String(domain.PropName); name != "" {
		return name
	}
	return element.Lookup(element.TypeOf(rec)).DefaultName
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
