package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Overlay highlights one walk through the tree on the rendered graph.
// Path is a sequence of intent labels from the root, the empty string
// following an agent edge.
type Overlay struct {
	Path []string
}

const maxLabelLen = 40

// GenerateMermaid produces a Mermaid flowchart from a dialog tree.
// Agent nodes render as rectangles, human nodes as rounded boxes, and
// every edge carries the child's intent label. Node IDs are assigned in
// walk order so identical trees render identically.
func GenerateMermaid(root *domain.Node, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[*domain.Node]string)
	next := 0
	assign := func(n *domain.Node) string {
		if id, ok := ids[n]; ok {
			return id
		}
		id := fmt.Sprintf("n%d", next)
		next++
		ids[n] = id
		return id
	}

	var walk func(n *domain.Node)
	walk = func(n *domain.Node) {
		id := assign(n)

		// Node shape based on speaker
		opener, closer := "(", ")" // Rounded (human)
		if n.IsBot() {
			opener, closer = "[", "]" // Rectangle (agent)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, nodeLabel(n), closer))

		for _, child := range n.Replies() {
			arrow := "-->"
			if label := child.Intent(); label != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(label))
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", id, arrow, assign(child)))
		}
		for _, child := range n.Replies() {
			walk(child)
		}
	}
	walk(root)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef walked fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

		node := root
		sb.WriteString(fmt.Sprintf("    class %s walked;\n", ids[node]))
		for _, intent := range overlay.Path {
			child, ok := node.Reply(intent)
			if !ok {
				break
			}
			sb.WriteString(fmt.Sprintf("    class %s walked;\n", ids[child]))
			node = child
		}
	}

	return sb.String()
}

// nodeLabel picks a representative phrase for display, truncated so wide
// trees stay readable.
func nodeLabel(n *domain.Node) string {
	phrases := n.Phrases()
	if len(phrases) == 0 {
		return "(start)"
	}
	label := phrases[0]
	if runes := []rune(label); len(runes) > maxLabelLen {
		label = string(runes[:maxLabelLen]) + "…"
	}
	if len(phrases) > 1 {
		label = fmt.Sprintf("%s (+%d)", label, len(phrases)-1)
	}
	return escapeLabel(label)
}

// escapeLabel replaces double quotes, which would end the Mermaid label.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
