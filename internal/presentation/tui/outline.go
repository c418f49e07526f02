package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Outline renders a dialog tree as a nested markdown list, one bullet
// per node, suitable for terminal display through the glamour renderer.
// Human nodes lead with their bold intent label; agent nodes are plain.
func Outline(root *domain.Node) string {
	var sb strings.Builder
	sb.WriteString("# Dialog Tree\n\n")

	stats := root.Stats()
	sb.WriteString(fmt.Sprintf("%d nodes, %d phrases, %d intents\n\n", stats.Nodes, stats.Phrases, stats.Intents))

	writeOutline(&sb, root, 0)
	return sb.String()
}

func writeOutline(sb *strings.Builder, n *domain.Node, depth int) {
	indent := strings.Repeat("  ", depth)

	speaker := "agent"
	if !n.IsBot() {
		speaker = fmt.Sprintf("**%s**", n.Intent())
	}

	phrases := n.Phrases()
	if len(phrases) == 0 {
		sb.WriteString(fmt.Sprintf("%s- %s\n", indent, speaker))
	} else {
		quoted := make([]string, len(phrases))
		for i, p := range phrases {
			quoted[i] = fmt.Sprintf("%q", p)
		}
		sb.WriteString(fmt.Sprintf("%s- %s: %s\n", indent, speaker, strings.Join(quoted, " / ")))
	}

	for _, child := range n.Replies() {
		writeOutline(sb, child, depth+1)
	}
}
