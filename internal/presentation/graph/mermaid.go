package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a page tree.
// It applies semantic styling:
// - Page root: ((Circle))
// - Feedback collector: [/Parallelogram/]
// - Container: [Rectangle]
// - Leaf: (Rounded)
// Fenced collectors and hidden nodes get their own classes. When view is not
// nil, collectors are annotated with the number of messages they displayed.
func GenerateMermaid(root domain.NodeView, view *domain.View) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	counts := make(map[string]int)
	if view != nil {
		for _, c := range view.Feedback {
			counts[c.Path] = len(c.Messages)
		}
	}

	var fenced, hidden []string
	var visit func(n domain.NodeView, depth int)
	visit = func(n domain.NodeView, depth int) {
		safeID := sanitizeMermaidID(n.Path)

		opener, closer := "(", ")"
		switch {
		case depth == 0:
			opener, closer = "((", "))"
		case n.Kind == "feedback":
			opener, closer = "[/", "/]"
		case n.Container:
			opener, closer = "[", "]"
		}

		label := n.ID
		if count, ok := counts[n.Path]; ok {
			label = fmt.Sprintf("%s <br/> %d message(s)", n.ID, count)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		if n.Fence {
			fenced = append(fenced, safeID)
		}
		if !n.Visible {
			hidden = append(hidden, safeID)
		}

		for _, child := range n.Children {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(child.Path))
			visit(child, depth+1)
		}
	}
	visit(root, 0)

	if len(fenced) > 0 || len(hidden) > 0 {
		sb.WriteString("\n    %% Styles\n")
	}
	if len(fenced) > 0 {
		sb.WriteString("    classDef fence fill:#fff3e0,stroke:#e65100,stroke-width:3px,color:#000;\n")
		for _, id := range fenced {
			fmt.Fprintf(&sb, "    class %s fence;\n", id)
		}
	}
	if len(hidden) > 0 {
		sb.WriteString("    classDef hidden stroke-dasharray: 5 5,color:#999;\n")
		for _, id := range hidden {
			fmt.Fprintf(&sb, "    class %s hidden;\n", id)
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(
		":", "__",
		".", "_",
		"-", "_",
		"/", "_",
		"\\", "_",
		" ", "_",
	).Replace(id)
}
