package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/gamebook/pkg/classify"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/pathfind"
)

// roleShapes maps node roles to Mermaid shape delimiters.
var roleShapes = map[domain.Role][2]string{
	domain.RoleStart:      {"((", "))"}, // Circle
	domain.RoleEnd:        {"(((", ")))"},
	domain.RoleDead:       {"[/", "\\]"},
	domain.RoleRequired:   {"{{", "}}"},
	domain.RoleUnexplored: {"[(", ")]"},
}

// GenerateMermaid produces a Mermaid flowchart from a classified graph.
// It applies semantic styling:
// - Start: ((Circle))
// - End: (((Double circle)))
// - Dead: [/Trapezoid\]
// - Required: {{Hexagon}}
// - Unexplored: [(Cylinder)]
// - Default: [Rectangle]
// Chosen edges are thick, rejected ones plain and secret ones dotted. When path is
// non-nil its nodes and edges are highlighted.
func GenerateMermaid(g *classify.Graph, path *pathfind.Result) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)
		opener, closer := "[", "]"
		if shape, ok := roleShapes[node.Role]; ok {
			opener, closer = shape[0], shape[1]
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.ID), closer))
	}

	// Edges; Mermaid numbers links in declaration order, which linkStyle relies on
	var onPath []int
	for i, e := range g.Edges {
		arrow := "-->"
		switch {
		case e.Dashed && e.Style == domain.EdgeStylePrimary:
			arrow = "-.->"
		case e.Dashed:
			arrow = "-.-"
		case e.Style == domain.EdgeStylePrimary:
			arrow = "==>"
		}
		if e.Tag != "" {
			label := escapeLabel(e.Tag)
			switch arrow {
			case "==>":
				arrow = fmt.Sprintf("== \"%s\" ==>", label)
			case "-.->", "-.-":
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			default:
				arrow = fmt.Sprintf("-- \"%s\" -->", label)
			}
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To)))
		if path.HasEdge(e.From, e.To) {
			onPath = append(onPath, i)
		}
	}

	// Role styles
	sb.WriteString("\n    %% Role Styles\n")
	sb.WriteString("    classDef roleStart fill:#c8e6c9,stroke:#2e7d32,color:#000;\n")
	sb.WriteString("    classDef roleEnd fill:#bbdefb,stroke:#1565c0,color:#000;\n")
	sb.WriteString("    classDef roleDead fill:#ffcdd2,stroke:#c62828,color:#000;\n")
	sb.WriteString("    classDef roleRequired fill:#ffe0b2,stroke:#ef6c00,stroke-width:3px,color:#000;\n")
	sb.WriteString("    classDef roleUnexplored fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 2,color:#000;\n")
	for _, node := range g.Nodes {
		if node.Role == domain.RoleNormal {
			continue
		}
		sb.WriteString(fmt.Sprintf("    class %s role%s;\n", sanitizeMermaidID(node.ID), node.Role))
	}

	// Path overlay
	if path != nil && len(path.Path) > 0 {
		sb.WriteString("\n    %% Path Overlay\n")
		sb.WriteString("    classDef onPath stroke:#fbc02d,stroke-width:4px;\n")
		seen := make(map[string]bool, len(path.Path))
		for _, id := range path.Path {
			safeID := sanitizeMermaidID(id)
			if seen[safeID] {
				continue
			}
			seen[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s onPath;\n", safeID))
		}
		for _, idx := range onPath {
			sb.WriteString(fmt.Sprintf("    linkStyle %d stroke:#fbc02d,stroke-width:4px;\n", idx))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	// Prefixed so numeric ids and the "end" keyword stay valid identifiers
	return "n" + s
}
