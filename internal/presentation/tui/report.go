package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/gamebook/pkg/classify"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/pathfind"
)

// Report builds a Markdown summary of a session: role counts, the node table,
// the required path and open leads.
func Report(session string, g *classify.Graph, path *pathfind.Result, pathErr error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Session `%s`\n\n", session)

	// 1. Overview
	counts := make(map[domain.Role]int)
	for _, n := range g.Nodes {
		counts[n.Role]++
	}
	sb.WriteString("| Role | Nodes |\n|---|---|\n")
	for _, r := range []domain.Role{domain.RoleStart, domain.RoleEnd, domain.RoleRequired, domain.RoleDead, domain.RoleUnexplored, domain.RoleNormal} {
		fmt.Fprintf(&sb, "| %s | %d |\n", r, counts[r])
	}
	fmt.Fprintf(&sb, "\n**%d** nodes, **%d** transitions.\n\n", len(g.Nodes), len(g.Edges))

	// 2. Path
	sb.WriteString("## Path\n\n")
	switch {
	case path != nil && len(path.Path) > 0:
		fmt.Fprintf(&sb, "`%s` (%d steps)\n\n", strings.Join(path.Path, " → "), path.Length())
		if !path.Exhaustive {
			sb.WriteString("> Search budget exhausted; this is the best path found so far.\n\n")
		}
	case pathErr != nil:
		fmt.Fprintf(&sb, "_%s_\n\n", describe(pathErr))
	default:
		sb.WriteString("_Not computed._\n\n")
	}

	// 3. Leads
	if len(g.Required) > 0 {
		sb.WriteString("## Required\n\n")
		for _, id := range g.Required {
			fmt.Fprintf(&sb, "- `%s`\n", id)
		}
		sb.WriteString("\n")
	}
	if len(g.Unexplored) > 0 {
		sb.WriteString("## Unexplored\n\n")
		for _, id := range g.Unexplored {
			fmt.Fprintf(&sb, "- `%s`\n", id)
		}
		sb.WriteString("\n")
	}
	if len(g.Dead) > 0 {
		sb.WriteString("## Dead ends\n\n")
		for _, id := range g.Dead {
			fmt.Fprintf(&sb, "- `%s`\n", id)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrEndNotDefined):
		return "No end node defined yet. Mark one with a trailing t."
	case errors.Is(err, domain.ErrNoValidPathWithRequired):
		return "No route visits every required node."
	case errors.Is(err, domain.ErrNoPathFound):
		return "The end is not reachable from the start."
	case errors.Is(err, domain.ErrSearchBudgetExceeded):
		return "Search budget exhausted before any route was found."
	default:
		return err.Error()
	}
}
