package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/gamebook/pkg/classify"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/interchange"
	"github.com/aretw0/gamebook/pkg/notation"
	"github.com/aretw0/gamebook/pkg/pathfind"
	"github.com/muesli/termenv"
)

var roleColors = map[domain.Role]string{
	domain.RoleStart:      "#22c55e",
	domain.RoleEnd:        "#3b82f6",
	domain.RoleDead:       "#ef4444",
	domain.RoleRequired:   "#f59e0b",
	domain.RoleUnexplored: "#9ca3af",
}

// Printer writes classified graphs as terminal listings.
type Printer struct {
	w   io.Writer
	out *termenv.Output
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, out: NewOutput(w)}
}

func (p *Printer) role(r domain.Role) termenv.Style {
	s := p.out.String(string(r))
	if c, ok := roleColors[r]; ok {
		s = s.Foreground(p.out.Color(c))
	}
	if r == domain.RoleRequired {
		s = s.Bold()
	}
	return s
}

// Nodes prints one "id  role" line per node.
func (p *Printer) Nodes(g *classify.Graph) {
	width := 0
	for _, n := range g.Nodes {
		width = max(width, len(n.ID))
	}
	for _, n := range g.Nodes {
		fmt.Fprintf(p.w, "%-*s  %s\n", width, n.ID, p.role(n.Role))
	}
}

// Edges prints the traversal view. Chosen edges are bold, rejected ones faint and
// secret ones italic with a "*" suffix.
func (p *Printer) Edges(g *classify.Graph) {
	for _, e := range g.Edges {
		arrow := "->"
		if e.Chosen {
			arrow = "=>"
		}
		line := fmt.Sprintf("%s %s %s", e.From, arrow, e.To)
		if e.Secret {
			line += " *"
		}
		if e.Tag != "" {
			line += fmt.Sprintf("  [%s]", e.Tag)
		}

		s := p.out.String(line)
		switch {
		case e.Style == domain.EdgeStylePrimary:
			s = s.Bold()
		default:
			s = s.Faint()
		}
		if e.Dashed {
			s = s.Italic()
		}
		fmt.Fprintln(p.w, s)
	}
}

// Path prints a path search outcome. A partial result is flagged as such.
func (p *Printer) Path(res *pathfind.Result, err error) {
	if res != nil && len(res.Path) > 0 {
		fmt.Fprintf(p.w, "%s  (%d steps)\n", p.out.String(strings.Join(res.Path, " -> ")).Bold(), res.Length())
		if !res.Exhaustive {
			fmt.Fprintln(p.w, p.out.String("best path so far; search budget exhausted").Foreground(p.out.Color(roleColors[domain.RoleRequired])))
		}
	}
	if err != nil {
		fmt.Fprintln(p.w, p.out.String(err.Error()).Foreground(p.out.Color(roleColors[domain.RoleDead])))
	}
}

// ParseReport summarises an AddLines batch.
func (p *Printer) ParseReport(b *notation.BatchResult) {
	fmt.Fprintf(p.w, "%d lines, %d edges\n", b.Lines, len(b.Edges))
	for _, e := range b.Errors {
		fmt.Fprintln(p.w, p.out.String("skipped "+e.Error()).Foreground(p.out.Color(roleColors[domain.RoleDead])))
	}
	for _, d := range b.Warnings {
		fmt.Fprintln(p.w, p.out.String("warning "+fmt.Sprintf("line %d: %s", d.Line, d)).Foreground(p.out.Color(roleColors[domain.RoleRequired])))
	}
}

// ImportReport summarises a CSV import.
func (p *Printer) ImportReport(r *interchange.Result) {
	fmt.Fprintf(p.w, "%d edges imported\n", len(r.Edges))
	for _, w := range r.Warnings {
		fmt.Fprintln(p.w, p.out.String("skipped "+w.String()).Foreground(p.out.Color(roleColors[domain.RoleDead])))
	}
}
