// Package classify derives narrative roles for nodes and display intents for edges.
package classify

import (
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/graphstore"
)

// Graph is the classified view of one edge store.
type Graph struct {
	Nodes []domain.NodeView `json:"nodes"`
	Edges []domain.EdgeView `json:"edges"`

	// Start is the explicit Start node, or the source of the first recorded edge.
	Start string `json:"start,omitempty"`
	// End is the first End node in log order. Ends lists all of them.
	End  string   `json:"end,omitempty"`
	Ends []string `json:"ends,omitempty"`

	Required   []string `json:"required,omitempty"`
	Dead       []string `json:"dead,omitempty"`
	Unexplored []string `json:"unexplored,omitempty"`

	// Traversal is the materialized edge set the classification was computed on.
	Traversal []domain.Edge `json:"-"`

	roles map[string]domain.Role
}

// Role returns the role of id, or RoleNormal for unknown ids.
func (g *Graph) Role(id string) domain.Role {
	if r, ok := g.roles[id]; ok {
		return r
	}
	return domain.RoleNormal
}

// Classify assigns every node one role, applying the precedence
// Dead > Required > End > Start > Unexplored > Normal.
func Classify(st *graphstore.Store) *Graph {
	traversal := st.Materialize()
	raw := st.Edges()

	g := &Graph{
		Traversal: traversal,
		Required:  st.Required(),
		Dead:      st.DeadNodes(),
		roles:     make(map[string]domain.Role),
	}

	// 1. Sources and targets of the traversal view
	allFrom := make(map[string]bool)
	allTo := make(map[string]bool)
	for _, e := range traversal {
		allFrom[e.From] = true
		allTo[e.To] = true
	}

	// 2. Start (explicit marker wins) and End declarations from the raw log
	ends := make(map[string]bool)
	for _, e := range raw {
		switch {
		case e.IsAnnotation() && e.HasTag(domain.TagStart):
			if g.Start == "" {
				g.Start = e.From
			}
		case e.IsAnnotation() && e.HasTag(domain.TagEnd):
			if !ends[e.From] {
				ends[e.From] = true
				g.Ends = append(g.Ends, e.From)
			}
		case !e.IsAnnotation() && e.HasTag(domain.TagEnd):
			if !ends[e.To] {
				ends[e.To] = true
				g.Ends = append(g.Ends, e.To)
			}
		}
	}
	if g.Start == "" {
		g.Start, _ = st.FirstSource()
	}
	if len(g.Ends) > 0 {
		g.End = g.Ends[0]
	}

	dead := make(map[string]bool, len(g.Dead))
	for _, id := range g.Dead {
		dead[id] = true
	}

	// 3. Roles
	for _, id := range st.Nodes() {
		unexplored := allTo[id] && !allFrom[id]
		if unexplored {
			g.Unexplored = append(g.Unexplored, id)
		}

		var role domain.Role
		switch {
		case dead[id]:
			role = domain.RoleDead
		case st.IsRequired(id):
			role = domain.RoleRequired
		case ends[id]:
			role = domain.RoleEnd
		case id == g.Start:
			role = domain.RoleStart
		case unexplored:
			role = domain.RoleUnexplored
		default:
			role = domain.RoleNormal
		}
		g.roles[id] = role
		g.Nodes = append(g.Nodes, domain.NodeView{ID: id, Role: role})
	}

	// 4. Edge display intents
	for _, e := range traversal {
		g.Edges = append(g.Edges, ViewEdge(e))
	}

	return g
}

// ViewEdge derives the display intent of a single edge.
func ViewEdge(e domain.Edge) domain.EdgeView {
	style := domain.EdgeStyleMuted
	if e.Chosen {
		style = domain.EdgeStylePrimary
	}
	return domain.EdgeView{
		From:   e.From,
		To:     e.To,
		Chosen: e.Chosen,
		Secret: e.IsSecret,
		Tag:    e.Tag,
		Style:  style,
		Dashed: e.IsSecret,
	}
}
