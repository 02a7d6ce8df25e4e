package domain

// Role is the narrative role derived for a node.
type Role string

const (
	RoleStart      Role = "Start"
	RoleEnd        Role = "End"
	RoleDead       Role = "Dead"
	RoleRequired   Role = "Required"
	RoleUnexplored Role = "Unexplored"
	RoleNormal     Role = "Normal"
)

// NodeView is a classified node as exposed to presentation adapters.
type NodeView struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// EdgeStyle is the primary display intent of an edge.
type EdgeStyle string

const (
	// EdgeStylePrimary highlights the transition that was actually taken.
	EdgeStylePrimary EdgeStyle = "primary"
	// EdgeStyleMuted renders a rejected alternative.
	EdgeStyleMuted EdgeStyle = "muted"
)

// EdgeView is a classified edge as exposed to presentation adapters.
// Style and Dashed are independent: a chosen secret edge is both primary and dashed.
type EdgeView struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Chosen bool      `json:"chosen"`
	Secret bool      `json:"secret"`
	Tag    string    `json:"tag,omitempty"`
	Style  EdgeStyle `json:"style"`
	Dashed bool      `json:"dashed"`
}
