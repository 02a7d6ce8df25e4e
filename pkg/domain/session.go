package domain

import "time"

// Session is the persisted snapshot of one isolated edge log.
type Session struct {
	ID string `json:"id"`

	// Edges is the raw append-only log, in recording order. Duplicates are kept.
	Edges []Edge `json:"edges"`

	// Required holds explicitly registered required nodes, in registration order.
	Required []string `json:"required,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Edges:     []Edge{},
		Required:  []string{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Snapshot returns a deep copy so callers can't alias store-owned slices.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Edges = make([]Edge, len(s.Edges))
	copy(cp.Edges, s.Edges)
	cp.Required = make([]string, len(s.Required))
	copy(cp.Required, s.Required)
	return &cp
}
