// Package graphstore holds the append-only edge log of one session and derives the
// deduplicated traversal view used by classification and path search.
package graphstore

import (
	"github.com/aretw0/gamebook/pkg/domain"
)

// Store is the explicit graph value threaded through parsing, classification and
// search. It is not safe for concurrent use; session.Manager serialises access.
type Store struct {
	edges    []domain.Edge
	required []string
	seenReq  map[string]bool
}

// New creates an empty store.
func New() *Store {
	return &Store{seenReq: make(map[string]bool)}
}

// FromSession rebuilds a store from a persisted snapshot.
func FromSession(s *domain.Session) *Store {
	st := New()
	if s == nil {
		return st
	}
	st.Reset(s.Edges, s.Required)
	return st
}

// Snapshot exports the store into a session value with the given id.
func (s *Store) Snapshot(id string) *domain.Session {
	sess := domain.NewSession(id)
	sess.Edges = s.Edges()
	sess.Required = s.Required()
	return sess
}

// Append adds records to the raw log. Records are never rejected; annotations
// tagged Required also register their node in the required set.
func (s *Store) Append(records ...domain.Edge) {
	for _, e := range records {
		s.edges = append(s.edges, e)
		if e.IsAnnotation() && e.HasTag(domain.TagRequired) {
			s.Require(e.From)
		}
	}
}

// Require registers nodes as required. Registration order is preserved.
func (s *Store) Require(ids ...string) {
	for _, id := range ids {
		if id == "" || s.seenReq[id] {
			continue
		}
		s.seenReq[id] = true
		s.required = append(s.required, id)
	}
}

// Reset atomically replaces the log and the required set.
func (s *Store) Reset(records []domain.Edge, required []string) {
	next := New()
	next.Append(records...)
	next.Require(required...)
	*s = *next
}

// Len returns the number of raw records, duplicates included.
func (s *Store) Len() int {
	return len(s.edges)
}

// Edges returns a copy of the raw log.
func (s *Store) Edges() []domain.Edge {
	out := make([]domain.Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Required returns a copy of the required set in registration order.
func (s *Store) Required() []string {
	out := make([]string, len(s.required))
	copy(out, s.required)
	return out
}

// IsRequired reports whether id was registered as required.
func (s *Store) IsRequired(id string) bool {
	return s.seenReq[id]
}

// FirstSource returns the From of the first-ever recorded edge.
func (s *Store) FirstSource() (string, bool) {
	for _, e := range s.edges {
		if e.From != "" {
			return e.From, true
		}
	}
	return "", false
}

// Materialize returns the traversal view: one edge per ordered (from, to) pair,
// first occurrence wins, self-loops and annotations excluded.
func (s *Store) Materialize() []domain.Edge {
	seen := make(map[domain.EdgeKey]bool, len(s.edges))
	out := make([]domain.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		if e.IsAnnotation() || e.IsSelfLoop() {
			continue
		}
		k := e.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

// DeadNodes returns targets of self-loops that are not End declarations, plus
// nodes annotated Dead, in first-appearance order.
func (s *Store) DeadNodes() []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range s.edges {
		var id string
		switch {
		case e.IsSelfLoop() && !e.HasTag(domain.TagEnd):
			id = e.To
		case e.IsAnnotation() && e.HasTag(domain.TagDead):
			id = e.From
		default:
			continue
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Nodes lists every node id mentioned by the log, then required-only nodes,
// in first-appearance order.
func (s *Store) Nodes() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, e := range s.edges {
		add(e.From)
		add(e.To)
	}
	for _, id := range s.required {
		add(id)
	}
	return out
}
