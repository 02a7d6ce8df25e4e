package domain

import "strings"

// Reserved tag keywords. Tags are compared case-insensitively.
const (
	TagStart    = "Start"
	TagEnd      = "End"
	TagDead     = "Dead"
	TagRequired = "Required"
)

// Edge is one recorded transition between two pages.
//
// An empty To marks an annotation-only declaration: the edge carries a role tag
// for its From node and is never traversed.
type Edge struct {
	From     string `json:"from" yaml:"from"`
	To       string `json:"to,omitempty" yaml:"to,omitempty"`
	Chosen   bool   `json:"chosen" yaml:"chosen"`
	Tag      string `json:"tag,omitempty" yaml:"tag,omitempty"`
	IsSecret bool   `json:"is_secret,omitempty" yaml:"is_secret,omitempty"`
}

// EdgeKey identifies an ordered (from, to) pair.
type EdgeKey struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Key returns the ordered pair used for deduplication.
func (e Edge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To}
}

// IsAnnotation reports whether the edge only annotates its source node.
func (e Edge) IsAnnotation() bool {
	return e.To == ""
}

// IsSelfLoop reports whether the edge is a dead-end marker.
func (e Edge) IsSelfLoop() bool {
	return e.To != "" && e.From == e.To
}

// HasTag compares the edge tag against a keyword, ignoring case and surrounding space.
func (e Edge) HasTag(keyword string) bool {
	return strings.EqualFold(strings.TrimSpace(e.Tag), keyword)
}

// Annotation builds an annotation-only edge tagging node with a role keyword.
func Annotation(node, tag string) Edge {
	return Edge{From: node, Tag: tag}
}
