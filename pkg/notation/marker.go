package notation

import (
	"strings"

	"github.com/aretw0/gamebook/pkg/domain"
)

// Marker is a single-character role suffix on a token.
type Marker rune

const (
	MarkerSecret   Marker = '*'
	MarkerDead     Marker = 'x'
	MarkerEnd      Marker = 't'
	MarkerRequired Marker = '+'
	MarkerStart    Marker = 's'
)

// markerRule binds a marker to its bit and the tag its annotation carries.
type markerRule struct {
	marker Marker
	bit    MarkerSet
	tag    string
}

// precedence is the canonical marker order. Annotations, diagnostics and String
// all follow it.
var precedence = []markerRule{
	{MarkerDead, 1 << 0, domain.TagDead},
	{MarkerRequired, 1 << 1, domain.TagRequired},
	{MarkerEnd, 1 << 2, domain.TagEnd},
	{MarkerStart, 1 << 3, domain.TagStart},
	{MarkerSecret, 1 << 4, ""},
}

func ruleFor(m Marker) (markerRule, bool) {
	for _, rule := range precedence {
		if rule.marker == m {
			return rule, true
		}
	}
	return markerRule{}, false
}

// Tag returns the reserved tag keyword for the marker ("" for Secret).
func (m Marker) Tag() string {
	rule, _ := ruleFor(m)
	return rule.tag
}

func (m Marker) String() string {
	return string(rune(m))
}

// MarkerSet is an order-insensitive set of markers.
type MarkerSet uint8

// Has reports whether m is in the set.
func (s MarkerSet) Has(m Marker) bool {
	rule, ok := ruleFor(m)
	return ok && s&rule.bit != 0
}

// With returns the set including m. Unknown markers are ignored.
func (s MarkerSet) With(m Marker) MarkerSet {
	if rule, ok := ruleFor(m); ok {
		return s | rule.bit
	}
	return s
}

// Without returns the set excluding m.
func (s MarkerSet) Without(m Marker) MarkerSet {
	if rule, ok := ruleFor(m); ok {
		return s &^ rule.bit
	}
	return s
}

// Empty reports whether no marker is set.
func (s MarkerSet) Empty() bool {
	return s == 0
}

// Ordered lists the markers in precedence order.
func (s MarkerSet) Ordered() []Marker {
	var out []Marker
	for _, rule := range precedence {
		if s&rule.bit != 0 {
			out = append(out, rule.marker)
		}
	}
	return out
}

func (s MarkerSet) String() string {
	var sb strings.Builder
	for _, m := range s.Ordered() {
		sb.WriteRune(rune(m))
	}
	return sb.String()
}

// Token is one comma-separated element of a line, split into id and markers.
type Token struct {
	Raw     string
	ID      string
	Markers MarkerSet
}

// Tokenize strips the trailing run of marker characters from raw.
// A token made only of markers yields an empty ID.
func Tokenize(raw string) Token {
	raw = strings.TrimSpace(raw)
	tok := Token{Raw: raw}

	end := len(raw)
	for end > 0 {
		m := Marker(raw[end-1])
		if _, ok := ruleFor(m); !ok {
			break
		}
		tok.Markers = tok.Markers.With(m)
		end--
	}
	tok.ID = strings.TrimSpace(raw[:end])
	return tok
}
