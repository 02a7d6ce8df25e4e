package notation_test

import (
	"testing"

	"github.com/aretw0/gamebook/pkg/notation"
	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		raw     string
		id      string
		markers string
	}{
		{raw: "42", id: "42", markers: ""},
		{raw: " 42 ", id: "42", markers: ""},
		{raw: "42x", id: "42", markers: "x"},
		{raw: "400*", id: "400", markers: "*"},
		{raw: "7+t", id: "7", markers: "+t"},
		{raw: "7t+", id: "7", markers: "+t"},
		{raw: "9*sx+", id: "9", markers: "x+s*"},
		{raw: "12xx", id: "12", markers: "x"},
		{raw: "+", id: "", markers: "+"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			tok := notation.Tokenize(tt.raw)
			assert.Equal(t, tt.id, tok.ID)
			assert.Equal(t, tt.markers, tok.Markers.String())
		})
	}
}

func TestMarkerSet_PrecedenceIsStable(t *testing.T) {
	a := notation.Tokenize("5*t+x").Markers
	b := notation.Tokenize("5x+t*").Markers

	assert.Equal(t, a, b)
	assert.Equal(t,
		[]notation.Marker{notation.MarkerDead, notation.MarkerRequired, notation.MarkerEnd, notation.MarkerSecret},
		a.Ordered(),
	)
	assert.Equal(t, "x+t*", b.String())
}

func TestMarkerSet_WithWithout(t *testing.T) {
	var s notation.MarkerSet
	assert.True(t, s.Empty())

	s = s.With(notation.MarkerStart).With(notation.MarkerEnd)
	assert.True(t, s.Has(notation.MarkerStart))
	assert.True(t, s.Has(notation.MarkerEnd))
	assert.False(t, s.Has(notation.MarkerDead))

	s = s.Without(notation.MarkerStart)
	assert.False(t, s.Has(notation.MarkerStart))
	assert.Equal(t, "End", notation.MarkerEnd.Tag())
	assert.Equal(t, "", notation.MarkerSecret.Tag())
}
