package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/gamebook/internal/presentation/graph"
	"github.com/aretw0/gamebook/pkg/classify"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/graphstore"
	"github.com/aretw0/gamebook/pkg/pathfind"
	"github.com/stretchr/testify/assert"
)

func classified(edges ...domain.Edge) *classify.Graph {
	st := graphstore.New()
	st.Append(edges...)
	return classify.Classify(st)
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		edges    []domain.Edge
		contains []string
	}{
		{
			name: "Role Shapes",
			edges: []domain.Edge{
				{From: "1", To: "2", Chosen: true},
				{From: "2", To: "3", Chosen: true, Tag: domain.TagEnd},
				{From: "1", To: "4"},
				{From: "4", To: "4", Chosen: true},
			},
			contains: []string{
				`n1(("1"))`,
				`n3((("3")))`,
				`n4[/"4"\]`,
				`n2["2"]`,
				"class n1 roleStart;",
				"class n3 roleEnd;",
				"class n4 roleDead;",
			},
		},
		{
			name: "Edge Styles",
			edges: []domain.Edge{
				{From: "1", To: "2", Chosen: true},
				{From: "1", To: "3"},
				{From: "2", To: "5", Chosen: true, IsSecret: true},
			},
			contains: []string{
				"n1 ==> n2",
				"n1 --> n3",
				"n2 -.-> n5",
			},
		},
		{
			name: "ID Sanitization",
			edges: []domain.Edge{
				{From: "path/to/file.md", To: "hyphen-ated", Chosen: true},
			},
			contains: []string{
				`npath_to_file_md(("path/to/file.md"))`,
				"nhyphen_ated",
			},
		},
		{
			name: "Tag Escaping",
			edges: []domain.Edge{
				{From: "A", To: "B", Chosen: true, Tag: `said "yes"`},
			},
			contains: []string{
				`nA == "said 'yes'" ==> nB`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(classified(tt.edges...), nil)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			assert.NotContains(t, got, "Path Overlay")
		})
	}
}

func TestGenerateMermaid_PathOverlay(t *testing.T) {
	g := classified(
		domain.Edge{From: "A", To: "B", Chosen: true},
		domain.Edge{From: "A", To: "C"},
		domain.Edge{From: "B", To: "D", Chosen: true, Tag: domain.TagEnd},
	)
	path := &pathfind.Result{
		Path:  []string{"A", "B", "D"},
		Edges: []domain.EdgeKey{{From: "A", To: "B"}, {From: "B", To: "D"}},
	}

	got := graph.GenerateMermaid(g, path)

	assert.Contains(t, got, "class nA onPath;")
	assert.Contains(t, got, "class nD onPath;")
	assert.NotContains(t, got, "class nC onPath;")
	assert.Contains(t, got, "linkStyle 0 ")
	assert.Contains(t, got, "linkStyle 2 ")
	assert.NotContains(t, got, "linkStyle 1 ")
	assert.True(t, strings.HasPrefix(got, "graph TD\n"))
}
