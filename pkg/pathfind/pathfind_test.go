package pathfind_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/pathfind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edges(pairs ...string) []domain.Edge {
	out := make([]domain.Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.Edge{From: pairs[i], To: pairs[i+1], Chosen: true})
	}
	return out
}

// ladder builds S -> {a1,b1} -> ... -> {an,bn} -> T with full connections between
// layers, plus S <-> Z so that Z is reachable but never on a simple S..T path.
func ladder(n int) []domain.Edge {
	var out []domain.Edge
	add := func(from, to string) {
		out = append(out, domain.Edge{From: from, To: to})
	}
	add("S", "a1")
	add("S", "b1")
	for i := 1; i < n; i++ {
		for _, from := range []string{"a", "b"} {
			for _, to := range []string{"a", "b"} {
				add(fmt.Sprintf("%s%d", from, i), fmt.Sprintf("%s%d", to, i+1))
			}
		}
	}
	add(fmt.Sprintf("a%d", n), "T")
	add(fmt.Sprintf("b%d", n), "T")
	add("S", "Z")
	add("Z", "S")
	return out
}

func TestShortest_BFS(t *testing.T) {
	g := pathfind.NewGraph(edges("1", "2", "2", "3", "3", "4", "1", "3"))
	f := pathfind.NewFinder()

	res, err := f.Shortest(g, "1", "4")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "4"}, res.Path)
	assert.Equal(t, 2, res.Length())
	assert.True(t, res.HasEdge("1", "3"))
	assert.False(t, res.HasEdge("1", "2"))
}

func TestShortestRequired_PrefersShorterRoute(t *testing.T) {
	input := edges("A", "B", "B", "C", "B", "D")
	input = append(input, domain.Edge{From: "D", To: "C", Chosen: true, Tag: "End"})
	g := pathfind.NewGraph(input)

	res, err := pathfind.NewFinder().ShortestRequired(context.Background(), g, "A", "C", []string{"B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, res.Path)
	assert.Equal(t, 2, res.Length())
	assert.Equal(t, []domain.EdgeKey{{From: "A", To: "B"}, {From: "B", To: "C"}}, res.Edges)
	assert.True(t, res.Exhaustive)
}

func TestShortestRequired_DetoursThroughRequired(t *testing.T) {
	g := pathfind.NewGraph(edges(
		"S", "T",
		"S", "X",
		"X", "R",
		"R", "T",
	))

	res, err := pathfind.NewFinder().ShortestRequired(context.Background(), g, "S", "T", []string{"R"})
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "X", "R", "T"}, res.Path)
}

func TestShortestRequired_TieBreakIsFirstDiscovered(t *testing.T) {
	g := pathfind.NewGraph(edges(
		"S", "X",
		"S", "Y",
		"S", "T",
		"Y", "R",
		"X", "R",
		"R", "T",
	))

	res, err := pathfind.NewFinder().ShortestRequired(context.Background(), g, "S", "T", []string{"R"})
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "X", "R", "T"}, res.Path)
}

func TestShortestRequired_Errors(t *testing.T) {
	ctx := context.Background()
	f := pathfind.NewFinder()

	t.Run("end not defined", func(t *testing.T) {
		g := pathfind.NewGraph(edges("1", "2"))
		_, err := f.ShortestRequired(ctx, g, "1", "", nil)
		assert.ErrorIs(t, err, domain.ErrEndNotDefined)
		assert.ErrorIs(t, err, domain.ErrMissingEndNode)
	})

	t.Run("no path", func(t *testing.T) {
		g := pathfind.NewGraph(edges("1", "2", "3", "4"))
		_, err := f.ShortestRequired(ctx, g, "1", "4", nil)
		assert.ErrorIs(t, err, domain.ErrNoPathFound)
	})

	t.Run("unknown start", func(t *testing.T) {
		g := pathfind.NewGraph(edges("1", "2"))
		_, err := f.ShortestRequired(ctx, g, "9", "2", nil)
		assert.ErrorIs(t, err, domain.ErrNoPathFound)
	})

	t.Run("required off every route", func(t *testing.T) {
		g := pathfind.NewGraph(edges("1", "2", "2", "3", "5", "6"))
		_, err := f.ShortestRequired(ctx, g, "1", "3", []string{"5"})
		assert.ErrorIs(t, err, domain.ErrNoValidPathWithRequired)
	})

	t.Run("required only on a non-simple route", func(t *testing.T) {
		g := pathfind.NewGraph(edges("A", "B", "B", "D", "A", "C", "C", "A"))
		_, err := f.ShortestRequired(ctx, g, "A", "D", []string{"C"})
		assert.ErrorIs(t, err, domain.ErrNoValidPathWithRequired)
	})
}

func TestShortestRequired_StepBudget(t *testing.T) {
	g := pathfind.NewGraph(ladder(20))
	f := pathfind.NewFinder(pathfind.WithMaxSteps(500))

	start := time.Now()
	res, err := f.ShortestRequired(context.Background(), g, "S", "T", []string{"Z"})

	assert.ErrorIs(t, err, domain.ErrSearchBudgetExceeded)
	assert.Nil(t, res)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestShortestRequired_ContextCancel(t *testing.T) {
	g := pathfind.NewGraph(ladder(24))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pathfind.NewFinder().ShortestRequired(ctx, g, "S", "T", []string{"Z"})
	assert.ErrorIs(t, err, domain.ErrSearchBudgetExceeded)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestShortestRequired_PartialResultOnBudget(t *testing.T) {
	g := pathfind.NewGraph(edges(
		"S", "X",
		"X", "R",
		"R", "T",
		"S", "T",
		"S", "Y",
		"Y", "T",
	))

	// S, X, R and T exhaust the budget right after the first valid route.
	f := pathfind.NewFinder(pathfind.WithMaxSteps(4))
	res, err := f.ShortestRequired(context.Background(), g, "S", "T", []string{"R"})

	require.ErrorIs(t, err, domain.ErrSearchBudgetExceeded)
	require.NotNil(t, res)
	assert.Equal(t, []string{"S", "X", "R", "T"}, res.Path)
	assert.False(t, res.Exhaustive)
}

func TestNewGraph_SkipsAnnotationsAndLoops(t *testing.T) {
	g := pathfind.NewGraph([]domain.Edge{
		{From: "1", To: "1"},
		domain.Annotation("2", domain.TagStart),
		{From: "3", To: "4"},
	})

	assert.False(t, g.HasNode("1"))
	assert.False(t, g.HasNode("2"))
	assert.True(t, g.HasNode("3"))
}
