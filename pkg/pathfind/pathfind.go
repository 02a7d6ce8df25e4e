// Package pathfind computes shortest routes through a materialized transition graph,
// optionally constrained to visit a set of required nodes.
//
// The constrained variant has no efficient general solution. The finder first tries
// the unconstrained breadth-first shortest path; when that already visits every
// required node it is optimal. Otherwise simple paths are enumerated depth-first in
// edge insertion order with lower-bound pruning, bounded by a step budget and the
// context deadline.
package pathfind

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/gamebook/pkg/domain"
)

// DefaultMaxSteps bounds the number of node expansions of one constrained search.
const DefaultMaxSteps = 1_000_000

// ctxCheckInterval is how many expansions run between context checks.
const ctxCheckInterval = 1024

// Result is a path from start to target.
type Result struct {
	Path  []string         `json:"path"`
	Edges []domain.EdgeKey `json:"edges"`

	// Steps counts node expansions spent by the search.
	Steps int `json:"steps"`

	// Exhaustive is false when the search stopped on its budget; the path, if any,
	// is then the best one found so far.
	Exhaustive bool `json:"exhaustive"`
}

// Length returns the number of edges on the path.
func (r *Result) Length() int {
	if r == nil || len(r.Path) == 0 {
		return 0
	}
	return len(r.Path) - 1
}

// HasEdge reports whether the ordered pair is part of the path.
func (r *Result) HasEdge(from, to string) bool {
	if r == nil {
		return false
	}
	for _, k := range r.Edges {
		if k.From == from && k.To == to {
			return true
		}
	}
	return false
}

func newResult(path []string, steps int, exhaustive bool) *Result {
	res := &Result{
		Path:       append([]string(nil), path...),
		Edges:      make([]domain.EdgeKey, 0, len(path)),
		Steps:      steps,
		Exhaustive: exhaustive,
	}
	for i := 1; i < len(path); i++ {
		res.Edges = append(res.Edges, domain.EdgeKey{From: path[i-1], To: path[i]})
	}
	return res
}

// Graph is an adjacency view over materialized edges. Neighbour order follows
// edge insertion order, which makes every search deterministic.
type Graph struct {
	adj   map[string][]string
	radj  map[string][]string
	nodes map[string]bool
}

// NewGraph builds a graph. Annotations and self-loops are skipped; duplicate
// pairs are collapsed, first occurrence wins.
func NewGraph(edges []domain.Edge) *Graph {
	g := &Graph{
		adj:   make(map[string][]string),
		radj:  make(map[string][]string),
		nodes: make(map[string]bool),
	}
	seen := make(map[domain.EdgeKey]bool, len(edges))
	for _, e := range edges {
		if e.IsAnnotation() || e.IsSelfLoop() || seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		g.adj[e.From] = append(g.adj[e.From], e.To)
		g.radj[e.To] = append(g.radj[e.To], e.From)
		g.nodes[e.From] = true
		g.nodes[e.To] = true
	}
	return g
}

// HasNode reports whether id takes part in any traversable edge.
func (g *Graph) HasNode(id string) bool {
	return g.nodes[id]
}

// distances runs a BFS from root over adj and returns hop counts plus parents.
func distances(adj map[string][]string, root string) (map[string]int, map[string]string) {
	dist := map[string]int{root: 0}
	parent := make(map[string]string)
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if _, ok := dist[next]; ok {
				continue
			}
			dist[next] = dist[cur] + 1
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	return dist, parent
}

// Finder runs path searches.
type Finder struct {
	maxSteps int
	logger   *slog.Logger
}

// Option configures the Finder.
type Option func(*Finder)

// WithMaxSteps bounds the constrained search. Values <= 0 keep the default.
func WithMaxSteps(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.maxSteps = n
		}
	}
}

// WithLogger sets a structured logger for search diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		f.logger = logger
	}
}

// NewFinder creates a finder.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		maxSteps: DefaultMaxSteps,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Shortest returns the breadth-first shortest path from start to target.
func (f *Finder) Shortest(g *Graph, start, target string) (*Result, error) {
	if target == "" {
		return nil, domain.ErrEndNotDefined
	}
	if start == target && start != "" {
		return newResult([]string{start}, 0, true), nil
	}
	if !g.HasNode(start) || !g.HasNode(target) {
		return nil, fmt.Errorf("%w: %q -> %q", domain.ErrNoPathFound, start, target)
	}

	dist, parent := distances(g.adj, start)
	if _, ok := dist[target]; !ok {
		return nil, fmt.Errorf("%w: %q -> %q", domain.ErrNoPathFound, start, target)
	}

	path := []string{target}
	for cur := target; cur != start; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return newResult(path, len(dist), true), nil
}

// ShortestRequired returns the shortest simple path from start to target that
// visits every required node. Ties are broken by first discovery.
//
// When the budget runs out the error wraps domain.ErrSearchBudgetExceeded and the
// returned Result, if non-nil, is the best path found so far.
func (f *Finder) ShortestRequired(ctx context.Context, g *Graph, start, target string, required []string) (*Result, error) {
	req := make(map[string]bool, len(required))
	for _, id := range required {
		if id != "" {
			req[id] = true
		}
	}

	// 1. Unconstrained lower bound
	base, err := f.Shortest(g, start, target)
	if err != nil {
		return nil, err
	}
	if len(req) == 0 || covers(base.Path, req) {
		return base, nil
	}

	// 2. Every required node must sit between start and target
	fwd, _ := distances(g.adj, start)
	toTarget, _ := distances(g.radj, target)
	for id := range req {
		_, fromStart := fwd[id]
		_, reachesEnd := toTarget[id]
		if !fromStart || !reachesEnd {
			return nil, fmt.Errorf("%w: %q is not between %q and %q", domain.ErrNoValidPathWithRequired, id, start, target)
		}
	}

	// 3. Bounded enumeration
	s := &search{
		ctx:      ctx,
		g:        g,
		target:   target,
		req:      req,
		missing:  len(req),
		toTarget: toTarget,
		onPath:   make(map[string]bool),
		maxSteps: f.maxSteps,
	}
	s.dfs(start)

	if s.stopErr != nil {
		f.logger.Warn("pathfind: search stopped early", "start", start, "end", target, "steps", s.steps, "found", s.best != nil, "err", s.stopErr)
		var partial *Result
		if s.best != nil {
			partial = newResult(s.best, s.steps, false)
		}
		return partial, s.stopErr
	}
	if s.best == nil {
		return nil, fmt.Errorf("%w: %q -> %q", domain.ErrNoValidPathWithRequired, start, target)
	}

	f.logger.Debug("pathfind: constrained search finished", "start", start, "end", target, "steps", s.steps, "length", len(s.best)-1)
	return newResult(s.best, s.steps, true), nil
}

func covers(path []string, req map[string]bool) bool {
	hit := 0
	for _, id := range path {
		if req[id] {
			hit++
		}
	}
	return hit == len(req)
}

type search struct {
	ctx      context.Context
	g        *Graph
	target   string
	req      map[string]bool
	missing  int
	toTarget map[string]int
	onPath   map[string]bool
	path     []string
	best     []string
	steps    int
	maxSteps int
	stopErr  error
}

// lowerBound is the fewest edges still needed from node to finish a valid path.
func (s *search) lowerBound(node string) int {
	lb := s.missing
	if !s.req[s.target] {
		lb++
	}
	if d := s.toTarget[node]; d > lb {
		lb = d
	}
	return lb
}

func (s *search) dfs(node string) {
	if s.stopErr != nil {
		return
	}
	s.steps++
	if s.steps > s.maxSteps {
		s.stopErr = fmt.Errorf("%w: %d steps", domain.ErrSearchBudgetExceeded, s.maxSteps)
		return
	}
	if s.steps%ctxCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			s.stopErr = fmt.Errorf("%w: %w", domain.ErrSearchBudgetExceeded, err)
			return
		}
	}

	s.path = append(s.path, node)
	s.onPath[node] = true
	if s.req[node] {
		s.missing--
	}
	defer func() {
		s.path = s.path[:len(s.path)-1]
		delete(s.onPath, node)
		if s.req[node] {
			s.missing++
		}
	}()

	if node == s.target {
		if s.missing == 0 && (s.best == nil || len(s.path) < len(s.best)) {
			s.best = append([]string(nil), s.path...)
		}
		return
	}

	if _, ok := s.toTarget[node]; !ok {
		return
	}
	if s.best != nil && len(s.path)-1+s.lowerBound(node) >= len(s.best)-1 {
		return
	}

	for _, next := range s.g.adj[node] {
		if s.onPath[next] {
			continue
		}
		s.dfs(next)
		if s.stopErr != nil {
			return
		}
	}
}
