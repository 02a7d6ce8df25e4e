package gamebook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/gamebook/internal/logging"
	"github.com/aretw0/gamebook/pkg/classify"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/graphstore"
	"github.com/aretw0/gamebook/pkg/interchange"
	"github.com/aretw0/gamebook/pkg/notation"
	"github.com/aretw0/gamebook/pkg/pathfind"
	"github.com/aretw0/gamebook/pkg/ports"
	"github.com/aretw0/gamebook/pkg/session"
)

// Engine is the high-level entry point for the gamebook library.
// It binds the notation parser, the classifier and the path finder to persisted
// sessions, serialising every operation per session.
type Engine struct {
	sessions      *session.Manager
	parser        *notation.Parser
	finder        *pathfind.Finder
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	searchTimeout time.Duration

	tagInference bool
	maxSteps     int
	sessionOpts  []session.Option
}

var _ ports.Engine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTagInference enables the legacy trailing-tag inference of the notation parser.
func WithTagInference(enabled bool) Option {
	return func(e *Engine) {
		e.tagInference = enabled
	}
}

// WithMaxSteps bounds each constrained path search.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithSearchTimeout bounds the wall time of each path search. Zero disables it.
func WithSearchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.searchTimeout = d
	}
}

// WithLocker serialises sessions across processes through a distributed lock.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithLocker(locker), session.WithLockTTL(ttl))
	}
}

// New creates an Engine persisting sessions in store.
func New(store ports.SessionStore, opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	// Ensure logger is initialized so components never receive nil
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	e.parser = notation.NewParser(
		notation.WithTagInference(e.tagInference),
		notation.WithLogger(e.logger),
	)
	e.finder = pathfind.NewFinder(
		pathfind.WithMaxSteps(e.maxSteps),
		pathfind.WithLogger(e.logger),
	)
	e.sessions = session.NewManager(store, append([]session.Option{session.WithLogger(e.logger)}, e.sessionOpts...)...)
	return e
}

// Manager exposes the session manager.
func (e *Engine) Manager() *session.Manager {
	return e.sessions
}

// AddLine parses a single notation line and appends its edges. A malformed line
// leaves the session untouched and returns a *notation.LineError.
func (e *Engine) AddLine(ctx context.Context, sessionID, line, tag string) (*notation.Result, error) {
	res, err := e.parser.ParseLine(line, tag)
	if err != nil {
		return nil, err
	}
	err = e.update(ctx, sessionID, func(st *graphstore.Store) {
		st.Append(res.Edges...)
		st.Require(res.Required...)
	})
	if err != nil {
		return nil, err
	}

	e.emitParsed(ctx, sessionID, 1, len(res.Edges), 0, len(res.Warnings))
	return res, nil
}

// AddLines parses a multi-line paste and appends every well-formed line. Malformed
// lines are reported in the result and never abort the batch.
func (e *Engine) AddLines(ctx context.Context, sessionID, text, tag string) (*notation.BatchResult, error) {
	batch := e.parser.ParseBatch(text, tag)
	err := e.update(ctx, sessionID, func(st *graphstore.Store) {
		st.Append(batch.Edges...)
		st.Require(batch.Required...)
	})
	if err != nil {
		return nil, err
	}

	e.emitParsed(ctx, sessionID, batch.Lines, len(batch.Edges), len(batch.Errors), len(batch.Warnings))
	return batch, nil
}

// Import replaces the session log with the rows read from r. The reader is fully
// consumed before the session is touched, so a failed read changes nothing.
func (e *Engine) Import(ctx context.Context, sessionID string, r io.Reader) (*interchange.Result, error) {
	res, err := interchange.Import(r, interchange.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to import session %s: %w", sessionID, err)
	}
	err = e.update(ctx, sessionID, func(st *graphstore.Store) {
		st.Reset(res.Edges, res.Required)
	})
	if err != nil {
		return nil, err
	}

	e.emitReset(ctx, sessionID, len(res.Edges))
	return res, nil
}

// Export writes the session log in the tabular format.
func (e *Engine) Export(ctx context.Context, sessionID string, w io.Writer) error {
	return e.sessions.View(ctx, sessionID, func(ctx context.Context, st *graphstore.Store) error {
		return interchange.Export(w, st.Edges(), st.Required())
	})
}

// Reset clears the session log and its required set.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	err := e.update(ctx, sessionID, func(st *graphstore.Store) {
		st.Reset(nil, nil)
	})
	if err != nil {
		return err
	}

	e.emitReset(ctx, sessionID, 0)
	return nil
}

// Graph returns the classified graph of the session.
func (e *Engine) Graph(ctx context.Context, sessionID string) (*classify.Graph, error) {
	var g *classify.Graph
	err := e.sessions.View(ctx, sessionID, func(ctx context.Context, st *graphstore.Store) error {
		g = classify.Classify(st)
		return nil
	})
	return g, err
}

// ClassifiedNodes returns every node with its role.
func (e *Engine) ClassifiedNodes(ctx context.Context, sessionID string) ([]domain.NodeView, error) {
	g, err := e.Graph(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return g.Nodes, nil
}

// ClassifiedEdges returns the traversal view with display intents.
func (e *Engine) ClassifiedEdges(ctx context.Context, sessionID string) ([]domain.EdgeView, error) {
	g, err := e.Graph(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return g.Edges, nil
}

// ShortestRequiredPath searches the shortest simple path from start to end that
// visits every required node. Empty start or end fall back to the classified
// Start and End nodes.
//
// When the search budget runs out the error wraps domain.ErrSearchBudgetExceeded
// and the result, if non-nil, holds the best path found so far.
func (e *Engine) ShortestRequiredPath(ctx context.Context, sessionID, start, end string) (*pathfind.Result, error) {
	var res *pathfind.Result
	err := e.sessions.View(ctx, sessionID, func(ctx context.Context, st *graphstore.Store) error {
		g := classify.Classify(st)
		if start == "" {
			start = g.Start
		}
		if end == "" {
			end = g.End
		}

		if e.searchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.searchTimeout)
			defer cancel()
		}

		began := time.Now()
		var err error
		res, err = e.finder.ShortestRequired(ctx, pathfind.NewGraph(g.Traversal), start, end, g.Required)
		e.emitSearched(ctx, sessionID, start, end, len(g.Required), res, time.Since(began), err)
		return err
	})
	return res, err
}

// CreateSession allocates a new empty session and returns its ID.
func (e *Engine) CreateSession(ctx context.Context) (string, error) {
	id := session.NewID()
	if _, err := e.sessions.LoadOrCreate(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Sessions lists stored session IDs.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// DeleteSession removes a session.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// update applies mutate under the session lock, persists the result and reports
// the delta to OnSessionChanged.
func (e *Engine) update(ctx context.Context, sessionID string, mutate func(*graphstore.Store)) error {
	var diff *domain.SessionDiff
	err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, st *graphstore.Store) error {
		before := st.Snapshot(sessionID)
		mutate(st)
		diff = domain.Diff(before, st.Snapshot(sessionID))
		return nil
	})
	if err != nil {
		return err
	}

	if diff != nil && e.hooks.OnSessionChanged != nil {
		e.hooks.OnSessionChanged(ctx, diff)
	}
	return nil
}

func (e *Engine) emitParsed(ctx context.Context, sessionID string, lines, edges, malformed, dropped int) {
	if e.hooks.OnLinesParsed == nil {
		return
	}
	e.hooks.OnLinesParsed(ctx, &domain.ParseEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventLinesParsed, SessionID: sessionID},
		Lines:     lines,
		Edges:     edges,
		Malformed: malformed,
		Dropped:   dropped,
	})
}

func (e *Engine) emitSearched(ctx context.Context, sessionID, start, end string, required int, res *pathfind.Result, elapsed time.Duration, err error) {
	if e.hooks.OnPathSearched == nil {
		return
	}
	ev := &domain.SearchEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPathSearched, SessionID: sessionID},
		Start:     start,
		End:       end,
		Required:  required,
		Duration:  elapsed,
		Err:       err,
	}
	if res != nil {
		ev.Steps = res.Steps
		ev.Length = res.Length()
	}
	e.hooks.OnPathSearched(ctx, ev)
}

func (e *Engine) emitReset(ctx context.Context, sessionID string, edges int) {
	if e.hooks.OnSessionReset == nil {
		return
	}
	e.hooks.OnSessionReset(ctx, &domain.ResetEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventSessionReset, SessionID: sessionID},
		Edges:     edges,
	})
}
