package observability

import (
	"context"
	"errors"

	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by lifecycle hooks.
type Metrics struct {
	LinesParsed   prometheus.Counter
	EdgesAdded    prometheus.Counter
	MalformedRows prometheus.Counter
	DroppedMarks  prometheus.Counter
	Searches      *prometheus.CounterVec
	SearchSteps   prometheus.Histogram
	SearchSeconds prometheus.Histogram
	Resets        prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamebook_lines_parsed_total",
			Help: "Total number of notation lines parsed.",
		}),
		EdgesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamebook_edges_added_total",
			Help: "Total number of edge records appended to session logs.",
		}),
		MalformedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamebook_malformed_lines_total",
			Help: "Total number of notation lines skipped as malformed.",
		}),
		DroppedMarks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamebook_dropped_markers_total",
			Help: "Total number of markers ignored on rejected destinations.",
		}),
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gamebook_path_searches_total",
			Help: "Total number of path searches, labelled by outcome.",
		}, []string{"outcome"}),
		SearchSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gamebook_path_search_steps",
			Help:    "Node expansions spent per path search.",
			Buckets: prometheus.ExponentialBuckets(1, 10, 7),
		}),
		SearchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gamebook_path_search_duration_seconds",
			Help:    "Wall time per path search.",
			Buckets: prometheus.DefBuckets,
		}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gamebook_session_resets_total",
			Help: "Total number of wholesale session replacements (reset or import).",
		}),
	}
	reg.MustRegister(
		m.LinesParsed, m.EdgesAdded, m.MalformedRows, m.DroppedMarks,
		m.Searches, m.SearchSteps, m.SearchSeconds, m.Resets,
	)
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnLinesParsed: func(_ context.Context, e *domain.ParseEvent) {
			m.LinesParsed.Add(float64(e.Lines))
			m.EdgesAdded.Add(float64(e.Edges))
			m.MalformedRows.Add(float64(e.Malformed))
			m.DroppedMarks.Add(float64(e.Dropped))
		},
		OnPathSearched: func(_ context.Context, e *domain.SearchEvent) {
			m.Searches.WithLabelValues(Outcome(e.Err)).Inc()
			m.SearchSteps.Observe(float64(e.Steps))
			m.SearchSeconds.Observe(e.Duration.Seconds())
		},
		OnSessionReset: func(_ context.Context, e *domain.ResetEvent) {
			m.Resets.Inc()
			m.EdgesAdded.Add(float64(e.Edges))
		},
	}
}

// Outcome maps a search error to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, domain.ErrEndNotDefined):
		return "end_not_defined"
	case errors.Is(err, domain.ErrNoPathFound):
		return "no_path"
	case errors.Is(err, domain.ErrNoValidPathWithRequired):
		return "no_valid_path"
	case errors.Is(err, domain.ErrSearchBudgetExceeded):
		return "budget_exceeded"
	default:
		return "error"
	}
}
