package observability_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/gamebook/internal/logging"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnLinesParsed(ctx, &domain.ParseEvent{Lines: 3, Edges: 5, Malformed: 1, Dropped: 2})
	hooks.OnPathSearched(ctx, &domain.SearchEvent{Steps: 10, Duration: time.Millisecond})
	hooks.OnPathSearched(ctx, &domain.SearchEvent{Err: fmt.Errorf("wrapped: %w", domain.ErrSearchBudgetExceeded)})
	hooks.OnSessionReset(ctx, &domain.ResetEvent{Edges: 4})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.LinesParsed))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.EdgesAdded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MalformedRows))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DroppedMarks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("budget_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resets))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "end_not_defined", observability.Outcome(domain.ErrMissingEndNode))
	assert.Equal(t, "no_path", observability.Outcome(domain.ErrNoPathFound))
	assert.Equal(t, "no_valid_path", observability.Outcome(domain.ErrNoValidPathWithRequired))
	assert.Equal(t, "error", observability.Outcome(fmt.Errorf("disk full")))
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnSessionReset: func(context.Context, *domain.ResetEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnSessionReset: func(context.Context, *domain.ResetEvent) { calls = append(calls, "b") },
	}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	hooks.OnSessionReset(context.Background(), &domain.ResetEvent{})

	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, hooks.OnLinesParsed)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, logging.FormatText)
	hooks := observability.LoggingHooks(logger)

	hooks.OnPathSearched(context.Background(), &domain.SearchEvent{
		EventBase: domain.EventBase{SessionID: "s1"},
		Err:       domain.ErrNoPathFound,
	})
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "session_id=s1")
	assert.Contains(t, buf.String(), "err=")
}
