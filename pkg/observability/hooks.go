package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/gamebook/pkg/domain"
)

// Combine merges hook sets; each callback runs the non-nil callbacks of every
// set in argument order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var parsed []func(context.Context, *domain.ParseEvent)
	var searched []func(context.Context, *domain.SearchEvent)
	var reset []func(context.Context, *domain.ResetEvent)
	var changed []func(context.Context, *domain.SessionDiff)
	for _, s := range sets {
		if s.OnLinesParsed != nil {
			parsed = append(parsed, s.OnLinesParsed)
		}
		if s.OnPathSearched != nil {
			searched = append(searched, s.OnPathSearched)
		}
		if s.OnSessionReset != nil {
			reset = append(reset, s.OnSessionReset)
		}
		if s.OnSessionChanged != nil {
			changed = append(changed, s.OnSessionChanged)
		}
	}

	if len(parsed) > 0 {
		out.OnLinesParsed = func(ctx context.Context, e *domain.ParseEvent) {
			for _, fn := range parsed {
				fn(ctx, e)
			}
		}
	}
	if len(searched) > 0 {
		out.OnPathSearched = func(ctx context.Context, e *domain.SearchEvent) {
			for _, fn := range searched {
				fn(ctx, e)
			}
		}
	}
	if len(reset) > 0 {
		out.OnSessionReset = func(ctx context.Context, e *domain.ResetEvent) {
			for _, fn := range reset {
				fn(ctx, e)
			}
		}
	}
	if len(changed) > 0 {
		out.OnSessionChanged = func(ctx context.Context, d *domain.SessionDiff) {
			for _, fn := range changed {
				fn(ctx, d)
			}
		}
	}
	return out
}

// LoggingHooks logs every lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnLinesParsed: func(ctx context.Context, e *domain.ParseEvent) {
			logger.InfoContext(ctx, "lines_parsed",
				"session_id", e.SessionID,
				"lines", e.Lines,
				"edges", e.Edges,
				"malformed", e.Malformed,
				"dropped", e.Dropped,
			)
		},
		OnPathSearched: func(ctx context.Context, e *domain.SearchEvent) {
			attrs := []any{
				"session_id", e.SessionID,
				"start", e.Start,
				"end", e.End,
				"required", e.Required,
				"steps", e.Steps,
				"length", e.Length,
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "path_searched", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "path_searched", attrs...)
		},
		OnSessionReset: func(ctx context.Context, e *domain.ResetEvent) {
			logger.InfoContext(ctx, "session_reset", "session_id", e.SessionID, "edges", e.Edges)
		},
	}
}
