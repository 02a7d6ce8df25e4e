package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventLinesParsed  EventType = "lines_parsed"
	EventPathSearched EventType = "path_searched"
	EventSessionReset EventType = "session_reset"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// ParseEvent reports the outcome of a batch of notation lines.
type ParseEvent struct {
	EventBase
	Lines     int `json:"lines"`
	Edges     int `json:"edges"`
	Malformed int `json:"malformed"`
	Dropped   int `json:"dropped"`
}

// SearchEvent reports a finished path search.
type SearchEvent struct {
	EventBase
	Start    string        `json:"start"`
	End      string        `json:"end"`
	Required int           `json:"required"`
	Steps    int           `json:"steps"`
	Length   int           `json:"length"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// ResetEvent reports a wholesale replacement of a session log.
type ResetEvent struct {
	EventBase
	Edges int `json:"edges"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnLinesParsed  func(context.Context, *ParseEvent)
	OnPathSearched func(context.Context, *SearchEvent)
	OnSessionReset func(context.Context, *ResetEvent)

	// OnSessionChanged receives the delta of every persisted mutation.
	OnSessionChanged func(context.Context, *SessionDiff)
}
