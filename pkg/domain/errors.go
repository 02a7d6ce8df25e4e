package domain

import "errors"

// ErrMalformedLine is returned (wrapped) when a notation line cannot produce any edge.
var ErrMalformedLine = errors.New("malformed line")

// ErrMissingEndNode is returned when no End-tagged edge exists and no end was given.
var ErrMissingEndNode = errors.New("end node not defined")

// ErrEndNotDefined is an alias kept for callers matching the path-finder contract name.
var ErrEndNotDefined = ErrMissingEndNode

// ErrNoPathFound is returned when the target is unreachable from the start.
var ErrNoPathFound = errors.New("no path found")

// ErrNoValidPathWithRequired is returned when paths exist but none visits every required node.
var ErrNoValidPathWithRequired = errors.New("no valid path through required nodes")

// ErrSearchBudgetExceeded is returned when the constrained search runs out of steps or time.
var ErrSearchBudgetExceeded = errors.New("search budget exceeded")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
