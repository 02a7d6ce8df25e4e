package ports

import "context"

// Watchable defines an interface for sources that can notify about backend changes.
// The serve command uses it to reload an edge file when it is edited on disk.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying data changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
