package ports

import (
	"context"
	"io"

	"github.com/aretw0/gamebook/pkg/classify"
	"github.com/aretw0/gamebook/pkg/interchange"
	"github.com/aretw0/gamebook/pkg/notation"
	"github.com/aretw0/gamebook/pkg/pathfind"
)

// Engine defines the per-session operations exposed to driving adapters (HTTP, MCP).
// Every call is serialised per session by the implementation.
type Engine interface {
	// AddLines parses notation text and appends the resulting edges.
	AddLines(ctx context.Context, sessionID, text, tag string) (*notation.BatchResult, error)

	// Import replaces the session log with the rows read from r.
	Import(ctx context.Context, sessionID string, r io.Reader) (*interchange.Result, error)

	// Export writes the session log in the tabular format.
	Export(ctx context.Context, sessionID string, w io.Writer) error

	// Reset clears the session log and its required set.
	Reset(ctx context.Context, sessionID string) error

	// Graph returns the classified graph of the session.
	Graph(ctx context.Context, sessionID string) (*classify.Graph, error)

	// ShortestRequiredPath searches from start to end through every required node.
	// Empty start or end fall back to the classified Start and End nodes.
	ShortestRequiredPath(ctx context.Context, sessionID, start, end string) (*pathfind.Result, error)

	// CreateSession allocates a new empty session and returns its ID.
	CreateSession(ctx context.Context) (string, error)

	// Sessions lists stored session IDs.
	Sessions(ctx context.Context) ([]string, error)

	// DeleteSession removes a session.
	DeleteSession(ctx context.Context, sessionID string) error
}
