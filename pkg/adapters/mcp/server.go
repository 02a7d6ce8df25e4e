package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/gamebook"
	"github.com/aretw0/gamebook/internal/logging"
	"github.com/aretw0/gamebook/pkg/classify"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/notation"
	"github.com/aretw0/gamebook/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// SessionsURI lists stored sessions.
const SessionsURI = "gamebook://sessions"

// AddPathResponse reports the outcome of an add_path call.
type AddPathResponse struct {
	Lines    int                   `json:"lines" jsonschema_description:"Number of non-blank lines read"`
	Edges    int                   `json:"edges" jsonschema_description:"Number of edge records appended"`
	Errors   []*notation.LineError `json:"errors,omitempty" jsonschema_description:"Malformed lines that were skipped"`
	Warnings []notation.Diagnostic `json:"warnings,omitempty" jsonschema_description:"Markers that were ignored"`
}

// PathResponse is the shortest required path.
type PathResponse struct {
	Path       []string `json:"path" jsonschema_description:"Node IDs from start to end"`
	Length     int      `json:"length" jsonschema_description:"Number of transitions on the path"`
	Exhaustive bool     `json:"exhaustive" jsonschema_description:"False when the search budget ran out"`
}

// ResetResponse confirms a reset_session call.
type ResetResponse struct {
	SessionID string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
}

// Server wraps the gamebook Engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("gamebook-mcp", strings.TrimSpace(gamebook.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given address using SSE and stops it when
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) registerTools() {
	// TOOL: add_path
	addTool := mcp.NewTool("add_path",
		mcp.WithDescription("Record transitions in notation: one line per step, 'from,rejected...,chosen'. "+
			"Markers after a node id: * secret, x dead end, t end, + required, s start. "+
			"An optional '| text' suffix tags the chosen edge."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to append to (created when missing)")),
		mcp.WithString("lines", mcp.Required(), mcp.Description("One or more notation lines separated by newlines")),
		mcp.WithString("tag", mcp.Description("Free-text tag for every chosen edge (optional)")),
		mcp.WithOutputSchema[AddPathResponse](),
	)
	s.mcpServer.AddTool(addTool, mcp.NewStructuredToolHandler(s.handleAddPath))

	// TOOL: get_graph
	graphTool := mcp.NewTool("get_graph",
		mcp.WithDescription("Get the classified graph of a session: nodes with roles and edges with display intents."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[classify.Graph](),
	)
	s.mcpServer.AddTool(graphTool, mcp.NewStructuredToolHandler(s.handleGetGraph))

	// TOOL: shortest_path
	pathTool := mcp.NewTool("shortest_path",
		mcp.WithDescription("Find the shortest path from start to end that visits every required node."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("start", mcp.Description("Start node (default: classified Start)")),
		mcp.WithString("end", mcp.Description("End node (default: first End)")),
		mcp.WithOutputSchema[PathResponse](),
	)
	s.mcpServer.AddTool(pathTool, mcp.NewStructuredToolHandler(s.handleShortestPath))

	// TOOL: reset_session
	resetTool := mcp.NewTool("reset_session",
		mcp.WithDescription("Clear every recorded transition of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[ResetResponse](),
	)
	s.mcpServer.AddTool(resetTool, mcp.NewStructuredToolHandler(s.handleReset))
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func requireSession(args map[string]interface{}) (string, error) {
	id := stringArg(args, "session_id")
	if id == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return id, nil
}

func (s *Server) handleAddPath(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (AddPathResponse, error) {
	id, err := requireSession(args)
	if err != nil {
		return AddPathResponse{}, err
	}
	batch, err := s.engine.AddLines(ctx, id, stringArg(args, "lines"), stringArg(args, "tag"))
	if err != nil {
		s.logger.Error("MCP add_path failed", "error", err, "session_id", id)
		return AddPathResponse{}, fmt.Errorf("add_path failed: %w", err)
	}
	return AddPathResponse{
		Lines:    batch.Lines,
		Edges:    len(batch.Edges),
		Errors:   batch.Errors,
		Warnings: batch.Warnings,
	}, nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (classify.Graph, error) {
	id, err := requireSession(args)
	if err != nil {
		return classify.Graph{}, err
	}
	g, err := s.engine.Graph(ctx, id)
	if err != nil {
		return classify.Graph{}, fmt.Errorf("get_graph failed: %w", err)
	}
	return *g, nil
}

func (s *Server) handleShortestPath(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PathResponse, error) {
	id, err := requireSession(args)
	if err != nil {
		return PathResponse{}, err
	}
	res, err := s.engine.ShortestRequiredPath(ctx, id, stringArg(args, "start"), stringArg(args, "end"))
	if err != nil {
		if res != nil && errors.Is(err, domain.ErrSearchBudgetExceeded) {
			return PathResponse{}, fmt.Errorf("shortest_path incomplete, best so far %s: %w", strings.Join(res.Path, ","), err)
		}
		return PathResponse{}, fmt.Errorf("shortest_path failed: %w", err)
	}
	return PathResponse{
		Path:       res.Path,
		Length:     res.Length(),
		Exhaustive: res.Exhaustive,
	}, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ResetResponse, error) {
	id, err := requireSession(args)
	if err != nil {
		return ResetResponse{}, err
	}
	if err := s.engine.Reset(ctx, id); err != nil {
		return ResetResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	return ResetResponse{SessionID: id, Cleared: true}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: gamebook://sessions
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Stored Sessions",
		mcp.WithMIMEType("application/json"),
	), s.readSessions)
}

func (s *Server) readSessions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.engine.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(ids)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SessionsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
