package gamebook

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Runner handles an interactive notation loop using provided IO.
// Every input line is appended to the session; lines starting with ":" are
// commands (:path [start end], :nodes, :reset, :help, :quit).
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input     io.Reader
	Output    io.Writer
	SessionID string
	Headless  bool
	Renderer  ContentRenderer
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner for the given session.
// Input and Output must be set before Run.
func NewRunner(sessionID string) *Runner {
	return &Runner{SessionID: sessionID}
}

const runnerHelp = `Enter transitions as ` + "`from,rejected...,chosen[markers] [| tag]`" + `.

Markers: * secret, x dead end, t end, + required, s start.

- :path [start end] shortest path through every required node
- :nodes list nodes with their roles
- :reset clear the session
- :quit leave
`

// Run executes the loop until EOF, :quit or context cancellation.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	writer := r.Output
	if writer == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintf(writer, "--- gamebook session %s (:help for commands) ---\n", r.SessionID)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// 1. Prompt
		if !r.Headless {
			fmt.Fprint(writer, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)

		// 2. Dispatch
		if input != "" {
			quit, cmdErr := r.handle(ctx, engine, writer, input)
			if cmdErr != nil {
				return cmdErr
			}
			if quit {
				fmt.Fprintln(writer, "Bye!")
				return nil
			}
		}

		// Graceful exit on EOF
		if err == io.EOF {
			return nil
		}
	}
}

// handle processes one input line. Returned errors are fatal to the loop;
// domain errors are printed and the loop continues.
func (r *Runner) handle(ctx context.Context, engine *Engine, w io.Writer, input string) (bool, error) {
	if !strings.HasPrefix(input, ":") {
		res, err := engine.AddLine(ctx, r.SessionID, input, "")
		if err != nil {
			fmt.Fprintf(w, "! %v\n", err)
			return false, nil
		}
		fmt.Fprintf(w, "+ %d edges\n", len(res.Edges))
		for _, d := range res.Warnings {
			fmt.Fprintf(w, "! %s\n", d)
		}
		return false, nil
	}

	fields := strings.Fields(input[1:])
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return true, nil
	case "help", "h":
		fmt.Fprintln(w, r.render(runnerHelp))
	case "reset":
		if err := engine.Reset(ctx, r.SessionID); err != nil {
			return false, err
		}
		fmt.Fprintln(w, "session cleared")
	case "nodes":
		nodes, err := engine.ClassifiedNodes(ctx, r.SessionID)
		if err != nil {
			fmt.Fprintf(w, "! %v\n", err)
			return false, nil
		}
		for _, n := range nodes {
			fmt.Fprintf(w, "%s\t%s\n", n.ID, n.Role)
		}
	case "path":
		var start, end string
		if len(fields) == 3 {
			start, end = fields[1], fields[2]
		}
		res, err := engine.ShortestRequiredPath(ctx, r.SessionID, start, end)
		if res != nil && len(res.Path) > 0 {
			fmt.Fprintln(w, strings.Join(res.Path, " -> "))
		}
		if err != nil {
			fmt.Fprintf(w, "! %v\n", err)
		}
	default:
		fmt.Fprintf(w, "! unknown command %q\n", fields[0])
	}
	return false, nil
}

func (r *Runner) render(msg string) string {
	if r.Renderer == nil {
		return msg
	}
	rendered, err := r.Renderer(msg)
	if err != nil {
		return msg
	}
	return strings.TrimSpace(rendered)
}
