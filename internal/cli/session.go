package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/gamebook"
	"github.com/aretw0/gamebook/internal/presentation/tui"
)

// ShellOptions configures RunShell.
type ShellOptions struct {
	SessionID string
	Fresh     bool
	Headless  bool
	In        io.Reader
	Out       io.Writer
}

// RunShell runs the interactive notation loop on one session until EOF,
// :quit or an interrupt.
func RunShell(ctx context.Context, env *Env, opts ShellOptions) error {
	logger := env.Logger

	if !opts.Headless {
		tui.PrintBanner(opts.Out)
	}

	// 1. Session
	if opts.Fresh {
		if err := env.Engine.Reset(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
		logger.Info("Session Reset", "session_id", opts.SessionID)
	}
	if _, err := env.Engine.Manager().LoadOrCreate(ctx, opts.SessionID); err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	if !opts.Headless {
		printSystemMessage(opts.Out, "Session '%s' active.", opts.SessionID)
	}

	// 2. Runner
	r := gamebook.NewRunner(opts.SessionID)
	r.Input = NewContextReader(ctx, opts.In)
	r.Output = opts.Out
	r.Headless = opts.Headless
	if !opts.Headless {
		render, err := tui.NewRenderer(tui.IsTerminal(opts.Out))
		if err != nil {
			logger.Warn("Markdown renderer unavailable", "err", err)
		} else {
			r.Renderer = render
		}
	}

	// 3. Run
	err := handleExecutionError(r.Run(ctx, env.Engine))
	if ctx.Err() != nil && !opts.Headless {
		fmt.Fprintln(opts.Out)
		printSystemMessage(opts.Out, "Interrupted at '%s' session.", opts.SessionID)
	}
	return err
}
