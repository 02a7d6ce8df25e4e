package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// errInterrupted is returned by ContextReader once its context is done.
var errInterrupted = errors.New("interrupted")

// NotifyContext returns a context cancelled on SIGINT or SIGTERM. The returned
// stop function releases the signal handler and must be called.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// printSystemMessage prints a standardized system message to w.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

type readResult struct {
	data []byte
	err  error
}

// ContextReader reads from base until ctx is done. A Read blocked on base (a
// terminal waiting for input) returns errInterrupted as soon as ctx is cancelled;
// the pending read is kept and its data served on the next call.
type ContextReader struct {
	ctx     context.Context
	base    io.Reader
	pending chan readResult
	rest    []byte
	restErr error
}

func NewContextReader(ctx context.Context, base io.Reader) *ContextReader {
	return &ContextReader{ctx: ctx, base: base}
}

func (r *ContextReader) Read(p []byte) (int, error) {
	if r.ctx.Err() != nil {
		return 0, errInterrupted
	}
	if len(r.rest) > 0 || r.restErr != nil {
		return r.drain(p)
	}
	if len(p) == 0 {
		return 0, nil
	}

	if r.pending == nil {
		ch := make(chan readResult, 1)
		buf := make([]byte, len(p))
		go func() {
			n, err := r.base.Read(buf)
			ch <- readResult{data: buf[:n], err: err}
		}()
		r.pending = ch
	}

	select {
	case res := <-r.pending:
		r.pending = nil
		r.rest, r.restErr = res.data, res.err
		return r.drain(p)
	case <-r.ctx.Done():
		return 0, errInterrupted
	}
}

// drain serves buffered data first and the stored error once the buffer is empty.
func (r *ContextReader) drain(p []byte) (int, error) {
	n := copy(p, r.rest)
	r.rest = r.rest[n:]
	if len(r.rest) > 0 {
		return n, nil
	}
	err := r.restErr
	r.restErr = nil
	return n, err
}

// handleExecutionError maps interruptions and end of input to a clean exit.
func handleExecutionError(err error) error {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, errInterrupted),
		errors.Is(err, io.EOF):
		return nil
	}
	return err
}
