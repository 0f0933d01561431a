// Package stdio implements the line-oriented transport: one JSON-RPC
// document per input line, one response document per output line. The loop
// is strictly sequential; a request is fully resolved before the next line
// is read.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	applog "accounting/internal/log"
	"accounting/internal/rpc"
)

// Lines beyond this size fail the scan rather than truncate silently.
const maxLineBytes = 4 << 20

type Runner struct {
	in         io.Reader
	out        *bufio.Writer
	dispatcher *rpc.Dispatcher
	logger     *applog.Logger
}

func NewRunner(in io.Reader, out io.Writer, dispatcher *rpc.Dispatcher, logger *applog.Logger) *Runner {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentStdio)
	}
	return &Runner{
		in:         in,
		out:        bufio.NewWriter(out),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run reads requests until EOF or context cancellation. Every well-formed
// line produces exactly one response line; blank lines are skipped.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Stdio transport ready", applog.FieldOperation, applog.OpStartup)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		response := r.dispatcher.HandleRaw(ctx, line)
		if err := r.writeLine(response); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request line: %w", err)
	}

	r.logger.Info("Stdio transport closed", applog.FieldOperation, applog.OpShutdown)
	return nil
}

func (r *Runner) writeLine(data []byte) error {
	if _, err := r.out.Write(data); err != nil {
		return err
	}
	if err := r.out.WriteByte('\n'); err != nil {
		return err
	}
	return r.out.Flush()
}
