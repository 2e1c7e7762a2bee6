// Package cli implements the spantower command-line interface.
//
// This package provides commands for rendering Zipkin traces as waterfalls,
// browsing them interactively in the terminal, serving them over HTTP and
// managing the render cache. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Write the waterfall as text, SVG, PNG, PDF, JSON, HTML or a service graph
//   - view: Browse a trace in an interactive terminal UI
//   - serve: Serve a directory of traces over HTTP
//   - cache: Manage the render cache
//   - config: Show or create the config file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/matzehuels/spantower/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr)
//	    if err := c.Execute(ctx, os.Args[1:]); err != nil {
//	        os.Exit(errors.ExitCode(err))
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger that writes to w with short wall-clock
// timestamps such as "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// timed logs msg at info level with an "elapsed" field measured from the
// call to timed. Use it as defer timed(l, "render")() or keep the returned
// func and call it once the work finishes.
func timed(l *log.Logger, msg string) func(keyvals ...any) {
	start := time.Now()
	return func(keyvals ...any) {
		kv := append([]any{"elapsed", time.Since(start).Round(time.Millisecond)}, keyvals...)
		l.Info(msg, kv...)
	}
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger stored by withLogger, falling back
// to log.Default() so commands run outside RootCommand still log.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
