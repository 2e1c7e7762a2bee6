package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTick = 80 * time.Millisecond

// spinner animates a status line on w until stopped or until its context
// ends. After the first second it appends the elapsed time, which is what
// slow PNG and PDF conversions are waiting on.
type spinner struct {
	w     io.Writer
	msg   string
	ctx   context.Context
	stop  context.CancelFunc
	start time.Time
	once  sync.Once
	done  chan struct{}
}

func newSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	ctx, stop := context.WithCancel(ctx)
	return &spinner{w: w, msg: msg, ctx: ctx, stop: stop, done: make(chan struct{})}
}

func (s *spinner) Start() {
	s.start = time.Now()
	go s.loop()
}

func (s *spinner) loop() {
	defer close(s.done)
	t := time.NewTicker(spinnerTick)
	defer t.Stop()
	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			fmt.Fprint(s.w, "\r\x1b[2K")
			return
		case <-t.C:
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.status()))
		}
	}
}

// status is the text shown next to the frame.
func (s *spinner) status() string {
	if el := time.Since(s.start); el >= time.Second {
		return fmt.Sprintf("%s (%.0fs)", s.msg, el.Seconds())
	}
	return s.msg
}

// Stop ends the animation and clears the line. It is safe to call more
// than once and waits for the animation goroutine to exit.
func (s *spinner) Stop() {
	s.once.Do(s.stop)
	<-s.done
}

// runWithSpinner calls fn, showing a spinner on stderr while it runs when
// show is set.
func runWithSpinner[T any](ctx context.Context, show bool, msg string, fn func() (T, error)) (T, error) {
	if !show {
		return fn()
	}
	s := newSpinner(ctx, os.Stderr, msg)
	s.Start()
	v, err := fn()
	s.Stop()
	if err != nil {
		printError("%s failed", msg)
	}
	return v, err
}
