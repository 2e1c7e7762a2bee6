package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Rendering trace.json")
	s.Start()
	time.Sleep(3 * spinnerTick)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Rendering trace.json") {
		t.Errorf("spinner never drew its message: %q", got)
	}
	if !strings.HasSuffix(got, "\r\x1b[2K") {
		t.Errorf("spinner should clear the line on stop: %q", got)
	}
}

func TestSpinnerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &syncBuffer{}, "x")
	s.Start()
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("spinner did not exit after cancel")
	}
	s.Stop()
	s.Stop()
}

func TestSpinnerStatusElapsed(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, "Converting")
	s.start = time.Now()
	if got := s.status(); got != "Converting" {
		t.Errorf("status() = %q", got)
	}
	s.start = time.Now().Add(-3 * time.Second)
	if got := s.status(); got != "Converting (3s)" {
		t.Errorf("status() = %q", got)
	}
}

func TestRunWithSpinner(t *testing.T) {
	ctx := context.Background()
	v, err := runWithSpinner(ctx, false, "quiet", func() (int, error) { return 7, nil })
	if v != 7 || err != nil {
		t.Errorf("hidden spinner = %d, %v", v, err)
	}

	boom := errors.New("boom")
	if _, err := runWithSpinner(ctx, true, "loud", func() (int, error) { return 0, boom }); err != boom {
		t.Errorf("err = %v, want boom", err)
	}
}
