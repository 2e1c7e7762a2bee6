package otelhooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/matzehuels/spantower/pkg/observability"
)

func newRecorder() (*Hooks, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return New(tp), rec
}

func TestLayoutSpan(t *testing.T) {
	h, rec := newRecorder()
	ctx := context.Background()

	h.OnLayoutStart(ctx, "abc", 4)
	h.OnLayoutComplete(ctx, "abc", 4, 250*time.Millisecond, nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "spantower.layout" {
		t.Errorf("Name = %q", s.Name())
	}
	if got := s.EndTime().Sub(s.StartTime()); got != 250*time.Millisecond {
		t.Errorf("span duration = %v, want 250ms", got)
	}
}

func TestErrorStatus(t *testing.T) {
	h, rec := newRecorder()
	h.OnRenderComplete(context.Background(), []string{"svg"}, time.Millisecond, errors.New("boom"))

	s := rec.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "boom" {
		t.Errorf("Status = %+v", s.Status())
	}
}

func TestCacheEvents(t *testing.T) {
	h, rec := newRecorder()
	ctx := context.Background()
	h.OnCacheHit(ctx, "artifact")
	h.OnCacheMiss(ctx, "trace")
	h.OnCacheSet(ctx, "trace", 10)

	want := []string{"spantower.cache.hit", "spantower.cache.miss", "spantower.cache.set"}
	spans := rec.Ended()
	if len(spans) != len(want) {
		t.Fatalf("got %d spans", len(spans))
	}
	for i, s := range spans {
		if s.Name() != want[i] {
			t.Errorf("span %d = %q, want %q", i, s.Name(), want[i])
		}
	}
}

func TestRegister(t *testing.T) {
	defer observability.Reset()
	h, rec := newRecorder()
	h.Register()

	observability.HTTP().OnResponse(context.Background(), "GET", "/traces/{name}", 200, time.Millisecond)
	if len(rec.Ended()) != 1 || rec.Ended()[0].Name() != "GET /traces/{name}" {
		t.Errorf("registered hooks did not record: %v", rec.Ended())
	}
}

func TestViewEvents(t *testing.T) {
	h, rec := newRecorder()
	ctx := context.Background()
	h.OnViewCreated(ctx, "checkout.json")
	h.OnViewToggled(ctx, "352bff9a74ca9ad2", 2)
	h.OnViewDeleted(ctx)

	spans := rec.Ended()
	if len(spans) != 3 {
		t.Fatalf("got %d spans", len(spans))
	}
	attrs := spans[1].Attributes()
	found := false
	for _, kv := range attrs {
		if kv.Key == "waterfall.expanded" && kv.Value.AsInt64() == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("toggle span attributes = %v", attrs)
	}
}
