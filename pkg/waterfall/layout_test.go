package waterfall

import (
	"math"
	"testing"

	"github.com/matzehuels/spantower/pkg/zipkin"
)

const epsilon = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < epsilon }

func node(id string, ts, dur int64, annotations ...zipkin.Annotation) *zipkin.SpanNode {
	return zipkin.NewSpanNode(&zipkin.Span{
		ID:          id,
		Name:        "op-" + id,
		Timestamp:   ts,
		Duration:    dur,
		Annotations: annotations,
	})
}

func ann(value string, ts int64) zipkin.Annotation {
	return zipkin.Annotation{Value: value, Timestamp: ts}
}

func TestAxisLabels(t *testing.T) {
	tests := []struct {
		name       string
		duration   int64
		wantMillis []int64
	}{
		{"sub-millisecond trace", 500, nil},
		{"zero duration", 0, nil},
		{"negative duration", -2000, nil},
		{"one marker", 1999, []int64{0}},
		{"five markers", 5000, []int64{0, 1, 2, 3, 4}},
		{"capped at ten", 25000, []int64{0, 3, 5, 8, 10, 13, 15, 18, 20, 23}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := node("r", 0, tt.duration)
			got := AxisLabels(root, DefaultTrackWidth)
			if len(got) != len(tt.wantMillis) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantMillis))
			}
			for i, l := range got {
				if l.Millis != tt.wantMillis[i] {
					t.Errorf("label %d millis = %d, want %d", i, l.Millis, tt.wantMillis[i])
				}
				want := float64(i) / float64(len(got)) * DefaultTrackWidth
				if !approx(l.Offset, want) {
					t.Errorf("label %d offset = %v, want %v", i, l.Offset, want)
				}
				if i > 0 && l.Offset <= got[i-1].Offset {
					t.Errorf("labels not ordered left to right at %d", i)
				}
			}
		})
	}
}

func TestAxisLabelsCount(t *testing.T) {
	for d := int64(0); d <= 20000; d += 250 {
		got := len(AxisLabels(node("r", 0, d), 100))
		want := int(min(10, d/1000))
		if got != want {
			t.Errorf("duration %d: %d labels, want %d", d, got, want)
		}
	}
}

func TestLabelText(t *testing.T) {
	if got := (Label{Millis: 12}).Text(); got != "12ms" {
		t.Errorf("Text() = %q, want 12ms", got)
	}
}

func TestComputeGeometryServerBar(t *testing.T) {
	root := node("1", 1000000, 5000, ann("sr", 1000000), ann("ss", 1005000))
	child := node("2", 1001000, 2000, ann("sr", 1001000), ann("ss", 1003000))

	g := ComputeGeometry(child, root, 95)
	if !approx(g.Server.Offset, 19) {
		t.Errorf("offset = %v, want 19", g.Server.Offset)
	}
	if !approx(g.Server.Width, 38) {
		t.Errorf("width = %v, want 38", g.Server.Width)
	}
	if g.HasClient {
		t.Error("HasClient should be false without cs/cr")
	}
	if g.Effective() != g.Server {
		t.Error("Effective() should be the server bar")
	}
}

func TestComputeGeometryFallsBackToSpanTiming(t *testing.T) {
	root := node("1", 1000000, 10000)
	child := node("2", 1002500, 5000)

	g := ComputeGeometry(child, root, 100)
	if !approx(g.Server.Offset, 25) || !approx(g.Server.Width, 50) {
		t.Errorf("server = %+v, want {25 50}", g.Server)
	}
}

func TestComputeGeometryClientPrecedence(t *testing.T) {
	root := node("1", 1000000, 10000, ann("sr", 1000000))
	child := node("2", 2000000, 4000,
		ann("cs", 2000000), ann("sr", 2001000), ann("ss", 2003000), ann("cr", 2004000))

	g := ComputeGeometry(child, root, 95)
	if !g.HasClient {
		t.Fatal("HasClient should be true with cs and cr")
	}
	if !approx(g.Client.Offset, 9500) {
		t.Errorf("client offset = %v, want 9500", g.Client.Offset)
	}
	if !approx(g.Client.Width, 38) {
		t.Errorf("client width = %v, want 38", g.Client.Width)
	}
	if g.Effective() != g.Client {
		t.Error("Effective() should be the client bar")
	}
	if !approx(g.Server.Width, 19) {
		t.Errorf("server width = %v, want 19", g.Server.Width)
	}
}

func TestComputeGeometryClientEnclosesServer(t *testing.T) {
	root := node("1", 0, 1000, ann("cs", 0), ann("sr", 100), ann("ss", 900), ann("cr", 1000))
	g := ComputeGeometry(root, root, 100)
	outer, inner := g.Effective(), g.Server
	if inner.Offset < outer.Offset || inner.End() > outer.End()+epsilon {
		t.Errorf("server %+v not inside client %+v", inner, outer)
	}
}

func TestComputeGeometryClientNeedsBoth(t *testing.T) {
	root := node("1", 0, 1000)
	child := node("2", 100, 100, ann("cs", 100))
	if g := ComputeGeometry(child, root, 100); g.HasClient {
		t.Error("HasClient should need both cs and cr")
	}
}

func TestComputeGeometryDegenerate(t *testing.T) {
	t.Run("zero root duration", func(t *testing.T) {
		root := node("1", 1000, 0)
		child := node("2", 1000, 50, ann("cs", 1000), ann("cr", 1050))
		g := ComputeGeometry(child, root, 95)
		if g != (Geometry{}) {
			t.Errorf("geometry = %+v, want zero", g)
		}
		for _, v := range []float64{g.Server.Offset, g.Server.Width} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("non-finite geometry %v", v)
			}
		}
	})
	t.Run("inverted server timing", func(t *testing.T) {
		root := node("1", 0, 1000)
		child := node("2", 0, 100, ann("sr", 500), ann("ss", 400))
		if g := ComputeGeometry(child, root, 100); g.Server.Width != 0 {
			t.Errorf("width = %v, want clamped to 0", g.Server.Width)
		}
	})
	t.Run("inverted client timing", func(t *testing.T) {
		root := node("1", 0, 1000)
		child := node("2", 0, 100, ann("cs", 500), ann("cr", 400))
		if g := ComputeGeometry(child, root, 100); g.Client.Width != 0 {
			t.Errorf("width = %v, want clamped to 0", g.Client.Width)
		}
	})
}
