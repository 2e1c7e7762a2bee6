package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/spantower/pkg/pipeline"
)

func TestStatsLine(t *testing.T) {
	tests := []struct {
		stats  pipeline.Stats
		cached bool
		want   string
	}{
		{pipeline.Stats{SpanCount: 7, Depth: 3, Services: 3}, false, "7 spans · depth 3 · 3 services · fresh"},
		{pipeline.Stats{SpanCount: 1, Depth: 1, Services: 1}, true, "1 span · depth 1 · 1 service · cached"},
		{pipeline.Stats{}, true, "cached"},
	}
	for _, tt := range tests {
		if got := statsLine(tt.stats, tt.cached); got != tt.want {
			t.Errorf("statsLine(%+v) = %q, want %q", tt.stats, got, tt.want)
		}
	}
}

func TestStatusOutput(t *testing.T) {
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })

	printSuccess("Rendered %s", "abc")
	printKeyValue("Cache", "file")
	printFile("trace.svg")

	out := buf.String()
	for _, want := range []string{"Rendered abc", "Cache", "file", "trace.svg"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Errorf("got %d lines, want 3", n)
	}
}
