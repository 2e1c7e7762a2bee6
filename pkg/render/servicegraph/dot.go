package servicegraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/spantower/pkg/render/sink"
)

// Options configures call graph rendering.
type Options struct {
	// Detailed adds span counts and total time to node labels.
	Detailed bool
}

// ToDOT writes g in Graphviz DOT syntax. Nodes are tinted with the colors
// the waterfall uses for the same services, and the root service, which is
// always first in g.Services, gets a heavier border.
func ToDOT(g Graph, opts Options) string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  rankdir=LR;\n  bgcolor=\"transparent\";\n")
	b.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, margin=\"0.2,0.1\"];\n")
	b.WriteString("  edge [fontsize=11];\n\n")

	for i, s := range g.Services {
		a := attrs{{"label", nodeLabel(s, opts.Detailed)}, {"fillcolor", sink.ServiceColor(s.Name) + "40"}, {"color", sink.ServiceColor(s.Name)}}
		if i == 0 {
			a = append(a, attr{"penwidth", "2"})
		}
		fmt.Fprintf(&b, "  %q %s;\n", s.Name, a)
	}
	b.WriteString("\n")
	for _, c := range g.Calls {
		a := attrs{{"label", callLabel(c.Count)}}
		if c.From == c.To {
			a = append(a, attr{"style", "dashed"})
		}
		fmt.Fprintf(&b, "  %q -> %q %s;\n", c.From, c.To, a)
	}
	b.WriteString("}\n")
	return b.String()
}

type attr struct{ key, value string }

type attrs []attr

// String renders a DOT attribute list. Values are always quoted.
func (as attrs) String() string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = a.key + "=" + strconv.Quote(a.value)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func nodeLabel(s Service, detailed bool) string {
	if !detailed {
		return s.Name
	}
	return fmt.Sprintf("%s\nspans: %d\ntime: %dms", s.Name, s.Spans, (s.TotalMicros+500)/1000)
}

func callLabel(n int) string {
	if n == 1 {
		return "1 call"
	}
	return strconv.Itoa(n) + " calls"
}
