package servicegraph

import (
	"cmp"
	"slices"

	"github.com/matzehuels/spantower/pkg/waterfall"
	"github.com/matzehuels/spantower/pkg/zipkin"
)

// Service is a node of the call graph.
type Service struct {
	Name        string
	Spans       int
	TotalMicros int64
}

// Call is a directed edge between two services.
type Call struct {
	From, To string
	Count    int
}

// Graph is the service call graph of one trace.
type Graph struct {
	Services []Service // in first-seen pre-order
	Calls    []Call    // sorted by From, then To
}

// Build derives the call graph from a span tree. Spans without a service
// name are grouped under the "--" placeholder. Calls within one service are
// kept as self edges.
func Build(root *zipkin.SpanNode) Graph {
	var g Graph
	index := make(map[string]int)
	calls := make(map[[2]string]int)

	serviceOf := func(n *zipkin.SpanNode) string {
		if s := n.ServiceName(); s != "" {
			return s
		}
		return waterfall.ServicePlaceholder
	}

	root.Walk(func(n *zipkin.SpanNode, _ int) bool {
		name := serviceOf(n)
		i, ok := index[name]
		if !ok {
			i = len(g.Services)
			index[name] = i
			g.Services = append(g.Services, Service{Name: name})
		}
		g.Services[i].Spans++
		g.Services[i].TotalMicros += n.Span.Duration

		for _, c := range n.Children {
			calls[[2]string{name, serviceOf(c)}]++
		}
		return true
	})

	for k, count := range calls {
		g.Calls = append(g.Calls, Call{From: k[0], To: k[1], Count: count})
	}
	slices.SortFunc(g.Calls, func(a, b Call) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})
	return g
}
