// Package servicegraph renders the service call graph of a trace.
//
// Every distinct service in the span tree becomes a node; an edge A -> B
// means a span of service A has a child span of service B. Edges are
// labeled with the number of such calls. The graph is emitted as Graphviz
// DOT by [ToDOT] and drawn to SVG by [RenderSVG], which embeds Graphviz via
// github.com/goccy/go-graphviz so no system install is needed.
//
//	g := servicegraph.Build(root)
//	svg, err := servicegraph.RenderSVG(ctx, servicegraph.ToDOT(g, servicegraph.Options{}))
package servicegraph
