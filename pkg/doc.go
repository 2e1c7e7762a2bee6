// Package pkg provides the core libraries for spantower trace waterfalls.
//
// # Overview
//
// Spantower lays out Zipkin v1 traces as waterfalls: one row per span,
// indented by depth, with client and server bars placed on a shared time
// track and an expandable annotation panel per row. The pkg directory is
// organized into these areas:
//
//  1. [zipkin] - Span model and trace assembly
//  2. [waterfall] - Layout engine, toggle map and annotation panels
//  3. [render] - Output sinks (text, SVG, PNG, PDF, JSON, HTML, service graph)
//  4. [pipeline] - Orchestration (load → layout → render) with caching
//  5. [cache], [session], [config], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow through spantower:
//
//	Zipkin span JSON
//	         ↓
//	    [io] package (decode spans, assemble the tree)
//	         ↓
//	    [waterfall] package (rows, bar geometry, panels)
//	         ↓
//	    [render/sink] package (visualization)
//	         ↓
//	    Text/SVG/PDF/PNG/JSON/HTML output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/spantower/pkg/io"
//	    "github.com/matzehuels/spantower/pkg/render/sink"
//	    "github.com/matzehuels/spantower/pkg/waterfall"
//	)
//
//	root, err := io.ImportTrace("trace.json")
//	if err != nil {
//	    return err
//	}
//	toggles := waterfall.NewToggles("352bff9a74ca9ad2")
//	layout := waterfall.Build(root, toggles)
//	fmt.Print(sink.RenderTerminal(layout))
//
// Most callers go through [pipeline.Runner], which adds caching and
// observability hooks around the same steps.
//
// [zipkin]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/zipkin
// [waterfall]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/waterfall
// [render]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/render/sink
// [io]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/pipeline#Runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/session
// [config]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/spantower/pkg/observability
package pkg
