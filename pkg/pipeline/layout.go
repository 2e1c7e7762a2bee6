package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/spantower/pkg/observability"
	"github.com/matzehuels/spantower/pkg/waterfall"
	"github.com/matzehuels/spantower/pkg/zipkin"
)

// GenerateLayout computes the waterfall of root. Layout never fails: degenerate
// timing produces zero-width bars rather than an error.
func GenerateLayout(ctx context.Context, root *zipkin.SpanNode, opts Options) waterfall.Layout {
	opts.SetLayoutDefaults()

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, root.Span.TraceID, root.Count())
	start := time.Now()

	l := waterfall.Build(root, opts.ToggleState(), opts.WaterfallOptions()...)

	hooks.OnLayoutComplete(ctx, root.Span.TraceID, len(l.Rows), time.Since(start), nil)
	opts.Logger.Debug("computed layout",
		"trace", root.Span.TraceID,
		"rows", len(l.Rows),
		"labels", len(l.Labels),
		"display", l.Display)
	return l
}
