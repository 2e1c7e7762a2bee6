// Package observability lets callers watch the waterfall pipeline, the
// artifact cache, the HTTP server and interactive views without the
// libraries depending on any telemetry backend.
//
// Hooks default to no-ops. A binary installs real ones once at startup:
//
//	observability.Install(observability.Hooks{Pipeline: p, Cache: c})
//
// and instrumented code fetches the current set on each event:
//
//	observability.Pipeline().OnLoadComplete(ctx, source, n, time.Since(start), err)
//
// The otelhooks subpackage turns every event into an OpenTelemetry span.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PipelineHooks observes the load, layout and render stages.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, spanCount int, duration time.Duration, err error)
	OnLayoutStart(ctx context.Context, traceID string, nodeCount int)
	OnLayoutComplete(ctx context.Context, traceID string, rowCount int, duration time.Duration, err error)
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks observes cache lookups. keyType is "trace" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks observes served requests. route is the matched chi pattern,
// not the raw path, so span ids and view ids do not explode cardinality.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
	OnRateLimited(ctx context.Context, method, route string)
}

// ViewHooks observes the lifecycle of interactive server-side views.
type ViewHooks interface {
	OnViewCreated(ctx context.Context, trace string)
	// OnViewToggled reports a row click and the number of rows expanded
	// afterwards.
	OnViewToggled(ctx context.Context, spanID string, expanded int)
	OnViewDeleted(ctx context.Context)
}

// Hooks is the installed set. Nil fields are no-ops.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
	View     ViewHooks
}

// Noop implements every hook interface and does nothing. Embed it to
// override only some events.
type Noop struct{}

func (Noop) OnLoadStart(context.Context, string)                                 {}
func (Noop) OnLoadComplete(context.Context, string, int, time.Duration, error)   {}
func (Noop) OnLayoutStart(context.Context, string, int)                          {}
func (Noop) OnLayoutComplete(context.Context, string, int, time.Duration, error) {}
func (Noop) OnRenderStart(context.Context, []string)                             {}
func (Noop) OnRenderComplete(context.Context, []string, time.Duration, error)    {}
func (Noop) OnCacheHit(context.Context, string)                                  {}
func (Noop) OnCacheMiss(context.Context, string)                                 {}
func (Noop) OnCacheSet(context.Context, string, int)                             {}
func (Noop) OnRequest(context.Context, string, string)                           {}
func (Noop) OnResponse(context.Context, string, string, int, time.Duration)      {}
func (Noop) OnRateLimited(context.Context, string, string)                       {}
func (Noop) OnViewCreated(context.Context, string)                               {}
func (Noop) OnViewToggled(context.Context, string, int)                          {}
func (Noop) OnViewDeleted(context.Context)                                       {}

var noop = Hooks{Pipeline: Noop{}, Cache: Noop{}, HTTP: Noop{}, View: Noop{}}

var (
	installMu sync.Mutex
	current   atomic.Pointer[Hooks]
)

func init() { Reset() }

// Install replaces the hooks set in h and keeps the others.
func Install(h Hooks) {
	installMu.Lock()
	defer installMu.Unlock()
	next := *current.Load()
	if h.Pipeline != nil {
		next.Pipeline = h.Pipeline
	}
	if h.Cache != nil {
		next.Cache = h.Cache
	}
	if h.HTTP != nil {
		next.HTTP = h.HTTP
	}
	if h.View != nil {
		next.View = h.View
	}
	current.Store(&next)
}

// Reset restores the no-op hooks.
func Reset() {
	installMu.Lock()
	defer installMu.Unlock()
	h := noop
	current.Store(&h)
}

func Pipeline() PipelineHooks { return current.Load().Pipeline }
func Cache() CacheHooks       { return current.Load().Cache }
func HTTP() HTTPHooks         { return current.Load().HTTP }
func View() ViewHooks         { return current.Load().View }
