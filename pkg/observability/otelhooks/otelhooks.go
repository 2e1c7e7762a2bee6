// Package otelhooks exports observability events as OpenTelemetry spans.
//
// The hook interfaces report start and completion separately without
// threading a span through the caller, so each completed operation becomes a
// single span back-dated to its start with trace.WithTimestamp.
package otelhooks

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/matzehuels/spantower/pkg/observability"
)

const instrumentationName = "github.com/matzehuels/spantower"

// Setup installs a global tracer provider exporting over OTLP/gRPC to
// endpoint and registers [Hooks] on it. Endpoints on port 443 use TLS. The
// returned function flushes and shuts the provider down.
func Setup(ctx context.Context, endpoint, serviceName string) (func(context.Context) error, error) {
	var opts []grpc.DialOption
	if strings.HasSuffix(endpoint, ":443") {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, "")))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	client := otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(opts...),
	)
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	New(tp).Register()
	return tp.Shutdown, nil
}

// Hooks implements every observability hook interface on top of a tracer.
type Hooks struct {
	tracer trace.Tracer
}

// New returns hooks using the given provider, or the global provider if nil.
func New(tp trace.TracerProvider) *Hooks {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Hooks{tracer: tp.Tracer(instrumentationName)}
}

// Register installs h for every hook kind.
func (h *Hooks) Register() {
	observability.Install(observability.Hooks{Pipeline: h, Cache: h, HTTP: h, View: h})
}

// record emits one span covering [now-d, now].
func (h *Hooks) record(ctx context.Context, name string, d time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := h.tracer.Start(ctx, name,
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(attrs...),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}

// event adds a zero-length span for point-in-time events.
func (h *Hooks) event(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	h.record(ctx, name, 0, nil, attrs...)
}

func (h *Hooks) OnLoadStart(context.Context, string) {}

func (h *Hooks) OnLoadComplete(ctx context.Context, source string, spanCount int, d time.Duration, err error) {
	h.record(ctx, "spantower.load", d, err,
		attribute.String("trace.source", source),
		attribute.Int("trace.span_count", spanCount),
	)
}

func (h *Hooks) OnLayoutStart(context.Context, string, int) {}

func (h *Hooks) OnLayoutComplete(ctx context.Context, traceID string, rowCount int, d time.Duration, err error) {
	h.record(ctx, "spantower.layout", d, err,
		attribute.String("trace.id", traceID),
		attribute.Int("waterfall.rows", rowCount),
	)
}

func (h *Hooks) OnRenderStart(context.Context, []string) {}

func (h *Hooks) OnRenderComplete(ctx context.Context, formats []string, d time.Duration, err error) {
	h.record(ctx, "spantower.render", d, err,
		attribute.StringSlice("render.formats", formats),
	)
}

func (h *Hooks) OnCacheHit(ctx context.Context, keyType string) {
	h.event(ctx, "spantower.cache.hit", attribute.String("cache.key_type", keyType))
}

func (h *Hooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.event(ctx, "spantower.cache.miss", attribute.String("cache.key_type", keyType))
}

func (h *Hooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.event(ctx, "spantower.cache.set",
		attribute.String("cache.key_type", keyType),
		attribute.Int("cache.size", size),
	)
}

func (h *Hooks) OnRequest(context.Context, string, string) {}

func (h *Hooks) OnResponse(ctx context.Context, method, route string, status int, d time.Duration) {
	h.record(ctx, method+" "+route, d, nil,
		semconv.HTTPMethodKey.String(method),
		semconv.HTTPRouteKey.String(route),
		semconv.HTTPStatusCodeKey.Int(status),
	)
}

func (h *Hooks) OnRateLimited(ctx context.Context, method, route string) {
	h.event(ctx, "spantower.http.rate_limited",
		semconv.HTTPMethodKey.String(method),
		semconv.HTTPRouteKey.String(route),
	)
}

func (h *Hooks) OnViewCreated(ctx context.Context, traceName string) {
	h.event(ctx, "spantower.view.created", attribute.String("trace.source", traceName))
}

func (h *Hooks) OnViewToggled(ctx context.Context, spanID string, expanded int) {
	h.event(ctx, "spantower.view.toggled",
		attribute.String("span.id", spanID),
		attribute.Int("waterfall.expanded", expanded),
	)
}

func (h *Hooks) OnViewDeleted(ctx context.Context) {
	h.event(ctx, "spantower.view.deleted")
}

var (
	_ observability.ViewHooks     = (*Hooks)(nil)
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)
