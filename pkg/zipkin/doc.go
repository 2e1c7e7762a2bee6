// Package zipkin defines the Zipkin v1 span model and the span tree consumed
// by the waterfall layout.
//
// # Model
//
// A [Span] is one timed operation. Its [Annotation] list carries timestamped
// events such as client-send ("cs") or server-receive ("sr"), and its
// [BinaryAnnotation] list carries key/value tags recorded by a service. All
// timestamps and durations are microseconds since the Unix epoch.
//
// # Tree
//
// [BuildTree] assembles a flat span list into a [SpanNode] tree. Each node
// caches the four core annotation timestamps as [Instant] values, which make
// fallback chains explicit:
//
//	start := node.SR.Or(node.Span.Timestamp)
//
// Trees are read-only once built. Nodes own their children and the tree is
// acyclic.
package zipkin
