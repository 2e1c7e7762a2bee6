package zipkin

// SpanNode is a span plus its core annotation timestamps and its children.
type SpanNode struct {
	Span     *Span
	SR       Instant
	SS       Instant
	CR       Instant
	CS       Instant
	Children []*SpanNode
}

// NewSpanNode wraps span and extracts its core annotations. When an annotation
// appears more than once the first occurrence wins.
func NewSpanNode(span *Span) *SpanNode {
	n := &SpanNode{Span: span}
	for _, a := range span.Annotations {
		var slot *Instant
		switch a.Value {
		case ServerReceive:
			slot = &n.SR
		case ServerSend:
			slot = &n.SS
		case ClientReceive:
			slot = &n.CR
		case ClientSend:
			slot = &n.CS
		default:
			continue
		}
		if !slot.Valid {
			*slot = At(a.Timestamp)
		}
	}
	return n
}

// ID returns the span identifier.
func (n *SpanNode) ID() string { return n.Span.ID }

// ServiceName returns the service that best represents this span: the server
// side when it is known, then the client side, then any endpoint found on the
// annotations or tags. It returns "" when no endpoint names a service.
func (n *SpanNode) ServiceName() string {
	if s := n.annotationService(ServerReceive); s != "" {
		return s
	}
	if s := n.annotationService(ClientSend); s != "" {
		return s
	}
	for _, a := range n.Span.Annotations {
		if s := a.Endpoint.Service(); s != "" {
			return s
		}
	}
	for _, b := range n.Span.BinaryAnnotations {
		if s := b.Endpoint.Service(); s != "" {
			return s
		}
	}
	return ""
}

func (n *SpanNode) annotationService(value string) string {
	for _, a := range n.Span.Annotations {
		if a.Value == value {
			return a.Endpoint.Service()
		}
	}
	return ""
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// stops the walk.
func (n *SpanNode) Walk(fn func(node *SpanNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *SpanNode) walk(fn func(*SpanNode, int) bool, depth int) bool {
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn, depth+1) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *SpanNode) Count() int {
	count := 0
	n.Walk(func(*SpanNode, int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels in the subtree rooted at n.
func (n *SpanNode) Depth() int {
	max := 0
	n.Walk(func(_ *SpanNode, d int) bool {
		if d+1 > max {
			max = d + 1
		}
		return true
	})
	return max
}

// Services returns the distinct service names in the subtree, in pre-order of
// first appearance.
func (n *SpanNode) Services() []string {
	seen := make(map[string]struct{})
	var out []string
	n.Walk(func(node *SpanNode, _ int) bool {
		s := node.ServiceName()
		if s == "" {
			return true
		}
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
		return true
	})
	return out
}
