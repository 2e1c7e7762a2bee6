package zipkin

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTrace is returned by [BuildTree] when there are no spans.
	ErrEmptyTrace = errors.New("trace has no spans")

	// ErrNoRoot is returned by [BuildTree] when every span points at a parent
	// inside the trace, so no span can serve as the root.
	ErrNoRoot = errors.New("trace has no root span")

	// ErrInvalidSpanID is returned by [BuildTree] for spans without an id.
	ErrInvalidSpanID = errors.New("span ID must not be empty")

	// ErrCycle is returned by [BuildTree] when parent links form a loop that
	// cannot be reached from the root.
	ErrCycle = errors.New("span parent links contain a cycle")
)

// BuildTree assembles spans into a tree rooted at the top-level span.
//
// Spans sharing an id (the client and server halves of one RPC) are merged
// into one. The root is the first span without a parent; when every span has
// a parent id, the first span whose parent is missing from the trace is used.
// Other orphans are attached to the root. Children keep their input order.
//
// The input slice is not modified.
func BuildTree(spans []Span) (*SpanNode, error) {
	if len(spans) == 0 {
		return nil, ErrEmptyTrace
	}

	merged, order, err := mergeSpans(spans)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*SpanNode, len(order))
	for _, id := range order {
		s := merged[id]
		fillTiming(s)
		nodes[id] = NewSpanNode(s)
	}

	rootID := ""
	for _, id := range order {
		if merged[id].ParentID == "" {
			rootID = id
			break
		}
	}
	if rootID == "" {
		for _, id := range order {
			if isOrphan(merged[id], merged) {
				rootID = id
				break
			}
		}
	}
	if rootID == "" {
		return nil, ErrNoRoot
	}
	root := nodes[rootID]

	for _, id := range order {
		if id == rootID {
			continue
		}
		parent := root
		if p, ok := nodes[merged[id].ParentID]; ok && !isOrphan(merged[id], merged) {
			parent = p
		}
		parent.Children = append(parent.Children, nodes[id])
	}

	if n := root.Count(); n != len(order) {
		return nil, fmt.Errorf("%w: %d of %d spans unreachable", ErrCycle, len(order)-n, len(order))
	}
	return root, nil
}

func isOrphan(s *Span, byID map[string]*Span) bool {
	if s.ParentID == "" || s.ParentID == s.ID {
		return true
	}
	_, ok := byID[s.ParentID]
	return !ok
}

// mergeSpans collapses spans with the same id, keeping first-seen order.
func mergeSpans(spans []Span) (map[string]*Span, []string, error) {
	byID := make(map[string]*Span, len(spans))
	order := make([]string, 0, len(spans))
	for i := range spans {
		s := spans[i]
		if s.ID == "" {
			return nil, nil, fmt.Errorf("span %d: %w", i, ErrInvalidSpanID)
		}
		existing, ok := byID[s.ID]
		if !ok {
			cp := s
			cp.Annotations = append([]Annotation(nil), s.Annotations...)
			cp.BinaryAnnotations = append([]BinaryAnnotation(nil), s.BinaryAnnotations...)
			byID[s.ID] = &cp
			order = append(order, s.ID)
			continue
		}
		mergeInto(existing, &s)
	}
	return byID, order, nil
}

func mergeInto(dst, src *Span) {
	if dst.Name == "" || dst.Name == "unknown" {
		dst.Name = src.Name
	}
	if dst.ParentID == "" {
		dst.ParentID = src.ParentID
	}
	if dst.TraceID == "" {
		dst.TraceID = src.TraceID
	}
	if src.Timestamp != 0 && (dst.Timestamp == 0 || src.Timestamp < dst.Timestamp) {
		dst.Timestamp = src.Timestamp
	}
	if src.Duration > dst.Duration {
		dst.Duration = src.Duration
	}
	dst.Annotations = append(dst.Annotations, src.Annotations...)
	dst.BinaryAnnotations = append(dst.BinaryAnnotations, src.BinaryAnnotations...)
}

// fillTiming derives a missing timestamp or duration from core annotations.
func fillTiming(s *Span) {
	probe := NewSpanNode(s)
	start := Resolve(probe.CS, probe.SR)
	end := Resolve(probe.CR, probe.SS)
	if s.Timestamp == 0 && start.Valid {
		s.Timestamp = start.Micros
	}
	if s.Duration == 0 && start.Valid && end.Valid && end.Micros > start.Micros {
		s.Duration = end.Micros - start.Micros
	}
}
