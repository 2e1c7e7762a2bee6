package zipkin

import (
	"errors"
	"testing"
)

func ep(service string) *Endpoint {
	return &Endpoint{ServiceName: service, IPv4: "10.0.0.1", Port: 8080}
}

func TestNewSpanNodeExtractsCoreAnnotations(t *testing.T) {
	s := &Span{
		ID: "1",
		Annotations: []Annotation{
			{Timestamp: 10, Value: "cs"},
			{Timestamp: 12, Value: "sr"},
			{Timestamp: 18, Value: "ss"},
			{Timestamp: 20, Value: "cr"},
			{Timestamp: 25, Value: "sr"},
			{Timestamp: 15, Value: "cache.miss"},
		},
	}
	n := NewSpanNode(s)

	tests := []struct {
		name string
		got  Instant
		want int64
	}{
		{"cs", n.CS, 10},
		{"sr keeps first occurrence", n.SR, 12},
		{"ss", n.SS, 18},
		{"cr", n.CR, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Valid || tt.got.Micros != tt.want {
				t.Errorf("got %+v, want %d", tt.got, tt.want)
			}
		})
	}
}

func TestInstantOr(t *testing.T) {
	if got := (Instant{}).Or(42); got != 42 {
		t.Errorf("unset Or() = %d, want 42", got)
	}
	if got := At(7).Or(42); got != 7 {
		t.Errorf("set Or() = %d, want 7", got)
	}
	if got := Resolve(Instant{}, At(3), At(4)); got.Micros != 3 {
		t.Errorf("Resolve() = %+v, want 3", got)
	}
	if got := Resolve(); got.Valid {
		t.Errorf("Resolve() with no sources should be invalid")
	}
}

func TestServiceName(t *testing.T) {
	tests := []struct {
		name string
		span Span
		want string
	}{
		{
			name: "server side wins",
			span: Span{Annotations: []Annotation{
				{Value: "cs", Endpoint: ep("frontend")},
				{Value: "sr", Endpoint: ep("backend")},
			}},
			want: "backend",
		},
		{
			name: "client side fallback",
			span: Span{Annotations: []Annotation{{Value: "cs", Endpoint: ep("frontend")}}},
			want: "frontend",
		},
		{
			name: "any annotation",
			span: Span{Annotations: []Annotation{{Value: "ws", Endpoint: ep("socket")}}},
			want: "socket",
		},
		{
			name: "binary annotation",
			span: Span{BinaryAnnotations: []BinaryAnnotation{{Key: "lc", Endpoint: ep("local")}}},
			want: "local",
		},
		{
			name: "none",
			span: Span{Annotations: []Annotation{{Value: "sr"}}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewSpanNode(&tt.span).ServiceName(); got != tt.want {
				t.Errorf("ServiceName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEndpointAddress(t *testing.T) {
	tests := []struct {
		ep   *Endpoint
		want string
	}{
		{nil, ""},
		{&Endpoint{ServiceName: "a"}, ""},
		{&Endpoint{IPv4: "127.0.0.1"}, "127.0.0.1"},
		{&Endpoint{IPv4: "127.0.0.1", Port: 9411}, "127.0.0.1:9411"},
	}
	for _, tt := range tests {
		if got := tt.ep.Address(); got != tt.want {
			t.Errorf("Address() = %q, want %q", got, tt.want)
		}
	}
}

func TestBuildTreePreservesChildOrder(t *testing.T) {
	spans := []Span{
		{ID: "c", ParentID: "a", Name: "third", Timestamp: 5},
		{ID: "a", Name: "root", Timestamp: 1, Duration: 100},
		{ID: "b", ParentID: "a", Name: "first", Timestamp: 2},
		{ID: "d", ParentID: "b", Name: "nested", Timestamp: 3},
	}
	root, err := BuildTree(spans)
	if err != nil {
		t.Fatalf("BuildTree() error: %v", err)
	}
	if root.ID() != "a" {
		t.Fatalf("root = %s, want a", root.ID())
	}
	if len(root.Children) != 2 || root.Children[0].ID() != "c" || root.Children[1].ID() != "b" {
		t.Errorf("children not in input order: %v", ids(root.Children))
	}
	if got := root.Count(); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}
	if got := root.Depth(); got != 3 {
		t.Errorf("Depth() = %d, want 3", got)
	}
}

func TestBuildTreeMergesSharedSpans(t *testing.T) {
	spans := []Span{
		{ID: "1", Name: "get", Timestamp: 100, Duration: 50, Annotations: []Annotation{
			{Timestamp: 100, Value: "cs", Endpoint: ep("web")},
			{Timestamp: 150, Value: "cr", Endpoint: ep("web")},
		}},
		{ID: "1", Name: "get", Timestamp: 110, Duration: 30, Annotations: []Annotation{
			{Timestamp: 110, Value: "sr", Endpoint: ep("api")},
			{Timestamp: 140, Value: "ss", Endpoint: ep("api")},
		}},
	}
	root, err := BuildTree(spans)
	if err != nil {
		t.Fatalf("BuildTree() error: %v", err)
	}
	if root.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", root.Count())
	}
	if root.Span.Timestamp != 100 || root.Span.Duration != 50 {
		t.Errorf("timing = %d/%d, want 100/50", root.Span.Timestamp, root.Span.Duration)
	}
	if !root.CS.Valid || !root.SR.Valid || !root.SS.Valid || !root.CR.Valid {
		t.Errorf("merged node missing core annotations: %+v", root)
	}
	if got := root.ServiceName(); got != "api" {
		t.Errorf("ServiceName() = %q, want api", got)
	}
	if len(spans[0].Annotations) != 2 {
		t.Error("BuildTree must not modify its input")
	}
}

func TestBuildTreeFillsTimingFromAnnotations(t *testing.T) {
	root, err := BuildTree([]Span{{ID: "1", Annotations: []Annotation{
		{Timestamp: 1000, Value: "sr"},
		{Timestamp: 4000, Value: "ss"},
	}}})
	if err != nil {
		t.Fatalf("BuildTree() error: %v", err)
	}
	if root.Span.Timestamp != 1000 || root.Span.Duration != 3000 {
		t.Errorf("timing = %d/%d, want 1000/3000", root.Span.Timestamp, root.Span.Duration)
	}
}

func TestBuildTreeOrphans(t *testing.T) {
	spans := []Span{
		{ID: "a", ParentID: "missing"},
		{ID: "b", ParentID: "gone"},
		{ID: "c", ParentID: "a"},
	}
	root, err := BuildTree(spans)
	if err != nil {
		t.Fatalf("BuildTree() error: %v", err)
	}
	if root.ID() != "a" {
		t.Errorf("root = %s, want a", root.ID())
	}
	if got := ids(root.Children); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("children = %v, want [b c]", got)
	}
}

func TestBuildTreeErrors(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
		want  error
	}{
		{"empty", nil, ErrEmptyTrace},
		{"missing id", []Span{{Name: "x"}}, ErrInvalidSpanID},
		{"all parented", []Span{{ID: "a", ParentID: "b"}, {ID: "b", ParentID: "a"}}, ErrNoRoot},
		{"unreachable loop", []Span{{ID: "r"}, {ID: "a", ParentID: "b"}, {ID: "b", ParentID: "a"}}, ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildTree(tt.spans); !errors.Is(err, tt.want) {
				t.Errorf("BuildTree() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestServices(t *testing.T) {
	spans := []Span{
		{ID: "1", Annotations: []Annotation{{Value: "sr", Endpoint: ep("web")}}},
		{ID: "2", ParentID: "1", Annotations: []Annotation{{Value: "sr", Endpoint: ep("db")}}},
		{ID: "3", ParentID: "1", Annotations: []Annotation{{Value: "sr", Endpoint: ep("web")}}},
	}
	root, err := BuildTree(spans)
	if err != nil {
		t.Fatal(err)
	}
	got := root.Services()
	if len(got) != 2 || got[0] != "web" || got[1] != "db" {
		t.Errorf("Services() = %v, want [web db]", got)
	}
}

func ids(nodes []*SpanNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}
