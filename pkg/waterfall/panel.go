package waterfall

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"

	"github.com/matzehuels/spantower/pkg/zipkin"
)

// NoBinaryAnnotations is the empty-state message of the tag view.
const NoBinaryAnnotations = "No binary annotations available"

// TimeFormat formats annotation timestamps in the detail panel. Times are
// shown in UTC and the fourth fractional digit carries real 100µs precision.
const TimeFormat = "2006-01-02 15:04:05.0000"

var annotationLabels = map[string]string{
	zipkin.ServerReceive: "Server Receive",
	zipkin.ServerSend:    "Server Send",
	zipkin.ClientReceive: "Client Receive",
	zipkin.ClientSend:    "Client Send",
}

// AnnotationLabel translates a core annotation code to a readable label.
// Other values are returned unchanged.
func AnnotationLabel(value string) string {
	if l, ok := annotationLabels[value]; ok {
		return l
	}
	return value
}

// TimelineEntry is one annotation in the detail panel.
type TimelineEntry struct {
	Timestamp int64  `json:"timestamp"`
	Time      string `json:"time"`
	Label     string `json:"label"`
	Address   string `json:"address,omitempty"`
	Service   string `json:"service,omitempty"`
}

// Tag is one binary annotation in the detail panel.
type Tag struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Address string `json:"address,omitempty"`
}

// TagGroup holds the tags recorded by one service.
type TagGroup struct {
	Service string `json:"service"`
	Tags    []Tag  `json:"tags"`
}

// Panel is the expanded detail view of one row.
type Panel struct {
	SpanID      string          `json:"span_id"`
	Annotations []TimelineEntry `json:"annotations"`
	Tags        []TagGroup      `json:"tags,omitempty"`
	Empty       bool            `json:"empty,omitempty"` // no binary annotations
	JSON        string          `json:"-"`
}

// Timeline returns the annotations ordered by timestamp. Annotations with
// equal timestamps keep their input order. The input is not modified.
func Timeline(annotations []zipkin.Annotation) []TimelineEntry {
	sorted := slices.Clone(annotations)
	slices.SortStableFunc(sorted, func(a, b zipkin.Annotation) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	out := make([]TimelineEntry, len(sorted))
	for i, a := range sorted {
		out[i] = TimelineEntry{
			Timestamp: a.Timestamp,
			Time:      time.UnixMicro(a.Timestamp).UTC().Format(TimeFormat),
			Label:     AnnotationLabel(a.Value),
			Address:   a.Endpoint.Address(),
			Service:   a.Endpoint.Service(),
		}
	}
	return out
}

// GroupTags groups binary annotations by the service that recorded them.
// Groups appear in the order their service is first seen and tags keep their
// input order within a group.
func GroupTags(binary []zipkin.BinaryAnnotation) []TagGroup {
	var groups []TagGroup
	index := make(map[string]int)
	for _, b := range binary {
		service := b.Endpoint.Service()
		i, ok := index[service]
		if !ok {
			i = len(groups)
			index[service] = i
			groups = append(groups, TagGroup{Service: service})
		}
		groups[i].Tags = append(groups[i].Tags, Tag{
			Key:     b.Key,
			Value:   b.Value,
			Address: b.Endpoint.Address(),
		})
	}
	return groups
}

// Details builds the detail panel of node.
func Details(node *zipkin.SpanNode) Panel {
	p := Panel{
		SpanID:      node.ID(),
		Annotations: Timeline(node.Span.Annotations),
		Tags:        GroupTags(node.Span.BinaryAnnotations),
	}
	p.Empty = len(p.Tags) == 0
	if data, err := json.MarshalIndent(node.Span, "", "  "); err == nil {
		p.JSON = string(data)
	}
	return p
}
