package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/spantower/pkg/zipkin"
)

type wireSpan struct {
	TraceID           string              `json:"traceId"`
	ID                string              `json:"id"`
	ParentID          string              `json:"parentId"`
	Name              string              `json:"name"`
	Timestamp         int64               `json:"timestamp"`
	Duration          int64               `json:"duration"`
	Annotations       []zipkin.Annotation `json:"annotations"`
	BinaryAnnotations []wireBinary        `json:"binaryAnnotations"`
}

type wireBinary struct {
	Key      string           `json:"key"`
	Value    json.RawMessage  `json:"value"`
	Endpoint *zipkin.Endpoint `json:"endpoint"`
}

// ReadSpans decodes a Zipkin v1 span array from r.
//
// ReadSpans returns an error if the JSON is malformed or is neither a span
// array nor an array of span arrays. It does not close r.
func ReadSpans(r io.Reader) ([]zipkin.Span, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data = bytes.TrimSpace(data)

	var wire []wireSpan
	if err := json.Unmarshal(data, &wire); err != nil {
		var traces [][]wireSpan
		if err2 := json.Unmarshal(data, &traces); err2 != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		if len(traces) == 0 {
			return nil, nil
		}
		wire = traces[0]
	}

	spans := make([]zipkin.Span, len(wire))
	for i, w := range wire {
		spans[i] = zipkin.Span{
			TraceID:     w.TraceID,
			ID:          w.ID,
			ParentID:    w.ParentID,
			Name:        w.Name,
			Timestamp:   w.Timestamp,
			Duration:    w.Duration,
			Annotations: w.Annotations,
		}
		for _, b := range w.BinaryAnnotations {
			spans[i].BinaryAnnotations = append(spans[i].BinaryAnnotations, zipkin.BinaryAnnotation{
				Key:      b.Key,
				Value:    rawString(b.Value),
				Endpoint: b.Endpoint,
			})
		}
	}
	return spans, nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ReadTrace decodes spans from r and assembles them with [zipkin.BuildTree].
func ReadTrace(r io.Reader) (*zipkin.SpanNode, error) {
	spans, err := ReadSpans(r)
	if err != nil {
		return nil, err
	}
	root, err := zipkin.BuildTree(spans)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	return root, nil
}

// ImportTrace reads a trace file at path and returns its span tree.
// The error wraps the underlying cause with the file path for context.
func ImportTrace(path string) (*zipkin.SpanNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	root, err := ReadTrace(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}
