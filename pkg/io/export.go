package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/spantower/pkg/zipkin"
)

type treeNode struct {
	zipkin.Span
	Service  string     `json:"service,omitempty"`
	Children []treeNode `json:"children,omitempty"`
}

func toTreeNode(n *zipkin.SpanNode) treeNode {
	out := treeNode{Span: *n.Span, Service: n.ServiceName()}
	for _, c := range n.Children {
		out.Children = append(out.Children, toTreeNode(c))
	}
	return out
}

// WriteTree encodes the span tree rooted at root as nested JSON.
func WriteTree(root *zipkin.SpanNode, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toTreeNode(root)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteSpans encodes the tree as a flat Zipkin v1 span array in pre-order.
// The output can be read back with [ReadSpans].
func WriteSpans(root *zipkin.SpanNode, w io.Writer) error {
	var spans []zipkin.Span
	root.Walk(func(n *zipkin.SpanNode, _ int) bool {
		spans = append(spans, *n.Span)
		return true
	})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(spans); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportTree writes the span tree to a JSON file at path.
func ExportTree(root *zipkin.SpanNode, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteTree(root, f)
}
