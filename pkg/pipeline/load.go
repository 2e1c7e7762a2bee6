package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/matzehuels/spantower/pkg/cache"
	"github.com/matzehuels/spantower/pkg/errors"
	spanio "github.com/matzehuels/spantower/pkg/io"
	"github.com/matzehuels/spantower/pkg/observability"
	"github.com/matzehuels/spantower/pkg/zipkin"
)

// ReadSource returns the raw span JSON named by opts.
func ReadSource(opts Options) ([]byte, error) {
	if len(opts.Data) > 0 {
		return opts.Data, nil
	}
	data, err := os.ReadFile(opts.Source)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "trace file %s not found", opts.Source)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", opts.Source)
	}
	return data, nil
}

// Load parses span JSON and assembles the span tree.
func Load(ctx context.Context, data []byte, source string) (*zipkin.SpanNode, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	root, err := spanio.ReadTrace(bytes.NewReader(data))
	count := 0
	if err == nil {
		count = root.Count()
	} else {
		err = errors.Wrap(errors.ErrCodeInvalidTrace, err, "load %s", source)
	}
	hooks.OnLoadComplete(ctx, source, count, time.Since(start), err)
	return root, err
}

// encodeTree serializes an assembled tree for the trace cache. The flat
// pre-order span list is already merged, so decoding skips the merge.
func encodeTree(root *zipkin.SpanNode) ([]byte, error) {
	var buf bytes.Buffer
	if err := spanio.WriteSpans(root, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTree(data []byte) (*zipkin.SpanNode, error) {
	return spanio.ReadTrace(bytes.NewReader(data))
}

// sourceName is the label used for hooks and logs.
func sourceName(opts Options) string {
	if len(opts.Data) > 0 {
		if opts.Source != "" {
			return opts.Source
		}
		return "<data>"
	}
	return opts.Source
}

// TraceHash returns the cache identity of raw span JSON.
func TraceHash(data []byte) string {
	return cache.Hash(data)
}
