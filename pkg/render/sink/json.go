package sink

import (
	"encoding/json"

	"github.com/matzehuels/spantower/pkg/waterfall"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	indent   bool
	services []string
}

// WithJSONIndent pretty-prints the output.
func WithJSONIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

// WithJSONServices records the distinct services of the trace.
func WithJSONServices(services []string) JSONOption {
	return func(r *jsonRenderer) { r.services = services }
}

type jsonOutput struct {
	waterfall.Layout
	Services []string                   `json:"services,omitempty"`
	Panels   map[string]waterfall.Panel `json:"panels,omitempty"`
}

// RenderJSON serializes the layout together with the detail panels of its
// expanded rows.
func RenderJSON(l waterfall.Layout, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{Layout: l, Services: r.services, Panels: panels(l)}
	if len(out.Panels) == 0 {
		out.Panels = nil
	}
	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}
