package cache

import "slices"

// Keyer builds cache keys.
type Keyer interface {
	// TraceKey identifies a parsed trace by its content hash.
	TraceKey(traceHash string) string

	// ArtifactKey identifies one rendered output of a trace.
	ArtifactKey(traceHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds every render option that changes the output bytes.
type ArtifactKeyOpts struct {
	Format      string   `json:"format"`
	TrackWidth  float64  `json:"track_width"`
	Display     bool     `json:"display"`
	Expanded    []string `json:"expanded,omitempty"`
	Columns     int      `json:"columns,omitempty"`
	TrackPixels float64  `json:"track_pixels,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"`
	Title       string   `json:"title,omitempty"`
	ToggleURL   string   `json:"toggle_url,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TraceKey returns "trace:<hash>".
func (DefaultKeyer) TraceKey(traceHash string) string {
	return "trace:" + traceHash
}

// ArtifactKey hashes the trace hash together with the options. Expanded ids
// are sorted first so the key does not depend on click order.
func (DefaultKeyer) ArtifactKey(traceHash string, opts ArtifactKeyOpts) string {
	opts.Expanded = slices.Sorted(slices.Values(opts.Expanded))
	return digestKey("artifact", traceHash, opts)
}
