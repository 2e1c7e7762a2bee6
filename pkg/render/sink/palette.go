package sink

import (
	"hash/fnv"

	"github.com/matzehuels/spantower/pkg/waterfall"
)

// servicePalette holds bar colors; a service always maps to the same entry.
var servicePalette = []string{
	"#4c9be8", "#e8874c", "#58b368", "#c75dcf", "#d9b43c",
	"#4cc3c7", "#e8607a", "#8a7fe0", "#9bbf4c", "#c98f5b",
}

const placeholderColor = "#9e9e9e"

// serviceColor returns the fill color for a service name.
func serviceColor(service string) string {
	if service == "" || service == waterfall.ServicePlaceholder {
		return placeholderColor
	}
	h := fnv.New32a()
	h.Write([]byte(service))
	return servicePalette[h.Sum32()%uint32(len(servicePalette))]
}

// trackWidth returns the layout's track width, or the default if unset.
func trackWidth(l waterfall.Layout) float64 {
	if l.TrackWidth <= 0 {
		return waterfall.DefaultTrackWidth
	}
	return l.TrackWidth
}

// panels computes the detail panel of every expanded row.
func panels(l waterfall.Layout) map[string]waterfall.Panel {
	out := make(map[string]waterfall.Panel)
	for _, r := range l.Rows {
		if r.Expanded && r.Node != nil {
			out[r.ID] = waterfall.Details(r.Node)
		}
	}
	return out
}
