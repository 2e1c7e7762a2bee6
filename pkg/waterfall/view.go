package waterfall

import "github.com/matzehuels/spantower/pkg/zipkin"

// View is the controller for one displayed trace. It owns the toggle state
// of that trace and triggers a redraw after every change. Create a new View
// when a different trace is loaded.
type View struct {
	root    *zipkin.SpanNode
	toggles *Toggles
	opts    Options
	redraw  func()
}

// NewView creates a view of the trace rooted at root with every row collapsed.
func NewView(root *zipkin.SpanNode, opts ...Option) *View {
	return NewViewWithToggles(root, NewToggles(), opts...)
}

// NewViewWithToggles creates a view that continues from existing toggle state,
// e.g. one restored from a stored session.
func NewViewWithToggles(root *zipkin.SpanNode, toggles *Toggles, opts ...Option) *View {
	v := &View{root: root, toggles: toggles}
	if v.toggles == nil {
		v.toggles = NewToggles()
	}
	for _, opt := range opts {
		opt(&v.opts)
	}
	return v
}

// OnRedraw registers fn to be called after the toggle state changes.
func (v *View) OnRedraw(fn func()) { v.redraw = fn }

// Root returns the trace root.
func (v *View) Root() *zipkin.SpanNode { return v.root }

// Toggles returns the toggle state owned by the view.
func (v *View) Toggles() *Toggles { return v.toggles }

// Display reports whether the view is read-only.
func (v *View) Display() bool { return v.opts.Display }

// TrackWidth returns the effective track width.
func (v *View) TrackWidth() float64 { return v.opts.width() }

// Click handles a click on the row of span id. It returns true when the
// layout changed, after invoking the redraw callback.
func (v *View) Click(id string) bool {
	if !OnRowClick(id, v.toggles, v.opts.Display) {
		return false
	}
	if v.redraw != nil {
		v.redraw()
	}
	return true
}

// Layout recomputes the labels and rows for the current toggle state.
func (v *View) Layout() Layout {
	return build(v.root, v.toggles, v.opts)
}

// Rows recomputes the row list for the current toggle state.
func (v *View) Rows() []Row {
	return Rows(v.root, v.toggles, v.opts)
}
