package waterfall

import "testing"

func TestViewClick(t *testing.T) {
	v := NewView(sampleTree())
	redraws := 0
	v.OnRedraw(func() { redraws++ })

	if !v.Click("2") {
		t.Fatal("Click() should report a change")
	}
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1", redraws)
	}
	rows := v.Rows()
	if !rows[1].Expanded || rows[0].Expanded {
		t.Errorf("rows after click: %+v", rows)
	}

	v.Click("2")
	if v.Layout().Rows[1].Expanded {
		t.Error("second click should collapse")
	}
	if redraws != 2 {
		t.Errorf("redraws = %d, want 2", redraws)
	}
}

func TestViewDisplayMode(t *testing.T) {
	v := NewView(sampleTree(), WithDisplayMode(true))
	v.OnRedraw(func() { t.Error("display mode must not redraw") })

	if v.Click("1") {
		t.Error("Click() should be ignored in display mode")
	}
	if v.Toggles().Len() != 0 {
		t.Error("display mode must not mutate toggles")
	}
	for _, r := range v.Layout().Rows {
		if !r.Expanded {
			t.Errorf("row %s collapsed in display mode", r.ID)
		}
	}
}

func TestNewViewWithToggles(t *testing.T) {
	tg := NewToggles("3")
	v := NewViewWithToggles(sampleTree(), tg, WithTrackWidth(50))
	if v.TrackWidth() != 50 {
		t.Errorf("TrackWidth() = %v", v.TrackWidth())
	}
	if !v.Rows()[3].Expanded {
		t.Error("restored toggles should apply")
	}
	v.Click("3")
	if tg.Expanded("3") {
		t.Error("view should own the passed toggles")
	}

	if NewViewWithToggles(sampleTree(), nil).Toggles() == nil {
		t.Error("nil toggles should be replaced")
	}
}
