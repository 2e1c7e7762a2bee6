package observability

import (
	"context"
	"sync"
	"testing"
)

type countingView struct {
	Noop
	toggles int
}

func (v *countingView) OnViewToggled(context.Context, string, int) { v.toggles++ }

type namedPipeline struct{ Noop }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	if _, ok := Pipeline().(Noop); !ok {
		t.Errorf("Pipeline() = %T", Pipeline())
	}
	if _, ok := View().(Noop); !ok {
		t.Errorf("View() = %T", View())
	}
	// Calls through the defaults must be safe.
	Cache().OnCacheHit(context.Background(), "artifact")
	HTTP().OnRateLimited(context.Background(), "POST", "/views/{id}/toggle/{span}")
}

func TestInstallKeepsUnsetHooks(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	view := &countingView{}
	Install(Hooks{View: view})
	pipe := &namedPipeline{}
	Install(Hooks{Pipeline: pipe})

	if View() != view {
		t.Error("second Install dropped the view hooks")
	}
	if Pipeline() != pipe {
		t.Error("pipeline hooks not installed")
	}
	if _, ok := Cache().(Noop); !ok {
		t.Error("cache hooks should stay no-op")
	}

	View().OnViewToggled(context.Background(), "a", 1)
	if view.toggles != 1 {
		t.Errorf("toggles = %d", view.toggles)
	}

	Reset()
	if _, ok := View().(Noop); !ok {
		t.Error("Reset should restore no-op view hooks")
	}
}

func TestConcurrentInstall(t *testing.T) {
	t.Cleanup(Reset)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Install(Hooks{View: &countingView{}})
		}()
		go func() {
			defer wg.Done()
			View().OnViewDeleted(context.Background())
		}()
	}
	wg.Wait()
}
