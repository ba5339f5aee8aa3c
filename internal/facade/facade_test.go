package facade

import (
	"testing"

	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/coordinator"
	"github.com/noiawl/frontend/internal/focus"
	"github.com/noiawl/frontend/internal/geometry"
	"github.com/noiawl/frontend/internal/wire"
)

type fakeResource struct {
	id     wire.ObjectID
	client cache.ClientID
}

func (f fakeResource) ObjectID() wire.ObjectID { return f.id }
func (f fakeResource) Client() cache.ClientID  { return f.client }

type fakeGateway struct {
	sendSelectionCalls int
	lateEnters         []cache.SurfaceID
}

func (g *fakeGateway) SendSelection() { g.sendSelectionCalls++ }
func (g *fakeGateway) EmitLateKeyboardEnter(r cache.Resource, sid cache.SurfaceID) {
	g.lateEnters = append(g.lateEnters, sid)
}

func newTestFacade() (*Facade, *coordinator.Fake, *fakeGateway) {
	c := cache.New(nil)
	coord := coordinator.NewFake()
	gw := &fakeGateway{}
	ft := focus.New()
	return New(c, coord, ft, gw, nil), coord, gw
}

func TestAddSurfaceCreatesRecordWithMainResource(t *testing.T) {
	f, _, _ := newTestFacade()
	main := fakeResource{id: 1, client: 1}

	f.AddSurface(5, main)

	f.cache.Lock()
	rec, ok := f.cache.FindSurfaceLocked(5)
	f.cache.Unlock()

	if !ok || rec.Main.ObjectID() != main.id {
		t.Fatalf("FindSurfaceLocked(5) = (%v, %v), want a record with main resource %v", rec, ok, main)
	}
}

func TestRemoveSurfaceClearsRecordAndCallsCoordinator(t *testing.T) {
	f, coord, _ := newTestFacade()
	main := fakeResource{id: 1, client: 1}
	f.AddSurface(5, main)

	f.RemoveSurface(5, main)

	f.cache.Lock()
	_, ok := f.cache.FindSurfaceLocked(5)
	f.cache.Unlock()
	if ok {
		t.Fatal("surface record still present after RemoveSurface")
	}

	found := false
	for _, call := range coord.Calls {
		if call.Method == "SurfaceDestroy" {
			found = true
		}
	}
	if !found {
		t.Fatal("RemoveSurface did not call coordinator.SurfaceDestroy")
	}
}

func TestSetInputRegionSentinelResets(t *testing.T) {
	f, _, _ := newTestFacade()
	f.AddSurface(1, fakeResource{id: 1, client: 1})

	f.cache.Lock()
	rec, _ := f.cache.FindSurfaceLocked(1)
	rec.InputRegion = geometry.Rectangle{Size: geometry.Size{Width: 10, Height: 10}}
	f.cache.Unlock()

	f.SetInputRegion(1, cache.NoRegion)

	f.cache.Lock()
	rec, _ = f.cache.FindSurfaceLocked(1)
	f.cache.Unlock()

	if rec.InputRegion != (geometry.Rectangle{}) {
		t.Fatalf("InputRegion = %+v, want zero value after sentinel reset", rec.InputRegion)
	}
}

func TestSetInputRegionUsesRegionBounds(t *testing.T) {
	f, _, _ := newTestFacade()
	f.AddSurface(1, fakeResource{id: 1, client: 1})

	f.cache.Lock()
	rid := f.cache.CreateRegionLocked()
	f.cache.InflateRegionLocked(rid, geometry.Rectangle{Size: geometry.Size{Width: 20, Height: 30}})
	f.cache.Unlock()

	f.SetInputRegion(1, rid)

	f.cache.Lock()
	rec, _ := f.cache.FindSurfaceLocked(1)
	f.cache.Unlock()

	want := geometry.Rectangle{Size: geometry.Size{Width: 20, Height: 30}}
	if rec.InputRegion != want {
		t.Fatalf("InputRegion = %+v, want %+v", rec.InputRegion, want)
	}
}

func TestAddKeyboardResourceEmitsLateEnterWhenClientAlreadyFocused(t *testing.T) {
	f, _, gw := newTestFacade()
	main := fakeResource{id: 1, client: 42}
	f.AddSurface(1, main)
	f.focus.SetKeyboard(1)

	kb := fakeResource{id: 2, client: 42}
	f.AddKeyboardResource(kb)

	if len(gw.lateEnters) != 1 || gw.lateEnters[0] != 1 {
		t.Fatalf("lateEnters = %v, want [1]", gw.lateEnters)
	}
}

func TestAddKeyboardResourceNoLateEnterWhenDifferentClientFocused(t *testing.T) {
	f, _, gw := newTestFacade()
	main := fakeResource{id: 1, client: 42}
	f.AddSurface(1, main)
	f.focus.SetKeyboard(1)

	kb := fakeResource{id: 2, client: 99}
	f.AddKeyboardResource(kb)

	if len(gw.lateEnters) != 0 {
		t.Fatalf("lateEnters = %v, want none", gw.lateEnters)
	}
}

func TestSendSelectionSetsCurrentAndTriggersGateway(t *testing.T) {
	f, _, gw := newTestFacade()
	tr := f.CreateTransfer(fakeResource{id: 9, client: 1})
	f.AddMimeType(tr, "text/plain")

	f.SendSelection(tr)

	if f.Current() != tr {
		t.Fatalf("Current() = %v, want %v", f.Current(), tr)
	}
	if gw.sendSelectionCalls != 1 {
		t.Fatalf("SendSelection calls = %d, want 1", gw.sendSelectionCalls)
	}
}
