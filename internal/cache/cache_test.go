package cache

import (
	"testing"

	"github.com/noiawl/frontend/internal/geometry"
	"github.com/noiawl/frontend/internal/wire"
)

type fakeResource struct {
	id     wire.ObjectID
	client ClientID
}

func (f fakeResource) ObjectID() wire.ObjectID { return f.id }
func (f fakeResource) Client() ClientID        { return f.client }

func TestCreateFindRemoveSurface(t *testing.T) {
	c := New(nil)

	c.Lock()
	c.CreateSurfaceLocked(1)
	rec, ok := c.FindSurfaceLocked(1)
	c.Unlock()

	if !ok || rec.ID != 1 {
		t.Fatalf("FindSurfaceLocked(1) = (%v, %v), want a record with ID 1", rec, ok)
	}

	c.Lock()
	removed := c.RemoveSurfaceLocked(1)
	_, stillThere := c.FindSurfaceLocked(1)
	c.Unlock()

	if removed == nil || removed.ID != 1 {
		t.Fatalf("RemoveSurfaceLocked(1) = %v, want the removed record", removed)
	}
	if stillThere {
		t.Fatal("surface 1 still present after removal")
	}
}

func TestCreateSurfaceSentinelIsNoOp(t *testing.T) {
	c := New(nil)
	c.Lock()
	c.CreateSurfaceLocked(NoSurface)
	_, ok := c.FindSurfaceLocked(NoSurface)
	c.Unlock()
	if ok {
		t.Fatal("creating the sentinel surface id should be a no-op")
	}
}

func TestSurfaceResourceSlotsReplaceNotAccumulate(t *testing.T) {
	c := New(nil)
	a := fakeResource{id: 1, client: 100}
	b := fakeResource{id: 2, client: 100}

	c.Lock()
	c.CreateSurfaceLocked(1)
	c.AddSurfaceResourceLocked(1, RoleBuffer, a)
	c.AddSurfaceResourceLocked(1, RoleBuffer, b)
	rec, _ := c.FindSurfaceLocked(1)
	c.Unlock()

	if rec.Buffer.ObjectID() != b.id {
		t.Fatalf("Buffer slot = %v, want the most recently added resource %v", rec.Buffer, b)
	}
}

func TestFrameCallbacksAccumulateInOrder(t *testing.T) {
	c := New(nil)
	a := fakeResource{id: 1, client: 1}
	b := fakeResource{id: 2, client: 1}

	c.Lock()
	c.CreateSurfaceLocked(1)
	c.AddSurfaceResourceLocked(1, RoleFrameCallback, a)
	c.AddSurfaceResourceLocked(1, RoleFrameCallback, b)
	rec, _ := c.FindSurfaceLocked(1)
	c.Unlock()

	if len(rec.FrameCallback) != 2 || rec.FrameCallback[0].ObjectID() != a.id || rec.FrameCallback[1].ObjectID() != b.id {
		t.Fatalf("FrameCallback = %v, want [%v %v] in order", rec.FrameCallback, a, b)
	}

	c.Lock()
	c.RemoveSurfaceResourceLocked(1, RoleFrameCallback, a)
	rec, _ = c.FindSurfaceLocked(1)
	c.Unlock()

	if len(rec.FrameCallback) != 1 || rec.FrameCallback[0].ObjectID() != b.id {
		t.Fatalf("FrameCallback after removal = %v, want [%v]", rec.FrameCallback, b)
	}
}

func TestRegionUnionAccumulates(t *testing.T) {
	c := New(nil)

	c.Lock()
	id := c.CreateRegionLocked()
	c.InflateRegionLocked(id, geometry.Rectangle{Position: geometry.Position{X: 0, Y: 0}, Size: geometry.Size{Width: 10, Height: 10}})
	c.InflateRegionLocked(id, geometry.Rectangle{Position: geometry.Position{X: 5, Y: 5}, Size: geometry.Size{Width: 10, Height: 10}})
	rec, ok := c.FindRegionLocked(id)
	c.Unlock()

	if !ok {
		t.Fatal("region not found after creation")
	}
	want := geometry.Rectangle{Position: geometry.Position{X: 0, Y: 0}, Size: geometry.Size{Width: 15, Height: 15}}
	if rec.Rect != want {
		t.Fatalf("region bounds = %+v, want %+v", rec.Rect, want)
	}
}

func TestRegionIDsAreUnique(t *testing.T) {
	c := New(nil)
	seen := make(map[RegionID]bool)

	c.Lock()
	for i := 0; i < 1000; i++ {
		id := c.CreateRegionLocked()
		if seen[id] {
			c.Unlock()
			t.Fatalf("duplicate region id %d on iteration %d", id, i)
		}
		seen[id] = true
	}
	c.Unlock()
}

func TestGeneralResourceAddRemove(t *testing.T) {
	c := New(nil)
	kb := fakeResource{id: 5, client: 2}

	c.Lock()
	c.AddGeneralResourceLocked(CategoryKeyboard, kb)
	got := c.ResourcesOfLocked(CategoryKeyboard)
	c.Unlock()

	if len(got) != 1 || got[0].ObjectID() != kb.id {
		t.Fatalf("ResourcesOfLocked(CategoryKeyboard) = %v, want [%v]", got, kb)
	}

	c.Lock()
	c.RemoveGeneralResourceLocked(CategoryKeyboard, kb)
	got = c.ResourcesOfLocked(CategoryKeyboard)
	c.Unlock()

	if len(got) != 0 {
		t.Fatalf("ResourcesOfLocked(CategoryKeyboard) after removal = %v, want empty", got)
	}
}

func TestResourceAndClientForMissingSurface(t *testing.T) {
	c := New(nil)
	c.Lock()
	_, _, ok := c.ResourceAndClientForLocked(999)
	c.Unlock()
	if ok {
		t.Fatal("ResourceAndClientForLocked on missing surface should report false")
	}
}

func TestResourceAndClientForMainResource(t *testing.T) {
	c := New(nil)
	main := fakeResource{id: 10, client: 7}

	c.Lock()
	c.CreateSurfaceLocked(1)
	c.AddSurfaceResourceLocked(1, RoleMain, main)
	r, client, ok := c.ResourceAndClientForLocked(1)
	c.Unlock()

	if !ok || r.ObjectID() != main.id || client != main.client {
		t.Fatalf("ResourceAndClientForLocked(1) = (%v, %v, %v), want (%v, %v, true)", r, client, ok, main, main.client)
	}
}

func TestRemoveUnknownSurfaceResourceToleratesMiss(t *testing.T) {
	c := New(nil)
	r := fakeResource{id: 1, client: 1}
	c.Lock()
	c.RemoveSurfaceResourceLocked(999, RoleMain, r)
	c.Unlock()
}
