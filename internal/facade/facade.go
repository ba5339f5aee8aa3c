// Package facade implements the frontend's inbound boundary (§4.3):
// the single entry point every protocol handler calls into to mutate
// compositor state. Every exported method here corresponds to exactly
// one facade operation named in the specification.
package facade

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/coordinator"
	"github.com/noiawl/frontend/internal/focus"
	"github.com/noiawl/frontend/internal/geometry"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/transfer"
	"github.com/noiawl/frontend/internal/wire"
	"golang.org/x/sys/unix"
)

// dataSourceEventSend is wl_data_source.send(mime_type: string, fd: fd).
const dataSourceEventSend wire.Opcode = 1

// SelectionNotifier is the narrow slice of the gateway the facade
// needs: triggering a selection replay and emitting a late keyboard
// enter for a keyboard resource that bound after focus was already set.
type SelectionNotifier interface {
	SendSelection()
	EmitLateKeyboardEnter(r cache.Resource, sid cache.SurfaceID)
}

// Facade is the concrete inbound boundary.
type Facade struct {
	cache *cache.Cache
	coord coordinator.Coordinator
	focus *focus.Tracker
	gw    SelectionNotifier
	log   *log.Logger

	selMu     sync.Mutex
	selection *transfer.Transfer
}

// New constructs a Facade wired to its cache, coordinator and gateway.
// gw may be nil at construction time (the gateway needs a Facade to
// satisfy its own Selection dependency); call SetGateway once the
// gateway exists.
func New(c *cache.Cache, coord coordinator.Coordinator, ft *focus.Tracker, gw SelectionNotifier, logger *log.Logger) *Facade {
	return &Facade{cache: c, coord: coord, focus: ft, gw: gw, log: logger}
}

// SetGateway completes the facade/gateway wiring for callers that must
// construct the gateway after the facade (the gateway's Selection
// dependency is the facade itself).
func (f *Facade) SetGateway(gw SelectionNotifier) {
	f.gw = gw
}

// Current returns the active selection transfer, or nil. Implements
// gateway.Selection.
func (f *Facade) Current() *transfer.Transfer {
	f.selMu.Lock()
	defer f.selMu.Unlock()
	return f.selection
}

// CreateSurface delegates to the coordinator and returns the new
// surface identifier; the cache record is created separately by AddSurface.
func (f *Facade) CreateSurface() cache.SurfaceID {
	return f.coord.SurfaceCreate()
}

// AddSurface creates the surface record and registers its main resource.
func (f *Facade) AddSurface(sid cache.SurfaceID, main cache.Resource) {
	f.cache.Lock()
	f.cache.CreateSurfaceLocked(sid)
	f.cache.AddSurfaceResourceLocked(sid, cache.RoleMain, main)
	f.cache.Unlock()
}

// Commit forwards to the coordinator, which latches pending
// buffer/region/offset state.
func (f *Facade) Commit(sid cache.SurfaceID) {
	f.coord.SurfaceCommit(sid)
}

// SurfaceAttach caches the buffer resource and informs the coordinator
// of the new pixel source. A nil data slice (non-SHM buffer) zeros the
// dimensions but still proceeds so the coordinator can refuse it.
func (f *Facade) SurfaceAttach(sid cache.SurfaceID, surfaceResource, bufferResource cache.Resource, size geometry.Size, stride int32, data []byte) {
	if data == nil {
		f.log.Info("non-shm buffer attached, zeroing dimensions", "surface", sid)
		size = geometry.Size{}
		stride = 0
	}

	f.cache.Lock()
	f.cache.AddSurfaceResourceLocked(sid, cache.RoleBuffer, bufferResource)
	f.cache.Unlock()

	f.coord.SurfaceAttach(sid, size, stride, data, bufferResource)
}

func (f *Facade) SetRequestedSize(sid cache.SurfaceID, size geometry.Size) {
	f.coord.SurfaceSetRequestedSize(sid, size)
}

func (f *Facade) SetOffset(sid cache.SurfaceID, pos geometry.Position) {
	f.coord.SurfaceSetOffset(sid, pos)
}

func (f *Facade) ResetOffsetAndRequestedSize(sid cache.SurfaceID) {
	f.coord.SurfaceResetOffsetAndRequestedSize(sid)
}

func (f *Facade) SetSubsurfacePosition(sid cache.SurfaceID, pos geometry.Position) {
	f.coord.SurfaceSetRelativePosition(sid, pos)
}

// SetSubsurfaceSync records the subsurface's sync/desync mode on its
// surface record. Commit does not read the flag and the coordinator is
// not told about it; commits are forwarded the same way in both modes.
func (f *Facade) SetSubsurfaceSync(sid cache.SurfaceID, synchronized bool) {
	f.cache.Lock()
	defer f.cache.Unlock()
	rec, ok := f.cache.FindSurfaceLocked(sid)
	if !ok {
		f.log.Warn("set_sync on unknown surface", "surface", sid)
		return
	}
	rec.Synchronized = synchronized
}

// CreateRegion allocates a new region record and returns its id.
func (f *Facade) CreateRegion() cache.RegionID {
	f.cache.Lock()
	defer f.cache.Unlock()
	return f.cache.CreateRegionLocked()
}

// InflateRegion unions rect into the region's accumulated bounds.
func (f *Facade) InflateRegion(rid cache.RegionID, rect geometry.Rectangle) {
	f.cache.Lock()
	defer f.cache.Unlock()
	f.cache.InflateRegionLocked(rid, rect)
}

// RemoveRegion deletes a region record once its wl_region is destroyed,
// completing the create_region/inflate/remove_region round trip.
func (f *Facade) RemoveRegion(rid cache.RegionID) {
	f.cache.Lock()
	defer f.cache.Unlock()
	f.cache.RemoveRegionLocked(rid)
}

// AddSubsurface establishes a parent/child relation via the coordinator.
func (f *Facade) AddSubsurface(sid, parent cache.SurfaceID, pos geometry.Position) {
	f.coord.SurfaceRelate(sid, parent)
	f.coord.SurfaceSetRelativePosition(sid, pos)
}

// SetInputRegion reads the region record and forwards its bounding
// rectangle; the sentinel region id resets the surface's input region.
func (f *Facade) SetInputRegion(sid cache.SurfaceID, rid cache.RegionID) {
	f.cache.Lock()
	defer f.cache.Unlock()

	rec, ok := f.cache.FindSurfaceLocked(sid)
	if !ok {
		f.log.Warn("set_input_region on unknown surface", "surface", sid)
		return
	}
	if rid == cache.NoRegion {
		rec.InputRegion = geometry.Rectangle{}
		return
	}
	region, ok := f.cache.FindRegionLocked(rid)
	if !ok {
		f.log.Warn("set_input_region with unknown region", "surface", sid, "region", rid)
		return
	}
	rec.InputRegion = region.Rect
}

// AddFrameCallback queues cb onto the surface's FIFO frame-callback
// list; OnSurfaceFrame drains it once the coordinator reports a frame.
func (f *Facade) AddFrameCallback(sid cache.SurfaceID, cb cache.Resource) {
	f.cache.Lock()
	f.cache.AddSurfaceResourceLocked(sid, cache.RoleFrameCallback, cb)
	f.cache.Unlock()
}

// AddShellSurface caches the shell resource and tells the coordinator
// the surface is mappable. role distinguishes wl-shell from xdg-shell
// so the cache writes into the matching slot.
func (f *Facade) AddShellSurface(sid cache.SurfaceID, role cache.Role, shellResource cache.Resource) {
	f.cache.Lock()
	f.cache.AddSurfaceResourceLocked(sid, role, shellResource)
	f.cache.Unlock()

	f.coord.SurfaceShow(sid, coordinator.ShowReasonMapped)
}

// RemoveShellSurface clears role's cached shell resource without
// issuing a SurfaceShow or SurfaceDestroy; xdg_surface.destroy may
// precede wl_surface.destroy, so the surface record itself survives.
func (f *Facade) RemoveShellSurface(sid cache.SurfaceID, role cache.Role, shellResource cache.Resource) {
	f.cache.Lock()
	f.cache.RemoveSurfaceResourceLocked(sid, role, shellResource)
	f.cache.Unlock()
}

// AttachXdgToplevel caches the xdg_toplevel resource without re-issuing
// SurfaceShow; get_toplevel always follows an AddShellSurface call for
// the owning xdg_surface, which already mapped the surface.
func (f *Facade) AttachXdgToplevel(sid cache.SurfaceID, toplevel cache.Resource) {
	f.cache.Lock()
	f.cache.AddSurfaceResourceLocked(sid, cache.RoleXdgToplevel, toplevel)
	f.cache.Unlock()
}

// RemoveXdgToplevel clears the cached xdg_toplevel resource without
// tearing down the surface itself (xdg_toplevel.destroy may precede
// xdg_surface.destroy).
func (f *Facade) RemoveXdgToplevel(sid cache.SurfaceID, toplevel cache.Resource) {
	f.cache.Lock()
	f.cache.RemoveSurfaceResourceLocked(sid, cache.RoleXdgToplevel, toplevel)
	f.cache.Unlock()
}

// RemoveSurface removes the main resource and the surface record under
// one locked section, then, with the lock released, tells the
// coordinator to destroy the surface.
func (f *Facade) RemoveSurface(sid cache.SurfaceID, main cache.Resource) {
	f.cache.Lock()
	f.cache.RemoveSurfaceResourceLocked(sid, cache.RoleMain, main)
	f.cache.RemoveSurfaceLocked(sid)
	f.cache.Unlock()

	f.coord.SurfaceDestroy(sid)
}

// ReorderSatellites adjusts sid's stacking position relative to
// sibling within the same parent, relaying the request to the
// coordinator, which owns the ordered child list.
func (f *Facade) ReorderSatellites(sid, sibling cache.SurfaceID, above bool) {
	f.coord.SurfaceReorder(sid, sibling, above)
}

// CreateTransfer starts a new clipboard transfer backed by source.
func (f *Facade) CreateTransfer(source cache.Resource) *transfer.Transfer {
	return transfer.New(source)
}

// AddMimeType appends a MIME type to an in-progress transfer.
func (f *Facade) AddMimeType(t *transfer.Transfer, mime string) {
	t.AddMime(mime)
}

// SendSelection sets t as the current selection and triggers the
// gateway to replay it to the focused client.
func (f *Facade) SendSelection(t *transfer.Transfer) {
	f.selMu.Lock()
	f.selection = t
	f.selMu.Unlock()

	f.gw.SendSelection()
}

// ReceiveDataOffer forwards a receive request on the data-source
// resource and closes fd once it has been sent.
func (f *Facade) ReceiveDataOffer(t *transfer.Transfer, mime string, fd int) {
	defer unix.Close(fd)

	if t == nil || t.Source == nil {
		f.log.Warn("receive_data_offer with no current transfer", "mime", mime)
		return
	}
	src, ok := t.Source.(*resource.Resource)
	if !ok {
		return
	}
	if err := src.SendWithFD(dataSourceEventSend, wire.NewBuilder().PutString(mime), fd); err != nil {
		f.log.Warn("data_source.send failed", "mime", mime, "err", err)
	}
}

// SetCursor records hotspot as an offset and marks the surface as the cursor.
func (f *Facade) SetCursor(sid cache.SurfaceID, hotspot geometry.Position) {
	f.coord.SurfaceSetOffset(sid, hotspot)
	f.coord.SurfaceSetAsCursor(sid)
}

// AddKeyboardResource stores the resource and, if its owning client is
// already keyboard-focused, emits enter immediately so a late-binding
// keyboard does not miss focus (S5).
func (f *Facade) AddKeyboardResource(r cache.Resource) {
	f.cache.Lock()
	f.cache.AddGeneralResourceLocked(cache.CategoryKeyboard, r)
	focused := f.focus.Keyboard()
	_, focusedClient, ok := f.cache.ResourceAndClientForLocked(focused)
	f.cache.Unlock()

	if ok && focusedClient == r.Client() {
		f.gw.EmitLateKeyboardEnter(r, focused)
	}
}

// RemoveKeyboardResource unbinds a released wl_keyboard from the
// fan-out list consulted by keyboard focus/key events.
func (f *Facade) RemoveKeyboardResource(r cache.Resource) {
	f.cache.Lock()
	defer f.cache.Unlock()
	f.cache.RemoveGeneralResourceLocked(cache.CategoryKeyboard, r)
}

// CaptureOutput copies output's current content into the pixel buffer
// backing a wl_buffer, returning false if the coordinator cannot
// rasterize it.
func (f *Facade) CaptureOutput(output coordinator.OutputName, into []byte) bool {
	return f.coord.CaptureOutput(output, into)
}

// AddPointerResource stores a bound wl_pointer resource. Unlike the
// keyboard, pointer focus follows cursor position rather than a
// persistent per-client grant, so no late-enter replay is needed here.
func (f *Facade) AddPointerResource(r cache.Resource) {
	f.cache.Lock()
	defer f.cache.Unlock()
	f.cache.AddGeneralResourceLocked(cache.CategoryPointer, r)
}

// RemovePointerResource unbinds a released wl_pointer from the fan-out
// list consulted by pointer focus/motion/button/axis events.
func (f *Facade) RemovePointerResource(r cache.Resource) {
	f.cache.Lock()
	defer f.cache.Unlock()
	f.cache.RemoveGeneralResourceLocked(cache.CategoryPointer, r)
}

// AddDataDeviceResource stores a bound wl_data_device resource so a
// subsequent SendSelection can find it.
func (f *Facade) AddDataDeviceResource(r cache.Resource) {
	f.cache.Lock()
	defer f.cache.Unlock()
	f.cache.AddGeneralResourceLocked(cache.CategoryDataDevice, r)
}

// RemoveDataDeviceResource unbinds a released wl_data_device from the
// fan-out list SendSelection replays a selection through.
func (f *Facade) RemoveDataDeviceResource(r cache.Resource) {
	f.cache.Lock()
	defer f.cache.Unlock()
	f.cache.RemoveGeneralResourceLocked(cache.CategoryDataDevice, r)
}

// RemoveClientResources sweeps every category's fan-out list for
// entries owned by id, so a disconnected client's keyboard, pointer and
// data-device resources stop being considered by gateway iterations
// even if its requests never explicitly released them (§4.2, §5).
func (f *Facade) RemoveClientResources(id cache.ClientID) {
	f.cache.Lock()
	defer f.cache.Unlock()
	f.cache.RemoveClientGeneralLocked(id)
}
