// Package gateway implements the frontend's outbound boundary (§4.4):
// the only component that translates coordinator notifications into
// Wayland events. It implements coordinator.Notifications; the engine
// constructs it, and the Coordinator interface has no method through
// which it is handed to the coordinator.
package gateway

import (
	"github.com/charmbracelet/log"

	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/coordinator"
	"github.com/noiawl/frontend/internal/focus"
	"github.com/noiawl/frontend/internal/geometry"
	"github.com/noiawl/frontend/internal/protocol"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/transfer"
	"github.com/noiawl/frontend/internal/wire"
	"github.com/noiawl/frontend/internal/xkbstate"
)

// SerialSource hands out the monotonically increasing serials the
// gateway stamps on enter/leave/key/configure events.
type SerialSource interface {
	NextSerial() uint32
}

// OfferBinder creates a freshly bound wl_data_offer resource on the
// connection backing device, wired into that client's object table so
// a later wl_data_offer.receive request routes back to the facade.
type OfferBinder interface {
	BindDataOffer(device cache.Resource) (*resource.Resource, error)
}

// OutputRegistrar is the subset of the engine the gateway needs to
// forward output-found/output-lost notifications to.
type OutputRegistrar interface {
	AdvertiseOutput(name coordinator.OutputName)
	DestroyOutput(name coordinator.OutputName)
}

// Selection is the read side of the current clipboard transfer the
// facade maintains; the gateway only ever reads it.
type Selection interface {
	Current() *transfer.Transfer
}

// Gateway is the concrete coordinator.Notifications implementation.
type Gateway struct {
	cache   *cache.Cache
	focus   *focus.Tracker
	serials SerialSource
	offers  OfferBinder
	outputs OutputRegistrar
	sel     Selection
	kb      *xkbstate.State
	log     *log.Logger

	onFinalize func()
}

// New constructs a Gateway. kb may be nil if xkb state is unavailable;
// key events are then forwarded without any modifiers event.
func New(c *cache.Cache, ft *focus.Tracker, serials SerialSource, offers OfferBinder,
	outputs OutputRegistrar, sel Selection, kb *xkbstate.State, logger *log.Logger, onFinalize func()) *Gateway {
	return &Gateway{
		cache: c, focus: ft, serials: serials, offers: offers,
		outputs: outputs, sel: sel, kb: kb, log: logger, onFinalize: onFinalize,
	}
}

func asSender(r cache.Resource) *resource.Resource {
	if r == nil {
		return nil
	}
	s, _ := r.(*resource.Resource)
	return s
}

// OnSurfaceFrame drains the surface's buffer-release and queued frame
// callbacks in FIFO order (§4.4 "Frame refresh", I4).
func (g *Gateway) OnSurfaceFrame(sid cache.SurfaceID, timestampMs uint32) {
	g.cache.Lock()
	rec, ok := g.cache.FindSurfaceLocked(sid)
	if !ok {
		g.cache.Unlock()
		return
	}
	var release *resource.Resource
	if rec.Buffer != nil {
		release = asSender(rec.Buffer)
		rec.Buffer = nil
	}
	callbacks := make([]*resource.Resource, 0, len(rec.FrameCallback))
	for _, cb := range rec.FrameCallback {
		if s := asSender(cb); s != nil {
			callbacks = append(callbacks, s)
		}
	}
	rec.FrameCallback = nil
	g.cache.Unlock()

	if release != nil {
		if err := release.Send(protocol.BufferEventRelease, wire.NewBuilder()); err != nil {
			g.log.Warn("buffer release send failed", "surface", sid, "err", err)
		}
	}
	for _, cb := range callbacks {
		if err := cb.Send(protocol.CallbackEventDone, wire.NewBuilder().PutUint32(timestampMs)); err != nil {
			g.log.Warn("frame callback done send failed", "surface", sid, "err", err)
		}
	}
}

// OnKeyboardFocusChanged implements the leave/enter/selection sequence
// from §4.4 and reconfigures both surfaces' activated state.
func (g *Gateway) OnKeyboardFocusChanged(oldSid cache.SurfaceID, oldSize geometry.Size, oldFlags coordinator.StateFlags,
	newSid cache.SurfaceID, newSize geometry.Size, newFlags coordinator.StateFlags) {

	_, oldClient, oldOK := g.lockedClientFor(oldSid)
	_, newClient, newOK := g.lockedClientFor(newSid)

	if !oldOK || !newOK || oldClient != newClient {
		if oldOK {
			g.emitKeyboardLeaveEnter(oldClient, cache.NoSurface, false)
		}
		g.focus.SetKeyboard(newSid)
		if newOK {
			g.emitKeyboardLeaveEnter(newClient, newSid, true)
			g.SendSelection()
		}
	}

	g.OnSurfaceReconfigured(oldSid, oldSize, oldFlags)
	g.OnSurfaceReconfigured(newSid, newSize, newFlags)
}

func (g *Gateway) lockedClientFor(sid cache.SurfaceID) (cache.Resource, cache.ClientID, bool) {
	if sid == cache.NoSurface {
		return nil, 0, false
	}
	g.cache.Lock()
	defer g.cache.Unlock()
	return g.cache.ResourceAndClientForLocked(sid)
}

func (g *Gateway) emitKeyboardLeaveEnter(client cache.ClientID, sid cache.SurfaceID, enter bool) {
	g.cache.Lock()
	resources := g.cache.ResourcesOfLocked(cache.CategoryKeyboard)
	matching := make([]*resource.Resource, 0, len(resources))
	for _, r := range resources {
		if r.Client() == client {
			if s := asSender(r); s != nil {
				matching = append(matching, s)
			}
		}
	}
	g.cache.Unlock()

	serial := g.serials.NextSerial()
	for _, r := range matching {
		if enter {
			if err := r.Send(protocol.KeyboardEventEnter,
				wire.NewBuilder().PutUint32(serial).PutObject(wire.ObjectID(sid)).PutArray(nil)); err != nil {
				g.log.Warn("keyboard enter send failed", "err", err)
			}
		} else {
			if err := r.Send(protocol.KeyboardEventLeave,
				wire.NewBuilder().PutUint32(serial).PutObject(wire.ObjectID(sid))); err != nil {
				g.log.Warn("keyboard leave send failed", "err", err)
			}
		}
	}
}

// EmitLateKeyboardEnter sends enter to a single keyboard resource that
// bound after its client already held keyboard focus (S5), using the
// then-current serial, with no leave ever having been sent for it.
func (g *Gateway) EmitLateKeyboardEnter(r cache.Resource, sid cache.SurfaceID) {
	s := asSender(r)
	if s == nil {
		return
	}
	serial := g.serials.NextSerial()
	if err := s.Send(protocol.KeyboardEventEnter,
		wire.NewBuilder().PutUint32(serial).PutObject(wire.ObjectID(sid)).PutArray(nil)); err != nil {
		g.log.Warn("late keyboard enter send failed", "err", err)
	}
}

// OnKeyboardEvent forwards one key press/release to the focused
// client's keyboard resources, followed by a modifiers event if the
// quadruple changed (§4.4 Key event).
func (g *Gateway) OnKeyboardEvent(timeMs uint32, keycode uint32, state coordinator.KeyState) {
	sid := g.focus.Keyboard()
	if sid == cache.NoSurface {
		return
	}

	var before xkbstate.Modifiers
	if g.kb != nil {
		before = g.kb.Modifiers()
		dir := xkbstate.KeyUp
		if state == coordinator.KeyStatePressed {
			dir = xkbstate.KeyDown
		}
		g.kb.UpdateKey(keycode, dir)
	}
	after := before
	if g.kb != nil {
		after = g.kb.Modifiers()
	}
	changed := before != after

	_, client, ok := g.lockedClientFor(sid)
	if !ok {
		return
	}

	g.cache.Lock()
	resources := g.cache.ResourcesOfLocked(cache.CategoryKeyboard)
	matching := make([]*resource.Resource, 0, len(resources))
	for _, r := range resources {
		if r.Client() == client {
			if s := asSender(r); s != nil {
				matching = append(matching, s)
			}
		}
	}
	g.cache.Unlock()

	for _, r := range matching {
		serial := g.serials.NextSerial()
		if err := r.Send(protocol.KeyboardEventKey,
			wire.NewBuilder().PutUint32(serial).PutUint32(timeMs).PutUint32(keycode).PutUint32(uint32(state))); err != nil {
			g.log.Warn("key send failed", "err", err)
			continue
		}
		if changed {
			if err := r.Send(protocol.KeyboardEventModifiers,
				wire.NewBuilder().PutUint32(serial).PutUint32(after.Depressed).PutUint32(after.Latched).
					PutUint32(after.Locked).PutUint32(after.Group)); err != nil {
				g.log.Warn("modifiers send failed", "err", err)
			}
		}
	}
}

// OnPointerFocusChanged mirrors the keyboard focus leave/enter pattern,
// carrying the pointer position in surface-local fixed-point coordinates.
func (g *Gateway) OnPointerFocusChanged(sid cache.SurfaceID, pos geometry.Position) {
	old := g.focus.Pointer()
	_, oldClient, oldOK := g.lockedClientFor(old)
	_, newClient, newOK := g.lockedClientFor(sid)

	if oldOK && (!newOK || oldClient != newClient) {
		g.emitPointerLeaveEnter(oldClient, cache.NoSurface, pos, false)
	}
	g.focus.SetPointer(sid)
	if newOK && (!oldOK || oldClient != newClient) {
		g.emitPointerLeaveEnter(newClient, sid, pos, true)
	}
}

func (g *Gateway) emitPointerLeaveEnter(client cache.ClientID, sid cache.SurfaceID, pos geometry.Position, enter bool) {
	g.cache.Lock()
	resources := g.cache.ResourcesOfLocked(cache.CategoryPointer)
	matching := make([]*resource.Resource, 0, len(resources))
	for _, r := range resources {
		if r.Client() == client {
			if s := asSender(r); s != nil {
				matching = append(matching, s)
			}
		}
	}
	g.cache.Unlock()

	serial := g.serials.NextSerial()
	for _, r := range matching {
		if enter {
			if err := r.Send(protocol.PointerEventEnter,
				wire.NewBuilder().PutUint32(serial).PutObject(wire.ObjectID(sid)).
					PutFixed(wire.FixedFromInt(pos.X)).PutFixed(wire.FixedFromInt(pos.Y))); err != nil {
				g.log.Warn("pointer enter send failed", "err", err)
			}
		} else {
			if err := r.Send(protocol.PointerEventLeave,
				wire.NewBuilder().PutUint32(serial).PutObject(wire.ObjectID(sid))); err != nil {
				g.log.Warn("pointer leave send failed", "err", err)
			}
		}
	}
}

func (g *Gateway) pointerResourcesOfFocusedClient() []*resource.Resource {
	sid := g.focus.Pointer()
	_, client, ok := g.lockedClientFor(sid)
	if !ok {
		return nil
	}
	g.cache.Lock()
	defer g.cache.Unlock()
	resources := g.cache.ResourcesOfLocked(cache.CategoryPointer)
	matching := make([]*resource.Resource, 0, len(resources))
	for _, r := range resources {
		if r.Client() == client {
			if s := asSender(r); s != nil {
				matching = append(matching, s)
			}
		}
	}
	return matching
}

// OnPointerRelativeMotion forwards pointer motion to the focused
// client's pointer resources.
func (g *Gateway) OnPointerRelativeMotion(sid cache.SurfaceID, pos geometry.Position) {
	for _, r := range g.pointerResourcesOfFocusedClient() {
		if err := r.Send(protocol.PointerEventMotion,
			wire.NewBuilder().PutUint32(0).PutFixed(wire.FixedFromInt(pos.X)).PutFixed(wire.FixedFromInt(pos.Y))); err != nil {
			g.log.Warn("pointer motion send failed", "err", err)
		}
	}
}

// OnPointerButton forwards a button press/release.
func (g *Gateway) OnPointerButton(timeMs uint32, code uint32, state coordinator.ButtonState) {
	for _, r := range g.pointerResourcesOfFocusedClient() {
		serial := g.serials.NextSerial()
		if err := r.Send(protocol.PointerEventButton,
			wire.NewBuilder().PutUint32(serial).PutUint32(timeMs).PutUint32(code).PutUint32(uint32(state))); err != nil {
			g.log.Warn("pointer button send failed", "err", err)
		}
	}
}

// OnPointerAxis forwards a scroll event. Per axis direction it emits
// axis_discrete first (if provided) then either axis or axis_stop
// (§4.4 Pointer motion/button/axis).
func (g *Gateway) OnPointerAxis(horizontal, vertical float64, hDiscrete, vDiscrete int32) {
	resources := g.pointerResourcesOfFocusedClient()
	emitAxis := func(axis uint32, value float64, discrete int32) {
		for _, r := range resources {
			if discrete != 0 {
				if err := r.Send(protocol.PointerEventAxisDiscrete,
					wire.NewBuilder().PutUint32(axis).PutInt32(discrete)); err != nil {
					g.log.Warn("axis discrete send failed", "err", err)
				}
			}
			if value != 0 {
				if err := r.Send(protocol.PointerEventAxis,
					wire.NewBuilder().PutUint32(0).PutUint32(axis).PutFixed(wire.FixedFromFloat(value))); err != nil {
					g.log.Warn("axis send failed", "err", err)
				}
			} else {
				if err := r.Send(protocol.PointerEventAxisStop,
					wire.NewBuilder().PutUint32(0).PutUint32(axis)); err != nil {
					g.log.Warn("axis stop send failed", "err", err)
				}
			}
		}
	}
	emitAxis(protocol.PointerAxisHorizontalScroll, horizontal, hDiscrete)
	emitAxis(protocol.PointerAxisVerticalScroll, vertical, vDiscrete)
}

// OnSurfaceReconfigured emits wl_shell_surface.configure when the
// surface has a wl-shell resource, else xdg_surface.configure when it
// has an xdg-shell resource; wl-shell wins if both are present (§9).
func (g *Gateway) OnSurfaceReconfigured(sid cache.SurfaceID, size geometry.Size, flags coordinator.StateFlags) {
	if sid == cache.NoSurface {
		return
	}

	g.cache.Lock()
	rec, ok := g.cache.FindSurfaceLocked(sid)
	var shellSurface, xdgSurface, xdgToplevel *resource.Resource
	if ok {
		shellSurface = asSender(rec.ShellSurface)
		xdgSurface = asSender(rec.XdgSurface)
		xdgToplevel = asSender(rec.XdgToplevel)
	}
	g.cache.Unlock()
	if !ok {
		return
	}

	if shellSurface != nil {
		if err := shellSurface.Send(protocol.ShellSurfaceEventConfigure,
			wire.NewBuilder().PutUint32(0).PutInt32(size.Width).PutInt32(size.Height)); err != nil {
			g.log.Warn("shell_surface configure send failed", "surface", sid, "err", err)
		}
		return
	}
	if xdgSurface == nil {
		return
	}

	var states []byte
	if flags&coordinator.StateMaximized != 0 {
		states = append(states, encodeUint32(protocol.XdgToplevelStateMaximized)...)
	}
	if flags&coordinator.StateFullscreen != 0 {
		states = append(states, encodeUint32(protocol.XdgToplevelStateFullscreen)...)
	}
	if sid == g.focus.Keyboard() {
		states = append(states, encodeUint32(protocol.XdgToplevelStateActivated)...)
	}

	if xdgToplevel != nil {
		if err := xdgToplevel.Send(protocol.XdgToplevelEventConfigure,
			wire.NewBuilder().PutInt32(size.Width).PutInt32(size.Height).PutArray(states)); err != nil {
			g.log.Warn("xdg_toplevel configure send failed", "surface", sid, "err", err)
		}
	}

	serial := g.serials.NextSerial()
	if err := xdgSurface.Send(protocol.XdgSurfaceEventConfigure, wire.NewBuilder().PutUint32(serial)); err != nil {
		g.log.Warn("xdg_surface configure send failed", "surface", sid, "err", err)
	}
}

func encodeUint32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// SendSelection implements §4.4 "Send selection": replays the current
// transfer's MIME list to every data-device resource of the currently
// keyboard-focused client via a freshly bound data-offer.
func (g *Gateway) SendSelection() {
	if g.sel == nil {
		return
	}
	t := g.sel.Current()
	if t == nil {
		return
	}

	sid := g.focus.Keyboard()
	_, client, ok := g.lockedClientFor(sid)
	if !ok {
		return
	}

	g.cache.Lock()
	resources := g.cache.ResourcesOfLocked(cache.CategoryDataDevice)
	devices := make([]cache.Resource, 0, len(resources))
	for _, r := range resources {
		if r.Client() == client {
			devices = append(devices, r)
		}
	}
	g.cache.Unlock()

	for _, device := range devices {
		offer, err := g.offers.BindDataOffer(device)
		if err != nil {
			g.log.Warn("bind data offer failed", "err", err)
			continue
		}
		if err := device.(*resource.Resource).Send(protocol.DataDeviceEventDataOffer,
			wire.NewBuilder().PutNewID(offer.ObjectID())); err != nil {
			g.log.Warn("data_offer announce send failed", "err", err)
			continue
		}
		for _, mime := range t.Mimes {
			if err := offer.Send(protocol.DataOfferEventOffer, wire.NewBuilder().PutString(mime)); err != nil {
				g.log.Warn("data_offer.offer send failed", "err", err)
			}
		}
		if err := offer.Send(protocol.DataOfferEventAction, wire.NewBuilder().PutUint32(protocol.DataDeviceActionCopy)); err != nil {
			g.log.Warn("data_offer.action send failed", "err", err)
		}
		if err := device.(*resource.Resource).Send(protocol.DataDeviceEventSelection,
			wire.NewBuilder().PutObject(offer.ObjectID())); err != nil {
			g.log.Warn("data_device.selection send failed", "err", err)
		}
	}
}

// OnOutputFound and OnOutputLost forward to the engine's global
// advertisement (§6: these are engine concerns, routed through the
// gateway since it is the coordinator's only callback surface).
func (g *Gateway) OnOutputFound(output coordinator.OutputName) {
	if g.outputs != nil {
		g.outputs.AdvertiseOutput(output)
	}
}

func (g *Gateway) OnOutputLost(output coordinator.OutputName) {
	if g.outputs != nil {
		g.outputs.DestroyOutput(output)
	}
}

// Finalize runs the engine's shutdown hook, if any.
func (g *Gateway) Finalize() {
	if g.onFinalize != nil {
		g.onFinalize()
	}
}
