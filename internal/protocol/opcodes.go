// Package protocol implements the bind/dispatch/unbind handlers for
// every Wayland interface the frontend serves (§4.5), plus the shared
// opcode tables both the handlers and the gateway encode against.
package protocol

import "github.com/noiawl/frontend/internal/wire"

// wl_callback events.
const (
	CallbackEventDone wire.Opcode = 0 // done(callback_data: uint)
)

// wl_buffer events.
const (
	BufferEventRelease wire.Opcode = 0 // release()
)

// wl_surface requests.
const (
	SurfaceDestroy        wire.Opcode = 0
	SurfaceAttach         wire.Opcode = 1
	SurfaceDamage         wire.Opcode = 2
	SurfaceFrame          wire.Opcode = 3
	SurfaceSetOpaqueRegion wire.Opcode = 4
	SurfaceSetInputRegion  wire.Opcode = 5
	SurfaceCommit          wire.Opcode = 6
)

// wl_compositor requests.
const (
	CompositorCreateSurface wire.Opcode = 0
	CompositorCreateRegion  wire.Opcode = 1
)

// wl_subcompositor requests.
const (
	SubcompositorDestroy      wire.Opcode = 0
	SubcompositorGetSubsurface wire.Opcode = 1
)

// wl_subsurface requests.
const (
	SubsurfaceDestroy     wire.Opcode = 0
	SubsurfaceSetPosition wire.Opcode = 1
	SubsurfacePlaceAbove  wire.Opcode = 2
	SubsurfacePlaceBelow  wire.Opcode = 3
	SubsurfaceSetSync     wire.Opcode = 4
	SubsurfaceSetDesync   wire.Opcode = 5
)

// wl_region requests.
const (
	RegionDestroy  wire.Opcode = 0
	RegionAdd      wire.Opcode = 1
	RegionSubtract wire.Opcode = 2
)

// wl_shell requests.
const (
	ShellGetShellSurface wire.Opcode = 0
)

// wl_shell_surface requests and events.
const (
	ShellSurfacePong        wire.Opcode = 0
	ShellSurfaceMove        wire.Opcode = 1
	ShellSurfaceResize      wire.Opcode = 2
	ShellSurfaceSetToplevel wire.Opcode = 3
	ShellSurfaceSetFullscreen wire.Opcode = 5
	ShellSurfaceSetMaximized  wire.Opcode = 7

	ShellSurfaceEventConfigure wire.Opcode = 1 // configure(edges, width, height)
)

// xdg_shell (xdg_wm_base) requests and events.
const (
	XdgWmBaseDestroy          wire.Opcode = 0
	XdgWmBaseCreatePositioner wire.Opcode = 1
	XdgWmBaseGetXdgSurface    wire.Opcode = 2
	XdgWmBasePong             wire.Opcode = 3
)

// xdg_surface requests and events.
const (
	XdgSurfaceDestroy           wire.Opcode = 0
	XdgSurfaceGetToplevel       wire.Opcode = 1
	XdgSurfaceGetPopup          wire.Opcode = 2
	XdgSurfaceSetWindowGeometry wire.Opcode = 3
	XdgSurfaceAckConfigure      wire.Opcode = 4

	XdgSurfaceEventConfigure wire.Opcode = 0 // configure(serial)
)

// xdg_toplevel state flags, as carried on the configure states array.
const (
	XdgToplevelStateMaximized uint32 = 1
	XdgToplevelStateFullscreen uint32 = 2
	XdgToplevelStateResizing   uint32 = 3
	XdgToplevelStateActivated  uint32 = 4
)

// xdg_toplevel requests.
const (
	XdgToplevelDestroy         wire.Opcode = 0
	XdgToplevelSetParent       wire.Opcode = 1
	XdgToplevelSetTitle        wire.Opcode = 2
	XdgToplevelSetAppID        wire.Opcode = 3
	XdgToplevelShowWindowMenu  wire.Opcode = 4
	XdgToplevelMove            wire.Opcode = 5
	XdgToplevelResize          wire.Opcode = 6
	XdgToplevelSetMaxSize      wire.Opcode = 7
	XdgToplevelSetMinSize      wire.Opcode = 8
	XdgToplevelSetMaximized    wire.Opcode = 9
	XdgToplevelUnsetMaximized  wire.Opcode = 10
	XdgToplevelSetFullscreen   wire.Opcode = 11
	XdgToplevelUnsetFullscreen wire.Opcode = 12
	XdgToplevelSetMinimized    wire.Opcode = 13
)

const (
	XdgToplevelEventConfigure wire.Opcode = 0
	XdgToplevelEventClose     wire.Opcode = 1
)

// xdg_popup requests and events.
const (
	XdgPopupDestroy wire.Opcode = 0
	XdgPopupGrab    wire.Opcode = 1

	XdgPopupEventConfigure wire.Opcode = 0
	XdgPopupEventPopupDone wire.Opcode = 1
)

// wl_seat capabilities and events.
const (
	SeatCapabilityPointer  uint32 = 1
	SeatCapabilityKeyboard uint32 = 2
)

const (
	SeatEventCapabilities wire.Opcode = 0
	SeatEventName         wire.Opcode = 1
)

const (
	SeatGetPointer  wire.Opcode = 0
	SeatGetKeyboard wire.Opcode = 1
)

// wl_keyboard requests and events.
const (
	KeyboardRelease wire.Opcode = 0
)

const (
	KeyboardEventKeymap     wire.Opcode = 0
	KeyboardEventEnter      wire.Opcode = 1
	KeyboardEventLeave      wire.Opcode = 2
	KeyboardEventKey        wire.Opcode = 3
	KeyboardEventModifiers  wire.Opcode = 4
	KeyboardEventRepeatInfo wire.Opcode = 5
)

const (
	KeyboardKeymapFormatXkbV1 uint32 = 1
)

// wl_pointer requests and events.
const (
	PointerSetCursor wire.Opcode = 0
	PointerRelease   wire.Opcode = 1
)

const (
	PointerEventEnter         wire.Opcode = 0
	PointerEventLeave         wire.Opcode = 1
	PointerEventMotion        wire.Opcode = 2
	PointerEventButton        wire.Opcode = 3
	PointerEventAxis          wire.Opcode = 4
	PointerEventAxisStop      wire.Opcode = 7
	PointerEventAxisDiscrete  wire.Opcode = 8
)

const (
	PointerAxisHorizontalScroll uint32 = 0
	PointerAxisVerticalScroll   uint32 = 1
)

// wl_output events.
const (
	OutputEventGeometry wire.Opcode = 0
	OutputEventMode     wire.Opcode = 1
	OutputEventDone     wire.Opcode = 2
	OutputEventScale    wire.Opcode = 3
)

const (
	OutputModeCurrent uint32 = 0x1
)

// wl_data_device_manager requests.
const (
	DataDeviceManagerCreateDataSource wire.Opcode = 0
	DataDeviceManagerGetDataDevice    wire.Opcode = 1
)

// wl_data_device requests and events.
const (
	DataDeviceStartDrag  wire.Opcode = 0
	DataDeviceSetSelection wire.Opcode = 1
	DataDeviceRelease      wire.Opcode = 2
)

const (
	DataDeviceEventDataOffer wire.Opcode = 0
	DataDeviceEventSelection wire.Opcode = 5
)

// wl_data_source requests and events.
const (
	DataSourceOffer   wire.Opcode = 0
	DataSourceDestroy wire.Opcode = 1

	DataSourceEventTarget        wire.Opcode = 0
	DataSourceEventSend          wire.Opcode = 1
	DataSourceEventCancelled     wire.Opcode = 2
)

// wl_data_offer requests and events.
const (
	DataOfferAccept  wire.Opcode = 0
	DataOfferReceive wire.Opcode = 1
	DataOfferDestroy wire.Opcode = 2

	DataOfferEventOffer  wire.Opcode = 0
	DataOfferEventAction wire.Opcode = 2
)

// wl_data_device_manager.dnd_action / data_offer.action values; only
// COPY is implemented (§9).
const (
	DataDeviceActionCopy uint32 = 1
)

// screenshooter (non-standard) requests.
const (
	ScreenshooterShoot wire.Opcode = 0
)
