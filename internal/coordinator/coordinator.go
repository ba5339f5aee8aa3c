// Package coordinator declares the small, explicit interfaces the
// frontend uses to talk to the compositor core: the consumed
// interface (facade calls into the coordinator to mutate compositor
// state) and the provided interface (the coordinator calls back into
// the gateway to report focus, input and frame events). Only the
// contracts live here; the coordinator itself, and its surface store,
// framing tree and renderer, are out of scope (§1).
package coordinator

import (
	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/geometry"
)

// OutputName identifies an output the way the coordinator names it
// (e.g. "eDP-1"); the frontend treats it as an opaque key.
type OutputName string

// ShowReason explains why a surface transitioned to showable.
type ShowReason int

const (
	ShowReasonMapped ShowReason = iota
	ShowReasonRemapped
)

// StateFlags is the bitmask of toplevel state carried on reconfigure.
type StateFlags uint32

const (
	StateMaximized StateFlags = 1 << iota
	StateActivated
	StateFullscreen
)

// KeyState mirrors the wl_keyboard.key_state enum.
type KeyState uint32

const (
	KeyStateReleased KeyState = 0
	KeyStatePressed  KeyState = 1
)

// ButtonState mirrors the wl_pointer.button_state enum.
type ButtonState uint32

const (
	ButtonStateReleased ButtonState = 0
	ButtonStatePressed  ButtonState = 1
)

// Coordinator is the consumed interface (§6): every mutation the
// facade performs on compositor state after a client request.
type Coordinator interface {
	SurfaceCreate() cache.SurfaceID
	SurfaceDestroy(sid cache.SurfaceID)
	SurfaceCommit(sid cache.SurfaceID)
	SurfaceShow(sid cache.SurfaceID, reason ShowReason)
	SurfaceAttach(sid cache.SurfaceID, size geometry.Size, stride int32, data []byte, buffer cache.Resource)
	SurfaceSetAsCursor(sid cache.SurfaceID)
	SurfaceSetOffset(sid cache.SurfaceID, pos geometry.Position)
	SurfaceSetRequestedSize(sid cache.SurfaceID, size geometry.Size)
	SurfaceResetOffsetAndRequestedSize(sid cache.SurfaceID)
	SurfaceSetRelativePosition(sid cache.SurfaceID, pos geometry.Position)
	SurfaceRelate(sid, parent cache.SurfaceID)
	SurfaceReorder(sid, sibling cache.SurfaceID, above bool)

	OutputGetName(output OutputName) string
	OutputGetArea(output OutputName) geometry.Rectangle
	OutputGetPhysicalSize(output OutputName) geometry.Size

	// CaptureOutput copies output's current content into an
	// already-sized pixel buffer (argb8888, row-major, no stride
	// padding). It is additive scope (§9 names screenshooter a future
	// feature); a coordinator that cannot rasterize returns false.
	CaptureOutput(output OutputName, into []byte) bool
}

// Notifications is the provided-back interface (§6): everything the
// coordinator calls to push an event toward the gateway. The gateway
// is the concrete implementation.
type Notifications interface {
	OnSurfaceFrame(sid cache.SurfaceID, timestampMs uint32)

	OnKeyboardFocusChanged(oldSid cache.SurfaceID, oldSize geometry.Size, oldFlags StateFlags,
		newSid cache.SurfaceID, newSize geometry.Size, newFlags StateFlags)
	OnPointerFocusChanged(sid cache.SurfaceID, pos geometry.Position)

	OnKeyboardEvent(timeMs uint32, keycode uint32, state KeyState)
	OnPointerRelativeMotion(sid cache.SurfaceID, pos geometry.Position)
	OnPointerButton(timeMs uint32, code uint32, state ButtonState)
	OnPointerAxis(horizontal, vertical float64, horizontalDiscrete, verticalDiscrete int32)

	OnSurfaceReconfigured(sid cache.SurfaceID, size geometry.Size, flags StateFlags)

	OnOutputFound(output OutputName)
	OnOutputLost(output OutputName)

	Finalize()
}
