//go:build cgo && linux

// Package xkbstate wraps libxkbcommon to track keyboard modifier state
// and to produce the serialized keymap the engine hands to newly bound
// wl_keyboard resources (§4.6, keymap handoff in §6).
package xkbstate

/*
#cgo pkg-config: xkbcommon
#include <xkbcommon/xkbcommon.h>
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// KeymapFormat is the wl_keyboard.keymap_format value sent alongside
// the keymap fd; the frontend only ever produces the text v1 format.
const KeymapFormat = 1 // WL_KEYBOARD_KEYMAP_FORMAT_XKB_V1

// Modifiers is the depressed/latched/locked/group quadruple xkb
// tracks, reported to the gateway so it can detect modifier changes
// across a key event (§4.4 Key event).
type Modifiers struct {
	Depressed uint32
	Latched   uint32
	Locked    uint32
	Group     uint32
}

// Direction mirrors xkb_key_direction.
type Direction int

const (
	KeyUp   Direction = 0
	KeyDown Direction = 1
)

// ErrKeymapUnavailable is returned when the context or keymap could
// not be compiled, e.g. a missing xkbcommon data files installation.
var ErrKeymapUnavailable = errors.New("xkbstate: keymap unavailable")

// State is one xkb context/keymap/state triple. It is not safe for
// concurrent use; the gateway serializes key events through a single
// call site per keyboard focus epoch.
type State struct {
	ctx    *C.struct_xkb_context
	keymap *C.struct_xkb_keymap
	state  *C.struct_xkb_state

	keymapString string
}

// New compiles a keymap from rules/model/layout (defaulting to
// "evdev"/"evdev"/"us" when empty, per §4.6) and creates xkb state for it.
func New(rules, model, layout string) (*State, error) {
	if rules == "" {
		rules = "evdev"
	}
	if model == "" {
		model = "evdev"
	}
	if layout == "" {
		layout = "us"
	}

	ctx := C.xkb_context_new(C.XKB_CONTEXT_NO_FLAGS)
	if ctx == nil {
		return nil, ErrKeymapUnavailable
	}

	cRules := C.CString(rules)
	cModel := C.CString(model)
	cLayout := C.CString(layout)
	defer C.free(unsafe.Pointer(cRules))
	defer C.free(unsafe.Pointer(cModel))
	defer C.free(unsafe.Pointer(cLayout))

	var names C.struct_xkb_rule_names
	names.rules = cRules
	names.model = cModel
	names.layout = cLayout

	keymap := C.xkb_keymap_new_from_names(ctx, &names, C.XKB_KEYMAP_COMPILE_NO_FLAGS)
	if keymap == nil {
		C.xkb_context_unref(ctx)
		return nil, ErrKeymapUnavailable
	}

	state := C.xkb_state_new(keymap)
	if state == nil {
		C.xkb_keymap_unref(keymap)
		C.xkb_context_unref(ctx)
		return nil, ErrKeymapUnavailable
	}

	cStr := C.xkb_keymap_get_as_string(keymap, C.XKB_KEYMAP_FORMAT_TEXT_V1)
	if cStr == nil {
		C.xkb_state_unref(state)
		C.xkb_keymap_unref(keymap)
		C.xkb_context_unref(ctx)
		return nil, ErrKeymapUnavailable
	}
	keymapString := C.GoString(cStr)
	C.free(unsafe.Pointer(cStr))

	return &State{ctx: ctx, keymap: keymap, state: state, keymapString: keymapString}, nil
}

// Close releases the underlying xkb objects.
func (s *State) Close() {
	if s == nil {
		return
	}
	C.xkb_state_unref(s.state)
	C.xkb_keymap_unref(s.keymap)
	C.xkb_context_unref(s.ctx)
}

// UpdateKey feeds one key press/release into the xkb state. keycode is
// the evdev code as it arrives over the wire; xkb expects it offset by
// 8 (§4.6), which this method applies.
func (s *State) UpdateKey(evdevKeycode uint32, dir Direction) {
	C.xkb_state_update_key(s.state, C.xkb_keycode_t(evdevKeycode+8), C.enum_xkb_key_direction(dir))
}

// Modifiers returns the current modifier quadruple.
func (s *State) Modifiers() Modifiers {
	return Modifiers{
		Depressed: uint32(C.xkb_state_serialize_mods(s.state, C.XKB_STATE_MODS_DEPRESSED)),
		Latched:   uint32(C.xkb_state_serialize_mods(s.state, C.XKB_STATE_MODS_LATCHED)),
		Locked:    uint32(C.xkb_state_serialize_mods(s.state, C.XKB_STATE_MODS_LOCKED)),
		Group:     uint32(C.xkb_state_serialize_layout(s.state, C.XKB_STATE_LAYOUT_EFFECTIVE)),
	}
}

// KeymapFD writes the compiled keymap string to a sealed memfd and
// returns (fd, size) ready for handoff on wl_keyboard.keymap (§6).
// The caller owns the returned fd and must close it once sent.
func (s *State) KeymapFD() (fd int, size uint32, err error) {
	data := []byte(s.keymapString)
	data = append(data, 0) // NUL-terminated, as libwayland expects

	memfd, err := unix.MemfdCreate("noia-keymap", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return -1, 0, fmt.Errorf("xkbstate: memfd_create failed: %w", err)
	}

	if err := unix.Ftruncate(memfd, int64(len(data))); err != nil {
		unix.Close(memfd)
		return -1, 0, fmt.Errorf("xkbstate: ftruncate failed: %w", err)
	}

	mapped, err := unix.Mmap(memfd, 0, len(data), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(memfd)
		return -1, 0, fmt.Errorf("xkbstate: mmap failed: %w", err)
	}
	copy(mapped, data)
	_ = unix.Munmap(mapped)

	_, _ = unix.FcntlInt(uintptr(memfd), unix.F_ADD_SEALS,
		unix.F_SEAL_SHRINK|unix.F_SEAL_GROW|unix.F_SEAL_SEAL)

	return memfd, uint32(len(data)), nil
}
