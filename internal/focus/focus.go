// Package focus holds the keyboard/pointer focused-surface identifiers.
// These live outside the cache (§3: "part of the Wayland state rather
// than the cache") but are read and written by both the facade and the
// gateway, so they get their own small, lock-protected home.
package focus

import (
	"sync"

	"github.com/noiawl/frontend/internal/cache"
)

// Tracker holds the current keyboard- and pointer-focused surface.
type Tracker struct {
	mu       sync.Mutex
	keyboard cache.SurfaceID
	pointer  cache.SurfaceID
}

// New returns a Tracker with no surface focused.
func New() *Tracker {
	return &Tracker{keyboard: cache.NoSurface, pointer: cache.NoSurface}
}

func (t *Tracker) Keyboard() cache.SurfaceID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.keyboard
}

func (t *Tracker) SetKeyboard(sid cache.SurfaceID) {
	t.mu.Lock()
	t.keyboard = sid
	t.mu.Unlock()
}

func (t *Tracker) Pointer() cache.SurfaceID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pointer
}

func (t *Tracker) SetPointer(sid cache.SurfaceID) {
	t.mu.Lock()
	t.pointer = sid
	t.mu.Unlock()
}
