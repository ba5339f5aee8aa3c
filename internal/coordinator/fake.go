package coordinator

import (
	"sync"

	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/geometry"
)

// Call records one method invocation against Fake, in order.
type Call struct {
	Method string
	Args   []any
}

// Fake is an in-memory Coordinator that records every call it
// receives, for use by facade and gateway tests. It is not a mock in
// the assertion-library sense; tests inspect Calls and NextSurfaceID
// directly, matching the teacher's preference for plain stdlib
// testing over a mocking framework.
type Fake struct {
	mu sync.Mutex

	Calls []Call

	NextSurfaceID cache.SurfaceID
	Outputs       map[OutputName]geometry.Rectangle
	PhysicalSizes map[OutputName]geometry.Size

	// CaptureContent, when non-nil, is copied into the caller's buffer
	// by CaptureOutput; leaving it nil simulates a coordinator that
	// cannot rasterize yet.
	CaptureContent []byte
}

// NewFake returns a Fake ready for use; surface ids it hands out start at 1.
func NewFake() *Fake {
	return &Fake{
		NextSurfaceID: 1,
		Outputs:       make(map[OutputName]geometry.Rectangle),
		PhysicalSizes: make(map[OutputName]geometry.Size),
	}
}

func (f *Fake) record(method string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Method: method, Args: args})
}

func (f *Fake) SurfaceCreate() cache.SurfaceID {
	f.mu.Lock()
	id := f.NextSurfaceID
	f.NextSurfaceID++
	f.mu.Unlock()
	f.record("SurfaceCreate")
	return id
}

func (f *Fake) SurfaceDestroy(sid cache.SurfaceID) { f.record("SurfaceDestroy", sid) }
func (f *Fake) SurfaceCommit(sid cache.SurfaceID)  { f.record("SurfaceCommit", sid) }
func (f *Fake) SurfaceShow(sid cache.SurfaceID, reason ShowReason) {
	f.record("SurfaceShow", sid, reason)
}
func (f *Fake) SurfaceAttach(sid cache.SurfaceID, size geometry.Size, stride int32, data []byte, buffer cache.Resource) {
	f.record("SurfaceAttach", sid, size, stride, data, buffer)
}
func (f *Fake) SurfaceSetAsCursor(sid cache.SurfaceID) { f.record("SurfaceSetAsCursor", sid) }
func (f *Fake) SurfaceSetOffset(sid cache.SurfaceID, pos geometry.Position) {
	f.record("SurfaceSetOffset", sid, pos)
}
func (f *Fake) SurfaceSetRequestedSize(sid cache.SurfaceID, size geometry.Size) {
	f.record("SurfaceSetRequestedSize", sid, size)
}
func (f *Fake) SurfaceResetOffsetAndRequestedSize(sid cache.SurfaceID) {
	f.record("SurfaceResetOffsetAndRequestedSize", sid)
}
func (f *Fake) SurfaceSetRelativePosition(sid cache.SurfaceID, pos geometry.Position) {
	f.record("SurfaceSetRelativePosition", sid, pos)
}
func (f *Fake) SurfaceRelate(sid, parent cache.SurfaceID) { f.record("SurfaceRelate", sid, parent) }
func (f *Fake) SurfaceReorder(sid, sibling cache.SurfaceID, above bool) {
	f.record("SurfaceReorder", sid, sibling, above)
}

func (f *Fake) OutputGetName(output OutputName) string {
	f.record("OutputGetName", output)
	return string(output)
}
func (f *Fake) OutputGetArea(output OutputName) geometry.Rectangle {
	f.record("OutputGetArea", output)
	return f.Outputs[output]
}
func (f *Fake) OutputGetPhysicalSize(output OutputName) geometry.Size {
	f.record("OutputGetPhysicalSize", output)
	return f.PhysicalSizes[output]
}

func (f *Fake) CaptureOutput(output OutputName, into []byte) bool {
	f.record("CaptureOutput", output, len(into))
	if f.CaptureContent == nil {
		return false
	}
	n := copy(into, f.CaptureContent)
	return n == len(into)
}
