package protocol

import (
	"github.com/charmbracelet/log"

	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/facade"
	"github.com/noiawl/frontend/internal/geometry"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/wire"
)

// CompositorGlobal binds wl_compositor: create_surface and create_region.
type CompositorGlobal struct {
	client ClientConn
	facade *facade.Facade
	log    *log.Logger
}

func BindCompositor(client ClientConn, id wire.ObjectID, f *facade.Facade, log *log.Logger) {
	client.Register(id, &CompositorGlobal{client: client, facade: f, log: log})
}

func (g *CompositorGlobal) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case CompositorCreateSurface:
		newID, _ := dec.NewID()
		sid := g.facade.CreateSurface()
		res := resource.New(newID, g.client.ID(), g.client.Conn())
		g.facade.AddSurface(sid, res)
		g.client.Register(newID, &SurfaceHandler{client: g.client, res: res, sid: sid, facade: g.facade, log: g.log})
	case CompositorCreateRegion:
		newID, _ := dec.NewID()
		g.client.Register(newID, &RegionHandler{client: g.client, id: newID, facade: g.facade})
	}
	return nil
}

// SurfaceHandler implements wl_surface: attach/damage/frame/commit and
// region assignment, relaying every mutation to exactly one facade call.
type SurfaceHandler struct {
	client ClientConn
	res    *resource.Resource
	sid    cache.SurfaceID
	facade *facade.Facade
	log    *log.Logger
}

func (h *SurfaceHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case SurfaceAttach:
		bufferID, _ := dec.Object()
		x, _ := dec.Int32()
		y, _ := dec.Int32()
		_ = x
		_ = y
		buf := h.lookupBuffer(bufferID)
		var data []byte
		var size geometry.Size
		var stride int32
		if buf != nil {
			data = buf.Pixels()
			size = geometry.Size{Width: buf.width, Height: buf.height}
			stride = buf.stride
		}
		bufRes := resource.New(bufferID, h.client.ID(), h.client.Conn())
		h.facade.SurfaceAttach(h.sid, h.res, bufRes, size, stride, data)
	case SurfaceDamage:
		// Damage tracking beyond ack is a non-goal (§1); request is a no-op.
	case SurfaceFrame:
		newID, _ := dec.NewID()
		cb := resource.New(newID, h.client.ID(), h.client.Conn())
		h.client.Register(newID, &callbackHandler{})
		h.facade.AddFrameCallback(h.sid, cb)
	case SurfaceSetOpaqueRegion:
		// Opaque-region hinting is a rendering concern, out of scope (§1).
	case SurfaceSetInputRegion:
		regionID, _ := dec.Object()
		rid := cache.NoRegion
		if disp, ok := h.client.Lookup(regionID); ok {
			if rh, ok := disp.(*RegionHandler); ok {
				rid = rh.region
			}
		}
		h.facade.SetInputRegion(h.sid, rid)
	case SurfaceCommit:
		h.facade.Commit(h.sid)
	case SurfaceDestroy:
		h.facade.RemoveSurface(h.sid, h.res)
		h.client.Unregister(h.res.ObjectID())
	}
	return nil
}

func (h *SurfaceHandler) lookupBuffer(id wire.ObjectID) *Buffer {
	disp, ok := h.client.Lookup(id)
	if !ok {
		return nil
	}
	buf, _ := disp.(*Buffer)
	return buf
}

// callbackHandler is wl_callback: it has no requests, only the done event.
type callbackHandler struct{}

func (callbackHandler) Dispatch(*wire.Message) error { return nil }

// RegionHandler implements wl_region: add/subtract/destroy.
type RegionHandler struct {
	client ClientConn
	id     wire.ObjectID
	facade *facade.Facade
	region cache.RegionID
}

func (h *RegionHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case RegionAdd:
		x, _ := dec.Int32()
		y, _ := dec.Int32()
		w, _ := dec.Int32()
		ht, _ := dec.Int32()
		h.ensureRegion()
		rect := geometry.Rectangle{Position: geometry.Position{X: x, Y: y}, Size: geometry.Size{Width: w, Height: ht}}
		h.inflate(rect)
	case RegionSubtract:
		// wl_region.subtract is a deliberate no-op (§9): clients cannot
		// currently express concave input regions.
	case RegionDestroy:
		if h.region != cache.NoRegion {
			h.facade.RemoveRegion(h.region)
		}
		h.client.Unregister(h.id)
	}
	return nil
}

func (h *RegionHandler) ensureRegion() {
	if h.region == cache.NoRegion {
		h.region = h.facade.CreateRegion()
	}
}

func (h *RegionHandler) inflate(rect geometry.Rectangle) {
	h.facade.InflateRegion(h.region, rect)
}

// SubcompositorGlobal binds wl_subcompositor: get_subsurface.
type SubcompositorGlobal struct {
	client ClientConn
	id     wire.ObjectID
	facade *facade.Facade
}

func BindSubcompositor(client ClientConn, id wire.ObjectID, f *facade.Facade) {
	client.Register(id, &SubcompositorGlobal{client: client, id: id, facade: f})
}

func (g *SubcompositorGlobal) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case SubcompositorGetSubsurface:
		newID, _ := dec.NewID()
		surfaceID, _ := dec.Object()
		parentID, _ := dec.Object()
		sid := cache.SurfaceID(surfaceID)
		parent := cache.SurfaceID(parentID)
		g.facade.AddSubsurface(sid, parent, geometry.Position{})
		g.client.Register(newID, &SubsurfaceHandler{client: g.client, id: newID, sid: sid, parent: parent, facade: g.facade})
	case SubcompositorDestroy:
		g.client.Unregister(g.id)
	}
	return nil
}

// SubsurfaceHandler implements wl_subsurface: positioning, stacking and
// sync/desync mode.
type SubsurfaceHandler struct {
	client ClientConn
	id     wire.ObjectID
	sid    cache.SurfaceID
	parent cache.SurfaceID
	facade *facade.Facade
}

func (h *SubsurfaceHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case SubsurfaceSetPosition:
		x, _ := dec.Int32()
		y, _ := dec.Int32()
		h.facade.SetSubsurfacePosition(h.sid, geometry.Position{X: x, Y: y})
	case SubsurfacePlaceAbove:
		siblingID, _ := dec.Object()
		h.facade.ReorderSatellites(h.sid, cache.SurfaceID(siblingID), true)
	case SubsurfacePlaceBelow:
		siblingID, _ := dec.Object()
		h.facade.ReorderSatellites(h.sid, cache.SurfaceID(siblingID), false)
	case SubsurfaceSetSync:
		h.facade.SetSubsurfaceSync(h.sid, true)
	case SubsurfaceSetDesync:
		h.facade.SetSubsurfaceSync(h.sid, false)
	case SubsurfaceDestroy:
		h.client.Unregister(h.id)
	}
	return nil
}
