package protocol

import (
	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/facade"
	"github.com/noiawl/frontend/internal/geometry"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/wire"
)

// ShellGlobal binds wl_shell: get_shell_surface. wl-shell and xdg-shell
// may both be bound by the same client; §9 has wl-shell win reconfigure
// priority when both are present on a surface.
type ShellGlobal struct {
	client ClientConn
	facade *facade.Facade
}

func BindShell(client ClientConn, id wire.ObjectID, f *facade.Facade) {
	client.Register(id, &ShellGlobal{client: client, facade: f})
}

func (g *ShellGlobal) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	if msg.Opcode != ShellGetShellSurface {
		return nil
	}
	newID, _ := dec.NewID()
	surfaceID, _ := dec.Object()
	sid := cache.SurfaceID(surfaceID)
	res := resource.New(newID, g.client.ID(), g.client.Conn())
	g.facade.AddShellSurface(sid, cache.RoleShellSurface, res)
	g.client.Register(newID, &ShellSurfaceHandler{client: g.client, res: res, sid: sid, facade: g.facade})
	return nil
}

// ShellSurfaceHandler implements wl_shell_surface. Interactive move/resize
// and window-placement policy are a non-goal; those requests are
// acknowledged with no further action.
type ShellSurfaceHandler struct {
	client ClientConn
	res    *resource.Resource
	sid    cache.SurfaceID
	facade *facade.Facade
}

func (h *ShellSurfaceHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case ShellSurfacePong:
		// Ping/pong liveness is handled at the wl_shell_surface.ping
		// level by whichever component drives it; nothing to forward.
	case ShellSurfaceSetToplevel, ShellSurfaceSetFullscreen, ShellSurfaceSetMaximized:
		// Already mapped via get_shell_surface; role change is a no-op.
	case ShellSurfaceMove, ShellSurfaceResize:
		// Window-placement policy is out of scope (§1).
	}
	return nil
}

// XdgWmBaseGlobal binds xdg_wm_base: get_xdg_surface and pong.
type XdgWmBaseGlobal struct {
	client ClientConn
	id     wire.ObjectID
	facade *facade.Facade
}

func BindXdgWmBase(client ClientConn, id wire.ObjectID, f *facade.Facade) {
	client.Register(id, &XdgWmBaseGlobal{client: client, id: id, facade: f})
}

func (g *XdgWmBaseGlobal) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case XdgWmBaseDestroy:
		g.client.Unregister(g.id)
	case XdgWmBaseGetXdgSurface:
		newID, _ := dec.NewID()
		surfaceID, _ := dec.Object()
		sid := cache.SurfaceID(surfaceID)
		res := resource.New(newID, g.client.ID(), g.client.Conn())
		g.client.Register(newID, &XdgSurfaceHandler{client: g.client, res: res, sid: sid, facade: g.facade})
	case XdgWmBaseCreatePositioner:
		newID, _ := dec.NewID()
		g.client.Register(newID, &positionerHandler{})
	case XdgWmBasePong:
		// Liveness only; nothing to forward.
	}
	return nil
}

// positionerHandler is xdg_positioner: its requests are accepted and
// ignored. xdg_surface.get_popup does not read the positioner and
// configures the popup with a zero rectangle (window-placement policy
// is out of scope, §1).
type positionerHandler struct{}

func (positionerHandler) Dispatch(*wire.Message) error { return nil }

// XdgSurfaceHandler implements xdg_surface: get_toplevel/get_popup,
// window geometry and configure acknowledgement.
type XdgSurfaceHandler struct {
	client ClientConn
	res    *resource.Resource
	sid    cache.SurfaceID
	facade *facade.Facade
}

func (h *XdgSurfaceHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case XdgSurfaceGetToplevel:
		newID, _ := dec.NewID()
		h.facade.AddShellSurface(h.sid, cache.RoleXdgSurface, h.res)
		toplevel := resource.New(newID, h.client.ID(), h.client.Conn())
		h.facade.AttachXdgToplevel(h.sid, toplevel)
		h.client.Register(newID, &XdgToplevelHandler{client: h.client, res: toplevel, sid: h.sid, facade: h.facade})
	case XdgSurfaceGetPopup:
		newID, _ := dec.NewID()
		_, _ = dec.Object() // parent xdg_surface; not used
		_, _ = dec.Object() // positioner; not used
		h.facade.AddShellSurface(h.sid, cache.RoleXdgSurface, h.res)
		popup := resource.New(newID, h.client.ID(), h.client.Conn())
		h.client.Register(newID, &XdgPopupHandler{client: h.client, res: popup, sid: h.sid})
		_ = popup.Send(XdgPopupEventConfigure, wire.NewBuilder().
			PutInt32(0).PutInt32(0).PutInt32(0).PutInt32(0))
	case XdgSurfaceSetWindowGeometry:
		x, _ := dec.Int32()
		y, _ := dec.Int32()
		w, _ := dec.Int32()
		ht, _ := dec.Int32()
		_ = geometry.Rectangle{Position: geometry.Position{X: x, Y: y}, Size: geometry.Size{Width: w, Height: ht}}
		// Window geometry clipping is a rendering-time concern; the
		// coordinator already has the attached buffer's true size.
	case XdgSurfaceAckConfigure:
		// Serial tracking beyond what the coordinator drives is a
		// non-goal; this frontend doesn't gate a resize on the ack.
	case XdgSurfaceDestroy:
		h.facade.RemoveShellSurface(h.sid, cache.RoleXdgSurface, h.res)
		h.client.Unregister(h.res.ObjectID())
	}
	return nil
}

// XdgToplevelHandler implements xdg_toplevel. Requests that express
// window-placement policy (move/resize/maximize/fullscreen/minimize)
// are a non-goal (§1); state transitions instead arrive from the
// coordinator via OnSurfaceReconfigured and are sent as configure events
// by the gateway.
type XdgToplevelHandler struct {
	client ClientConn
	res    *resource.Resource
	sid    cache.SurfaceID
	facade *facade.Facade
	title  string
	appID  string
}

func (h *XdgToplevelHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case XdgToplevelSetTitle:
		h.title, _ = dec.String()
	case XdgToplevelSetAppID:
		h.appID, _ = dec.String()
	case XdgToplevelDestroy:
		h.facade.RemoveXdgToplevel(h.sid, h.res)
		h.client.Unregister(h.res.ObjectID())
	}
	return nil
}

// XdgPopupHandler implements xdg_popup: configure/popup_done emission
// and grab serial bookkeeping. Interactive grab placement itself is a
// window-placement policy concern and out of scope (§1); only the
// serial the client handed over is retained.
type XdgPopupHandler struct {
	client     ClientConn
	res        *resource.Resource
	sid        cache.SurfaceID
	grabSerial uint32
}

func (h *XdgPopupHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case XdgPopupGrab:
		_, _ = dec.Object() // seat
		h.grabSerial, _ = dec.Uint32()
	case XdgPopupDestroy:
		_ = h.res.Send(XdgPopupEventPopupDone, wire.NewBuilder())
		h.client.Unregister(h.res.ObjectID())
	}
	return nil
}
