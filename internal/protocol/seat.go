package protocol

import (
	"github.com/charmbracelet/log"

	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/facade"
	"github.com/noiawl/frontend/internal/geometry"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/wire"
	"github.com/noiawl/frontend/internal/xkbstate"
)

// SeatGlobal binds wl_seat: capability advertisement and the
// get_pointer/get_keyboard accessors.
type SeatGlobal struct {
	client  ClientConn
	facade  *facade.Facade
	keymap  *xkbstate.State
	repeat  KeyRepeat
	log     *log.Logger
}

// KeyRepeat is the rate/delay pair sent once on wl_keyboard bind,
// sourced from configuration (§12's repeat-info supplement).
type KeyRepeat struct {
	Rate  int32
	Delay int32
}

func BindSeat(client ClientConn, id wire.ObjectID, f *facade.Facade, keymap *xkbstate.State, repeat KeyRepeat, log *log.Logger) {
	res := resource.New(id, client.ID(), client.Conn())
	g := &SeatGlobal{client: client, facade: f, keymap: keymap, repeat: repeat, log: log}
	client.Register(id, g)
	caps := SeatCapabilityPointer | SeatCapabilityKeyboard
	_ = res.Send(SeatEventCapabilities, wire.NewBuilder().PutUint32(caps))
	_ = res.Send(SeatEventName, wire.NewBuilder().PutString("seat0"))
}

func (g *SeatGlobal) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case SeatGetPointer:
		newID, _ := dec.NewID()
		res := resource.New(newID, g.client.ID(), g.client.Conn())
		g.facade.AddPointerResource(res)
		g.client.Register(newID, &PointerHandler{client: g.client, res: res, facade: g.facade})
	case SeatGetKeyboard:
		newID, _ := dec.NewID()
		res := resource.New(newID, g.client.ID(), g.client.Conn())
		g.facade.AddKeyboardResource(res)
		g.client.Register(newID, &KeyboardHandler{client: g.client, res: res, facade: g.facade})
		g.sendKeymap(res)
		if g.repeat.Rate != 0 || g.repeat.Delay != 0 {
			_ = res.Send(KeyboardEventRepeatInfo, wire.NewBuilder().PutInt32(g.repeat.Rate).PutInt32(g.repeat.Delay))
		}
	}
	return nil
}

func (g *SeatGlobal) sendKeymap(res *resource.Resource) {
	if g.keymap == nil {
		return
	}
	fd, size, err := g.keymap.KeymapFD()
	if err != nil {
		g.log.Warn("keymap handoff failed", "err", err)
		return
	}
	if err := res.SendWithFD(KeyboardEventKeymap, wire.NewBuilder().PutUint32(KeyboardKeymapFormatXkbV1).PutUint32(size), fd); err != nil {
		g.log.Warn("keymap send failed", "err", err)
	}
}

// KeyboardHandler implements wl_keyboard: only release has a request;
// every event arrives via the gateway's coordinator.Notifications path.
type KeyboardHandler struct {
	client ClientConn
	res    *resource.Resource
	facade *facade.Facade
}

func (h *KeyboardHandler) Dispatch(msg *wire.Message) error {
	if msg.Opcode == KeyboardRelease {
		h.facade.RemoveKeyboardResource(h.res)
		h.client.Unregister(h.res.ObjectID())
	}
	return nil
}

// PointerHandler implements wl_pointer: set_cursor and release.
type PointerHandler struct {
	client ClientConn
	res    *resource.Resource
	facade *facade.Facade
}

func (h *PointerHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case PointerSetCursor:
		_, _ = dec.Uint32() // serial
		surfaceID, _ := dec.Object()
		hotspotX, _ := dec.Int32()
		hotspotY, _ := dec.Int32()
		if surfaceID == 0 {
			return nil
		}
		h.facade.SetCursor(cache.SurfaceID(surfaceID), geometry.Position{X: hotspotX, Y: hotspotY})
	case PointerRelease:
		h.facade.RemovePointerResource(h.res)
		h.client.Unregister(h.res.ObjectID())
	}
	return nil
}
