package engine

import (
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/wire"
)

// wl_display request/event opcodes.
const (
	displaySync        wire.Opcode = 0
	displayGetRegistry  wire.Opcode = 1
	displayEventDeleteID wire.Opcode = 1
)

// wl_registry request/event opcodes.
const (
	registryBind              wire.Opcode = 0
	registryEventGlobal       wire.Opcode = 0
	registryEventGlobalRemove wire.Opcode = 1
)

const wlCallbackEventDone wire.Opcode = 0

// displayHandler implements wl_display: sync and get_registry. Every
// client's object 1 is one of these.
type displayHandler struct {
	client *Client
	engine *Engine
}

func (h *displayHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case displaySync:
		newID, _ := dec.NewID()
		cb := resource.New(newID, h.client.ID(), h.client.Conn())
		_ = cb.Send(wlCallbackEventDone, wire.NewBuilder().PutUint32(0))
	case displayGetRegistry:
		newID, _ := dec.NewID()
		rh := &registryHandler{
			client: h.client,
			res:    resource.New(newID, h.client.ID(), h.client.Conn()),
			engine: h.engine,
		}
		h.client.Register(newID, rh)
		h.engine.mu.Lock()
		h.engine.registries[h.client.ID()] = rh
		globals := make([]*globalEntry, 0, len(h.engine.globals))
		for _, g := range h.engine.globals {
			globals = append(globals, g)
		}
		h.engine.mu.Unlock()
		for _, g := range globals {
			rh.sendGlobal(g)
		}
	}
	return nil
}

// registryHandler implements wl_registry: bind, plus outbound
// global/global_remove events the engine drives directly.
type registryHandler struct {
	client *Client
	res    *resource.Resource
	engine *Engine
}

func (h *registryHandler) Dispatch(msg *wire.Message) error {
	if msg.Opcode != registryBind {
		return nil
	}
	dec := wire.NewDecoder(msg.Args)
	name, _ := dec.Uint32()
	_, _ = dec.String() // interface; trusted to match what we advertised
	_, _ = dec.Uint32() // version
	id, _ := dec.NewID()

	h.engine.mu.Lock()
	entry, ok := h.engine.globals[name]
	h.engine.mu.Unlock()
	if !ok {
		h.engine.log.Warn("bind for unknown global", "name", name, "client", h.client.ID())
		return nil
	}
	entry.bind(h.client, id)
	return nil
}

func (h *registryHandler) sendGlobal(g *globalEntry) {
	_ = h.res.Send(registryEventGlobal, wire.NewBuilder().
		PutUint32(g.name).PutString(g.iface).PutUint32(g.version))
}

func (h *registryHandler) sendGlobalRemove(name uint32) {
	_ = h.res.Send(registryEventGlobalRemove, wire.NewBuilder().PutUint32(name))
}
