package protocol

import (
	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/wire"
)

// Dispatcher handles wire requests addressed to one bound object.
type Dispatcher interface {
	Dispatch(msg *wire.Message) error
}

// ClientConn is the slice of the engine's per-connection state a
// handler needs to bind new objects, route requests and allocate
// server-originated ids. The engine's Client type implements this.
type ClientConn interface {
	ID() cache.ClientID
	Conn() *wire.Conn
	Register(id wire.ObjectID, d Dispatcher)
	Unregister(id wire.ObjectID)
	AllocateID() wire.ObjectID
	Lookup(id wire.ObjectID) (Dispatcher, bool)
}

// postNoMemory posts a fatal wl_display.error(no_memory) to a client,
// per §7 kind 2 (resource allocation failure).
func postNoMemory(c ClientConn, onObject wire.ObjectID) {
	const displayObjectID wire.ObjectID = 1
	const displayEventError wire.Opcode = 0
	const noMemory uint32 = 2
	_ = c.Conn().SendMessage(wire.NewBuilder().
		PutObject(onObject).PutUint32(noMemory).PutString("no memory").
		Build(displayObjectID, displayEventError))
}
