// Package resource is the thin adapter between a bound wire object and
// the cache's notion of a Resource: an object id, the client that owns
// it, and the connection to send events back on. It is deliberately a
// leaf package so both the protocol handlers and the gateway can
// depend on it without depending on each other.
package resource

import (
	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/wire"
)

// Resource is a bound wire object, ready to receive events.
type Resource struct {
	id     wire.ObjectID
	client cache.ClientID
	conn   *wire.Conn
}

// New wraps id (owned by client, reachable over conn) as a cache.Resource.
func New(id wire.ObjectID, client cache.ClientID, conn *wire.Conn) *Resource {
	return &Resource{id: id, client: client, conn: conn}
}

func (r *Resource) ObjectID() wire.ObjectID { return r.id }
func (r *Resource) Client() cache.ClientID  { return r.client }

// Send writes an event addressed to this resource's object id.
func (r *Resource) Send(opcode wire.Opcode, args *wire.Builder) error {
	msg := args.Build(r.id, opcode)
	return r.conn.SendMessage(msg)
}

// SendWithFD is Send for events that carry a file descriptor (the
// keymap handoff).
func (r *Resource) SendWithFD(opcode wire.Opcode, args *wire.Builder, fd int) error {
	args.PutFD(fd)
	return r.Send(opcode, args)
}
