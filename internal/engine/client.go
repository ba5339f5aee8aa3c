package engine

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/protocol"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/wire"
)

// Client is one accepted connection's dispatch state: its object
// table, its connection, and a server-side id allocator for the
// new_ids this frontend originates itself (wl_data_offer, in
// particular). It implements protocol.ClientConn structurally.
type Client struct {
	id     cache.ClientID
	conn   *wire.Conn
	engine *Engine
	log    *log.Logger

	nextServerID atomic.Uint32

	mu      sync.Mutex
	objects map[wire.ObjectID]protocol.Dispatcher
}

func newClient(id cache.ClientID, conn *wire.Conn, e *Engine, logger *log.Logger) *Client {
	c := &Client{
		id:      id,
		conn:    conn,
		engine:  e,
		log:     logger,
		objects: make(map[wire.ObjectID]protocol.Dispatcher),
	}
	c.nextServerID.Store(uint32(wire.ServerIDBase))
	return c
}

func (c *Client) ID() cache.ClientID { return c.id }
func (c *Client) Conn() *wire.Conn   { return c.conn }

func (c *Client) Register(id wire.ObjectID, d protocol.Dispatcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[id] = d
}

func (c *Client) Unregister(id wire.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, id)
}

func (c *Client) Lookup(id wire.ObjectID) (protocol.Dispatcher, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.objects[id]
	return d, ok
}

// AllocateID hands out a server-originated object id, always at or
// above wire.ServerIDBase so it can never collide with a client-chosen
// new_id.
func (c *Client) AllocateID() wire.ObjectID {
	return wire.ObjectID(c.nextServerID.Add(1) - 1)
}

// BindDataOffer constructs a new wl_data_offer under a server-allocated
// id, satisfying gateway.OfferBinder.
func (c *Client) BindDataOffer(device cache.Resource) (*resource.Resource, error) {
	id := c.AllocateID()
	return protocol.BindDataOffer(c, id, c.engine.facade), nil
}

// dispatchLoop reads and dispatches requests until the connection
// closes or a read fails; it is the per-client half of the protocol
// thread (§4.1 runs one such loop per accepted client, all under the
// single protocol thread's goroutine group).
func (c *Client) dispatchLoop() {
	defer c.close()
	for {
		msg, err := c.conn.RecvMessage()
		if err != nil {
			return
		}
		disp, ok := c.Lookup(msg.ObjectID)
		if !ok {
			c.log.Warn("request on unknown object", "client", c.id, "object", msg.ObjectID)
			continue
		}
		if err := disp.Dispatch(msg); err != nil {
			c.log.Warn("dispatch error", "client", c.id, "object", msg.ObjectID, "err", err)
		}
	}
}

func (c *Client) close() {
	_ = c.conn.Close()
	c.engine.removeClient(c.id)
}
