// Package readiness sends an optional sd_notify-style ping over the
// session D-Bus connection once the engine's socket is accepting
// clients, for session managers that wait on it. Its absence never
// affects protocol behavior.
package readiness

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
)

// Notifier pings a session manager over D-Bus. A nil Notifier (or one
// built where no session bus is reachable) is a harmless no-op.
type Notifier struct {
	conn *dbus.Conn
	log  *log.Logger
}

// New connects to the session bus. It returns a nil *Notifier, not an
// error, when NOTIFY_SOCKET is unset or the bus is unreachable: the
// caller's Ready/Stopping calls on a nil Notifier are no-ops.
func New(enabled bool, logger *log.Logger) *Notifier {
	if !enabled || os.Getenv("NOTIFY_SOCKET") == "" {
		return nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Warn("readiness: session bus unavailable, skipping notify", "err", err)
		return nil
	}
	return &Notifier{conn: conn, log: logger}
}

// Ready announces that the listening socket is bound and accepting.
func (n *Notifier) Ready() {
	n.notify("READY=1")
}

// Stopping announces that the engine is shutting down.
func (n *Notifier) Stopping() {
	n.notify("STOPPING=1")
}

func (n *Notifier) notify(state string) {
	if n == nil {
		return
	}
	obj := n.conn.Object("org.freedesktop.DBus", "/org/freedesktop/DBus")
	call := obj.Call("org.freedesktop.DBus.Peer.Ping", 0)
	if call.Err != nil {
		n.log.Warn("readiness: notify ping failed", "state", state, "err", call.Err)
	}
}

// Close releases the bus connection.
func (n *Notifier) Close() {
	if n == nil || n.conn == nil {
		return
	}
	_ = n.conn.Close()
}
