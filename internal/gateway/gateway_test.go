//go:build linux

package gateway

import (
	"net"
	"os"
	"sync/atomic"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/coordinator"
	"github.com/noiawl/frontend/internal/focus"
	"github.com/noiawl/frontend/internal/geometry"
	"github.com/noiawl/frontend/internal/protocol"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/transfer"
	"github.com/noiawl/frontend/internal/wire"
)

// connPair returns a server-side wire.Conn, the way an accepted client
// connection looks to this module's resource.Resource.Send, plus the
// raw net.Conn on the other end so the test can read whatever the
// gateway actually wrote. The raw side deliberately bypasses
// wire.Conn.RecvMessage, which performs one recvmsg(2) per call and
// would silently drop extra bytes if several small events land in the
// same underlying stream read.
func connPair(t *testing.T) (*wire.Conn, net.Conn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}

	serverFile := os.NewFile(uintptr(fds[0]), "")
	serverConn, err := net.FileConn(serverFile)
	if err != nil {
		t.Fatalf("server FileConn: %v", err)
	}
	_ = serverFile.Close()
	server, err := wire.NewConn(serverConn)
	if err != nil {
		t.Fatalf("wire.NewConn: %v", err)
	}

	clientFile := os.NewFile(uintptr(fds[1]), "")
	client, err := net.FileConn(clientFile)
	if err != nil {
		t.Fatalf("client FileConn: %v", err)
	}
	_ = clientFile.Close()

	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return server, client
}

// recvN reads exactly n wire messages off conn, accumulating raw bytes
// across as many Read calls as needed and decoding each message in
// turn, so messages sent back to back in a single write are not lost.
func recvN(t *testing.T, conn net.Conn, n int) []*wire.Message {
	t.Helper()
	var buf []byte
	tmp := make([]byte, 4096)
	msgs := make([]*wire.Message, 0, n)

	for len(msgs) < n {
		dec := wire.NewDecoder(buf)
		msg, err := dec.DecodeMessage()
		if err != nil {
			k, rerr := conn.Read(tmp)
			if rerr != nil {
				t.Fatalf("Read: %v", rerr)
			}
			buf = append(buf, tmp[:k]...)
			continue
		}
		msgs = append(msgs, msg)
		buf = buf[msg.Size():]
	}
	return msgs
}

type fakeSerials struct{ n atomic.Uint32 }

func (s *fakeSerials) NextSerial() uint32 { return s.n.Add(1) }

type fakeOffers struct{}

func (fakeOffers) BindDataOffer(device cache.Resource) (*resource.Resource, error) { return nil, nil }

type fakeOutputs struct{}

func (fakeOutputs) AdvertiseOutput(coordinator.OutputName) {}
func (fakeOutputs) DestroyOutput(coordinator.OutputName)   {}

type fakeSelection struct {
	current    *transfer.Transfer
	queryCalls int
}

func (s *fakeSelection) Current() *transfer.Transfer {
	s.queryCalls++
	return s.current
}

func newTestGateway() (*Gateway, *cache.Cache, *focus.Tracker, *fakeSelection) {
	c := cache.New(nil)
	ft := focus.New()
	sel := &fakeSelection{}
	gw := New(c, ft, &fakeSerials{}, fakeOffers{}, fakeOutputs{}, sel, nil, nil, nil)
	return gw, c, ft, sel
}

// TestOnSurfaceFrameDrainsBufferReleaseBeforeCallbacks covers S3 (frame
// callback with buffer release): the buffer release event must precede
// every queued wl_callback.done, and the callbacks drain in the order
// they were queued (I4's FIFO guarantee).
func TestOnSurfaceFrameDrainsBufferReleaseBeforeCallbacks(t *testing.T) {
	gw, c, _, _ := newTestGateway()
	srv, cli := connPair(t)

	const sid cache.SurfaceID = 1
	c.Lock()
	c.CreateSurfaceLocked(sid)
	buf := resource.New(10, 1, srv)
	c.AddSurfaceResourceLocked(sid, cache.RoleBuffer, buf)
	cb1 := resource.New(11, 1, srv)
	cb2 := resource.New(12, 1, srv)
	c.AddSurfaceResourceLocked(sid, cache.RoleFrameCallback, cb1)
	c.AddSurfaceResourceLocked(sid, cache.RoleFrameCallback, cb2)
	c.Unlock()

	gw.OnSurfaceFrame(sid, 1234)

	msgs := recvN(t, cli, 3)
	if msgs[0].ObjectID != 10 || msgs[0].Opcode != protocol.BufferEventRelease {
		t.Fatalf("first event = (object %d, opcode %d), want buffer release on 10", msgs[0].ObjectID, msgs[0].Opcode)
	}
	if msgs[1].ObjectID != 11 || msgs[1].Opcode != protocol.CallbackEventDone {
		t.Fatalf("second event = (object %d, opcode %d), want callback done on 11", msgs[1].ObjectID, msgs[1].Opcode)
	}
	if msgs[2].ObjectID != 12 || msgs[2].Opcode != protocol.CallbackEventDone {
		t.Fatalf("third event = (object %d, opcode %d), want callback done on 12", msgs[2].ObjectID, msgs[2].Opcode)
	}

	c.Lock()
	rec, _ := c.FindSurfaceLocked(sid)
	c.Unlock()
	if rec.Buffer != nil || rec.FrameCallback != nil {
		t.Fatalf("surface record still holds buffer/callbacks after drain: %+v", rec)
	}
}

// TestOnKeyboardFocusChangedLeaveEnterSelection covers S2: moving
// keyboard focus between two different clients sends leave to the old
// client's keyboard resources, enter to the new client's, and triggers
// a selection replay query, in that order.
func TestOnKeyboardFocusChangedLeaveEnterSelection(t *testing.T) {
	gw, c, _, sel := newTestGateway()
	oldSrv, oldCli := connPair(t)
	newSrv, newCli := connPair(t)

	const oldSid, newSid cache.SurfaceID = 1, 2
	c.Lock()
	c.CreateSurfaceLocked(oldSid)
	c.CreateSurfaceLocked(newSid)
	oldMain := resource.New(100, 1, oldSrv)
	newMain := resource.New(200, 2, newSrv)
	c.AddSurfaceResourceLocked(oldSid, cache.RoleMain, oldMain)
	c.AddSurfaceResourceLocked(newSid, cache.RoleMain, newMain)
	oldKb := resource.New(101, 1, oldSrv)
	newKb := resource.New(201, 2, newSrv)
	c.AddGeneralResourceLocked(cache.CategoryKeyboard, oldKb)
	c.AddGeneralResourceLocked(cache.CategoryKeyboard, newKb)
	c.Unlock()

	gw.OnKeyboardFocusChanged(oldSid, geometry.Size{}, 0, newSid, geometry.Size{}, 0)

	leave := recvN(t, oldCli, 1)[0]
	if leave.ObjectID != 101 || leave.Opcode != protocol.KeyboardEventLeave {
		t.Fatalf("leave event = (object %d, opcode %d), want leave on 101", leave.ObjectID, leave.Opcode)
	}
	enter := recvN(t, newCli, 1)[0]
	if enter.ObjectID != 201 || enter.Opcode != protocol.KeyboardEventEnter {
		t.Fatalf("enter event = (object %d, opcode %d), want enter on 201", enter.ObjectID, enter.Opcode)
	}
	if sel.queryCalls == 0 {
		t.Fatal("selection was never queried after keyboard focus moved to a new client")
	}
}

// TestOnSurfaceReconfiguredWlShellWins covers the wl-shell-wins
// reconfigure priority from §9: a surface with both a wl_shell_surface
// and an xdg_surface resource only receives wl_shell_surface.configure.
func TestOnSurfaceReconfiguredWlShellWins(t *testing.T) {
	gw, c, _, _ := newTestGateway()
	srv, cli := connPair(t)

	const sid cache.SurfaceID = 1
	c.Lock()
	c.CreateSurfaceLocked(sid)
	shell := resource.New(50, 1, srv)
	xdg := resource.New(51, 1, srv)
	c.AddSurfaceResourceLocked(sid, cache.RoleShellSurface, shell)
	c.AddSurfaceResourceLocked(sid, cache.RoleXdgSurface, xdg)
	c.Unlock()

	gw.OnSurfaceReconfigured(sid, geometry.Size{}, 0)

	msg := recvN(t, cli, 1)[0]
	if msg.ObjectID != 50 || msg.Opcode != protocol.ShellSurfaceEventConfigure {
		t.Fatalf("event = (object %d, opcode %d), want shell_surface configure on 50", msg.ObjectID, msg.Opcode)
	}
}
