//go:build linux

package wire

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Errors returned by Conn and Listener.
var (
	ErrConnClosed  = errors.New("wire: connection closed")
	ErrNoMessage   = errors.New("wire: no message available")
	ErrNotUnixSock = errors.New("wire: not a unix socket connection")
)

// Conn is one accepted client connection speaking the Wayland wire
// protocol. It owns the socket and the read/write buffers; it has no
// notion of objects or interfaces, only bytes and file descriptors.
type Conn struct {
	conn     net.Conn
	connFile *os.File

	writeMu sync.Mutex

	readMu  sync.Mutex
	readBuf []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// NewConn wraps an accepted *net.UnixConn for wire-level reads and writes.
func NewConn(c net.Conn) (*Conn, error) {
	unixConn, ok := c.(*net.UnixConn)
	if !ok {
		_ = c.Close()
		return nil, ErrNotUnixSock
	}

	file, err := unixConn.File()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("wire: failed to get socket file: %w", err)
	}

	return &Conn{
		conn:     c,
		connFile: file,
		readBuf:  make([]byte, maxMessageSize),
		closed:   make(chan struct{}),
	}, nil
}

// Close closes the underlying socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.connFile != nil {
			_ = c.connFile.Close()
		}
		err = c.conn.Close()
	})
	return err
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() <-chan struct{} {
	return c.closed
}

// SendMessage writes one message to the client, passing any attached
// file descriptors via SCM_RIGHTS.
func (c *Conn) SendMessage(msg *Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	data, err := EncodeMessage(msg)
	if err != nil {
		return err
	}

	if len(msg.FDs) == 0 {
		_, err = c.conn.Write(data)
		return err
	}

	fd := int(c.connFile.Fd())
	rights := unix.UnixRights(msg.FDs...)
	return unix.Sendmsg(fd, data, rights, nil, 0)
}

// RecvMessage reads the next message from the client. It blocks until a
// message, EOF, or socket error is available.
func (c *Conn) RecvMessage() (*Message, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	fd := int(c.connFile.Fd())
	oob := make([]byte, 256)

	n, oobn, _, _, err := unix.Recvmsg(fd, c.readBuf, oob, 0)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrNoMessage
		}
		return nil, fmt.Errorf("wire: recvmsg failed: %w", err)
	}
	if n == 0 {
		return nil, ErrConnClosed
	}

	fds, err := parseFileDescriptors(oob[:oobn])
	if err != nil {
		return nil, err
	}

	decoder := NewDecoder(c.readBuf[:n])
	decoder.fds = fds

	msg, err := decoder.DecodeMessage()
	if err != nil {
		return nil, err
	}
	msg.FDs = fds
	return msg, nil
}

func parseFileDescriptors(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("wire: parse control message failed: %w", err)
	}
	var fds []int
	for _, scm := range scms {
		if scm.Header.Level != unix.SOL_SOCKET || scm.Header.Type != unix.SCM_RIGHTS {
			continue
		}
		got, err := unix.ParseUnixRights(&scm)
		if err != nil {
			return nil, fmt.Errorf("wire: parse unix rights failed: %w", err)
		}
		fds = append(fds, got...)
	}
	return fds, nil
}

// Listener accepts client connections on a Unix socket.
type Listener struct {
	ln   *net.UnixListener
	path string
}

// Listen binds a Unix socket at path. The caller is responsible for
// removing any stale socket file first; Listen fails if the path is
// already in use.
func Listen(path string) (*Listener, error) {
	addr := &net.UnixAddr{Name: path, Net: "unix"}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, path: path}, nil
}

// Accept blocks until a client connects, returning a wire-level Conn.
func (l *Listener) Accept() (*Conn, error) {
	c, err := l.ln.AcceptUnix()
	if err != nil {
		return nil, err
	}
	return NewConn(c)
}

// Close stops accepting new connections and removes the socket file.
func (l *Listener) Close() error {
	err := l.ln.Close()
	_ = os.Remove(l.path)
	return err
}

// Path returns the filesystem path of the listening socket.
func (l *Listener) Path() string {
	return l.path
}
