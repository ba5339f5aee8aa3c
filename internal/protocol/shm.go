package protocol

import (
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"

	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/wire"
)

// wl_shm request/event opcodes.
const (
	ShmCreatePool wire.Opcode = 0

	ShmEventFormat wire.Opcode = 0
)

// wl_shm_pool request opcodes.
const (
	ShmPoolCreateBuffer wire.Opcode = 0
	ShmPoolDestroy      wire.Opcode = 1
	ShmPoolResize       wire.Opcode = 2
)

// wl_buffer request opcodes.
const (
	BufferDestroy wire.Opcode = 0
)

// ShmFormat values the frontend advertises; only the two formats every
// Wayland client is required to support.
const (
	ShmFormatArgb8888 uint32 = 0
	ShmFormatXrgb8888 uint32 = 1
)

// ShmGlobal binds wl_shm and announces the supported pixel formats.
type ShmGlobal struct {
	client ClientConn
	log    *log.Logger
}

func BindShm(client ClientConn, id wire.ObjectID, log *log.Logger) {
	res := resource.New(id, client.ID(), client.Conn())
	g := &ShmGlobal{client: client, log: log}
	client.Register(id, g)
	_ = res.Send(ShmEventFormat, wire.NewBuilder().PutUint32(ShmFormatArgb8888))
	_ = res.Send(ShmEventFormat, wire.NewBuilder().PutUint32(ShmFormatXrgb8888))
}

func (g *ShmGlobal) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case ShmCreatePool:
		newID, _ := dec.NewID()
		fd, _ := dec.FD()
		size, _ := dec.Int32()
		pool := &ShmPool{client: g.client, id: newID, fd: fd, size: size, log: g.log}
		g.client.Register(newID, pool)
	}
	return nil
}

// ShmPool is a client-provided SHM-backed memory region; buffers
// reference a sub-range of it.
type ShmPool struct {
	client ClientConn
	id     wire.ObjectID
	fd     int
	size   int32
	log    *log.Logger
}

func (p *ShmPool) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case ShmPoolCreateBuffer:
		newID, _ := dec.NewID()
		offset, _ := dec.Int32()
		width, _ := dec.Int32()
		height, _ := dec.Int32()
		stride, _ := dec.Int32()
		format, _ := dec.Uint32()
		buf := &Buffer{
			client: p.client, id: newID, fd: p.fd,
			offset: offset, width: width, height: height, stride: stride, format: format,
		}
		p.client.Register(newID, buf)
	case ShmPoolResize:
		size, _ := dec.Int32()
		p.size = size
	case ShmPoolDestroy:
		p.client.Unregister(p.id)
	}
	return nil
}

// Buffer is a wl_buffer backed by a region of its pool's SHM fd.
type Buffer struct {
	client ClientConn
	id     wire.ObjectID
	fd     int
	offset, width, height, stride int32
	format                        uint32
}

func (b *Buffer) ObjectID() wire.ObjectID { return b.id }

// Pixels mmaps the buffer's backing memory read-only. The caller must
// munmap the returned slice once done; a non-SHM or failed mapping
// returns nil, matching the "zero the dimensions" tolerance in §4.3.
func (b *Buffer) Pixels() []byte {
	size := int(b.stride) * int(b.height)
	if size <= 0 || b.fd < 0 {
		return nil
	}
	data, err := unix.Mmap(b.fd, int64(b.offset), size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil
	}
	return data
}

func (b *Buffer) Dispatch(msg *wire.Message) error {
	if msg.Opcode == BufferDestroy {
		b.client.Unregister(b.id)
	}
	return nil
}
