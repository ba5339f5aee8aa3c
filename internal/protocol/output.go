package protocol

import (
	"github.com/noiawl/frontend/internal/coordinator"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/wire"
)

// OutputGlobal binds wl_output and sends its geometry/mode/scale/done
// burst once on bind. wl_output has no requests in the versions this
// frontend advertises.
type OutputGlobal struct {
	name coordinator.OutputName
}

// BindOutput sends the fixed output description for name. coord
// supplies the physical area and size the coordinator already owns.
func BindOutput(client ClientConn, id wire.ObjectID, name coordinator.OutputName, coord coordinator.Coordinator) {
	res := resource.New(id, client.ID(), client.Conn())
	client.Register(id, &OutputGlobal{name: name})

	area := coord.OutputGetArea(name)
	physical := coord.OutputGetPhysicalSize(name)

	_ = res.Send(OutputEventGeometry, wire.NewBuilder().
		PutInt32(area.Position.X).PutInt32(area.Position.Y).
		PutInt32(physical.Width).PutInt32(physical.Height).
		PutInt32(0).                      // subpixel: unknown
		PutString(coord.OutputGetName(name)).
		PutString("").                    // model: unspecified
		PutInt32(0))                      // transform: normal
	_ = res.Send(OutputEventMode, wire.NewBuilder().
		PutUint32(OutputModeCurrent).
		PutInt32(area.Size.Width).PutInt32(area.Size.Height).
		PutInt32(60000)) // refresh, mHz; a fixed nominal value
	_ = res.Send(OutputEventScale, wire.NewBuilder().PutInt32(1))
	_ = res.Send(OutputEventDone, wire.NewBuilder())
}

func (g *OutputGlobal) Dispatch(*wire.Message) error { return nil }

// ResolveOutput looks up id in client's object table and, if it is a
// bound wl_output, returns the output name it was advertised under.
func ResolveOutput(client ClientConn, id wire.ObjectID) (coordinator.OutputName, bool) {
	disp, ok := client.Lookup(id)
	if !ok {
		return "", false
	}
	out, ok := disp.(*OutputGlobal)
	if !ok {
		return "", false
	}
	return out.name, true
}
