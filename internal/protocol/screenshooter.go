package protocol

import (
	"github.com/charmbracelet/log"

	"github.com/noiawl/frontend/internal/coordinator"
	"github.com/noiawl/frontend/internal/facade"
	"github.com/noiawl/frontend/internal/wire"
)

// ScreenshooterGlobal binds the non-standard screenshooter interface:
// a single shoot(output, buffer) request that copies the named
// output's current content into a client-provided wl_buffer (§9 calls
// this a future feature; SPEC_FULL gives it a bounded implementation).
type ScreenshooterGlobal struct {
	client  ClientConn
	facade  *facade.Facade
	outputs func(wire.ObjectID) (coordinator.OutputName, bool)
	log     *log.Logger
}

// BindScreenshooter registers the global. outputs resolves a bound
// wl_output object id back to the name the coordinator knows it by.
func BindScreenshooter(client ClientConn, id wire.ObjectID, f *facade.Facade, outputs func(wire.ObjectID) (coordinator.OutputName, bool), log *log.Logger) {
	client.Register(id, &ScreenshooterGlobal{client: client, facade: f, outputs: outputs, log: log})
}

func (g *ScreenshooterGlobal) Dispatch(msg *wire.Message) error {
	if msg.Opcode != ScreenshooterShoot {
		return nil
	}
	dec := wire.NewDecoder(msg.Args)
	outputID, _ := dec.Object()
	bufferID, _ := dec.Object()

	name, ok := g.outputs(outputID)
	if !ok {
		g.log.Warn("screenshooter.shoot with unbound output")
		return nil
	}
	disp, ok := g.client.Lookup(bufferID)
	if !ok {
		g.log.Warn("screenshooter.shoot with unbound buffer")
		return nil
	}
	buf, ok := disp.(*Buffer)
	if !ok {
		return nil
	}
	pixels := buf.Pixels()
	if pixels == nil {
		g.log.Warn("screenshooter.shoot target buffer is not mappable")
		return nil
	}
	if !g.facade.CaptureOutput(name, pixels) {
		g.log.Warn("screenshooter.shoot: coordinator could not capture output", "output", name)
	}
	return nil
}
