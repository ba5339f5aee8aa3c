package protocol

import (
	"github.com/noiawl/frontend/internal/facade"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/transfer"
	"github.com/noiawl/frontend/internal/wire"
)

// DataDeviceManagerGlobal binds wl_data_device_manager.
type DataDeviceManagerGlobal struct {
	client ClientConn
	facade *facade.Facade
}

func BindDataDeviceManager(client ClientConn, id wire.ObjectID, f *facade.Facade) {
	client.Register(id, &DataDeviceManagerGlobal{client: client, facade: f})
}

func (g *DataDeviceManagerGlobal) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case DataDeviceManagerCreateDataSource:
		newID, _ := dec.NewID()
		res := resource.New(newID, g.client.ID(), g.client.Conn())
		g.client.Register(newID, &DataSourceHandler{client: g.client, res: res, facade: g.facade})
	case DataDeviceManagerGetDataDevice:
		newID, _ := dec.NewID()
		_, _ = dec.Object() // seat
		res := resource.New(newID, g.client.ID(), g.client.Conn())
		g.facade.AddDataDeviceResource(res)
		g.client.Register(newID, &DataDeviceHandler{client: g.client, res: res, facade: g.facade})
	}
	return nil
}

// DataSourceHandler implements wl_data_source. A transfer is created
// lazily on the first offer() call and handed to the facade once
// set_selection names this source.
type DataSourceHandler struct {
	client ClientConn
	res    *resource.Resource
	facade *facade.Facade
	t      *transfer.Transfer
}

func (h *DataSourceHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case DataSourceOffer:
		mime, _ := dec.String()
		h.ensureTransfer()
		h.facade.AddMimeType(h.t, mime)
	case DataSourceDestroy:
		h.client.Unregister(h.res.ObjectID())
	}
	return nil
}

func (h *DataSourceHandler) ensureTransfer() {
	if h.t == nil {
		h.t = h.facade.CreateTransfer(h.res)
	}
}

// DataDeviceHandler implements wl_data_device: set_selection and
// release. start_drag is a known, documented gap (§9): drag-and-drop is
// not implemented.
type DataDeviceHandler struct {
	client ClientConn
	res    *resource.Resource
	facade *facade.Facade
}

func (h *DataDeviceHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case DataDeviceSetSelection:
		sourceID, _ := dec.Object()
		disp, ok := h.client.Lookup(sourceID)
		if !ok {
			return nil
		}
		src, ok := disp.(*DataSourceHandler)
		if !ok || src.t == nil {
			return nil
		}
		h.facade.SendSelection(src.t)
	case DataDeviceStartDrag:
		// Drag-and-drop is an unimplemented gap (§9); acknowledged, not acted on.
	case DataDeviceRelease:
		h.facade.RemoveDataDeviceResource(h.res)
		h.client.Unregister(h.res.ObjectID())
	}
	return nil
}

// DataOfferHandler implements wl_data_offer: accept/receive/destroy.
// BindDataOffer constructs one for the gateway's selection replay.
type DataOfferHandler struct {
	client ClientConn
	res    *resource.Resource
	facade *facade.Facade
}

// BindDataOffer registers a new wl_data_offer under id and returns its
// resource, satisfying gateway.OfferBinder via the engine's client type.
func BindDataOffer(client ClientConn, id wire.ObjectID, f *facade.Facade) *resource.Resource {
	res := resource.New(id, client.ID(), client.Conn())
	client.Register(id, &DataOfferHandler{client: client, res: res, facade: f})
	return res
}

func (h *DataOfferHandler) Dispatch(msg *wire.Message) error {
	dec := wire.NewDecoder(msg.Args)
	switch msg.Opcode {
	case DataOfferAccept:
		// Mime negotiation tracking isn't needed: only COPY is offered (§9).
	case DataOfferReceive:
		mime, _ := dec.String()
		fd, _ := dec.FD()
		h.facade.ReceiveDataOffer(h.facade.Current(), mime, fd)
	case DataOfferDestroy:
		h.client.Unregister(h.res.ObjectID())
	}
	return nil
}
