package engine

import (
	"github.com/noiawl/frontend/internal/cache"
	"github.com/noiawl/frontend/internal/coordinator"
	"github.com/noiawl/frontend/internal/protocol"
	"github.com/noiawl/frontend/internal/resource"
	"github.com/noiawl/frontend/internal/wire"
)

// AdvertiseOutput registers a wl_output global for name and announces
// it to every registry already bound by a connected client, satisfying
// gateway.OutputRegistrar.
func (e *Engine) AdvertiseOutput(name coordinator.OutputName) {
	globalName := e.addGlobal("wl_output", 2, func(c *Client, id wire.ObjectID) {
		protocol.BindOutput(c, id, name, e.coord)
	})

	e.mu.Lock()
	e.outputNames[name] = globalName
	entry := e.globals[globalName]
	registries := make([]*registryHandler, 0, len(e.registries))
	for _, rh := range e.registries {
		registries = append(registries, rh)
	}
	e.mu.Unlock()

	for _, rh := range registries {
		rh.sendGlobal(entry)
	}
}

// DestroyOutput removes name's global and announces its removal,
// satisfying gateway.OutputRegistrar.
func (e *Engine) DestroyOutput(name coordinator.OutputName) {
	e.mu.Lock()
	globalName, ok := e.outputNames[name]
	if ok {
		delete(e.outputNames, name)
		delete(e.globals, globalName)
	}
	registries := make([]*registryHandler, 0, len(e.registries))
	for _, rh := range e.registries {
		registries = append(registries, rh)
	}
	e.mu.Unlock()

	if !ok {
		return
	}
	for _, rh := range registries {
		rh.sendGlobalRemove(globalName)
	}
}

// BindDataOffer resolves device's owning client and constructs the
// wl_data_offer in that client's id space, satisfying
// gateway.OfferBinder.
func (e *Engine) BindDataOffer(device cache.Resource) (*resource.Resource, error) {
	e.mu.Lock()
	c, ok := e.clients[device.Client()]
	e.mu.Unlock()
	if !ok {
		return nil, errClientGone
	}
	return c.BindDataOffer(device)
}
