// Package cache implements the frontend's shared registry: the single
// source of truth mapping surface and region identifiers, and
// categorized wire resources, to the clients that own them. A single
// mutex protects all state; callers that need several operations to
// appear atomic bracket them with Lock/Unlock and use the *Locked
// primitives, exactly as the facade and gateway do.
package cache

import (
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/noiawl/frontend/internal/geometry"
	"github.com/noiawl/frontend/internal/wire"
)

// SurfaceID is the coordinator-assigned, process-wide-unique surface
// identifier. It is never reused while the surface is live.
type SurfaceID uint64

// NoSurface is the sentinel meaning "no surface".
const NoSurface SurfaceID = 0

// RegionID is a frontend-generated identifier, unique within the cache.
type RegionID uint64

// NoRegion is the sentinel meaning "no region".
const NoRegion RegionID = 0

// ClientID identifies a connected client. The frontend (engine package)
// hands out one per accepted connection; the cache only ever compares
// these for equality.
type ClientID uint64

// Role names the kind of resource occupying a surface's resource slot.
type Role int

const (
	RoleMain Role = iota
	RoleBuffer
	RoleFrameCallback
	RoleShellSurface
	RoleXdgSurface
	RoleXdgToplevel
)

// Category groups general (non-surface-keyed) resources for fan-out.
type Category int

const (
	CategoryKeyboard Category = iota
	CategoryPointer
	CategoryDataDevice
	CategoryOther
)

// Resource is the minimal shape the cache needs from a bound wire
// object: its id (for equality/removal) and the client that owns it.
type Resource interface {
	ObjectID() wire.ObjectID
	Client() ClientID
}

// SurfaceRecord is the per-surface bookkeeping held by the cache. At
// most one resource occupies each non-frame slot (I3); the frame
// callback slot is an ordered, FIFO-drained list (I4).
type SurfaceRecord struct {
	ID SurfaceID

	Main          Resource
	Buffer        Resource
	FrameCallback []Resource
	ShellSurface  Resource
	XdgSurface    Resource
	XdgToplevel   Resource

	// Synchronized is the subsurface sync/desync mode (supplemental
	// feature beyond the distilled spec). It is recorded only; commit
	// handling does not consult it.
	Synchronized bool

	// InputRegion is the surface's current input region, reduced to a
	// bounding rectangle; zero value means "whole surface accepts input".
	InputRegion geometry.Rectangle
}

// RegionRecord is a region's bounding rectangle, built up by repeated
// wl_region.add calls. wl_region.subtract is a deliberate no-op (§9).
type RegionRecord struct {
	ID   RegionID
	Rect geometry.Rectangle
}

// Cache is the frontend's shared registry.
type Cache struct {
	mu sync.Mutex

	surfaces map[SurfaceID]*SurfaceRecord
	regions  map[RegionID]*RegionRecord
	general  map[Category][]Resource

	log *log.Logger
}

// New creates an empty Cache. A nil logger falls back to the package
// default so callers in tests do not need to thread one through.
func New(logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{
		surfaces: make(map[SurfaceID]*SurfaceRecord),
		regions:  make(map[RegionID]*RegionRecord),
		general:  make(map[Category][]Resource),
		log:      logger,
	}
}

// Lock and Unlock bracket a sequence of *Locked calls that must appear
// atomic to concurrent facade/gateway access. Held-lock sections must
// stay free of I/O or coordinator calls.
func (c *Cache) Lock()   { c.mu.Lock() }
func (c *Cache) Unlock() { c.mu.Unlock() }

// CreateSurfaceLocked creates an empty surface record. Creating the
// sentinel identifier is a silent no-op (§4.2 tie-breaks).
func (c *Cache) CreateSurfaceLocked(id SurfaceID) {
	if id == NoSurface {
		return
	}
	c.surfaces[id] = &SurfaceRecord{ID: id}
}

// FindSurfaceLocked returns the surface record, if any.
func (c *Cache) FindSurfaceLocked(id SurfaceID) (*SurfaceRecord, bool) {
	r, ok := c.surfaces[id]
	return r, ok
}

// RemoveSurfaceLocked deletes the surface record and returns it (nil if
// it did not exist) so the caller can detach any remaining resources.
func (c *Cache) RemoveSurfaceLocked(id SurfaceID) *SurfaceRecord {
	r := c.surfaces[id]
	delete(c.surfaces, id)
	return r
}

// CreateRegionLocked allocates a new region with a random id, retrying
// on collision, and returns it.
func (c *Cache) CreateRegionLocked() RegionID {
	for {
		id := RegionID(rand.Uint64())
		if id == NoRegion {
			continue
		}
		if _, exists := c.regions[id]; exists {
			continue
		}
		c.regions[id] = &RegionRecord{ID: id}
		return id
	}
}

// FindRegionLocked returns the region record, if any.
func (c *Cache) FindRegionLocked(id RegionID) (*RegionRecord, bool) {
	r, ok := c.regions[id]
	return r, ok
}

// InflateRegionLocked folds rect into the region's bounding rectangle.
// Repeated identical rectangles are idempotent since Union with an
// already-contained rectangle returns the same bounds.
func (c *Cache) InflateRegionLocked(id RegionID, rect geometry.Rectangle) {
	r, ok := c.regions[id]
	if !ok {
		c.log.Warn("inflate of unknown region", "region", id)
		return
	}
	r.Rect = r.Rect.Union(rect)
}

// RemoveRegionLocked deletes a region record.
func (c *Cache) RemoveRegionLocked(id RegionID) {
	delete(c.regions, id)
}

// AddSurfaceResourceLocked writes resource r into role's slot. Frame
// callbacks append to an ordered list; every other role holds at most
// one resource, silently replacing whatever was there (callers are
// responsible for any release semantics, e.g. buffer release, before
// replacing). Adding to a surface that does not exist is tolerated
// (some clients destroy role resources after the surface itself) and
// only logged.
func (c *Cache) AddSurfaceResourceLocked(id SurfaceID, role Role, r Resource) {
	rec, ok := c.surfaces[id]
	if !ok {
		c.log.Warn("add resource on unknown surface", "surface", id, "role", role)
		return
	}
	switch role {
	case RoleFrameCallback:
		rec.FrameCallback = append(rec.FrameCallback, r)
	case RoleMain:
		rec.Main = r
	case RoleBuffer:
		rec.Buffer = r
	case RoleShellSurface:
		rec.ShellSurface = r
	case RoleXdgSurface:
		rec.XdgSurface = r
	case RoleXdgToplevel:
		rec.XdgToplevel = r
	}
}

// RemoveSurfaceResourceLocked clears role's slot, or removes one
// matching entry from the frame-callback list. A miss (surface gone,
// or resource not present) is tolerated and only logged, since clients
// may destroy role resources after the surface itself (§7 kind 3).
func (c *Cache) RemoveSurfaceResourceLocked(id SurfaceID, role Role, r Resource) {
	rec, ok := c.surfaces[id]
	if !ok {
		c.log.Warn("remove resource on unknown surface", "surface", id, "role", role)
		return
	}
	switch role {
	case RoleFrameCallback:
		for i, cb := range rec.FrameCallback {
			if cb.ObjectID() == r.ObjectID() {
				rec.FrameCallback = append(rec.FrameCallback[:i], rec.FrameCallback[i+1:]...)
				return
			}
		}
		c.log.Warn("remove unknown frame callback", "surface", id)
	case RoleMain:
		if rec.Main != nil && rec.Main.ObjectID() == r.ObjectID() {
			rec.Main = nil
		}
	case RoleBuffer:
		if rec.Buffer != nil && rec.Buffer.ObjectID() == r.ObjectID() {
			rec.Buffer = nil
		}
	case RoleShellSurface:
		if rec.ShellSurface != nil && rec.ShellSurface.ObjectID() == r.ObjectID() {
			rec.ShellSurface = nil
		}
	case RoleXdgSurface:
		if rec.XdgSurface != nil && rec.XdgSurface.ObjectID() == r.ObjectID() {
			rec.XdgSurface = nil
		}
	case RoleXdgToplevel:
		if rec.XdgToplevel != nil && rec.XdgToplevel.ObjectID() == r.ObjectID() {
			rec.XdgToplevel = nil
		}
	}
}

// AddGeneralResourceLocked appends r to category's fan-out list.
func (c *Cache) AddGeneralResourceLocked(cat Category, r Resource) {
	c.general[cat] = append(c.general[cat], r)
}

// RemoveGeneralResourceLocked removes the first matching entry from
// category's fan-out list, if present.
func (c *Cache) RemoveGeneralResourceLocked(cat Category, r Resource) {
	list := c.general[cat]
	for i, e := range list {
		if e.ObjectID() == r.ObjectID() {
			c.general[cat] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// RemoveClientGeneralLocked removes every fan-out entry across all
// categories belonging to id, for use on client disconnect.
func (c *Cache) RemoveClientGeneralLocked(id ClientID) {
	for cat, list := range c.general {
		kept := list[:0]
		for _, r := range list {
			if r.Client() != id {
				kept = append(kept, r)
			}
		}
		c.general[cat] = kept
	}
}

// ResourcesOfLocked borrows category's fan-out list. The caller must
// hold the lock for the duration of any iteration.
func (c *Cache) ResourcesOfLocked(cat Category) []Resource {
	return c.general[cat]
}

// ResourceAndClientForLocked returns the surface's main resource and
// owning client, or (nil, 0, false) if the surface or its main
// resource is gone.
func (c *Cache) ResourceAndClientForLocked(id SurfaceID) (Resource, ClientID, bool) {
	rec, ok := c.surfaces[id]
	if !ok || rec.Main == nil {
		return nil, 0, false
	}
	return rec.Main, rec.Main.Client(), true
}
