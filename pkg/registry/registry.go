// Package registry implements the Device Registry: the
// concurrent, long-lived directory mapping device ids and host URIs to
// Device Entry aggregates.
package registry

import (
	"sync"
	"time"

	"github.com/SashankSharma/iotivity/pkg/model"
	"github.com/SashankSharma/iotivity/pkg/transport"
)

// Snapshot is a value-copy of the subset of an Entry's fields a listener
// callback needs, taken while the registry lock is held so delivery can
// safely happen after the lock is released.
type Snapshot struct {
	DeviceID                string
	DeviceInfo              model.DeviceInfo
	DiscoveredResourceTypes []string
}

func (e *Entry) snapshot() Snapshot {
	types := make([]string, len(e.DiscoveredResourceTypes))
	copy(types, e.DiscoveredResourceTypes)
	return Snapshot{
		DeviceID:                e.DeviceID,
		DeviceInfo:              e.DeviceInfo,
		DiscoveredResourceTypes: types,
	}
}

// Registry is the mapping from device-id to Device Entry, plus a
// secondary index from host-URI to the same entry.
//
// All mutation is serialized by a single mutex. Since Go's sync.Mutex is
// not reentrant, every method that needs the lock has an exported,
// locking entry point and, where another locked operation must run as
// part of the same atomic step, an unexported "_locked" helper that
// assumes the lock is already held. No exported method ever calls
// another exported method while holding the lock.
type Registry struct {
	mu     sync.Mutex
	byID   map[string]*Entry
	byURI  map[string]*Entry
	clock  func() time.Time
}

// New creates an empty Registry. clock defaults to time.Now; tests may
// substitute a controllable clock.
func New(clock func() time.Time) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		byID:  make(map[string]*Entry),
		byURI: make(map[string]*Entry),
		clock: clock,
	}
}

// Lookup returns the entry for deviceID, if present (invariant 1: a
// device id appears at most once).
func (r *Registry) Lookup(deviceID string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[deviceID]
	return e, ok
}

// LookupByURI returns the entry registered under the given host URI, if
// any (invariant 2: the secondary index is a projection of the primary).
func (r *Registry) LookupByURI(uri string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byURI[uri]
	return e, ok
}

// DiscoveryRecord is what the protocol engine's response handler reports
// for one discovered resource.
type DiscoveryRecord struct {
	DeviceID string
	Host     string
	Resource transport.Resource
}

// InsertOrUpdate creates the Device Entry if absent, appends the
// resource, folds new types/interfaces into the device's union sets, and
// records the host URI if new. Returns the entry, whether
// it was newly created, and whether anything observable changed (new
// URI, new resource, new type, or new interface).
func (r *Registry) InsertOrUpdate(rec DiscoveryRecord) (entry *Entry, isNew, changed bool, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()

	e, ok := r.byID[rec.DeviceID]
	if !ok {
		e = newEntry(rec.DeviceID, now)
		r.byID[rec.DeviceID] = e
		isNew = true
	}

	e.DeviceNotRespondingIndicated = false
	e.LastResponseTimeToDiscovery = now

	if _, exists := e.ResourceMap[rec.Resource.URI()]; !exists {
		changed = true
	}
	e.ResourceMap[rec.Resource.URI()] = rec.Resource

	if r.addURILocked(e, rec.Host) {
		changed = true
	}

	var typesChanged, ifacesChanged bool
	e.DiscoveredResourceTypes, typesChanged = model.UnionStrings(e.DiscoveredResourceTypes, rec.Resource.ResourceTypes())
	e.DiscoveredResourceInterfaces, ifacesChanged = model.UnionStrings(e.DiscoveredResourceInterfaces, rec.Resource.ResourceInterfaces())
	changed = changed || typesChanged || ifacesChanged

	return e, isNew, changed, e.snapshot()
}

// addURILocked adds uri to e.DeviceUris and the secondary index if not
// already present. Caller must hold r.mu.
func (r *Registry) addURILocked(e *Entry, uri string) bool {
	if uri == "" {
		return false
	}
	for _, existing := range e.DeviceUris {
		if existing == uri {
			return false
		}
	}
	e.DeviceUris = append(e.DeviceUris, uri)
	r.byURI[uri] = e
	return true
}

// AddURI adds uri to the device's known URIs and the secondary index if
// new, returning whether anything changed. Used by the metadata fetcher
// when a device-info/platform-info response arrives from a previously
// unseen host.
func (r *Registry) AddURI(deviceID, uri string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[deviceID]
	if !ok {
		return false
	}
	return r.addURILocked(e, uri)
}

// Remove deletes the entry for deviceID and every secondary-index entry
// pointing at it.
func (r *Registry) Remove(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(deviceID)
}

func (r *Registry) removeLocked(deviceID string) {
	e, ok := r.byID[deviceID]
	if !ok {
		return
	}
	for _, uri := range e.DeviceUris {
		delete(r.byURI, uri)
	}
	delete(r.byID, deviceID)
}

// SnapshotDevices returns the current set of entries. The slice is a
// fresh copy of the map's pointers; entries themselves are still live and
// must only be read/written under the registry lock by callers that need
// that guarantee (use With for that). This method exists for read-mostly
// iteration such as listing devices in the example shell.
func (r *Registry) SnapshotDevices() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Entry, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	return out
}

// Count returns the number of tracked devices.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Locker exposes the mutex guarding the registry so other components
// that must stay lock-consistent with it (the Callback Bus) can serialize
// their own state changes against the same lock rather than a second,
// independent one.
func (r *Registry) Locker() sync.Locker {
	return &r.mu
}

// With runs fn with the registry lock held. The raw maps are intentionally
// not exposed; fn receives a Tx that can call the _locked family of
// helpers. Any component that must perform several registry operations
// as one atomic step (the maintenance loop's classification pass, for
// instance) uses With rather than taking the lock itself.
func (r *Registry) With(fn func(tx *Tx)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&Tx{r: r})
}

// Tx is a handle to the registry's internals valid only for the duration
// of a With callback.
type Tx struct {
	r *Registry
}

// Lookup returns the entry for deviceID within an in-progress
// transaction.
func (tx *Tx) Lookup(deviceID string) (*Entry, bool) {
	e, ok := tx.r.byID[deviceID]
	return e, ok
}

// LookupByURI returns the entry for uri within an in-progress
// transaction.
func (tx *Tx) LookupByURI(uri string) (*Entry, bool) {
	e, ok := tx.r.byURI[uri]
	return e, ok
}

// AddURI adds uri to e's known URIs within an in-progress transaction.
func (tx *Tx) AddURI(e *Entry, uri string) bool {
	return tx.r.addURILocked(e, uri)
}

// Remove deletes deviceID within an in-progress transaction.
func (tx *Tx) Remove(deviceID string) {
	tx.r.removeLocked(deviceID)
}

// Devices returns all entries within an in-progress transaction.
func (tx *Tx) Devices() map[string]*Entry {
	return tx.r.byID
}

// Now returns the registry's clock reading.
func (tx *Tx) Now() time.Time {
	return tx.r.clock()
}
