package registry

import (
	"time"

	"github.com/SashankSharma/iotivity/pkg/model"
	"github.com/SashankSharma/iotivity/pkg/transport"
)

// Security holds the per-device multi-owner security sub-state.
type Security struct {
	// IsStarted enforces at-most-one concurrent RequestAccess per device
	// (invariant 5).
	IsStarted bool

	// Subowner records whether this application is enrolled.
	Subowner bool

	// InfoAvailable is set once the MOT discovery probe has returned a
	// non-nil handle.
	InfoAvailable bool

	// Device is the opaque MOT handle returned by the provisioner.
	Device transport.MOTDevice

	// done is closed exactly once by the worker's completion signal
	// (AwaitCompletion rendezvous); nil when no workflow is in flight.
	done chan struct{}
}

// Entry is the Device Entry aggregate: per-device identity,
// known URIs, resource table, metadata availability, liveness, and
// security sub-state. All fields are mutated only while the owning
// Registry's lock is held.
type Entry struct {
	DeviceID string

	// DeviceUris is the ordered, de-duplicated sequence of host URIs this
	// device has been seen at.
	DeviceUris []string

	// ResourceMap maps resource path to its protocol-engine handle.
	ResourceMap map[string]transport.Resource

	DiscoveredResourceTypes      []string
	DiscoveredResourceInterfaces []string

	DeviceInfo          model.DeviceInfo
	DeviceInfoAvailable bool
	DeviceInfoRequests  int

	PlatformInfo          model.PlatformInfo
	PlatformInfoAvailable bool
	PlatformInfoRequests  int

	MaintenanceResourceAvailable bool
	MaintenanceResourceRequests  int

	DeviceOpenCount int

	LastCloseDeviceTime         time.Time
	LastResponseTimeToDiscovery time.Time
	DeviceNotRespondingIndicated bool
	LastPingTime                time.Time

	Security Security
}

// newEntry creates a freshly-discovered Device Entry with zero-value
// counters; its last-close and last-discovery-response timestamps are set
// to now.
func newEntry(deviceID string, now time.Time) *Entry {
	return &Entry{
		DeviceID:             deviceID,
		ResourceMap:          make(map[string]transport.Resource),
		LastCloseDeviceTime:  now,
		LastResponseTimeToDiscovery: now,
	}
}

// resourceTypesFor returns the resource type list for a path, or nil.
func (e *Entry) resourceTypesFor(path string) []string {
	if r, ok := e.ResourceMap[path]; ok {
		return r.ResourceTypes()
	}
	return nil
}

// firstURI returns the device's first known host URI, or "" if none.
func (e *Entry) firstURI() string {
	if len(e.DeviceUris) == 0 {
		return ""
	}
	return e.DeviceUris[0]
}

// BeginSecurityWorkflow marks the entry's security state started and
// returns the fresh completion channel the worker will close, enforcing
// invariant 5 (at most one concurrent workflow per device): ok is false
// if a workflow is already in flight and no state is changed. Caller
// must hold the registry lock (invariant 6).
func (e *Entry) BeginSecurityWorkflow() (done chan struct{}, ok bool) {
	if e.Security.IsStarted {
		return nil, false
	}
	e.Security.IsStarted = true
	e.Security.done = make(chan struct{})
	return e.Security.done, true
}

// CompleteSecurityWorkflow closes the completion channel (waking
// AwaitCompletion), folds subowner into the entry's security state, and
// clears IsStarted so a future RequestAccess can run. Caller must hold
// the registry lock. Safe to call at most once per BeginSecurityWorkflow.
func (e *Entry) CompleteSecurityWorkflow(subowner bool) {
	if subowner {
		e.Security.Subowner = true
	}
	if e.Security.done != nil {
		close(e.Security.done)
		e.Security.done = nil
	}
	e.Security.IsStarted = false
}
