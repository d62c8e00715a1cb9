// Package transport defines the narrow interfaces the registry core
// consumes from external collaborators: the CoAP-over-UDP/TCP protocol
// engine, the multi-owner-security provisioning primitives, and the
// persistent-storage backend for the security database. This package
// contains no protocol implementation; it exists so the core can be
// built, tested, and reasoned about without depending on a concrete
// transport stack.
package transport

import "context"

// Representation is a generic property bag returned by get/observe
// responses and sent on set/create requests. Keys follow the well-known
// property names in pkg/model (e.g. "n", "icv", "dmv").
type Representation map[string]any

// GetValue reads a string-typed property, returning ok=false if absent
// or not a string.
func (r Representation) GetValue(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Host returns the representation's originating host, if the protocol
// engine populated the reserved "__host" key.
func (r Representation) Host() string {
	s, _ := r.GetValue("__host")
	return s
}

// ResponseHandler is invoked by the protocol engine once per discovered
// resource.
type ResponseHandler func(Resource)

// DeviceInfoHandler is invoked once per device-info response.
type DeviceInfoHandler func(Representation)

// PlatformInfoHandler is invoked once per platform-info response.
type PlatformInfoHandler func(Representation)

// OperationResult is the terminal outcome of a get/set/create/delete/
// observe request as reported by the protocol engine, before it is
// mapped to a status.Status by the dispatcher.
type OperationResult struct {
	// Code is the protocol engine's raw result code (
	// "Protocol code" column, e.g. OK/Continue/ResourceChanged/
	// Unauthorized/ResourceCreated/ResourceDeleted).
	Code int

	// Representation carries the response payload, if any.
	Representation Representation

	// SequenceNumber is set for observe notifications.
	SequenceNumber int
}

// Protocol engine result codes. Values are
// ordered so that "strictly greater than ResourceChanged" (used by the
// get/observe mapping) is a simple integer comparison, matching the
// original OCStackResult ordering.
const (
	ResultOK              = 0
	ResultResourceCreated = 1
	ResultResourceDeleted = 2
	ResultContinue        = 3
	ResultResourceChanged = 4
	ResultUnauthorizedReq = 5
	ResultError           = 100
)

// OperationCallback receives the terminal result of a dispatched
// operation.
type OperationCallback func(OperationResult)

// Resource is a handle to a single discovered resource, obtained from the
// protocol engine via ResourceClient.FindResource. It is opaque except
// for the accessors the core needs.
type Resource interface {
	// URI returns the resource path (e.g. "/a/light").
	URI() string

	// Host returns the resource's originating host/endpoint URI.
	Host() string

	// SID returns the resource's owning device id.
	SID() string

	// ResourceTypes returns the resource's "rt" values.
	ResourceTypes() []string

	// ResourceInterfaces returns the resource's "if" values.
	ResourceInterfaces() []string

	// IsObservable reports whether the resource supports Observe.
	IsObservable() bool

	// Get issues a GET request with the given query parameters.
	Get(ctx context.Context, query map[string]string, cb OperationCallback) error

	// Post issues a POST request (used for both set and create).
	Post(ctx context.Context, rep Representation, query map[string]string, cb OperationCallback) error

	// Delete issues a DELETE request.
	Delete(ctx context.Context, cb OperationCallback) error

	// Observe starts an observe subscription.
	Observe(ctx context.Context, query map[string]string, cb OperationCallback) error

	// CancelObserve cancels an active observe subscription.
	CancelObserve(ctx context.Context) error
}

// ResourceClient is the protocol engine capability used for discovery and
// common-resource metadata acquisition.
type ResourceClient interface {
	// FindResource issues a discovery query. An empty host means
	// multicast; a non-empty host means unicast against that host. uri
	// uses the well-known-resources path, optionally with a "?rt=" filter.
	FindResource(ctx context.Context, host, uri string, handler ResponseHandler) error

	// GetDeviceInfo fetches /oic/d from the given host.
	GetDeviceInfo(ctx context.Context, host, uri string, handler DeviceInfoHandler) error

	// GetPlatformInfo fetches /oic/p from the given host.
	GetPlatformInfo(ctx context.Context, host, uri string, handler PlatformInfoHandler) error

	// GetPropertyValue reads a single generic property (used for
	// dataModelVersions and protocolIndependentId, which are fetched
	// separately from the bulk device-info response).
	GetPropertyValue(ctx context.Context, kind, key string) (string, error)
}
