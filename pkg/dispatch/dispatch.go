// Package dispatch implements the Operation Dispatcher:
// translation of application operation requests into protocol calls,
// with terminal results delivered through the Callback Bus.
package dispatch

import (
	"context"
	"time"

	"github.com/SashankSharma/iotivity/pkg/callback"
	"github.com/SashankSharma/iotivity/pkg/model"
	"github.com/SashankSharma/iotivity/pkg/registry"
	"github.com/SashankSharma/iotivity/pkg/status"
	"github.com/SashankSharma/iotivity/pkg/transport"
)

// OperationKind names the dispatchable operations.
type OperationKind uint8

const (
	OpGet OperationKind = iota
	OpSet
	OpCreate
	OpDelete
	OpObserve
	OpStopObserve
	OpPing
)

// CallbackInfo is the per-operation context attached to a pending
// request. The dispatcher owns it while the
// request is in-flight and drops its reference once the terminal
// callback fires.
type CallbackInfo struct {
	Kind             OperationKind
	ResourcePath     string
	ResourceType     string
	ResourceInterface string
	Token            any
	RequestSentAt    time.Time

	// boundResource is pinned by Observe so StopObserve can cancel the
	// exact subscription it started, even if the device entry has since
	// been evicted.
	boundResource transport.Resource
}

// Dispatcher resolves devices/resources and issues protocol operations.
type Dispatcher struct {
	reg *registry.Registry
	bus *callback.Bus
}

// New creates a Dispatcher over reg, delivering terminal events to bus.
func New(reg *registry.Registry, bus *callback.Bus) *Dispatcher {
	return &Dispatcher{reg: reg, bus: bus}
}

// resolveResource resolves a resource on e: exact path match first, then
// the first resource whose types include resourceType.
func resolveResource(e *registry.Entry, resourcePath, resourceType string) (transport.Resource, *status.Error) {
	if resourcePath != "" {
		if r, ok := e.ResourceMap[resourcePath]; ok {
			return r, nil
		}
	}
	if resourceType != "" {
		for _, r := range e.ResourceMap {
			desc := model.ResourceDescriptor{Types: r.ResourceTypes()}
			if desc.HasType(resourceType) {
				return r, nil
			}
		}
	}
	return nil, status.NewError(status.ResourceNotFound, "no matching resource")
}

func buildQuery(resourceType, resourceInterface string) map[string]string {
	q := make(map[string]string, 2)
	if resourceType != "" {
		q["rt"] = resourceType
	}
	if resourceInterface != "" {
		q["if"] = resourceInterface
	}
	return q
}

// mapResult applies the protocol-code to framework-status mapping table.
// forGetOrObserve preserves a documented asymmetry: get/observe never
// consult AccessDenied, any code strictly greater than ResultResourceChanged
// maps to Fail.
func mapResult(code int, forGetOrObserve bool) status.Status {
	if forGetOrObserve {
		if code > transport.ResultResourceChanged {
			return status.Fail
		}
		return status.Ok
	}
	switch code {
	case transport.ResultOK, transport.ResultContinue, transport.ResultResourceChanged:
		return status.Ok
	case transport.ResultUnauthorizedReq:
		return status.AccessDenied
	case transport.ResultResourceCreated:
		return status.ResourceCreated
	case transport.ResultResourceDeleted:
		return status.ResourceDeleted
	default:
		return status.Fail
	}
}

func eventKindFor(kind OperationKind) callback.Kind {
	switch kind {
	case OpGet:
		return callback.GetComplete
	case OpSet:
		return callback.SetComplete
	case OpCreate:
		return callback.CreateComplete
	case OpDelete:
		return callback.DeleteComplete
	case OpObserve:
		return callback.ObserveUpdate
	default:
		return callback.GetComplete
	}
}

func (d *Dispatcher) deliver(kind OperationKind, deviceID string, st status.Status, rep transport.Representation, ci *CallbackInfo) {
	d.bus.Deliver(callback.Event{
		Kind:           eventKindFor(kind),
		DeviceID:       deviceID,
		Status:         st,
		Representation: rep,
		Context:        ci.Token,
	})
}

func (d *Dispatcher) resolve(deviceID, resourcePath, resourceType string) (*registry.Entry, transport.Resource, *status.Error) {
	e, ok := d.reg.Lookup(deviceID)
	if !ok {
		return nil, nil, status.NewError(status.DeviceNotDiscovered, deviceID)
	}
	r, serr := resolveResource(e, resourcePath, resourceType)
	if serr != nil {
		return nil, nil, serr
	}
	return e, r, nil
}

// GetProperties issues a get against the resolved resource.
func (d *Dispatcher) GetProperties(ctx context.Context, deviceID string, ci *CallbackInfo) *status.Error {
	_, r, serr := d.resolve(deviceID, ci.ResourcePath, ci.ResourceType)
	if serr != nil {
		return serr
	}
	ci.Kind = OpGet
	ci.RequestSentAt = time.Now()
	return d.wrapErr(r.Get(ctx, buildQuery(ci.ResourceType, ci.ResourceInterface), func(res transport.OperationResult) {
		d.deliver(OpGet, deviceID, mapResult(res.Code, true), res.Representation, ci)
	}))
}

// SetProperties issues a post (set) against the resolved resource.
func (d *Dispatcher) SetProperties(ctx context.Context, deviceID string, rep transport.Representation, ci *CallbackInfo) *status.Error {
	_, r, serr := d.resolve(deviceID, ci.ResourcePath, ci.ResourceType)
	if serr != nil {
		return serr
	}
	ci.Kind = OpSet
	ci.RequestSentAt = time.Now()
	return d.wrapErr(r.Post(ctx, rep, buildQuery(ci.ResourceType, ci.ResourceInterface), func(res transport.OperationResult) {
		d.deliver(OpSet, deviceID, mapResult(res.Code, false), res.Representation, ci)
	}))
}

// CreateResource issues a post (create) against the resolved resource.
func (d *Dispatcher) CreateResource(ctx context.Context, deviceID string, rep transport.Representation, ci *CallbackInfo) *status.Error {
	_, r, serr := d.resolve(deviceID, ci.ResourcePath, ci.ResourceType)
	if serr != nil {
		return serr
	}
	ci.Kind = OpCreate
	ci.RequestSentAt = time.Now()
	return d.wrapErr(r.Post(ctx, rep, buildQuery(ci.ResourceType, ci.ResourceInterface), func(res transport.OperationResult) {
		d.deliver(OpCreate, deviceID, mapResult(res.Code, false), res.Representation, ci)
	}))
}

// DeleteResource issues a delete against the resolved resource.
func (d *Dispatcher) DeleteResource(ctx context.Context, deviceID string, ci *CallbackInfo) *status.Error {
	_, r, serr := d.resolve(deviceID, ci.ResourcePath, ci.ResourceType)
	if serr != nil {
		return serr
	}
	ci.Kind = OpDelete
	ci.RequestSentAt = time.Now()
	return d.wrapErr(r.Delete(ctx, func(res transport.OperationResult) {
		d.deliver(OpDelete, deviceID, mapResult(res.Code, false), res.Representation, ci)
	}))
}

// Observe starts a subscription and pins the resolved resource into ci
// so StopObserve can cancel the exact subscription later.
func (d *Dispatcher) Observe(ctx context.Context, deviceID string, ci *CallbackInfo) *status.Error {
	_, r, serr := d.resolve(deviceID, ci.ResourcePath, ci.ResourceType)
	if serr != nil {
		return serr
	}
	ci.Kind = OpObserve
	ci.RequestSentAt = time.Now()
	ci.boundResource = r
	return d.wrapErr(r.Observe(ctx, buildQuery(ci.ResourceType, ci.ResourceInterface), func(res transport.OperationResult) {
		d.deliver(OpObserve, deviceID, mapResult(res.Code, true), res.Representation, ci)
	}))
}

// StopObserve cancels the subscription bound in ci through the pinned
// resource handle, without a registry lookup, so it still reaches the
// handle after the owning device has been evicted. It is a safe no-op
// (not a panic) if ci carries no bound resource, which is the case when
// Observe was never called with ci or failed to resolve a resource.
func (d *Dispatcher) StopObserve(ctx context.Context, ci *CallbackInfo) *status.Error {
	if ci.boundResource == nil {
		return nil
	}
	if err := ci.boundResource.CancelObserve(ctx); err != nil {
		return status.NewError(status.Fail, err.Error())
	}
	return nil
}

// Ping issues a typed discovery against the device's first known URI
// and records lastPingTime on successful dispatch.
func (d *Dispatcher) Ping(ctx context.Context, client transport.ResourceClient, deviceID string) *status.Error {
	e, ok := d.reg.Lookup(deviceID)
	if !ok {
		return status.NewError(status.DeviceNotDiscovered, deviceID)
	}
	if len(e.DeviceUris) == 0 {
		return status.NewError(status.ResourceNotFound, "device has no known uri")
	}
	host := e.DeviceUris[0]
	err := client.FindResource(ctx, host, model.WellKnownURI+"?rt="+model.DeviceType, func(r transport.Resource) {})
	if err != nil {
		return status.NewError(status.Fail, err.Error())
	}
	d.reg.With(func(tx *registry.Tx) {
		if entry, ok := tx.Lookup(deviceID); ok {
			entry.LastPingTime = tx.Now()
		}
	})
	return nil
}

// IsObservable reports whether the resolved resource supports observe.
func (d *Dispatcher) IsObservable(deviceID, resourcePath, resourceType string) (bool, *status.Error) {
	_, r, serr := d.resolve(deviceID, resourcePath, resourceType)
	if serr != nil {
		return false, serr
	}
	return r.IsObservable(), nil
}

// CopyDeviceInfo returns the device's cached device-info, failing with
// InformationNotAvailable if it has not yet been fetched.
func (d *Dispatcher) CopyDeviceInfo(deviceID string) (transport.Representation, *status.Error) {
	e, ok := d.reg.Lookup(deviceID)
	if !ok {
		return nil, status.NewError(status.DeviceNotDiscovered, deviceID)
	}
	if !e.DeviceInfoAvailable {
		return nil, status.NewError(status.InformationNotAvailable, "device info not yet fetched")
	}
	return transport.Representation{
		"n":   e.DeviceInfo.DeviceName,
		"icv": e.DeviceInfo.SoftwareVersion,
	}, nil
}

// CopyPlatformInfo returns the device's cached platform-info, failing
// with InformationNotAvailable if it has not yet been fetched.
func (d *Dispatcher) CopyPlatformInfo(deviceID string) (transport.Representation, *status.Error) {
	e, ok := d.reg.Lookup(deviceID)
	if !ok {
		return nil, status.NewError(status.DeviceNotDiscovered, deviceID)
	}
	if !e.PlatformInfoAvailable {
		return nil, status.NewError(status.InformationNotAvailable, "platform info not yet fetched")
	}
	return transport.Representation{
		"pi":   e.PlatformInfo.PlatformID,
		"mnmn": e.PlatformInfo.ManufacturerName,
	}, nil
}

// CopyResourcePaths returns every known resource path for deviceID.
func (d *Dispatcher) CopyResourcePaths(deviceID string) ([]string, *status.Error) {
	e, ok := d.reg.Lookup(deviceID)
	if !ok {
		return nil, status.NewError(status.DeviceNotDiscovered, deviceID)
	}
	paths := make([]string, 0, len(e.ResourceMap))
	for p := range e.ResourceMap {
		paths = append(paths, p)
	}
	return paths, nil
}

// CopyResourceInfo returns the types/interfaces/observability of one
// resource.
func (d *Dispatcher) CopyResourceInfo(deviceID, resourcePath string) (types, interfaces []string, observable bool, serr *status.Error) {
	e, ok := d.reg.Lookup(deviceID)
	if !ok {
		return nil, nil, false, status.NewError(status.DeviceNotDiscovered, deviceID)
	}
	r, ok := e.ResourceMap[resourcePath]
	if !ok {
		return nil, nil, false, status.NewError(status.ResourceNotFound, resourcePath)
	}
	return r.ResourceTypes(), r.ResourceInterfaces(), r.IsObservable(), nil
}

func (d *Dispatcher) wrapErr(err error) *status.Error {
	if err == nil {
		return nil
	}
	return status.NewError(status.Fail, err.Error())
}
