package main

import (
	"context"
	"sync"

	"github.com/SashankSharma/iotivity/pkg/transport"
	"github.com/google/uuid"
)

// simResource is an in-memory stand-in for a discovered device resource,
// good enough to drive the example shell without a real CoAP stack.
type simResource struct {
	mu         sync.Mutex
	path       string
	host       string
	sid        string
	types      []string
	interfaces []string
	props      transport.Representation
}

func (r *simResource) URI() string                { return r.path }
func (r *simResource) Host() string                { return r.host }
func (r *simResource) SID() string                 { return r.sid }
func (r *simResource) ResourceTypes() []string      { return r.types }
func (r *simResource) ResourceInterfaces() []string { return r.interfaces }
func (r *simResource) IsObservable() bool           { return true }

func (r *simResource) Get(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	r.mu.Lock()
	rep := make(transport.Representation, len(r.props))
	for k, v := range r.props {
		rep[k] = v
	}
	r.mu.Unlock()
	cb(transport.OperationResult{Code: transport.ResultOK, Representation: rep})
	return nil
}

func (r *simResource) Post(ctx context.Context, rep transport.Representation, query map[string]string, cb transport.OperationCallback) error {
	r.mu.Lock()
	for k, v := range rep {
		r.props[k] = v
	}
	r.mu.Unlock()
	cb(transport.OperationResult{Code: transport.ResultResourceChanged, Representation: rep})
	return nil
}

func (r *simResource) Delete(ctx context.Context, cb transport.OperationCallback) error {
	cb(transport.OperationResult{Code: transport.ResultResourceDeleted})
	return nil
}

func (r *simResource) Observe(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	return nil
}

func (r *simResource) CancelObserve(ctx context.Context) error { return nil }

// simClient is a fixed two-device in-memory transport.ResourceClient.
type simClient struct {
	resources []*simResource
}

func newSimClient() *simClient {
	return &simClient{
		resources: []*simResource{
			{path: "/a/light", host: "coap://sim-host-1", sid: uuid.NewString(), types: []string{"oic.r.light"}, interfaces: []string{"oic.if.a"}, props: transport.Representation{"on": false}},
			{path: "/a/switch", host: "coap://sim-host-2", sid: uuid.NewString(), types: []string{"oic.r.switch"}, interfaces: []string{"oic.if.a"}, props: transport.Representation{"on": true}},
		},
	}
}

func (c *simClient) FindResource(ctx context.Context, host, uri string, handler transport.ResponseHandler) error {
	for _, r := range c.resources {
		if host != "" && r.host != host {
			continue
		}
		handler(r)
	}
	return nil
}

func (c *simClient) GetDeviceInfo(ctx context.Context, host, uri string, handler transport.DeviceInfoHandler) error {
	handler(transport.Representation{"n": "Simulated Device", "icv": "ocf.2.0.0"})
	return nil
}

func (c *simClient) GetPlatformInfo(ctx context.Context, host, uri string, handler transport.PlatformInfoHandler) error {
	handler(transport.Representation{"pi": uuid.NewString(), "mnmn": "ExampleCorp"})
	return nil
}

func (c *simClient) GetPropertyValue(ctx context.Context, kind, key string) (string, error) {
	return "", nil
}

// simMOTDevice is an always-succeeds MOT handle for the example's
// RequestAccess demo.
type simMOTDevice struct{}

func (d *simMOTDevice) IsSubownerOfDevice() (bool, error) { return false, nil }
func (d *simMOTDevice) SelectedOwnershipTransferMethod() transport.OwnershipTransferMethod {
	return transport.RandomDevicePin
}
func (d *simMOTDevice) AddPreconfigPIN(pin []byte) error { return nil }
func (d *simMOTDevice) DoMultipleOwnershipTransfer(onComplete transport.MOTCompleteCallback) error {
	go onComplete(nil)
	return nil
}

// simProvisioner is a no-op-backed transport.SecurityProvisioner.
type simProvisioner struct{}

func (p *simProvisioner) ProvisionInit(dbPath string) error { return nil }
func (p *simProvisioner) DiscoverMultipleOwnerEnabledDevice(ctx context.Context, deviceUUID string) (transport.MOTDevice, error) {
	return &simMOTDevice{}, nil
}
func (p *simProvisioner) RegisterInputPinCallback(h transport.InputPinHandler) (transport.PinCallbackHandle, error) {
	return 1, nil
}
func (p *simProvisioner) DeregisterInputPinCallback(h transport.PinCallbackHandle) error { return nil }
func (p *simProvisioner) RegisterDisplayPinCallback(h transport.DisplayPinHandler) (transport.PinCallbackHandle, error) {
	return 2, nil
}
func (p *simProvisioner) DeregisterDisplayPinCallback(h transport.PinCallbackHandle) error { return nil }
