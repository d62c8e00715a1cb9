package core

import (
	"context"
	"testing"
	"time"

	"github.com/SashankSharma/iotivity/pkg/registry"
	"github.com/SashankSharma/iotivity/pkg/transport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeProvisioner struct {
	initCalls         int
	inputRegistered   bool
	displayRegistered bool

	// motDevice, if set, is returned for every discovery request so tests
	// can exercise the worker past MOT discovery.
	motDevice transport.MOTDevice
}

func (p *fakeProvisioner) ProvisionInit(dbPath string) error {
	p.initCalls++
	return nil
}
func (p *fakeProvisioner) DiscoverMultipleOwnerEnabledDevice(ctx context.Context, deviceUUID string) (transport.MOTDevice, error) {
	return p.motDevice, nil
}
func (p *fakeProvisioner) RegisterInputPinCallback(h transport.InputPinHandler) (transport.PinCallbackHandle, error) {
	p.inputRegistered = true
	return 1, nil
}
func (p *fakeProvisioner) DeregisterInputPinCallback(h transport.PinCallbackHandle) error {
	p.inputRegistered = false
	return nil
}
func (p *fakeProvisioner) RegisterDisplayPinCallback(h transport.DisplayPinHandler) (transport.PinCallbackHandle, error) {
	p.displayRegistered = true
	return 2, nil
}
func (p *fakeProvisioner) DeregisterDisplayPinCallback(h transport.PinCallbackHandle) error {
	p.displayRegistered = false
	return nil
}

type fakeClient struct{}

func (c *fakeClient) FindResource(ctx context.Context, host, uri string, handler transport.ResponseHandler) error {
	return nil
}
func (c *fakeClient) GetDeviceInfo(ctx context.Context, host, uri string, handler transport.DeviceInfoHandler) error {
	return nil
}
func (c *fakeClient) GetPlatformInfo(ctx context.Context, host, uri string, handler transport.PlatformInfoHandler) error {
	return nil
}
func (c *fakeClient) GetPropertyValue(ctx context.Context, kind, key string) (string, error) {
	return "", nil
}

type fakeStorage struct{}

func (s *fakeStorage) Open(path, mode string) (transport.StorageFile, error) { return nil, nil }
func (s *fakeStorage) Unlink(path string) error                               { return nil }

type fakeDiscoveredResource struct {
	uri, host, sid string
}

func (r *fakeDiscoveredResource) URI() string                { return r.uri }
func (r *fakeDiscoveredResource) Host() string                { return r.host }
func (r *fakeDiscoveredResource) SID() string                 { return r.sid }
func (r *fakeDiscoveredResource) ResourceTypes() []string      { return nil }
func (r *fakeDiscoveredResource) ResourceInterfaces() []string { return nil }
func (r *fakeDiscoveredResource) IsObservable() bool           { return false }
func (r *fakeDiscoveredResource) Get(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	return nil
}
func (r *fakeDiscoveredResource) Post(ctx context.Context, rep transport.Representation, query map[string]string, cb transport.OperationCallback) error {
	return nil
}
func (r *fakeDiscoveredResource) Delete(ctx context.Context, cb transport.OperationCallback) error {
	return nil
}
func (r *fakeDiscoveredResource) Observe(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	return nil
}
func (r *fakeDiscoveredResource) CancelObserve(ctx context.Context) error { return nil }

// stuckMOTDevice accepts a transfer but never invokes onComplete, modeling
// a device that hangs mid-transfer. Used to put a security worker into the
// AwaitCompletion select so Stop's stop-signal wakeup can be exercised.
type stuckMOTDevice struct{}

func (d *stuckMOTDevice) IsSubownerOfDevice() (bool, error) { return false, nil }
func (d *stuckMOTDevice) SelectedOwnershipTransferMethod() transport.OwnershipTransferMethod {
	return transport.RandomDevicePin
}
func (d *stuckMOTDevice) AddPreconfigPIN(pin []byte) error { return nil }
func (d *stuckMOTDevice) DoMultipleOwnershipTransfer(onComplete transport.MOTCompleteCallback) error {
	return nil
}

func newTestFramework() (*Framework, *fakeProvisioner) {
	cfg := DefaultConfig(AppInfo{AppName: "test-app"})
	cfg.MaintenancePeriod = 10 * time.Millisecond
	prov := &fakeProvisioner{}
	return New(cfg, &fakeClient{}, prov, &fakeStorage{}, nil), prov
}

func TestStartThenStartIsIdempotent(t *testing.T) {
	fw, prov := newTestFramework()

	serr := fw.Start(context.Background())
	require.Nil(t, serr)
	serr = fw.Start(context.Background())
	require.Nil(t, serr)
	require.Equal(t, 1, prov.initCalls, "second Start must not re-initialize")

	fw.Stop()
}

func TestStopThenStopIsNoOp(t *testing.T) {
	fw, _ := newTestFramework()
	require.Nil(t, fw.Start(context.Background()))

	require.Nil(t, fw.Stop())
	require.Nil(t, fw.Stop())
}

func TestStartRegistersAndStopDeregistersPinCallbacks(t *testing.T) {
	fw, prov := newTestFramework()
	require.Nil(t, fw.Start(context.Background()))
	require.True(t, prov.inputRegistered)
	require.True(t, prov.displayRegistered)

	require.Nil(t, fw.Stop())
	require.False(t, prov.inputRegistered)
	require.False(t, prov.displayRegistered)
}

func TestStopWaitsForInFlightSecurityWorker(t *testing.T) {
	cfg := DefaultConfig(AppInfo{AppName: "test-app"})
	cfg.MaintenancePeriod = 10 * time.Millisecond
	prov := &fakeProvisioner{motDevice: &stuckMOTDevice{}}
	fw := New(cfg, &fakeClient{}, prov, &fakeStorage{}, nil)
	fw.Security.CompletionTimeout = time.Minute

	require.Nil(t, fw.Start(context.Background()))

	id := uuid.NewString()
	fw.Registry.InsertOrUpdate(registry.DiscoveryRecord{
		DeviceID: id,
		Host:     "coap://h1/a",
		Resource: &fakeDiscoveredResource{uri: "/a/light", host: "coap://h1/a", sid: id},
	})

	serr := fw.Security.RequestAccess(context.Background(), id, "tok")
	require.Nil(t, serr)

	require.Eventually(t, func() bool {
		e, ok := fw.Registry.Lookup(id)
		return ok && e.Security.IsStarted
	}, time.Second, time.Millisecond, "security worker never started")

	stopDone := make(chan struct{})
	start := time.Now()
	go func() {
		fw.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
		require.Less(t, time.Since(start), fw.Security.CompletionTimeout, "Stop must not wait out CompletionTimeout")
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return; stop signal failed to wake the in-flight security worker")
	}
}

func TestValidateRejectsMissingAppName(t *testing.T) {
	cfg := DefaultConfig(AppInfo{})
	require.Error(t, cfg.Validate())
}
