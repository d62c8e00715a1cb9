package dispatch

import (
	"context"
	"testing"

	"github.com/SashankSharma/iotivity/pkg/callback"
	"github.com/SashankSharma/iotivity/pkg/registry"
	"github.com/SashankSharma/iotivity/pkg/status"
	"github.com/SashankSharma/iotivity/pkg/transport"
	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	uri, host, sid    string
	types, interfaces []string
	observable        bool
	getCode           int
	setCode           int
	deleteCode        int
	cancelled         bool
}

func (f *fakeResource) URI() string                { return f.uri }
func (f *fakeResource) Host() string                { return f.host }
func (f *fakeResource) SID() string                 { return f.sid }
func (f *fakeResource) ResourceTypes() []string      { return f.types }
func (f *fakeResource) ResourceInterfaces() []string { return f.interfaces }
func (f *fakeResource) IsObservable() bool           { return f.observable }

func (f *fakeResource) Get(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	cb(transport.OperationResult{Code: f.getCode})
	return nil
}
func (f *fakeResource) Post(ctx context.Context, rep transport.Representation, query map[string]string, cb transport.OperationCallback) error {
	cb(transport.OperationResult{Code: f.setCode})
	return nil
}
func (f *fakeResource) Delete(ctx context.Context, cb transport.OperationCallback) error {
	cb(transport.OperationResult{Code: f.deleteCode})
	return nil
}
func (f *fakeResource) Observe(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	cb(transport.OperationResult{Code: transport.ResultOK})
	return nil
}
func (f *fakeResource) CancelObserve(ctx context.Context) error {
	f.cancelled = true
	return nil
}

func newFixture(t *testing.T) (*Dispatcher, *registry.Registry, *fakeResource) {
	t.Helper()
	reg := registry.New(nil)
	bus := callback.NewBus(reg.Locker())
	res := &fakeResource{uri: "/a/light", host: "coap://h1/a", sid: "A", types: []string{"t1"}, getCode: transport.ResultOK, setCode: transport.ResultOK, deleteCode: transport.ResultResourceDeleted}
	reg.InsertOrUpdate(registry.DiscoveryRecord{DeviceID: "A", Host: "coap://h1/a", Resource: res})
	return New(reg, bus), reg, res
}

func TestGetPropertiesOnUnknownDeviceFailsSynchronously(t *testing.T) {
	reg := registry.New(nil)
	bus := callback.NewBus(reg.Locker())
	d := New(reg, bus)

	var delivered bool
	bus.Register(func(ev callback.Event) { delivered = true })

	serr := d.GetProperties(context.Background(), "Z", &CallbackInfo{ResourcePath: "/a/light"})
	require.NotNil(t, serr)
	require.Equal(t, status.DeviceNotDiscovered, serr.Status)
	require.False(t, delivered)
}

func TestGetPropertiesDeliversGetComplete(t *testing.T) {
	d, _, _ := newFixture(t)
	var got callback.Event
	d.bus.Register(func(ev callback.Event) { got = ev })

	ci := &CallbackInfo{ResourcePath: "/a/light", Token: "tok1"}
	serr := d.GetProperties(context.Background(), "A", ci)

	require.Nil(t, serr)
	require.Equal(t, callback.GetComplete, got.Kind)
	require.Equal(t, status.Ok, got.Status)
	require.Equal(t, "tok1", got.Context)
}

func TestSetPropertiesMapsUnauthorizedToAccessDenied(t *testing.T) {
	d, _, res := newFixture(t)
	res.setCode = transport.ResultUnauthorizedReq

	var got callback.Event
	d.bus.Register(func(ev callback.Event) { got = ev })

	serr := d.SetProperties(context.Background(), "A", transport.Representation{"x": "1"}, &CallbackInfo{ResourcePath: "/a/light"})

	require.Nil(t, serr)
	require.Equal(t, callback.SetComplete, got.Kind)
	require.Equal(t, status.AccessDenied, got.Status)
}

func TestGetIgnoresUnauthorizedAsymmetry(t *testing.T) {
	d, _, res := newFixture(t)
	res.getCode = transport.ResultUnauthorizedReq

	var got callback.Event
	d.bus.Register(func(ev callback.Event) { got = ev })

	d.GetProperties(context.Background(), "A", &CallbackInfo{ResourcePath: "/a/light"})

	require.Equal(t, status.Fail, got.Status)
}

func TestObserveThenStopObserveCancelsBoundResource(t *testing.T) {
	d, _, res := newFixture(t)
	ci := &CallbackInfo{ResourcePath: "/a/light"}

	serr := d.Observe(context.Background(), "A", ci)
	require.Nil(t, serr)

	serr = d.StopObserve(context.Background(), ci)
	require.Nil(t, serr)
	require.True(t, res.cancelled)
}

func TestStopObserveOnUnboundCallbackInfoIsNoOp(t *testing.T) {
	d, _, _ := newFixture(t)
	serr := d.StopObserve(context.Background(), &CallbackInfo{})
	require.Nil(t, serr)
}

func TestResolveFallsBackToResourceType(t *testing.T) {
	d, _, _ := newFixture(t)
	ci := &CallbackInfo{ResourceType: "t1"}
	serr := d.GetProperties(context.Background(), "A", ci)
	require.Nil(t, serr)
}

func TestCopyDeviceInfoFailsUntilAvailable(t *testing.T) {
	d, reg, _ := newFixture(t)
	_, serr := d.CopyDeviceInfo("A")
	require.NotNil(t, serr)
	require.Equal(t, status.InformationNotAvailable, serr.Status)

	reg.With(func(tx *registry.Tx) {
		e, _ := tx.Lookup("A")
		e.DeviceInfoAvailable = true
		e.DeviceInfo.DeviceName = "Alpha"
	})

	rep, serr := d.CopyDeviceInfo("A")
	require.Nil(t, serr)
	require.Equal(t, "Alpha", rep["n"])
}
