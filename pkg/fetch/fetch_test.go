package fetch

import (
	"context"
	"sync"
	"testing"

	"github.com/SashankSharma/iotivity/pkg/callback"
	"github.com/SashankSharma/iotivity/pkg/model"
	"github.com/SashankSharma/iotivity/pkg/registry"
	"github.com/SashankSharma/iotivity/pkg/transport"
	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	uri, host, sid    string
	types, interfaces []string
}

func (f *fakeResource) URI() string                { return f.uri }
func (f *fakeResource) Host() string                { return f.host }
func (f *fakeResource) SID() string                 { return f.sid }
func (f *fakeResource) ResourceTypes() []string      { return f.types }
func (f *fakeResource) ResourceInterfaces() []string { return f.interfaces }
func (f *fakeResource) IsObservable() bool           { return false }
func (f *fakeResource) Get(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	return nil
}
func (f *fakeResource) Post(ctx context.Context, rep transport.Representation, query map[string]string, cb transport.OperationCallback) error {
	return nil
}
func (f *fakeResource) Delete(ctx context.Context, cb transport.OperationCallback) error { return nil }
func (f *fakeResource) Observe(ctx context.Context, query map[string]string, cb transport.OperationCallback) error {
	return nil
}
func (f *fakeResource) CancelObserve(ctx context.Context) error { return nil }

// fakeClient is a synchronous (no extra goroutines beyond what the
// fetcher itself spawns) transport.ResourceClient test double.
type fakeClient struct {
	mu                sync.Mutex
	findCalls         []string
	deviceInfoReplies map[string]transport.Representation
	platformReplies   map[string]transport.Representation
}

func (c *fakeClient) FindResource(ctx context.Context, host, uri string, handler transport.ResponseHandler) error {
	c.mu.Lock()
	c.findCalls = append(c.findCalls, host+uri)
	c.mu.Unlock()
	return nil
}

func (c *fakeClient) GetDeviceInfo(ctx context.Context, host, uri string, handler transport.DeviceInfoHandler) error {
	if rep, ok := c.deviceInfoReplies[host]; ok {
		handler(rep)
	}
	return nil
}

func (c *fakeClient) GetPlatformInfo(ctx context.Context, host, uri string, handler transport.PlatformInfoHandler) error {
	if rep, ok := c.platformReplies[host]; ok {
		handler(rep)
	}
	return nil
}

func (c *fakeClient) GetPropertyValue(ctx context.Context, kind, key string) (string, error) {
	return "", nil
}

func TestOnResourceFoundDeliversDeviceDiscoveredForNewDevice(t *testing.T) {
	reg := registry.New(nil)
	bus := callback.NewBus(reg.Locker())
	client := &fakeClient{}
	f := New(reg, bus, client, nil)

	var got callback.Event
	bus.Register(func(ev callback.Event) { got = ev })

	res := &fakeResource{uri: "/a/light", host: "coap://h1/a", sid: "A", types: []string{"t1"}}
	handler := f.onResourceFound("")
	handler(res)

	require.Equal(t, callback.DeviceDiscovered, got.Kind)
	require.True(t, got.Responsive)
	require.True(t, got.Updated)
	require.Equal(t, "A", got.DeviceID)
}

func TestFetchCommonResourcesRespectsRetryCap(t *testing.T) {
	reg := registry.New(nil)
	bus := callback.NewBus(reg.Locker())
	client := &fakeClient{}
	f := New(reg, bus, client, nil)

	res := &fakeResource{uri: "/a/light", host: "coap://h1/a", sid: "A", types: []string{"t1"}}
	entry, _, _, _ := reg.InsertOrUpdate(registry.DiscoveryRecord{DeviceID: "A", Host: "coap://h1/a", Resource: res})

	for i := 0; i < model.MaxMetadataRequestCount+2; i++ {
		f.FetchCommonResources(context.Background(), entry)
	}

	require.Equal(t, model.MaxMetadataRequestCount, entry.DeviceInfoRequests)
	require.Equal(t, model.MaxMetadataRequestCount, entry.PlatformInfoRequests)
}

func TestOnDeviceInfoResponsePopulatesFieldsAndDelivers(t *testing.T) {
	reg := registry.New(nil)
	bus := callback.NewBus(reg.Locker())
	client := &fakeClient{}
	f := New(reg, bus, client, nil)

	res := &fakeResource{uri: "/a/light", host: "coap://h1/a", sid: "A", types: []string{"t1"}}
	reg.InsertOrUpdate(registry.DiscoveryRecord{DeviceID: "A", Host: "coap://h1/a", Resource: res})

	var events []callback.Event
	bus.Register(func(ev callback.Event) { events = append(events, ev) })

	handler := f.onDeviceInfoResponse("coap://h1/a")
	handler(transport.Representation{"n": "Alpha", "icv": "ocf.1.0"})

	entry, ok := reg.Lookup("A")
	require.True(t, ok)
	require.True(t, entry.DeviceInfoAvailable)
	require.Equal(t, "Alpha", entry.DeviceInfo.DeviceName)
	require.Len(t, events, 1)
	require.Equal(t, "Alpha", events[0].DeviceInfo.DeviceName)
}

func TestOnDeviceInfoResponseIsIdempotentOnceAvailable(t *testing.T) {
	reg := registry.New(nil)
	bus := callback.NewBus(reg.Locker())
	client := &fakeClient{}
	f := New(reg, bus, client, nil)

	res := &fakeResource{uri: "/a/light", host: "coap://h1/a", sid: "A", types: []string{"t1"}}
	reg.InsertOrUpdate(registry.DiscoveryRecord{DeviceID: "A", Host: "coap://h1/a", Resource: res})

	var count int
	bus.Register(func(ev callback.Event) { count++ })

	handler := f.onDeviceInfoResponse("coap://h1/a")
	handler(transport.Representation{"n": "Alpha"})
	handler(transport.Representation{"n": "Beta"})

	entry, _ := reg.Lookup("A")
	require.Equal(t, "Alpha", entry.DeviceInfo.DeviceName)
	require.Equal(t, 1, count)
}
