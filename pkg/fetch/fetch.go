// Package fetch issues discovery/device-info/platform-info/maintenance-
// resource queries, processes their async responses, and updates the
// registry and Callback Bus.
package fetch

import (
	"context"

	"github.com/SashankSharma/iotivity/pkg/callback"
	"github.com/SashankSharma/iotivity/pkg/log"
	"github.com/SashankSharma/iotivity/pkg/model"
	"github.com/SashankSharma/iotivity/pkg/registry"
	"github.com/SashankSharma/iotivity/pkg/transport"
)

// Fetcher discovers devices and their common metadata resources.
type Fetcher struct {
	reg    *registry.Registry
	bus    *callback.Bus
	client transport.ResourceClient
	logger log.Logger

	// RetryCap bounds how many times each of device-info, platform-info,
	// and the maintenance resource is retried per device. Defaults to
	// model.MaxMetadataRequestCount and is overridable via pkg/core.Config.
	RetryCap int
}

// New creates a Fetcher. logger may be nil, in which case a NoopLogger is
// used.
func New(reg *registry.Registry, bus *callback.Bus, client transport.ResourceClient, logger log.Logger) *Fetcher {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Fetcher{reg: reg, bus: bus, client: client, logger: logger, RetryCap: model.MaxMetadataRequestCount}
}

// DiscoverAllOnHost issues a wildcard-resource query against a known
// host.
func (f *Fetcher) DiscoverAllOnHost(ctx context.Context, host string) error {
	return f.client.FindResource(ctx, host, model.WellKnownURI, f.onResourceFound(host))
}

// DiscoverByTypes issues a multicast discovery per type; an empty type
// list means unrestricted discovery.
func (f *Fetcher) DiscoverByTypes(ctx context.Context, types []string) error {
	if len(types) == 0 {
		return f.client.FindResource(ctx, "", model.WellKnownURI, f.onResourceFound(""))
	}
	for _, t := range types {
		uri := model.WellKnownURI + "?rt=" + t
		if err := f.client.FindResource(ctx, "", uri, f.onResourceFound("")); err != nil {
			return err
		}
	}
	return nil
}

// onResourceFound inserts the discovered resource under lock, then
// delivers DeviceDiscovered outside the lock, scheduling follow-up
// discovery and metadata fetch for newly-seen devices.
func (f *Fetcher) onResourceFound(fallbackHost string) transport.ResponseHandler {
	return func(r transport.Resource) {
		host := r.Host()
		if host == "" {
			host = fallbackHost
		}

		entry, isNew, changed, snap := f.reg.InsertOrUpdate(registry.DiscoveryRecord{
			DeviceID: r.SID(),
			Host:     host,
			Resource: r,
		})

		f.logger.Log(log.Event{Category: log.CategoryDiscovery, DeviceID: r.SID(), Message: "resource discovered"})

		if isNew {
			go func() {
				_ = f.DiscoverAllOnHost(context.Background(), host)
				f.FetchCommonResources(context.Background(), entry)
			}()
		}

		f.bus.Deliver(callback.Event{
			Kind:          callback.DeviceDiscovered,
			DeviceID:      snap.DeviceID,
			Responsive:    true,
			Updated:       changed,
			DeviceInfo:    snap.DeviceInfo,
			ResourceTypes: snap.DiscoveredResourceTypes,
		})
	}
}

// FetchCommonResources issues, for each of {platformInfo, deviceInfo,
// maintenanceResource} whose availability flag is false and whose
// request-count is below RetryCap, a fetch targeted at the
// resource-specific host if known, else the device's first known URI.
func (f *Fetcher) FetchCommonResources(ctx context.Context, entry *registry.Entry) {
	var host string
	var deviceInfoDone, platformInfoDone, maintDone bool

	f.reg.With(func(tx *registry.Tx) {
		e, ok := tx.Lookup(entry.DeviceID)
		if !ok {
			deviceInfoDone, platformInfoDone, maintDone = true, true, true
			return
		}

		host = preferredHost(e)

		if !e.DeviceInfoAvailable && e.DeviceInfoRequests < f.RetryCap {
			e.DeviceInfoRequests++
		} else {
			deviceInfoDone = true
		}
		if !e.PlatformInfoAvailable && e.PlatformInfoRequests < f.RetryCap {
			e.PlatformInfoRequests++
		} else {
			platformInfoDone = true
		}
		if !e.MaintenanceResourceAvailable && e.MaintenanceResourceRequests < f.RetryCap {
			e.MaintenanceResourceRequests++
		} else {
			maintDone = true
		}
	})

	if host == "" {
		return
	}

	if !deviceInfoDone {
		_ = f.client.GetDeviceInfo(ctx, host, model.DeviceURI, f.onDeviceInfoResponse(host))
	}
	if !platformInfoDone {
		_ = f.client.GetPlatformInfo(ctx, host, model.PlatformURI, f.onPlatformInfoResponse(host))
	}
	if !maintDone {
		_ = f.client.FindResource(ctx, host, model.WellKnownURI+"?rt="+model.MaintenanceType, f.onMaintenanceResourceFound())
	}
}

// preferredHost returns the resource-specific host from the directory
// listing if known, else the device's first known URI.
func preferredHost(e *registry.Entry) string {
	for _, r := range e.ResourceMap {
		if r.Host() != "" {
			return r.Host()
		}
	}
	if len(e.DeviceUris) > 0 {
		return e.DeviceUris[0]
	}
	return ""
}

// onDeviceInfoResponse handles a device-info response. dataModelVersions
// and protocolIndependentId are fetched separately via the generic
// property-lookup capability.
func (f *Fetcher) onDeviceInfoResponse(host string) transport.DeviceInfoHandler {
	return func(rep transport.Representation) {
		var snap registry.Snapshot
		var deliver bool

		name, _ := rep.GetValue(model.KeyDeviceName)
		sw, _ := rep.GetValue(model.KeyDeviceSoftwareVersion)
		dmv, _ := f.client.GetPropertyValue(context.Background(), model.DeviceType, model.PropertyDataModelVersions)
		piid, _ := f.client.GetPropertyValue(context.Background(), model.DeviceType, model.PropertyProtocolIndependentID)

		f.reg.With(func(tx *registry.Tx) {
			e, ok := tx.LookupByURI(host)
			if !ok || e.DeviceInfoAvailable {
				return
			}

			e.DeviceInfo = model.DeviceInfo{
				DeviceName:            name,
				SoftwareVersion:       sw,
				DataModelVersions:     splitCSV(dmv),
				ProtocolIndependentID: piid,
			}
			e.DeviceInfoAvailable = true
			tx.AddURI(e, host)
			deliver = true
		})

		if deliver {
			snap.DeviceID, snap.DeviceInfo = lookupSnapshot(f.reg, host)
			f.bus.Deliver(callback.Event{
				Kind:       callback.DeviceDiscovered,
				DeviceID:   snap.DeviceID,
				Responsive: true,
				Updated:    true,
				DeviceInfo: snap.DeviceInfo,
			})
		}
	}
}

// onPlatformInfoResponse handles a platform-info response.
func (f *Fetcher) onPlatformInfoResponse(host string) transport.PlatformInfoHandler {
	return func(rep transport.Representation) {
		f.reg.With(func(tx *registry.Tx) {
			e, ok := tx.LookupByURI(host)
			if !ok || e.PlatformInfoAvailable {
				return
			}

			get := func(k string) string {
				v, _ := rep.GetValue(k)
				return v
			}
			e.PlatformInfo = model.PlatformInfo{
				PlatformID:             get(model.KeyPlatformID),
				ManufacturerName:       get(model.KeyManufacturerName),
				ManufacturerURL:        get(model.KeyManufacturerURL),
				ModelNumber:            get(model.KeyModelNumber),
				ManufacturingDate:      get(model.KeyManufacturingDate),
				PlatformVersion:        get(model.KeyPlatformVersion),
				OSVersion:              get(model.KeyOSVersion),
				HardwareVersion:        get(model.KeyHardwareVersion),
				FirmwareVersion:        get(model.KeyFirmwareVersion),
				ManufacturerSupportURL: get(model.KeySupportURL),
				ReferenceTime:          get(model.KeyReferenceTime),
			}
			e.PlatformInfoAvailable = true
			tx.AddURI(e, host)
		})
	}
}

func (f *Fetcher) onMaintenanceResourceFound() transport.ResponseHandler {
	return func(r transport.Resource) {
		f.reg.With(func(tx *registry.Tx) {
			e, ok := tx.Lookup(r.SID())
			if !ok {
				return
			}
			e.MaintenanceResourceAvailable = true
		})
	}
}

func lookupSnapshot(reg *registry.Registry, host string) (string, model.DeviceInfo) {
	e, ok := reg.LookupByURI(host)
	if !ok {
		return "", model.DeviceInfo{}
	}
	return e.DeviceID, e.DeviceInfo
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
