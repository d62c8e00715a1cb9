// Package model holds the device and platform metadata types exchanged
// between the registry core and the application, independent of the
// transport that fetched them.
package model

// Reserved well-known resource URIs.
const (
	WellKnownURI     = "/oic/res"
	DeviceURI        = "/oic/d"
	PlatformURI      = "/oic/p"
	DeviceType       = "oic.wk.d"
	MaintenanceType  = "oic.wk.mnt"
)

// Well-known property keys used to populate DeviceInfo and PlatformInfo.
const (
	KeyDeviceName             = "n"
	KeyDeviceSoftwareVersion  = "icv"
	KeyDeviceDataModelVersion = "dmv"

	KeyPlatformID           = "pi"
	KeyManufacturerName     = "mnmn"
	KeyManufacturerURL      = "mnml"
	KeyModelNumber          = "mnmo"
	KeyManufacturingDate    = "mndt"
	KeyPlatformVersion      = "mnpv"
	KeyOSVersion            = "mnos"
	KeyHardwareVersion      = "mnhw"
	KeyFirmwareVersion      = "mnfv"
	KeySupportURL           = "mnsl"
	KeyReferenceTime        = "st"

	PropertyDataModelVersions      = "dmv"
	PropertyProtocolIndependentID  = "piid"
)

// MaxMetadataRequestCount is the retry cap applied per
// metadata kind (device info, platform info, maintenance resource).
const MaxMetadataRequestCount = 3

// DeviceInfo is the 4-field device metadata record.
type DeviceInfo struct {
	DeviceName             string
	SoftwareVersion        string
	DataModelVersions      []string
	ProtocolIndependentID  string
}

// PlatformInfo is the 11-field platform metadata record.
type PlatformInfo struct {
	PlatformID            string
	ManufacturerName       string
	ManufacturerURL        string
	ModelNumber            string
	ManufacturingDate      string
	PlatformVersion        string
	OSVersion              string
	HardwareVersion        string
	FirmwareVersion        string
	ManufacturerSupportURL string
	ReferenceTime          string
}

// ResourceDescriptor is the subset of a resource handle's metadata the
// core needs without depending on the transport package, avoiding an
// import cycle between pkg/model and pkg/transport.
type ResourceDescriptor struct {
	Path       string
	Host       string
	Types      []string
	Interfaces []string
}

// HasType reports whether t is among the descriptor's resource types.
func (r ResourceDescriptor) HasType(t string) bool {
	for _, rt := range r.Types {
		if rt == t {
			return true
		}
	}
	return false
}

// UnionStrings appends any values from src not already present in dst,
// returning the (possibly extended) slice and whether anything was added.
// Used to accumulate a device's discoveredResourceTypes/Interfaces union
// sets.
func UnionStrings(dst []string, src []string) ([]string, bool) {
	changed := false
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
			changed = true
		}
	}
	return dst, changed
}
