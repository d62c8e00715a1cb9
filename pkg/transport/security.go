package transport

import "context"

// OwnershipTransferMethod identifies how a multiple-owner device expects
// its PIN to be established.
type OwnershipTransferMethod int

const (
	// RandomDevicePin means the device itself generates and displays the
	// PIN; the protocol stack surfaces it via the PIN-input callback.
	RandomDevicePin OwnershipTransferMethod = iota

	// PreconfiguredPin means the application must supply a PIN the device
	// already knows out of band.
	PreconfiguredPin

	// OwnershipTransferUnsupported covers any other selected method; the
	// orchestrator reports SecurityUpdateRequestNotSupported for these.
	OwnershipTransferUnsupported
)

// MOTCompleteCallback receives the outcome of DoMultipleOwnershipTransfer.
type MOTCompleteCallback func(err error)

// MOTDevice is the opaque per-device multi-owner-transfer handle returned
// by DiscoverMultipleOwnerEnabledDevice.
type MOTDevice interface {
	// IsSubownerOfDevice reports whether the calling application is
	// already enrolled as a subowner.
	IsSubownerOfDevice() (bool, error)

	// SelectedOwnershipTransferMethod returns the device's advertised
	// method.
	SelectedOwnershipTransferMethod() OwnershipTransferMethod

	// AddPreconfigPIN sets the PIN to use for a PreconfiguredPin
	// transfer.
	AddPreconfigPIN(pin []byte) error

	// DoMultipleOwnershipTransfer starts the transfer; onComplete fires
	// exactly once, asynchronously, when the transfer finishes or fails.
	DoMultipleOwnershipTransfer(onComplete MOTCompleteCallback) error
}

// InputPinHandler is invoked by the protocol stack when a device using
// RandomDevicePin needs the application to surface a PIN prompt.
type InputPinHandler func(deviceUUID string, buf []byte) int

// DisplayPinHandler is invoked by the protocol stack to show a
// stack-generated PIN to the user.
type DisplayPinHandler func(pin []byte)

// PinCallbackHandle identifies a registered PIN callback so it can later
// be deregistered.
type PinCallbackHandle int

// SecurityProvisioner is the provisioning/ownership-transfer capability,
// consumed by pkg/core (database initialization and PIN callbacks) and
// pkg/security (MOT discovery).
type SecurityProvisioner interface {
	// ProvisionInit initializes the provisioning database at dbPath (an
	// empty path selects the implementation's default location).
	ProvisionInit(dbPath string) error

	// DiscoverMultipleOwnerEnabledDevice performs a synchronous,
	// timeout-bounded discovery for a specific device UUID. Returns a nil
	// MOTDevice (with a nil error) if no device was found.
	DiscoverMultipleOwnerEnabledDevice(ctx context.Context, deviceUUID string) (MOTDevice, error)

	// RegisterInputPinCallback installs the process-wide PIN-input
	// callback used by RandomDevicePin transfers.
	RegisterInputPinCallback(handler InputPinHandler) (PinCallbackHandle, error)

	// DeregisterInputPinCallback removes a previously registered
	// PIN-input callback.
	DeregisterInputPinCallback(handle PinCallbackHandle) error

	// RegisterDisplayPinCallback installs the process-wide PIN-display
	// callback.
	RegisterDisplayPinCallback(handler DisplayPinHandler) (PinCallbackHandle, error)

	// DeregisterDisplayPinCallback removes a previously registered
	// PIN-display callback.
	DeregisterDisplayPinCallback(handle PinCallbackHandle) error
}
