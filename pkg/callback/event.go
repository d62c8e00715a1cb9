// Package callback implements the Callback Bus: an
// ordered list of application listeners that receive discovery,
// operation-completion, observe, and password-prompt notifications.
package callback

import (
	"github.com/SashankSharma/iotivity/pkg/model"
	"github.com/SashankSharma/iotivity/pkg/status"
	"github.com/SashankSharma/iotivity/pkg/transport"
)

// Kind discriminates the event types named in 
type Kind uint8

const (
	// DeviceDiscovered reports a discovery result: a device responded
	// (or stopped responding), optionally carrying updated metadata.
	DeviceDiscovered Kind = iota

	// GetComplete is the terminal callback for a GetProperties request.
	GetComplete

	// SetComplete is the terminal callback for a SetProperties request.
	SetComplete

	// CreateComplete is the terminal callback for a CreateResource
	// request.
	CreateComplete

	// DeleteComplete is the terminal callback for a DeleteResource
	// request.
	DeleteComplete

	// ObserveUpdate is delivered for each observe notification.
	ObserveUpdate

	// RequestAccessComplete is the terminal callback for the security
	// enrollment workflow.
	RequestAccessComplete

	// PasswordInputRequested asks the application to supply a PIN
	// (preconfigured-PIN transfers, and the protocol stack's PIN-input
	// prompts for random-PIN transfers).
	PasswordInputRequested

	// PasswordDisplay shows a stack-generated PIN to the user
	// (random-PIN transfers).
	PasswordDisplay
)

// String returns a human-readable event kind name.
func (k Kind) String() string {
	switch k {
	case DeviceDiscovered:
		return "DeviceDiscovered"
	case GetComplete:
		return "GetComplete"
	case SetComplete:
		return "SetComplete"
	case CreateComplete:
		return "CreateComplete"
	case DeleteComplete:
		return "DeleteComplete"
	case ObserveUpdate:
		return "ObserveUpdate"
	case RequestAccessComplete:
		return "RequestAccessComplete"
	case PasswordInputRequested:
		return "PasswordInputRequested"
	case PasswordDisplay:
		return "PasswordDisplay"
	default:
		return "Unknown"
	}
}

// Event is the single payload type delivered to listeners; Kind
// discriminates which fields are meaningful, following the same
// discriminated-union shape as the wire-level log.Event.
type Event struct {
	Kind     Kind
	DeviceID string

	// DeviceDiscovered fields.
	Responsive    bool
	Updated       bool
	DeviceInfo    model.DeviceInfo
	ResourceTypes []string

	// Get/Set/Create/Delete/Observe/RequestAccess fields.
	Status         status.Status
	Representation transport.Representation
	Context        any

	// Password fields.
	Method         transport.OwnershipTransferMethod
	PasswordBuffer []byte
}

// Handler receives bus events. Implementations must return promptly;
// the bus invokes handlers synchronously and a slow handler delays
// delivery to every other registered listener.
type Handler func(Event)
