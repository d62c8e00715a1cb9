// Package security runs a per-device worker performing multi-owner
// enrollment, from MOT discovery through PIN exchange to ownership
// transfer and completion.
package security

import (
	"context"
	"sync"
	"time"

	"github.com/SashankSharma/iotivity/pkg/callback"
	"github.com/SashankSharma/iotivity/pkg/log"
	"github.com/SashankSharma/iotivity/pkg/registry"
	"github.com/SashankSharma/iotivity/pkg/status"
	"github.com/SashankSharma/iotivity/pkg/transport"
	"github.com/google/uuid"
)

// Default timeouts for the DiscoverMOT and AwaitCompletion steps.
const (
	DefaultMOTDiscoveryTimeout = 5 * time.Second
	DefaultCompletionTimeout   = 30 * time.Second
)

// PinSubmitFunc is carried as the Context of a PasswordInputRequested
// event; the listener calls it synchronously, during event delivery,
// with the PIN bytes it wants to supply.
type PinSubmitFunc func(pin []byte) error

// Orchestrator runs RequestAccess workflows, one worker goroutine per
// in-flight device, tracked in a WaitGroup so the lifecycle controller
// can drain them deterministically.
type Orchestrator struct {
	reg          *registry.Registry
	bus          *callback.Bus
	provisioner  transport.SecurityProvisioner
	logger       log.Logger

	MOTDiscoveryTimeout time.Duration
	CompletionTimeout   time.Duration

	mu       sync.Mutex
	stopping bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates an Orchestrator over the given registry, bus, and
// provisioning capability.
func New(reg *registry.Registry, bus *callback.Bus, provisioner transport.SecurityProvisioner, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Orchestrator{
		reg:                 reg,
		bus:                 bus,
		provisioner:         provisioner,
		logger:              logger,
		MOTDiscoveryTimeout: DefaultMOTDiscoveryTimeout,
		CompletionTimeout:   DefaultCompletionTimeout,
		stopCh:              make(chan struct{}),
	}
}

// SetStopping marks the orchestrator as shutting down; further
// RequestAccess calls fail with status.Fail, and closing the internal
// stop channel wakes every worker currently blocked in AwaitCompletion so
// Drain returns promptly instead of waiting out CompletionTimeout.
// Passing false re-arms a fresh stop channel for the next Start.
func (o *Orchestrator) SetStopping(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v == o.stopping {
		return
	}
	o.stopping = v
	if v {
		close(o.stopCh)
	} else {
		o.stopCh = make(chan struct{})
	}
}

func (o *Orchestrator) isStopping() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopping
}

func (o *Orchestrator) stopSignal() chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopCh
}

// Drain waits for every in-flight worker to exit (
// drainSecurityWorkers).
func (o *Orchestrator) Drain() {
	o.wg.Wait()
}

// RequestAccess starts the multi-owner enrollment workflow for deviceID.
// It fails synchronously with status.Fail if the orchestrator is
// stopping or a workflow is already in flight for this device
// (invariant 5); otherwise it spawns the worker and returns immediately.
func (o *Orchestrator) RequestAccess(ctx context.Context, deviceID string, token any) *status.Error {
	if o.isStopping() {
		return status.NewError(status.Fail, "lifecycle is stopping")
	}

	var done chan struct{}
	var started bool
	var found bool
	o.reg.With(func(tx *registry.Tx) {
		e, ok := tx.Lookup(deviceID)
		if !ok {
			return
		}
		found = true
		done, started = e.BeginSecurityWorkflow()
	})
	if !found {
		return status.NewError(status.DeviceNotDiscovered, deviceID)
	}
	if !started {
		return status.NewError(status.Fail, "security workflow already in progress")
	}

	o.wg.Add(1)
	go o.worker(deviceID, token, done)
	return nil
}

func (o *Orchestrator) worker(deviceID string, token any, done chan struct{}) {
	defer o.wg.Done()

	o.logger.Log(log.Event{Category: log.CategorySecurity, DeviceID: deviceID, Message: "preflight"})

	// Preflight: re-check not stopping, locate entry, parse deviceId.
	if o.isStopping() {
		o.finish(deviceID, status.SecurityUpdateRequestFailed, token)
		return
	}
	if _, ok := o.reg.Lookup(deviceID); !ok {
		o.finish(deviceID, status.SecurityUpdateRequestFailed, token)
		return
	}
	if _, err := uuid.Parse(deviceID); err != nil {
		o.finish(deviceID, status.SecurityUpdateRequestFailed, token)
		return
	}

	// DiscoverMOT: synchronous discovery bounded by MOTDiscoveryTimeout.
	ctx, cancel := context.WithTimeout(context.Background(), o.MOTDiscoveryTimeout)
	dev, err := o.provisioner.DiscoverMultipleOwnerEnabledDevice(ctx, deviceID)
	cancel()
	if err != nil {
		o.finish(deviceID, status.Fail, token)
		return
	}
	if dev == nil {
		o.finish(deviceID, status.DeviceNotDiscovered, token)
		return
	}

	o.reg.With(func(tx *registry.Tx) {
		if e, ok := tx.Lookup(deviceID); ok {
			e.Security.InfoAvailable = true
			e.Security.Device = dev
		}
	})

	subowner, err := dev.IsSubownerOfDevice()
	if err != nil {
		o.finish(deviceID, status.Fail, token)
		return
	}
	if subowner {
		o.completeAndFinish(deviceID, status.SecurityUpdateRequestFinished, true, token)
		return
	}

	switch dev.SelectedOwnershipTransferMethod() {
	case transport.RandomDevicePin:
		// proceeds directly; PIN prompts arrive via the process-wide
		// display/input callbacks registered at Start, forwarded to the
		// Bus by pkg/core, not by this worker.
	case transport.PreconfiguredPin:
		if !o.preconfigurePIN(deviceID, dev, token) {
			return
		}
	default:
		o.finish(deviceID, status.SecurityUpdateRequestNotSupported, token)
		return
	}

	// Transfer + AwaitCompletion.
	if err := dev.DoMultipleOwnershipTransfer(func(transferErr error) {
		o.onTransferComplete(deviceID, transferErr, token)
	}); err != nil {
		o.finish(deviceID, status.Fail, token)
		return
	}

	select {
	case <-done:
		// onTransferComplete already delivered the terminal event.
	case <-o.stopSignal():
		o.forceTimeout(deviceID, token)
	case <-time.After(o.CompletionTimeout):
		o.forceTimeout(deviceID, token)
	}
}

// preconfigurePIN handles the PreconfiguredPin branch: prompt the app via
// PasswordInputRequested and write the returned PIN into the MOT handle
// untouched, since the device-side transfer protocol compares against
// the literal PIN bytes.
func (o *Orchestrator) preconfigurePIN(deviceID string, dev transport.MOTDevice, token any) bool {
	buf := make([]byte, 32)
	var n int

	o.bus.Deliver(callback.Event{
		Kind:     callback.PasswordInputRequested,
		DeviceID: deviceID,
		Method:   transport.PreconfiguredPin,
		Context: PinSubmitFunc(func(pin []byte) error {
			n = copy(buf, pin)
			return nil
		}),
	})

	if n == 0 {
		o.finish(deviceID, status.SecurityUpdateRequestFailed, token)
		return false
	}

	if err := dev.AddPreconfigPIN(buf[:n]); err != nil {
		o.finish(deviceID, status.SecurityUpdateRequestFailed, token)
		return false
	}
	return true
}

// onTransferComplete handles the MOT completion callback: emit
// RequestAccessComplete, fold subowner into entry state, and signal the
// AwaitCompletion rendezvous.
func (o *Orchestrator) onTransferComplete(deviceID string, transferErr error, token any) {
	st := status.SecurityUpdateRequestFinished
	if transferErr != nil {
		st = status.SecurityUpdateRequestFailed
	}
	o.completeAndFinish(deviceID, st, transferErr == nil, token)
}

func (o *Orchestrator) completeAndFinish(deviceID string, st status.Status, subowner bool, token any) {
	o.bus.Deliver(callback.Event{Kind: callback.RequestAccessComplete, DeviceID: deviceID, Status: st, Context: token})
	o.reg.With(func(tx *registry.Tx) {
		if e, ok := tx.Lookup(deviceID); ok {
			e.CompleteSecurityWorkflow(subowner)
		}
	})
}

// finish reports a failure without marking subowner, but still clears
// IsStarted so the device is not permanently stuck unable to retry.
func (o *Orchestrator) finish(deviceID string, st status.Status, token any) {
	o.bus.Deliver(callback.Event{Kind: callback.RequestAccessComplete, DeviceID: deviceID, Status: st, Context: token})
	o.reg.With(func(tx *registry.Tx) {
		if e, ok := tx.Lookup(deviceID); ok {
			e.CompleteSecurityWorkflow(false)
		}
	})
}

// forceTimeout ends a worker that never received a transfer completion
// within CompletionTimeout.
func (o *Orchestrator) forceTimeout(deviceID string, token any) {
	o.finish(deviceID, status.Fail, token)
}
