// Package core implements the Lifecycle Controller:
// Start/Stop serialization, worker ownership, and graceful drain of
// in-flight security workers, wiring the registry, callback bus,
// fetcher, dispatcher, maintenance loop, and security orchestrator into
// one Framework.
package core

import (
	"context"
	"sync"

	"github.com/SashankSharma/iotivity/pkg/callback"
	"github.com/SashankSharma/iotivity/pkg/dispatch"
	"github.com/SashankSharma/iotivity/pkg/fetch"
	"github.com/SashankSharma/iotivity/pkg/log"
	"github.com/SashankSharma/iotivity/pkg/maintenance"
	"github.com/SashankSharma/iotivity/pkg/registry"
	"github.com/SashankSharma/iotivity/pkg/security"
	"github.com/SashankSharma/iotivity/pkg/status"
	"github.com/SashankSharma/iotivity/pkg/transport"
)

// Framework wires every core component behind one Start/Stop surface.
type Framework struct {
	Registry   *registry.Registry
	Bus        *callback.Bus
	Dispatch   *dispatch.Dispatcher
	Fetch      *fetch.Fetcher
	Maintenance *maintenance.Loop
	Security   *security.Orchestrator

	cfg         *Config
	provisioner transport.SecurityProvisioner
	storage     transport.PersistentStorage
	logger      log.Logger

	mu      sync.Mutex
	started bool

	inputPinHandle   transport.PinCallbackHandle
	displayPinHandle transport.PinCallbackHandle
}

// New assembles a Framework from the injected capabilities.
// logger may be nil, in which case a NoopLogger is used throughout.
func New(cfg *Config, client transport.ResourceClient, provisioner transport.SecurityProvisioner, storage transport.PersistentStorage, logger log.Logger) *Framework {
	if logger == nil {
		logger = log.NoopLogger{}
	}

	reg := registry.New(nil)
	bus := callback.NewBus(reg.Locker())
	fetcher := fetch.New(reg, bus, client, logger)
	fetcher.RetryCap = cfg.MetadataRetryCap
	disp := dispatch.New(reg, bus)
	loop := maintenance.New(reg, bus, fetcher, logger)
	loop.Period = cfg.MaintenancePeriod
	loop.IdleEvictThreshold = cfg.IdleEvictThreshold
	loop.NotRespondingWindow = cfg.NotRespondingWindow
	sec := security.New(reg, bus, provisioner, logger)
	sec.MOTDiscoveryTimeout = cfg.MOTDiscoveryTimeout
	sec.CompletionTimeout = cfg.CompletionTimeout

	return &Framework{
		Registry:    reg,
		Bus:         bus,
		Dispatch:    disp,
		Fetch:       fetcher,
		Maintenance: loop,
		Security:    sec,
		cfg:         cfg,
		provisioner: provisioner,
		storage:     storage,
		logger:      logger,
	}
}

// Start is idempotent under the start/stop mutex: calling Start again
// while already started returns Ok without re-initializing. It
// configures the provisioning database, installs the process-wide PIN
// callbacks, and spawns the maintenance loop.
func (f *Framework) Start(ctx context.Context) *status.Error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.started {
		return nil
	}

	if err := f.cfg.Validate(); err != nil {
		return status.NewError(status.InvalidArgument, err.Error())
	}

	if err := f.provisioner.ProvisionInit(f.cfg.ProvisioningDBPath); err != nil {
		return status.NewError(status.Fail, err.Error())
	}

	inputHandle, err := f.provisioner.RegisterInputPinCallback(f.onInputPin)
	if err != nil {
		return status.NewError(status.Fail, err.Error())
	}
	f.inputPinHandle = inputHandle

	displayHandle, err := f.provisioner.RegisterDisplayPinCallback(f.onDisplayPin)
	if err != nil {
		_ = f.provisioner.DeregisterInputPinCallback(f.inputPinHandle)
		return status.NewError(status.Fail, err.Error())
	}
	f.displayPinHandle = displayHandle

	// Device/platform-info registration with the protocol stack is an
	// out-of-scope external collaborator; UnitTestMode has nothing to
	// skip here beyond logging the decision.
	if !f.cfg.UnitTestMode {
		f.logger.Log(log.Event{Category: log.CategoryLifecycle, Message: "device/platform info registration delegated to protocol stack"})
	}

	f.Security.SetStopping(false)
	f.Maintenance.Start()
	f.started = true

	f.logger.Log(log.Event{Category: log.CategoryLifecycle, Message: "started"})
	return nil
}

// Stop is idempotent: runs drainSecurityWorkers, deregisters PIN
// callbacks, stops the maintenance loop, and clears started.
func (f *Framework) Stop() *status.Error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.started {
		return nil
	}

	f.drainSecurityWorkers()

	if err := f.provisioner.DeregisterInputPinCallback(f.inputPinHandle); err != nil {
		f.logger.Log(log.Event{Category: log.CategoryLifecycle, Message: "deregister input pin callback failed"})
	}
	if err := f.provisioner.DeregisterDisplayPinCallback(f.displayPinHandle); err != nil {
		f.logger.Log(log.Event{Category: log.CategoryLifecycle, Message: "deregister display pin callback failed"})
	}

	f.Maintenance.Stop()
	f.started = false

	f.logger.Log(log.Event{Category: log.CategoryLifecycle, Message: "stopped"})
	return nil
}

// drainSecurityWorkers marks the security orchestrator as stopping and
// waits for every in-flight worker to exit, so no security worker
// goroutine remains running after Stop returns.
func (f *Framework) drainSecurityWorkers() {
	f.Security.SetStopping(true)
	f.Security.Drain()
}

// onInputPin forwards the protocol stack's process-wide PIN-input
// prompt to the Bus as PasswordInputRequested (RandomDevicePin path).
func (f *Framework) onInputPin(deviceUUID string, buf []byte) int {
	f.Bus.Deliver(callback.Event{
		Kind:           callback.PasswordInputRequested,
		DeviceID:       deviceUUID,
		Method:         transport.RandomDevicePin,
		PasswordBuffer: buf,
	})
	return len(buf)
}

// onDisplayPin forwards a stack-generated PIN to the Bus as
// PasswordDisplay.
func (f *Framework) onDisplayPin(pin []byte) {
	f.Bus.Deliver(callback.Event{
		Kind:           callback.PasswordDisplay,
		Method:         transport.RandomDevicePin,
		PasswordBuffer: pin,
	})
}
