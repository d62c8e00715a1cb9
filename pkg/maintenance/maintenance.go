// Package maintenance implements the Maintenance Loop: a
// single background task that periodically scans the registry for idle
// devices to evict, devices that have stopped responding, and devices
// with incomplete metadata to retry.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/SashankSharma/iotivity/pkg/callback"
	"github.com/SashankSharma/iotivity/pkg/log"
	"github.com/SashankSharma/iotivity/pkg/registry"
)

// Thresholds from 
const (
	DefaultPeriod              = 2 * time.Second
	DefaultIdleEvictThreshold  = 300 * time.Second
	DefaultNotRespondingWindow = 60 * time.Second
)

// Fetcher is the subset of pkg/fetch.Fetcher the loop needs, named as an
// interface so the loop can be tested without a real protocol engine.
type Fetcher interface {
	FetchCommonResources(ctx context.Context, entry *registry.Entry)
}

// Loop drives the background maintenance task.
type Loop struct {
	reg    *registry.Registry
	bus    *callback.Bus
	fetch  Fetcher
	logger log.Logger

	Period              time.Duration
	IdleEvictThreshold  time.Duration
	NotRespondingWindow time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a Loop with 
func New(reg *registry.Registry, bus *callback.Bus, fetch Fetcher, logger log.Logger) *Loop {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Loop{
		reg:                 reg,
		bus:                 bus,
		fetch:               fetch,
		logger:              logger,
		Period:              DefaultPeriod,
		IdleEvictThreshold:  DefaultIdleEvictThreshold,
		NotRespondingWindow: DefaultNotRespondingWindow,
	}
}

// Start launches the ticker goroutine. Calling Start twice without an
// intervening Stop is a programmer error; Start is not idempotent on its
// own (pkg/core.Framework enforces the idempotence 
// at the lifecycle level).
func (l *Loop) Start() {
	l.stop = make(chan struct{})
	l.wg.Add(1)
	go l.run()
}

// Stop signals the loop to exit and blocks until it has (
// "Shutdown drains this loop to quiescence before rejoining").
func (l *Loop) Stop() {
	close(l.stop)
	l.wg.Wait()
}

func (l *Loop) run() {
	defer l.wg.Done()
	ticker := time.NewTicker(l.Period)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// tick runs one maintenance pass.
func (l *Loop) tick() {
	var idle, notResponding, incomplete []*registry.Entry

	l.reg.With(func(tx *registry.Tx) {
		now := tx.Now()
		for _, e := range tx.Devices() {
			if e.DeviceOpenCount == 0 && now.Sub(e.LastCloseDeviceTime) > l.IdleEvictThreshold {
				idle = append(idle, e)
				continue
			}
			if !e.DeviceNotRespondingIndicated && now.Sub(e.LastResponseTimeToDiscovery) > l.NotRespondingWindow {
				e.DeviceNotRespondingIndicated = true
				notResponding = append(notResponding, e)
			}
			if !e.DeviceInfoAvailable || !e.PlatformInfoAvailable || !e.MaintenanceResourceAvailable {
				incomplete = append(incomplete, e)
			}
		}

		for _, e := range idle {
			// Security workers keep a device alive regardless of idle
			// time.
			if e.Security.IsStarted {
				continue
			}
			tx.Remove(e.DeviceID)
		}
	})

	for _, e := range incomplete {
		l.fetch.FetchCommonResources(context.Background(), e)
	}

	for _, e := range notResponding {
		l.logger.Log(log.Event{Category: log.CategoryMaintenance, DeviceID: e.DeviceID, Message: "device not responding"})
		l.bus.Deliver(callback.Event{
			Kind:       callback.DeviceDiscovered,
			DeviceID:   e.DeviceID,
			Responsive: false,
			Updated:    false,
		})
	}
}
