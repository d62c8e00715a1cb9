package core

import (
	"errors"
	"time"

	"github.com/SashankSharma/iotivity/pkg/maintenance"
	"github.com/SashankSharma/iotivity/pkg/model"
	"github.com/SashankSharma/iotivity/pkg/security"
)

// AppInfo carries the application-identity fields Start registers with
// the protocol stack.
type AppInfo struct {
	AppName            string
	AppSoftwareVersion string
	AppCompanyName     string
}

// Config holds Framework tunables, all defaulted to sane production
// values and overridable for tests.
type Config struct {
	AppInfo AppInfo

	// UnitTestMode suppresses Start's device/platform-info registration
	// log line. Start performs no device/platform-info registration with
	// the protocol stack in either mode.
	UnitTestMode bool

	MaintenancePeriod   time.Duration
	IdleEvictThreshold  time.Duration
	NotRespondingWindow time.Duration
	MOTDiscoveryTimeout time.Duration
	CompletionTimeout   time.Duration

	// MetadataRetryCap bounds how many times the fetcher retries each of
	// device-info, platform-info, and the maintenance resource per device.
	MetadataRetryCap int

	// ProvisioningDBPath, if empty, selects the provisioner's default
	// location.
	ProvisioningDBPath string
}

// DefaultConfig returns a Config with every tunable set to its default,
// ready to run and override piecemeal for tests.
func DefaultConfig(info AppInfo) *Config {
	return &Config{
		AppInfo:             info,
		MaintenancePeriod:   maintenance.DefaultPeriod,
		IdleEvictThreshold:  maintenance.DefaultIdleEvictThreshold,
		NotRespondingWindow: maintenance.DefaultNotRespondingWindow,
		MOTDiscoveryTimeout: security.DefaultMOTDiscoveryTimeout,
		CompletionTimeout:   security.DefaultCompletionTimeout,
		MetadataRetryCap:    model.MaxMetadataRequestCount,
	}
}

// Validate reports whether the configuration is usable.
func (c *Config) Validate() error {
	if c.AppInfo.AppName == "" {
		return errors.New("core: AppInfo.AppName is required")
	}
	if c.MaintenancePeriod <= 0 {
		return errors.New("core: MaintenancePeriod must be positive")
	}
	if c.IdleEvictThreshold <= 0 {
		return errors.New("core: IdleEvictThreshold must be positive")
	}
	if c.NotRespondingWindow <= 0 {
		return errors.New("core: NotRespondingWindow must be positive")
	}
	if c.MOTDiscoveryTimeout <= 0 {
		return errors.New("core: MOTDiscoveryTimeout must be positive")
	}
	if c.CompletionTimeout <= 0 {
		return errors.New("core: CompletionTimeout must be positive")
	}
	if c.MetadataRetryCap <= 0 {
		return errors.New("core: MetadataRetryCap must be positive")
	}
	return nil
}
