package config

import "time"

type Config interface {
	SocketPath() string
	StorageDriver() string
	StoragePath() string
	// Timezone is the IANA name slots are evaluated in; "" means the host's.
	Timezone() string
	Location() (*time.Location, error)
	PollInterval() time.Duration
	RefreshConcurrency() int
	AllowNonRootAccess() bool

	SetStorage(driver, path string)
	SetTimezone(string)
	SetAllowNonRootAccess(bool)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
