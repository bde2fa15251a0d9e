package config

import "time"

// Config is the runtime configuration of batlab.
type Config interface {
	LogLevel() string
	// DataDir is where run logs and metadata are written.
	DataDir() string
	SamplingHz() float64
	// CommandTimeout bounds every external tool invocation.
	CommandTimeout() time.Duration
	SysfsRoot() string
	ProcfsRoot() string
	// PromTextfile is the Prometheus textfile-collector output path.
	// Empty disables the export.
	PromTextfile() string
	// MaxStartupFailures is how many failed samples are tolerated before
	// the first successful one.
	MaxStartupFailures() int

	// Load reads the configuration from its sources.
	Load() error
	// Validate checks value ranges.
	Validate() error
}
