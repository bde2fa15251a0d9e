package telemetry

import "time"

// BatteryInfo is a single battery reading.
// Units:
// - Percentage: 0-100
// - Watts: W, never negative (0 when idle or unknown)
type BatteryInfo struct {
	Percentage float64 `json:"percentage" yaml:"percentage"`
	Watts      float64 `json:"watts" yaml:"watts"`
	// Source names the backend that produced the reading,
	// e.g. "acpiconf", "sysctl", "upower" or "sysfs".
	Source string `json:"source" yaml:"source"`
}

// BatteryCapacity holds the design and last-full capacities in Wh.
// Either field may be nil when the platform does not report it.
type BatteryCapacity struct {
	DesignWh *float64 `json:"design_wh" yaml:"design_wh"`
	FullWh   *float64 `json:"full_wh" yaml:"full_wh"`
}

// Empty reports whether neither capacity is known.
func (c *BatteryCapacity) Empty() bool {
	return c == nil || (c.DesignWh == nil && c.FullWh == nil)
}

// Health returns full/design in percent, or 0 if either is missing.
func (c *BatteryCapacity) Health() float64 {
	if c == nil || c.DesignWh == nil || c.FullWh == nil || *c.DesignWh <= 0 {
		return 0
	}
	return *c.FullWh / *c.DesignWh * 100
}

// TelemetrySample is one point-in-time snapshot. The JSON keys are the
// line format consumed by downstream analysis and must not change.
//
// CPULoad, RAMPct and TempC are 0 when the metric could not be read.
type TelemetrySample struct {
	Timestamp  time.Time `json:"t" yaml:"t"`
	Percentage float64   `json:"pct" yaml:"pct"`
	Watts      float64   `json:"watts" yaml:"watts"`
	CPULoad    float64   `json:"cpu_load" yaml:"cpu_load"`
	RAMPct     float64   `json:"ram_pct" yaml:"ram_pct"`
	TempC      float64   `json:"temp_c" yaml:"temp_c"`
	Source     string    `json:"src" yaml:"src"`
}

// SystemInfo describes the host a run was recorded on.
type SystemInfo struct {
	Hostname string `json:"hostname" yaml:"hostname"`
	OS       string `json:"os" yaml:"os"`
	Kernel   string `json:"kernel" yaml:"kernel"`
	CPU      string `json:"cpu" yaml:"cpu"`
	Machine  string `json:"machine" yaml:"machine"`
}

// RunMetadata is written next to every run's sample log.
// SystemInfo is flattened into the top-level object.
type RunMetadata struct {
	SystemInfo `yaml:",inline"`

	RunID           string           `json:"run_id" yaml:"run_id"`
	Config          string           `json:"config" yaml:"config"`
	Workload        *string          `json:"workload" yaml:"workload"`
	StartTime       time.Time        `json:"start_time" yaml:"start_time"`
	SamplingHz      float64          `json:"sampling_hz" yaml:"sampling_hz"`
	BatteryCapacity *BatteryCapacity `json:"battery_capacity" yaml:"battery_capacity"`
}
