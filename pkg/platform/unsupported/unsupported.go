// Package unsupported is the adapter for operating systems without a
// telemetry backend. Every reading is unavailable.
package unsupported

import "github.com/charlie0129/batlab/pkg/telemetry"

// Name is the operating system label of this adapter.
const Name = "Unknown"

// Platform reports every capability as unavailable.
type Platform struct{}

var _ telemetry.Platform = Platform{}

func New() Platform {
	return Platform{}
}

func (Platform) Name() string {
	return Name
}

func (Platform) BatteryInfo() (telemetry.BatteryInfo, error) {
	return telemetry.BatteryInfo{}, telemetry.ErrNotFound
}

func (Platform) BatteryCapacity() (*telemetry.BatteryCapacity, error) {
	return nil, nil
}

func (Platform) CPULoad() (float64, error) {
	return 0, telemetry.NewUnavailable("CPU load on unsupported platform")
}

func (Platform) MemoryUsage() (float64, error) {
	return 0, telemetry.NewUnavailable("memory usage on unsupported platform")
}

func (Platform) Temperature() (float64, error) {
	return 0, telemetry.NewUnavailable("temperature on unsupported platform")
}
