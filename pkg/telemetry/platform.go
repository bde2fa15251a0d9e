package telemetry

import "github.com/sirupsen/logrus"

// Platform is the capability set every platform adapter provides.
// Implementations read their sources afresh on every call.
type Platform interface {
	// Name is the operating system label used in run ids,
	// e.g. "Linux", "FreeBSD" or "Unknown".
	Name() string

	BatteryInfo() (BatteryInfo, error)
	// BatteryCapacity returns nil, nil when no capacity data exists.
	BatteryCapacity() (*BatteryCapacity, error)

	// CPULoad returns the 1-minute load average.
	CPULoad() (float64, error)
	// MemoryUsage returns used memory in percent.
	MemoryUsage() (float64, error)
	// Temperature returns a CPU or thermal zone temperature in °C.
	Temperature() (float64, error)
}

// SourceChecker is implemented by platforms with a battery source chain.
type SourceChecker interface {
	CheckSources() []SourceStatus
}

// MetricReader is one way of reading a scalar metric.
type MetricReader struct {
	Name string
	Read func() (float64, error)
}

// ReadFirst tries readers in order and returns the first value read
// without error. When every reader fails the metric is Unavailable.
func ReadFirst(resource string, readers ...MetricReader) (float64, error) {
	for _, r := range readers {
		v, err := r.Read()
		if err == nil {
			return v, nil
		}

		logrus.WithFields(logrus.Fields{
			"resource": resource,
			"reader":   r.Name,
			"error":    err,
		}).Debug("metric reader failed")
	}

	return 0, NewUnavailable(resource)
}
