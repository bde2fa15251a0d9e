package telemetry

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Collect takes one sample from p, timestamped now.
func Collect(p Platform) (*TelemetrySample, error) {
	return CollectAt(p, time.Now())
}

// CollectAt takes one sample from p with the given timestamp.
//
// The battery reading is mandatory: any battery failure fails the sample
// as a KindBattery TelemetryError (use errors.Is with ErrCharging or
// ErrNotFound to inspect it). CPU load, memory and temperature failures
// are logged and recorded as 0.
func CollectAt(p Platform, now time.Time) (*TelemetrySample, error) {
	battery, err := p.BatteryInfo()
	if err != nil {
		var te *TelemetryError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, NewBatteryFailure(err)
	}

	return &TelemetrySample{
		Timestamp:  now.UTC(),
		Percentage: battery.Percentage,
		Watts:      battery.Watts,
		CPULoad:    orZero("cpu_load", p.CPULoad),
		RAMPct:     orZero("ram_pct", p.MemoryUsage),
		TempC:      orZero("temp_c", p.Temperature),
		Source:     battery.Source,
	}, nil
}

func orZero(metric string, read func() (float64, error)) float64 {
	v, err := read()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"metric": metric,
			"error":  err,
		}).Debug("metric unavailable, recording 0")
		return 0
	}
	return v
}
