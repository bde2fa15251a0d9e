// Package units converts raw platform readings into watts, watt-hours,
// degrees Celsius and percentages.
package units

import (
	"math"
	"strconv"
	"strings"
)

// MilliwattsToWatts converts mW to W. Negative and non-finite rates are
// treated as idle and return 0.
func MilliwattsToWatts(mw float64) float64 {
	return nonNegative(mw / 1000)
}

// MicrowattsToWatts converts µW to W. Negative and non-finite rates are
// treated as idle and return 0.
func MicrowattsToWatts(uw float64) float64 {
	return nonNegative(uw / 1_000_000)
}

// MilliwattHoursToWattHours converts mWh to Wh, e.g. 57040 -> 57.04.
func MilliwattHoursToWattHours(mwh float64) float64 {
	return mwh / 1000
}

// MicrowattHoursToWattHours converts µWh to Wh, e.g. 57720000 -> 57.72.
func MicrowattHoursToWattHours(uwh float64) float64 {
	return uwh / 1_000_000
}

// MillicelsiusToCelsius converts m°C to °C, e.g. 45000 -> 45.
func MillicelsiusToCelsius(mc float64) float64 {
	return mc / 1000
}

// PowerFromVoltageCurrent returns |voltage × current| in W for readings
// in µV and µA. Some drivers report a negative current while discharging.
func PowerFromVoltageCurrent(microvolts, microamps float64) float64 {
	return nonNegative(math.Abs(microvolts*microamps) / 1e12)
}

// EnergyFromChargeVoltage returns charge × voltage in Wh for readings in
// µAh and µV.
func EnergyFromChargeVoltage(microampHours, microvolts float64) float64 {
	return microampHours * microvolts / 1e12
}

// ParseCelsius parses a temperature such as "45.0C" or "45.0".
func ParseCelsius(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "C")
	s = strings.TrimSuffix(s, "°")
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// UsagePercent returns (total - free) / total × 100. The subtraction
// saturates at zero, and a zero total yields 0.
func UsagePercent(total, free uint64) float64 {
	if total == 0 {
		return 0
	}
	var used uint64
	if free < total {
		used = total - free
	}
	return float64(used) / float64(total) * 100
}

// ClampPercent limits p to [0, 100].
func ClampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
