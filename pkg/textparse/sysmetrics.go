package textparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

// ParseLoadAverage returns the 1-minute load average from either
// "{ 0.15 0.20 0.18 }" (vm.loadavg) or "0.15 0.20 0.18 1/123 456"
// (/proc/loadavg). context names the source in errors.
func ParseLoadAverage(context, s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "{")

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return 0, telemetry.NewTelemetryParseError(context, fmt.Sprintf("Invalid format: %s", s))
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || v < 0 {
		return 0, telemetry.NewTelemetryParseError(context, fmt.Sprintf("Invalid format: %s", s))
	}
	return v, nil
}

// Meminfo holds the /proc/meminfo fields used for memory usage, in kB.
type Meminfo struct {
	TotalKB     uint64
	AvailableKB uint64
}

// ParseMeminfo reads MemTotal and MemAvailable from /proc/meminfo content.
func ParseMeminfo(context, s string) (Meminfo, error) {
	var m Meminfo
	var haveTotal, haveAvailable bool

	for _, line := range strings.Split(s, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		var dst *uint64
		switch strings.TrimSpace(key) {
		case "MemTotal":
			dst, haveTotal = &m.TotalKB, true
		case "MemAvailable":
			dst, haveAvailable = &m.AvailableKB, true
		default:
			continue
		}

		fields := strings.Fields(value)
		if len(fields) == 0 {
			return Meminfo{}, telemetry.NewTelemetryParseError(context, fmt.Sprintf("Empty value for %s", strings.TrimSpace(key)))
		}
		n, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return Meminfo{}, telemetry.NewTelemetryParseError(context, fmt.Sprintf("Cannot parse %s: %s", strings.TrimSpace(key), fields[0]))
		}
		*dst = n
	}

	switch {
	case !haveTotal:
		return Meminfo{}, telemetry.NewTelemetryParseError(context, "MemTotal not found")
	case !haveAvailable:
		return Meminfo{}, telemetry.NewTelemetryParseError(context, "MemAvailable not found")
	}
	return m, nil
}
