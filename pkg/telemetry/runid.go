package telemetry

import (
	"strings"
	"time"
)

const runIDTimeFormat = "2006-01-02T15:04:05Z"

// GenerateRunID builds a run identifier of the form
// YYYY-MM-DDTHH:MM:SSZ_<hostname>_<os>_<config>[_<workload>].
func GenerateRunID(now time.Time, hostname, osName, config, workload string) string {
	if hostname == "" {
		hostname = "unknown"
	}
	if osName == "" {
		osName = "Unknown"
	}

	parts := []string{now.UTC().Format(runIDTimeFormat), hostname, osName, config}
	if workload != "" {
		parts = append(parts, workload)
	}

	return strings.Join(parts, "_")
}
