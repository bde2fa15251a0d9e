package textparse

import (
	"strings"
)

// StateValue returns the value of the first "state:" line of doc
// (case-insensitive, leading whitespace ignored), e.g. "discharging" for
// upower's "    state:    discharging" or acpiconf's "State:  charging".
func StateValue(doc string) (string, bool) {
	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		key, value, found := strings.Cut(trimmed, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "state") {
			continue
		}
		return strings.TrimSpace(value), true
	}
	return "", false
}

// IsChargingState reports whether a state value means the battery is
// charging. The first word must be exactly "charging", so "discharging",
// "Not charging" and "pending-charge" are all false.
func IsChargingState(value string) bool {
	fields := strings.Fields(strings.ToLower(value))
	return len(fields) > 0 && fields[0] == "charging"
}

// ContainsChargingState reports whether the first state line of doc
// says the battery is charging.
func ContainsChargingState(doc string) bool {
	value, ok := StateValue(doc)
	return ok && IsChargingState(value)
}
