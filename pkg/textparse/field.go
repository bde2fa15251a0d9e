// Package textparse extracts values from the loosely structured text
// printed by battery tools and pseudo-files ("label: value unit" or
// "label    value%").
package textparse

import (
	"strconv"
	"strings"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

const missingValue = "not found or invalid"

// ParseField finds the first line of doc containing label and returns the
// first number after the label. A trailing "%" or unit letters ("mW",
// "mWh", "C", "Wh") are stripped before parsing. Only the first matching
// line is consulted.
//
// A missing label and a non-numeric value both return a parse
// *telemetry.BatteryError for label.
func ParseField(doc, label string) (float64, error) {
	line, rest, ok := findLine(doc, label)
	if !ok {
		return 0, telemetry.NewParseError(label, missingValue)
	}

	for _, tok := range strings.Fields(rest) {
		if v, ok := ParseNumber(tok); ok {
			return v, nil
		}
	}

	value := strings.TrimSpace(rest)
	if value == "" {
		value = strings.TrimSpace(line)
	}
	return 0, telemetry.NewParseError(label, value)
}

// ParseNumber parses tok after stripping a trailing unit suffix.
// NaN and infinities are rejected.
func ParseNumber(tok string) (float64, bool) {
	tok = StripUnitSuffix(tok)
	if tok == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// StripUnitSuffix removes a trailing "%" and/or trailing ASCII letters,
// e.g. "85%" -> "85", "45.0C" -> "45.0", "12500mW" -> "12500".
func StripUnitSuffix(tok string) string {
	return strings.TrimRightFunc(tok, func(r rune) bool {
		return r == '%' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})
}

// findLine returns the first line containing label and the text after it,
// without a leading separator colon.
func findLine(doc, label string) (line, rest string, ok bool) {
	if label == "" {
		return "", "", false
	}
	for _, l := range strings.Split(doc, "\n") {
		idx := strings.Index(l, label)
		if idx < 0 {
			continue
		}
		rest = strings.TrimSpace(l[idx+len(label):])
		return l, strings.TrimPrefix(rest, ":"), true
	}
	return "", "", false
}
