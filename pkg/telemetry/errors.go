package telemetry

import "fmt"

// BatteryErrorKind classifies a battery acquisition failure.
type BatteryErrorKind int

const (
	// BatteryNotFound means no battery source produced a reading.
	BatteryNotFound BatteryErrorKind = iota
	// BatteryCharging means the battery is charging. It ends the source
	// chain.
	BatteryCharging
	// BatteryParse means a source's output could not be parsed.
	BatteryParse
	// BatteryPermissionDenied means the source exists but is not readable.
	BatteryPermissionDenied
	// BatteryToolUnavailable means an external tool is missing or failed.
	BatteryToolUnavailable
)

func (k BatteryErrorKind) String() string {
	switch k {
	case BatteryNotFound:
		return "NotFound"
	case BatteryCharging:
		return "Charging"
	case BatteryParse:
		return "ParseError"
	case BatteryPermissionDenied:
		return "PermissionDenied"
	case BatteryToolUnavailable:
		return "ToolUnavailable"
	default:
		return fmt.Sprintf("BatteryErrorKind(%d)", int(k))
	}
}

// BatteryError is returned by every battery operation.
type BatteryError struct {
	Kind BatteryErrorKind
	// Tool is set for PermissionDenied and ToolUnavailable.
	Tool string
	// Field and Value are set for ParseError.
	Field string
	Value string
}

func (e *BatteryError) Error() string {
	switch e.Kind {
	case BatteryNotFound:
		return "Battery not found"
	case BatteryCharging:
		return "Battery is charging"
	case BatteryParse:
		return fmt.Sprintf("Failed to parse %s: %s", e.Field, e.Value)
	case BatteryPermissionDenied:
		return fmt.Sprintf("Permission denied accessing battery via %s", e.Tool)
	case BatteryToolUnavailable:
		return fmt.Sprintf("Battery tool not available: %s", e.Tool)
	default:
		return e.Kind.String()
	}
}

// Is matches any *BatteryError of the same kind, so errors.Is(err, ErrCharging)
// works regardless of the detail fields.
func (e *BatteryError) Is(target error) bool {
	t, ok := target.(*BatteryError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	// ErrNotFound is returned when every battery source failed softly.
	ErrNotFound = &BatteryError{Kind: BatteryNotFound}

	// ErrCharging is returned as soon as any source reports a charging battery.
	ErrCharging = &BatteryError{Kind: BatteryCharging}
)

// NewParseError reports that field could not be parsed; value is the
// offending text, or a description when the field was missing.
func NewParseError(field, value string) *BatteryError {
	return &BatteryError{Kind: BatteryParse, Field: field, Value: value}
}

// NewPermissionDenied reports that tool could not be accessed.
func NewPermissionDenied(tool string) *BatteryError {
	return &BatteryError{Kind: BatteryPermissionDenied, Tool: tool}
}

// NewToolUnavailable reports that tool is missing or exited unsuccessfully.
func NewToolUnavailable(tool string) *BatteryError {
	return &BatteryError{Kind: BatteryToolUnavailable, Tool: tool}
}

// ErrorKind classifies a telemetry failure.
type ErrorKind int

const (
	// KindBattery wraps a *BatteryError.
	KindBattery ErrorKind = iota
	KindCommandFailed
	KindParse
	KindPermissionDenied
	KindUnavailable
	KindIO
	KindSerialization
)

func (k ErrorKind) String() string {
	switch k {
	case KindBattery:
		return "Battery"
	case KindCommandFailed:
		return "CommandFailed"
	case KindParse:
		return "ParseError"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindUnavailable:
		return "Unavailable"
	case KindIO:
		return "Io"
	case KindSerialization:
		return "Json"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// TelemetryError is returned by metric readers and Collect.
type TelemetryError struct {
	Kind ErrorKind
	// Command is set for KindCommandFailed.
	Command string
	// Context is set for KindParse.
	Context string
	// Resource is set for KindPermissionDenied and KindUnavailable.
	Resource string
	Message  string
	// Err is the wrapped cause: the *BatteryError for KindBattery, the
	// underlying OS error for KindIO and the encoder error for KindSerialization.
	Err error
}

func (e *TelemetryError) Error() string {
	switch e.Kind {
	case KindBattery:
		return fmt.Sprintf("Battery error: %v", e.Err)
	case KindCommandFailed:
		return fmt.Sprintf("Command failed: %s - %s", e.Command, e.Message)
	case KindParse:
		return fmt.Sprintf("Parse error in %s: %s", e.Context, e.Message)
	case KindPermissionDenied:
		return fmt.Sprintf("Permission denied: %s", e.Resource)
	case KindUnavailable:
		return fmt.Sprintf("Resource unavailable: %s", e.Resource)
	case KindIO:
		return fmt.Sprintf("IO error: %v", e.Err)
	case KindSerialization:
		return fmt.Sprintf("JSON error: %v", e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *TelemetryError) Unwrap() error {
	return e.Err
}

// NewBatteryFailure wraps a battery error for callers that only deal in
// telemetry errors.
func NewBatteryFailure(err error) *TelemetryError {
	return &TelemetryError{Kind: KindBattery, Err: err}
}

func NewCommandFailed(command, message string) *TelemetryError {
	return &TelemetryError{Kind: KindCommandFailed, Command: command, Message: message}
}

func NewTelemetryParseError(context, message string) *TelemetryError {
	return &TelemetryError{Kind: KindParse, Context: context, Message: message}
}

func NewResourcePermissionDenied(resource string) *TelemetryError {
	return &TelemetryError{Kind: KindPermissionDenied, Resource: resource}
}

func NewUnavailable(resource string) *TelemetryError {
	return &TelemetryError{Kind: KindUnavailable, Resource: resource}
}

func NewIOError(err error) *TelemetryError {
	return &TelemetryError{Kind: KindIO, Err: err}
}

func NewSerializationError(err error) *TelemetryError {
	return &TelemetryError{Kind: KindSerialization, Err: err}
}
