package hostexec

import (
	"errors"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

// AsBatteryError maps a failed battery tool run to the battery taxonomy:
// PermissionDenied when access was refused, ToolUnavailable otherwise.
func AsBatteryError(tool string, err error) error {
	if err == nil {
		return nil
	}
	if IsPermission(err) {
		return telemetry.NewPermissionDenied(tool)
	}
	return telemetry.NewToolUnavailable(tool)
}

// AsTelemetryError maps a failed metric command reading resource:
// PermissionDenied when access was refused, CommandFailed when the tool
// could not be run or timed out, Unavailable when it ran and failed.
func AsTelemetryError(resource string, err error) error {
	if err == nil {
		return nil
	}
	if IsPermission(err) {
		return telemetry.NewResourcePermissionDenied(resource)
	}

	var e *Error
	if !errors.As(err, &e) {
		return telemetry.NewCommandFailed(resource, err.Error())
	}
	if IsNotFound(err) || IsTimeout(err) {
		return telemetry.NewCommandFailed(e.Command, e.Message())
	}
	return telemetry.NewUnavailable(resource)
}
