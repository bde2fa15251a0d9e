package linux

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

// readString reads a pseudo-file and trims surrounding whitespace.
// Errors are telemetry errors naming the path.
func readString(fsys afero.Fs, path string) (string, error) {
	logrus.WithField("path", path).Trace("Trying to read file")

	b, err := afero.ReadFile(fsys, path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return "", telemetry.NewResourcePermissionDenied(path)
		case errors.Is(err, fs.ErrNotExist):
			return "", telemetry.NewUnavailable(path)
		default:
			return "", telemetry.NewIOError(pkgerrors.Wrapf(err, "failed to read %s", path))
		}
	}

	return strings.TrimSpace(string(b)), nil
}

func readFloat(fsys afero.Fs, path string) (float64, error) {
	s, err := readString(fsys, path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, telemetry.NewTelemetryParseError(path, "Cannot parse as number: "+s)
	}
	return v, nil
}

// batteryError converts a file read failure into the battery taxonomy.
func batteryError(field string, err error) error {
	var te *telemetry.TelemetryError
	if !errors.As(err, &te) {
		return telemetry.NewToolUnavailable(sysfsSourceName)
	}
	switch te.Kind {
	case telemetry.KindPermissionDenied:
		return telemetry.NewPermissionDenied(sysfsSourceName)
	case telemetry.KindParse:
		return telemetry.NewParseError(field, te.Message)
	default:
		return telemetry.NewToolUnavailable(sysfsSourceName)
	}
}

func globFiles(fsys afero.Fs, pattern string) ([]string, error) {
	matches, err := afero.Glob(fsys, pattern)
	if err != nil {
		return nil, telemetry.NewIOError(pkgerrors.Wrapf(err, "invalid pattern %s", pattern))
	}
	return matches, nil
}
