// Package hostexec runs the external tools telemetry sources depend on
// (acpiconf, sysctl, upower).
package hostexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single command when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Runner runs a command and returns its standard output.
type Runner interface {
	Run(name string, args ...string) ([]byte, error)
}

// Error describes a command that could not be started, timed out or
// exited unsuccessfully.
type Error struct {
	Command string
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the most useful single-line description of the failure:
// stderr when the tool printed any, the cause otherwise.
func (e *Error) Message() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return e.Err.Error()
}

// IsNotFound reports whether err means the executable is not installed.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// IsPermission reports whether err means the executable, or the resource
// it tried to read, was not accessible.
func IsPermission(err error) bool {
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	var e *Error
	if errors.As(err, &e) {
		s := strings.ToLower(e.Stderr)
		return strings.Contains(s, "permission denied") || strings.Contains(s, "operation not permitted")
	}
	return false
}

// IsTimeout reports whether the command was killed after its timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// CommandLine formats name and args as they would be typed in a shell.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// ExecRunner runs commands on the host with a per-command timeout.
type ExecRunner struct {
	Timeout time.Duration
}

var _ Runner = &ExecRunner{}

// New returns an ExecRunner. A non-positive timeout uses DefaultTimeout.
func New(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

// Run runs name with args. Output is returned only if the command exits 0.
func (r *ExecRunner) Run(name string, args ...string) ([]byte, error) {
	cmdline := CommandLine(name, args...)
	logrus.WithFields(logrus.Fields{
		"command": cmdline,
		"timeout": r.Timeout,
	}).Trace("Trying to run command")

	ctx := context.Background()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	// Children of a killed tool may keep stdout open.
	cmd.WaitDelay = time.Second

	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &Error{
			Command: cmdline,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     pkgerrors.Wrapf(err, "failed to run %s", name),
		}
	}

	logrus.WithFields(logrus.Fields{
		"command": cmdline,
		"bytes":   len(out),
	}).Trace("Run command succeed")

	return out, nil
}
