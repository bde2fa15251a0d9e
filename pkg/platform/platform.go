// Package platform selects the telemetry adapter for the running
// operating system.
package platform

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/charlie0129/batlab/pkg/hostexec"
	"github.com/charlie0129/batlab/pkg/platform/freebsd"
	"github.com/charlie0129/batlab/pkg/platform/linux"
	"github.com/charlie0129/batlab/pkg/platform/unsupported"
	"github.com/charlie0129/batlab/pkg/telemetry"
)

// Options are shared by every adapter. Zero values select the host
// defaults.
type Options struct {
	Runner         hostexec.Runner
	CommandTimeout time.Duration
	Fs             afero.Fs
	SysfsRoot      string
	ProcfsRoot     string
}

// New returns the adapter for the running operating system.
func New(opts Options) telemetry.Platform {
	return NewForOS(runtime.GOOS, opts)
}

// NewForOS returns the adapter for goos, a runtime.GOOS value.
func NewForOS(goos string, opts Options) telemetry.Platform {
	if opts.Runner == nil {
		opts.Runner = hostexec.New(opts.CommandTimeout)
	}

	var p telemetry.Platform
	switch goos {
	case "freebsd":
		p = freebsd.New(freebsd.Options{Runner: opts.Runner})
	case "linux":
		p = linux.New(linux.Options{
			Runner:     opts.Runner,
			Fs:         opts.Fs,
			SysfsRoot:  opts.SysfsRoot,
			ProcfsRoot: opts.ProcfsRoot,
		})
	default:
		p = unsupported.New()
	}

	logrus.WithFields(logrus.Fields{
		"goos":     goos,
		"platform": p.Name(),
	}).Debug("selected telemetry platform")

	return p
}
