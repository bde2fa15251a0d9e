// Package linux reads telemetry on Linux from upower, sysfs and procfs.
package linux

import (
	"github.com/spf13/afero"

	"github.com/charlie0129/batlab/pkg/hostexec"
	"github.com/charlie0129/batlab/pkg/hoststat"
	"github.com/charlie0129/batlab/pkg/platform/kernelbattery"
	"github.com/charlie0129/batlab/pkg/telemetry"
)

// Name is the operating system label of this adapter.
const Name = "Linux"

// Options configures a Platform. Zero values select the host defaults.
type Options struct {
	Runner hostexec.Runner
	Fs     afero.Fs
	// SysfsRoot defaults to /sys.
	SysfsRoot string
	// ProcfsRoot defaults to /proc.
	ProcfsRoot string

	// LoadFallback and MemoryFallback are used when procfs cannot be read.
	// They default to gopsutil.
	LoadFallback   func() (float64, error)
	MemoryFallback func() (float64, error)
	// KernelBattery is the last battery source, after upower and sysfs.
	// Defaults to kernelbattery.New().
	KernelBattery telemetry.BatterySource
}

// Platform is the Linux telemetry adapter.
type Platform struct {
	fs       afero.Fs
	sysRoot  string
	procRoot string

	chain          telemetry.Chain
	loadFallback   func() (float64, error)
	memoryFallback func() (float64, error)
}

var (
	_ telemetry.Platform     = &Platform{}
	_ telemetry.SourceChecker = &Platform{}
)

// New returns a Linux Platform.
func New(opts Options) *Platform {
	if opts.Runner == nil {
		opts.Runner = hostexec.New(hostexec.DefaultTimeout)
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.SysfsRoot == "" {
		opts.SysfsRoot = "/sys"
	}
	if opts.ProcfsRoot == "" {
		opts.ProcfsRoot = "/proc"
	}
	if opts.LoadFallback == nil {
		opts.LoadFallback = hoststat.LoadAverage1
	}
	if opts.MemoryFallback == nil {
		opts.MemoryFallback = hoststat.MemoryUsedPercent
	}
	if opts.KernelBattery == nil {
		opts.KernelBattery = kernelbattery.New()
	}

	return &Platform{
		fs:       opts.Fs,
		sysRoot:  opts.SysfsRoot,
		procRoot: opts.ProcfsRoot,
		chain: telemetry.Chain{
			&upowerSource{runner: opts.Runner},
			&sysfsSource{fs: opts.Fs, root: opts.SysfsRoot},
			opts.KernelBattery,
		},
		loadFallback:   opts.LoadFallback,
		memoryFallback: opts.MemoryFallback,
	}
}

func (p *Platform) Name() string {
	return Name
}

// BatteryInfo tries upower, then sysfs, then the kernel battery library.
func (p *Platform) BatteryInfo() (telemetry.BatteryInfo, error) {
	return p.chain.BatteryInfo()
}

// CheckSources asks upower, sysfs and the kernel battery library once each.
func (p *Platform) CheckSources() []telemetry.SourceStatus {
	return p.chain.CheckSources()
}

// BatteryCapacity returns nil, nil when no source reports capacity.
func (p *Platform) BatteryCapacity() (*telemetry.BatteryCapacity, error) {
	return p.chain.BatteryCapacity()
}

// CPULoad reads /proc/loadavg.
func (p *Platform) CPULoad() (float64, error) {
	return telemetry.ReadFirst("loadavg",
		telemetry.MetricReader{Name: "procfs", Read: p.readLoadavg},
		telemetry.MetricReader{Name: "gopsutil", Read: p.loadFallback},
	)
}

// MemoryUsage is (MemTotal - MemAvailable) / MemTotal from /proc/meminfo.
func (p *Platform) MemoryUsage() (float64, error) {
	return telemetry.ReadFirst("meminfo",
		telemetry.MetricReader{Name: "procfs", Read: p.readMeminfo},
		telemetry.MetricReader{Name: "gopsutil", Read: p.memoryFallback},
	)
}

// Temperature reads the first populated thermal zone, then hwmon.
func (p *Platform) Temperature() (float64, error) {
	return telemetry.ReadFirst("thermal sensors",
		telemetry.MetricReader{Name: "thermal_zone", Read: p.readThermalZones},
		telemetry.MetricReader{Name: "hwmon", Read: p.readHwmon},
	)
}
