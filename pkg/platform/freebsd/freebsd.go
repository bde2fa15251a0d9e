// Package freebsd reads telemetry on FreeBSD from acpiconf(8) and sysctl(8).
package freebsd

import (
	"strconv"
	"strings"

	"github.com/charlie0129/batlab/pkg/hostexec"
	"github.com/charlie0129/batlab/pkg/hoststat"
	"github.com/charlie0129/batlab/pkg/platform/kernelbattery"
	"github.com/charlie0129/batlab/pkg/telemetry"
	"github.com/charlie0129/batlab/pkg/textparse"
	"github.com/charlie0129/batlab/pkg/units"
)

// Name is the operating system label of this adapter.
const Name = "FreeBSD"

// cpuTemperatureSysctl is provided by coretemp(4) or amdtemp(4).
const cpuTemperatureSysctl = "dev.cpu.0.temperature"

// ACPI thermal zones tried in order when no CPU sensor is loaded.
var thermalZoneSysctls = []string{
	"hw.acpi.thermal.tz0.temperature",
	"hw.acpi.thermal.tz1.temperature",
	"dev.acpi_tz.0.temperature",
}

// Options configures a Platform. Zero values select the host defaults.
type Options struct {
	Runner hostexec.Runner

	// LoadFallback and MemoryFallback are used when sysctl cannot be read.
	// They default to gopsutil.
	LoadFallback   func() (float64, error)
	MemoryFallback func() (float64, error)
	// KernelBattery is the last battery source, after acpiconf and sysctl.
	// Defaults to kernelbattery.New().
	KernelBattery telemetry.BatterySource
}

// Platform is the FreeBSD telemetry adapter.
type Platform struct {
	runner hostexec.Runner

	chain          telemetry.Chain
	loadFallback   func() (float64, error)
	memoryFallback func() (float64, error)
}

var (
	_ telemetry.Platform     = &Platform{}
	_ telemetry.SourceChecker = &Platform{}
)

// New returns a FreeBSD Platform.
func New(opts Options) *Platform {
	if opts.Runner == nil {
		opts.Runner = hostexec.New(hostexec.DefaultTimeout)
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
		runner: opts.Runner,
		chain: telemetry.Chain{
			&acpiconfSource{runner: opts.Runner},
			&sysctlSource{runner: opts.Runner},
			opts.KernelBattery,
		},
		loadFallback:   opts.LoadFallback,
		memoryFallback: opts.MemoryFallback,
	}
}

func (p *Platform) Name() string {
	return Name
}

// BatteryInfo tries acpiconf, then sysctl, then the kernel battery
// library. A charging battery is reported from any of them.
func (p *Platform) BatteryInfo() (telemetry.BatteryInfo, error) {
	return p.chain.BatteryInfo()
}

// CheckSources asks acpiconf, sysctl and the kernel battery library once each.
func (p *Platform) CheckSources() []telemetry.SourceStatus {
	return p.chain.CheckSources()
}

// BatteryCapacity returns nil, nil when no source reports capacity.
func (p *Platform) BatteryCapacity() (*telemetry.BatteryCapacity, error) {
	return p.chain.BatteryCapacity()
}

func (p *Platform) sysctl(name string) (string, error) {
	out, err := p.runner.Run("sysctl", "-n", name)
	if err != nil {
		return "", hostexec.AsTelemetryError(name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (p *Platform) sysctlUint(name string) (uint64, error) {
	s, err := p.sysctl(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, telemetry.NewTelemetryParseError(name, "Cannot parse as u64: "+s)
	}
	return v, nil
}

// CPULoad reads vm.loadavg.
func (p *Platform) CPULoad() (float64, error) {
	return telemetry.ReadFirst("vm.loadavg",
		telemetry.MetricReader{Name: "sysctl", Read: func() (float64, error) {
			s, err := p.sysctl("vm.loadavg")
			if err != nil {
				return 0, err
			}
			return textparse.ParseLoadAverage("vm.loadavg", s)
		}},
		telemetry.MetricReader{Name: "gopsutil", Read: p.loadFallback},
	)
}

// MemoryUsage is (v_page_count - v_free_count) / v_page_count.
func (p *Platform) MemoryUsage() (float64, error) {
	return telemetry.ReadFirst("vm.stats.vm",
		telemetry.MetricReader{Name: "sysctl", Read: func() (float64, error) {
			total, err := p.sysctlUint("vm.stats.vm.v_page_count")
			if err != nil {
				return 0, err
			}
			free, err := p.sysctlUint("vm.stats.vm.v_free_count")
			if err != nil {
				return 0, err
			}
			return units.UsagePercent(total, free), nil
		}},
		telemetry.MetricReader{Name: "gopsutil", Read: p.memoryFallback},
	)
}

// Temperature reads the CPU sensor, then the ACPI thermal zones.
// Zero readings are treated as unpopulated sensors.
func (p *Platform) Temperature() (float64, error) {
	return telemetry.ReadFirst("thermal sensors",
		telemetry.MetricReader{Name: "cpu", Read: func() (float64, error) {
			return p.celsius(cpuTemperatureSysctl)
		}},
		telemetry.MetricReader{Name: "acpi thermal zones", Read: p.thermalZones},
	)
}

func (p *Platform) thermalZones() (float64, error) {
	for _, name := range thermalZoneSysctls {
		if v, err := p.celsius(name); err == nil {
			return v, nil
		}
	}
	return 0, telemetry.NewUnavailable("thermal sensors")
}

func (p *Platform) celsius(name string) (float64, error) {
	s, err := p.sysctl(name)
	if err != nil {
		return 0, err
	}
	v, err := units.ParseCelsius(s)
	if err != nil {
		return 0, telemetry.NewTelemetryParseError(name, "Invalid temperature format: "+s)
	}
	if v <= 0 {
		return 0, telemetry.NewUnavailable(name)
	}
	return v, nil
}
