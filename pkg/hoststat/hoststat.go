// Package hoststat wraps gopsutil for host-wide readings that do not
// depend on a particular platform adapter.
package hoststat

import (
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

// LoadAverage1 returns the 1-minute load average.
func LoadAverage1() (float64, error) {
	avg, err := load.Avg()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to read load average")
	}
	return avg.Load1, nil
}

// MemoryUsedPercent returns used physical memory in percent.
func MemoryUsedPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to read virtual memory")
	}
	return vm.UsedPercent, nil
}

// SystemInfo describes the current host. Hostname and kernel are
// required; a missing CPU model is left empty.
func SystemInfo() (telemetry.SystemInfo, error) {
	h, err := host.Info()
	if err != nil {
		return telemetry.SystemInfo{}, telemetry.NewCommandFailed("host info", err.Error())
	}

	cpus, err := cpu.Info()
	if err != nil {
		logrus.WithError(err).Debug("failed to read cpu info")
	}

	info := systemInfoFrom(h, cpus)
	if info.Hostname == "" || info.Kernel == "" {
		return info, telemetry.NewUnavailable("hostname or kernel version")
	}
	return info, nil
}

func systemInfoFrom(h *host.InfoStat, cpus []cpu.InfoStat) telemetry.SystemInfo {
	osName := h.OS
	if h.Platform != "" {
		osName = strings.TrimSpace(h.Platform + " " + h.PlatformVersion)
	}

	var model string
	for _, c := range cpus {
		if c.ModelName != "" {
			model = strings.TrimSpace(c.ModelName)
			break
		}
	}

	return telemetry.SystemInfo{
		Hostname: h.Hostname,
		OS:       osName,
		Kernel:   h.KernelVersion,
		CPU:      model,
		Machine:  h.KernelArch,
	}
}
