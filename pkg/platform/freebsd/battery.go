package freebsd

import (
	"strconv"
	"strings"

	"github.com/charlie0129/batlab/pkg/hostexec"
	"github.com/charlie0129/batlab/pkg/telemetry"
	"github.com/charlie0129/batlab/pkg/textparse"
	"github.com/charlie0129/batlab/pkg/units"
	"github.com/charlie0129/batlab/pkg/utils/ptr"
)

const (
	acpiconfSourceName = "acpiconf"
	sysctlSourceName   = "sysctl"

	// hw.acpi.battery.state bit set while charging.
	acpiBatteryStateCharging = 2
)

// acpiconfSource reads battery unit 0 through acpiconf(8).
type acpiconfSource struct {
	runner hostexec.Runner
}

func (s *acpiconfSource) Name() string {
	return acpiconfSourceName
}

func (s *acpiconfSource) info() (string, error) {
	out, err := s.runner.Run("acpiconf", "-i", "0")
	if err != nil {
		return "", hostexec.AsBatteryError(acpiconfSourceName, err)
	}
	return string(out), nil
}

func (s *acpiconfSource) BatteryInfo() (telemetry.BatteryInfo, error) {
	doc, err := s.info()
	if err != nil {
		return telemetry.BatteryInfo{}, err
	}

	if textparse.ContainsChargingState(doc) {
		return telemetry.BatteryInfo{}, telemetry.ErrCharging
	}

	percentage, err := textparse.ParseField(doc, "Remaining capacity")
	if err != nil {
		return telemetry.BatteryInfo{}, err
	}

	// Present rate is "unknown" or absent while idle.
	var watts float64
	if mw, err := textparse.ParseField(doc, "Present rate"); err == nil {
		watts = units.MilliwattsToWatts(mw)
	}

	return telemetry.BatteryInfo{
		Percentage: units.ClampPercent(percentage),
		Watts:      watts,
		Source:     acpiconfSourceName,
	}, nil
}

func (s *acpiconfSource) BatteryCapacity() (*telemetry.BatteryCapacity, error) {
	doc, err := s.info()
	if err != nil {
		return nil, err
	}

	c := &telemetry.BatteryCapacity{}
	if mwh, err := textparse.ParseField(doc, "Design capacity"); err == nil && mwh > 0 {
		c.DesignWh = ptr.To(units.MilliwattHoursToWattHours(mwh))
	}
	if mwh, err := textparse.ParseField(doc, "Last full capacity"); err == nil && mwh > 0 {
		c.FullWh = ptr.To(units.MilliwattHoursToWattHours(mwh))
	}
	if c.Empty() {
		return nil, nil
	}
	return c, nil
}

// sysctlSource reads the hw.acpi.battery tree.
type sysctlSource struct {
	runner hostexec.Runner
}

func (s *sysctlSource) Name() string {
	return sysctlSourceName
}

func (s *sysctlSource) get(name string) (string, error) {
	out, err := s.runner.Run("sysctl", "-n", name)
	if err != nil {
		return "", hostexec.AsBatteryError(sysctlSourceName, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (s *sysctlSource) BatteryInfo() (telemetry.BatteryInfo, error) {
	if raw, err := s.get("hw.acpi.battery.state"); err == nil {
		if state, err := strconv.Atoi(raw); err == nil && state >= 0 && state&acpiBatteryStateCharging != 0 {
			return telemetry.BatteryInfo{}, telemetry.ErrCharging
		}
	}

	raw, err := s.get("hw.acpi.battery.life")
	if err != nil {
		return telemetry.BatteryInfo{}, err
	}
	life, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return telemetry.BatteryInfo{}, telemetry.NewParseError("hw.acpi.battery.life", raw)
	}
	// -1 when no battery is attached.
	if life < 0 {
		return telemetry.BatteryInfo{}, telemetry.ErrNotFound
	}

	var watts float64
	if raw, err := s.get("hw.acpi.battery.rate"); err == nil {
		if mw, err := strconv.ParseFloat(raw, 64); err == nil {
			watts = units.MilliwattsToWatts(mw)
		}
	}

	return telemetry.BatteryInfo{
		Percentage: units.ClampPercent(life),
		Watts:      watts,
		Source:     sysctlSourceName,
	}, nil
}
