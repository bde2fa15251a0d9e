package linux

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/charlie0129/batlab/pkg/hostexec"
	"github.com/charlie0129/batlab/pkg/telemetry"
	"github.com/charlie0129/batlab/pkg/textparse"
	"github.com/charlie0129/batlab/pkg/units"
	"github.com/charlie0129/batlab/pkg/utils/ptr"
)

const (
	upowerSourceName = "upower"
	sysfsSourceName  = "sysfs"
)

// upowerSource reads the first UPower device whose path contains "BAT".
type upowerSource struct {
	runner hostexec.Runner
}

func (s *upowerSource) Name() string {
	return upowerSourceName
}

func (s *upowerSource) details() (string, error) {
	out, err := s.runner.Run("upower", "-e")
	if err != nil {
		return "", hostexec.AsBatteryError(upowerSourceName, err)
	}

	var device string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(line, "BAT") {
			device = strings.TrimSpace(line)
			break
		}
	}
	if device == "" {
		return "", telemetry.ErrNotFound
	}

	out, err = s.runner.Run("upower", "-i", device)
	if err != nil {
		return "", hostexec.AsBatteryError(upowerSourceName, err)
	}

	return string(out), nil
}

func (s *upowerSource) BatteryInfo() (telemetry.BatteryInfo, error) {
	doc, err := s.details()
	if err != nil {
		return telemetry.BatteryInfo{}, err
	}

	if textparse.ContainsChargingState(doc) {
		return telemetry.BatteryInfo{}, telemetry.ErrCharging
	}

	percentage, err := textparse.ParseField(doc, "percentage")
	if err != nil {
		return telemetry.BatteryInfo{}, err
	}

	// energy-rate is already in W and absent on some idle batteries.
	watts, err := textparse.ParseField(doc, "energy-rate")
	if err != nil || watts < 0 {
		watts = 0
	}

	return telemetry.BatteryInfo{
		Percentage: units.ClampPercent(percentage),
		Watts:      watts,
		Source:     upowerSourceName,
	}, nil
}

func (s *upowerSource) BatteryCapacity() (*telemetry.BatteryCapacity, error) {
	doc, err := s.details()
	if err != nil {
		return nil, err
	}

	c := &telemetry.BatteryCapacity{}
	if v, err := textparse.ParseField(doc, "energy-full-design"); err == nil && v > 0 {
		c.DesignWh = ptr.To(v)
	}
	if v, err := textparse.ParseField(doc, "energy-full:"); err == nil && v > 0 {
		c.FullWh = ptr.To(v)
	}
	if c.Empty() {
		return nil, nil
	}
	return c, nil
}

// sysfsSource reads /sys/class/power_supply/BAT*.
type sysfsSource struct {
	fs   afero.Fs
	root string
}

func (s *sysfsSource) Name() string {
	return sysfsSourceName
}

func (s *sysfsSource) batteries() ([]string, error) {
	dir := filepath.Join(s.root, "class", "power_supply")
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		logrus.WithError(err).WithField("path", dir).Debug("failed to list power supplies")
		return nil, telemetry.NewToolUnavailable(sysfsSourceName)
	}

	var bats []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "BAT") {
			bats = append(bats, filepath.Join(dir, e.Name()))
		}
	}
	if len(bats) == 0 {
		return nil, telemetry.ErrNotFound
	}
	return bats, nil
}

// BatteryInfo returns the first readable BAT* supply. A charging supply
// stops the search.
func (s *sysfsSource) BatteryInfo() (telemetry.BatteryInfo, error) {
	bats, err := s.batteries()
	if err != nil {
		return telemetry.BatteryInfo{}, err
	}

	for _, dir := range bats {
		info, err := s.readBattery(dir)
		switch telemetry.Classify(err) {
		case telemetry.OutcomeSuccess:
			return info, nil
		case telemetry.OutcomeHardStop:
			return telemetry.BatteryInfo{}, err
		default:
			logrus.WithFields(logrus.Fields{
				"path":  dir,
				"error": err,
			}).Debug("failed to read battery")
		}
	}

	return telemetry.BatteryInfo{}, telemetry.ErrNotFound
}

func (s *sysfsSource) readBattery(dir string) (telemetry.BatteryInfo, error) {
	if status, err := readString(s.fs, filepath.Join(dir, "status")); err == nil && textparse.IsChargingState(status) {
		return telemetry.BatteryInfo{}, telemetry.ErrCharging
	}

	capacity, err := readFloat(s.fs, filepath.Join(dir, "capacity"))
	if err != nil {
		return telemetry.BatteryInfo{}, batteryError("capacity", err)
	}

	return telemetry.BatteryInfo{
		Percentage: units.ClampPercent(capacity),
		Watts:      s.readWatts(dir),
		Source:     sysfsSourceName,
	}, nil
}

// readWatts prefers power_now (µW) and falls back to voltage_now (µV) ×
// current_now (µA). Missing readings mean 0 W.
func (s *sysfsSource) readWatts(dir string) float64 {
	if uw, err := readFloat(s.fs, filepath.Join(dir, "power_now")); err == nil {
		return units.MicrowattsToWatts(uw)
	}

	uv, err := readFloat(s.fs, filepath.Join(dir, "voltage_now"))
	if err != nil {
		return 0
	}
	ua, err := readFloat(s.fs, filepath.Join(dir, "current_now"))
	if err != nil {
		return 0
	}
	return units.PowerFromVoltageCurrent(uv, ua)
}

func (s *sysfsSource) BatteryCapacity() (*telemetry.BatteryCapacity, error) {
	bats, err := s.batteries()
	if err != nil {
		return nil, err
	}

	for _, dir := range bats {
		c := &telemetry.BatteryCapacity{
			DesignWh: s.readEnergy(dir, "energy_full_design", "charge_full_design"),
			FullWh:   s.readEnergy(dir, "energy_full", "charge_full"),
		}
		if !c.Empty() {
			return c, nil
		}
	}
	return nil, nil
}

// readEnergy returns energyFile (µWh) in Wh, or chargeFile (µAh) ×
// voltage_min_design (µV) for batteries that only report charge.
func (s *sysfsSource) readEnergy(dir, energyFile, chargeFile string) *float64 {
	if uwh, err := readFloat(s.fs, filepath.Join(dir, energyFile)); err == nil && uwh > 0 {
		return ptr.To(units.MicrowattHoursToWattHours(uwh))
	}

	uah, err := readFloat(s.fs, filepath.Join(dir, chargeFile))
	if err != nil || uah <= 0 {
		return nil
	}
	uv, err := readFloat(s.fs, filepath.Join(dir, "voltage_min_design"))
	if err != nil || uv <= 0 {
		return nil
	}
	return ptr.To(units.EnergyFromChargeVoltage(uah, uv))
}
