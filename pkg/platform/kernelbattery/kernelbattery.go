// Package kernelbattery is the last battery source on every supported
// platform. It queries the kernel directly through distatus/battery
// (ACPI ioctls on FreeBSD, power_supply on Linux) without spawning tools.
package kernelbattery

import (
	"math"

	"github.com/distatus/battery"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batlab/pkg/telemetry"
	"github.com/charlie0129/batlab/pkg/units"
	"github.com/charlie0129/batlab/pkg/utils/ptr"
)

// SourceName tags readings produced by this source.
const SourceName = "kernel"

// Source reads the first battery the kernel reports.
type Source struct {
	getAll func() ([]*battery.Battery, error)
}

var (
	_ telemetry.BatterySource  = &Source{}
	_ telemetry.CapacitySource = &Source{}
)

// New returns a Source backed by battery.GetAll.
func New() *Source {
	return NewWithFunc(battery.GetAll)
}

// NewWithFunc returns a Source that lists batteries with getAll.
func NewWithFunc(getAll func() ([]*battery.Battery, error)) *Source {
	return &Source{getAll: getAll}
}

func (s *Source) Name() string {
	return SourceName
}

func (s *Source) first() (*battery.Battery, error) {
	bats, err := s.getAll()
	if err != nil {
		// Partial errors still return the readable batteries.
		logrus.WithError(err).Debug("battery library reported errors")
	}

	for _, b := range bats {
		if b == nil || b.Full <= 0 {
			continue
		}
		return b, nil
	}

	if err != nil {
		return nil, telemetry.NewToolUnavailable(SourceName)
	}
	return nil, telemetry.ErrNotFound
}

// BatteryInfo returns ErrCharging when the kernel reports a charging
// battery.
func (s *Source) BatteryInfo() (telemetry.BatteryInfo, error) {
	b, err := s.first()
	if err != nil {
		return telemetry.BatteryInfo{}, err
	}

	if b.State == battery.Charging {
		return telemetry.BatteryInfo{}, telemetry.ErrCharging
	}

	return telemetry.BatteryInfo{
		Percentage: units.ClampPercent(b.Current / b.Full * 100),
		Watts:      units.MilliwattsToWatts(math.Abs(b.ChargeRate)),
		Source:     SourceName,
	}, nil
}

// BatteryCapacity returns design and last-full capacity. Zero values
// are reported as unknown.
func (s *Source) BatteryCapacity() (*telemetry.BatteryCapacity, error) {
	b, err := s.first()
	if err != nil {
		return nil, err
	}

	c := &telemetry.BatteryCapacity{}
	if b.Design > 0 {
		c.DesignWh = ptr.To(units.MilliwattHoursToWattHours(b.Design))
	}
	if b.Full > 0 {
		c.FullWh = ptr.To(units.MilliwattHoursToWattHours(b.Full))
	}
	if c.Empty() {
		return nil, nil
	}
	return c, nil
}
