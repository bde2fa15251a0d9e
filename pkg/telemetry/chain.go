package telemetry

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// BatterySource is one backend of a platform's battery chain.
type BatterySource interface {
	// Name is the tag reported in BatteryInfo.Source.
	Name() string
	BatteryInfo() (BatteryInfo, error)
}

// CapacitySource is implemented by battery sources that can also report
// design and last-full capacity. A nil result means the source has no
// capacity data.
type CapacitySource interface {
	BatteryCapacity() (*BatteryCapacity, error)
}

// Outcome is the result class of a single source attempt.
type Outcome int

const (
	// OutcomeSuccess stops the chain with a reading.
	OutcomeSuccess Outcome = iota
	// OutcomeSoftFail moves on to the next source.
	OutcomeSoftFail
	// OutcomeHardStop ends the chain and returns the error unchanged.
	OutcomeHardStop
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSoftFail:
		return "soft-fail"
	case OutcomeHardStop:
		return "hard-stop"
	default:
		return "unknown"
	}
}

// Classify maps a source error to its outcome. Only a charging battery is
// a hard stop.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrCharging):
		return OutcomeHardStop
	default:
		return OutcomeSoftFail
	}
}

// Chain evaluates battery sources in priority order.
type Chain []BatterySource

// BatteryInfo returns the first successful reading. A charging battery
// is returned as ErrCharging immediately; if every source fails softly
// the result is ErrNotFound.
func (c Chain) BatteryInfo() (BatteryInfo, error) {
	for _, src := range c {
		info, err := src.BatteryInfo()
		switch Classify(err) {
		case OutcomeSuccess:
			logrus.WithFields(logrus.Fields{
				"source":     src.Name(),
				"percentage": info.Percentage,
				"watts":      info.Watts,
			}).Trace("battery source succeeded")
			return info, nil
		case OutcomeHardStop:
			logrus.WithField("source", src.Name()).Debug("battery is charging, stopping source chain")
			return BatteryInfo{}, err
		default:
			logrus.WithFields(logrus.Fields{
				"source": src.Name(),
				"error":  err,
			}).Debug("battery source failed, trying next")
		}
	}

	return BatteryInfo{}, ErrNotFound
}

// BatteryCapacity asks every capacity-capable source in order and returns
// the first non-empty result. It never fails with ErrNotFound: a nil
// capacity means no source had data.
func (c Chain) BatteryCapacity() (*BatteryCapacity, error) {
	for _, src := range c {
		cs, ok := src.(CapacitySource)
		if !ok {
			continue
		}

		capacity, err := cs.BatteryCapacity()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"source": src.Name(),
				"error":  err,
			}).Debug("capacity source failed, trying next")
			continue
		}
		if capacity.Empty() {
			continue
		}

		return capacity, nil
	}

	return nil, nil
}

// SourceStatus is the result of asking one battery source for a reading.
type SourceStatus struct {
	Source string
	// Err is nil or ErrCharging for a usable source.
	Err error
}

// Usable reports whether the source answered. A charging battery counts.
func (s SourceStatus) Usable() bool {
	return Classify(s.Err) != OutcomeSoftFail
}

// CheckSources asks every source once, in order, and does not stop at a
// charging battery.
func (c Chain) CheckSources() []SourceStatus {
	statuses := make([]SourceStatus, 0, len(c))
	for _, src := range c {
		_, err := src.BatteryInfo()
		logrus.WithFields(logrus.Fields{
			"source":  src.Name(),
			"outcome": Classify(err).String(),
		}).Debug("checked battery source")
		statuses = append(statuses, SourceStatus{Source: src.Name(), Err: err})
	}
	return statuses
}
