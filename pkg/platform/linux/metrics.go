package linux

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batlab/pkg/telemetry"
	"github.com/charlie0129/batlab/pkg/textparse"
	"github.com/charlie0129/batlab/pkg/units"
)

func (p *Platform) readLoadavg() (float64, error) {
	path := filepath.Join(p.procRoot, "loadavg")
	s, err := readString(p.fs, path)
	if err != nil {
		return 0, err
	}
	return textparse.ParseLoadAverage(path, s)
}

func (p *Platform) readMeminfo() (float64, error) {
	path := filepath.Join(p.procRoot, "meminfo")
	s, err := readString(p.fs, path)
	if err != nil {
		return 0, err
	}
	m, err := textparse.ParseMeminfo(path, s)
	if err != nil {
		return 0, err
	}
	return units.UsagePercent(m.TotalKB, m.AvailableKB), nil
}

// firstPositiveMillicelsius returns the first file matching pattern that
// holds a positive millicelsius reading. Zero means the sensor is not
// populated.
func (p *Platform) firstPositiveMillicelsius(pattern string) (float64, error) {
	pattern = filepath.Join(p.sysRoot, pattern)
	matches, err := globFiles(p.fs, pattern)
	if err != nil {
		return 0, err
	}

	for _, path := range matches {
		mc, err := readFloat(p.fs, path)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"path":  path,
				"error": err,
			}).Trace("skipping unreadable sensor")
			continue
		}
		if mc <= 0 {
			continue
		}
		return units.MillicelsiusToCelsius(mc), nil
	}

	return 0, telemetry.NewUnavailable(pattern)
}

func (p *Platform) readThermalZones() (float64, error) {
	return p.firstPositiveMillicelsius(filepath.Join("class", "thermal", "thermal_zone*", "temp"))
}

func (p *Platform) readHwmon() (float64, error) {
	return p.firstPositiveMillicelsius(filepath.Join("class", "hwmon", "hwmon*", "temp*_input"))
}
