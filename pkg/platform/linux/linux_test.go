package linux

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/distatus/battery"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/batlab/pkg/hostexec"
	"github.com/charlie0129/batlab/pkg/platform/kernelbattery"
	"github.com/charlie0129/batlab/pkg/telemetry"
)

const (
	upowerDevice    = "/org/freedesktop/UPower/devices/battery_BAT0"
	upowerEnumerate = "/org/freedesktop/UPower/devices/line_power_AC\n" + upowerDevice + "\n/org/freedesktop/UPower/devices/DisplayDevice\n"
	batDir          = "/sys/class/power_supply/BAT0"
)

func upowerDetails(state string) string {
	return `  native-path:          BAT0
  power supply:         yes
  battery
    present:             yes
    state:               ` + state + `
    energy:              48.5 Wh
    energy-full:         53.2 Wh
    energy-full-design:  57.04 Wh
    energy-rate:         9.874 W
    percentage:          85%
`
}

var errFallback = errors.New("fallback disabled")

func disabledFallback() (float64, error) {
	return 0, errFallback
}

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create dir for %s: %v", path, err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

type testEnv struct {
	fs     afero.Fs
	runner *hostexec.MockRunner
	kernel []*battery.Battery
	loadFB func() (float64, error)
	memFB  func() (float64, error)
}

func newTestEnv() *testEnv {
	return &testEnv{
		fs:     afero.NewMemMapFs(),
		runner: hostexec.NewMock(nil),
		loadFB: disabledFallback,
		memFB:  disabledFallback,
	}
}

func (e *testEnv) withUpower(state string) *testEnv {
	e.runner.Set("upower -e", hostexec.MockResponse{Output: upowerEnumerate})
	e.runner.Set("upower -i "+upowerDevice, hostexec.MockResponse{Output: upowerDetails(state)})
	return e
}

func (e *testEnv) platform() *Platform {
	return New(Options{
		Runner:         e.runner,
		Fs:             e.fs,
		LoadFallback:   e.loadFB,
		MemoryFallback: e.memFB,
		KernelBattery: kernelbattery.NewWithFunc(func() ([]*battery.Battery, error) {
			return e.kernel, nil
		}),
	})
}

func TestPlatform_BatteryInfo(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, e *testEnv)
		want    telemetry.BatteryInfo
		wantErr error
	}{
		{
			name: "upower discharging",
			setup: func(t *testing.T, e *testEnv) {
				e.withUpower("discharging")
			},
			want: telemetry.BatteryInfo{Percentage: 85, Watts: 9.874, Source: "upower"},
		},
		{
			name: "upower charging is not masked by sysfs",
			setup: func(t *testing.T, e *testEnv) {
				e.withUpower("charging")
				writeFiles(t, e.fs, map[string]string{
					batDir + "/capacity": "85\n",
					batDir + "/status":   "Discharging\n",
				})
			},
			wantErr: telemetry.ErrCharging,
		},
		{
			name: "upower without battery device falls back to sysfs",
			setup: func(t *testing.T, e *testEnv) {
				e.runner.Set("upower -e", hostexec.MockResponse{Output: "/org/freedesktop/UPower/devices/line_power_AC\n"})
				writeFiles(t, e.fs, map[string]string{
					batDir + "/capacity":  "72\n",
					batDir + "/status":    "Discharging\n",
					batDir + "/power_now": "9874000\n",
				})
			},
			want: telemetry.BatteryInfo{Percentage: 72, Watts: 9.874, Source: "sysfs"},
		},
		{
			name: "upower garbage falls back to sysfs",
			setup: func(t *testing.T, e *testEnv) {
				e.runner.Set("upower -e", hostexec.MockResponse{Output: upowerEnumerate})
				e.runner.Set("upower -i "+upowerDevice, hostexec.MockResponse{Output: "state: discharging\npercentage: unknown\n"})
				writeFiles(t, e.fs, map[string]string{
					batDir + "/capacity": "60\n",
					batDir + "/status":   "Discharging\n",
				})
			},
			want: telemetry.BatteryInfo{Percentage: 60, Watts: 0, Source: "sysfs"},
		},
		{
			name: "sysfs voltage times current",
			setup: func(t *testing.T, e *testEnv) {
				writeFiles(t, e.fs, map[string]string{
					batDir + "/capacity":    "50\n",
					batDir + "/status":      "Discharging\n",
					batDir + "/voltage_now": "11800000\n",
					batDir + "/current_now": "-1000000\n",
				})
			},
			want: telemetry.BatteryInfo{Percentage: 50, Watts: 11.8, Source: "sysfs"},
		},
		{
			name: "sysfs charging",
			setup: func(t *testing.T, e *testEnv) {
				writeFiles(t, e.fs, map[string]string{
					batDir + "/capacity": "50\n",
					batDir + "/status":   "Charging\n",
				})
				e.kernel = []*battery.Battery{{State: battery.Discharging, Current: 1, Full: 2}}
			},
			wantErr: telemetry.ErrCharging,
		},
		{
			name: "sysfs not charging is a valid reading",
			setup: func(t *testing.T, e *testEnv) {
				writeFiles(t, e.fs, map[string]string{
					batDir + "/capacity": "80\n",
					batDir + "/status":   "Not charging\n",
				})
			},
			want: telemetry.BatteryInfo{Percentage: 80, Watts: 0, Source: "sysfs"},
		},
		{
			name: "second sysfs battery when the first is unreadable",
			setup: func(t *testing.T, e *testEnv) {
				writeFiles(t, e.fs, map[string]string{
					batDir + "/capacity":                    "n/a\n",
					"/sys/class/power_supply/BAT1/capacity": "33\n",
					"/sys/class/power_supply/BAT1/status":   "Discharging\n",
					"/sys/class/power_supply/AC/online":     "0\n",
				})
			},
			want: telemetry.BatteryInfo{Percentage: 33, Watts: 0, Source: "sysfs"},
		},
		{
			name: "kernel battery as last resort",
			setup: func(t *testing.T, e *testEnv) {
				e.kernel = []*battery.Battery{{State: battery.Discharging, Current: 25000, Full: 50000, ChargeRate: 7000}}
			},
			want: telemetry.BatteryInfo{Percentage: 50, Watts: 7, Source: kernelbattery.SourceName},
		},
		{
			name:    "nothing available",
			setup:   func(t *testing.T, e *testEnv) {},
			wantErr: telemetry.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv()
			tt.setup(t, e)

			got, err := e.platform().BatteryInfo()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Percentage, got.Percentage, 1e-9)
			assert.InDelta(t, tt.want.Watts, got.Watts, 1e-9)
			assert.Equal(t, tt.want.Source, got.Source)
		})
	}
}

func TestPlatform_BatteryInfo_ChargingStopsBeforeLaterSources(t *testing.T) {
	e := newTestEnv().withUpower("charging")
	called := false
	p := New(Options{
		Runner:         e.runner,
		Fs:             e.fs,
		LoadFallback:   disabledFallback,
		MemoryFallback: disabledFallback,
		KernelBattery: kernelbattery.NewWithFunc(func() ([]*battery.Battery, error) {
			called = true
			return nil, nil
		}),
	})

	_, err := p.BatteryInfo()
	assert.ErrorIs(t, err, telemetry.ErrCharging)
	assert.False(t, called)
}

func TestPlatform_BatteryCapacity(t *testing.T) {
	t.Run("upower", func(t *testing.T) {
		e := newTestEnv().withUpower("discharging")
		c, err := e.platform().BatteryCapacity()
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.InDelta(t, 57.04, *c.DesignWh, 1e-9)
		assert.InDelta(t, 53.2, *c.FullWh, 1e-9)
	})

	t.Run("sysfs energy", func(t *testing.T) {
		e := newTestEnv()
		writeFiles(t, e.fs, map[string]string{
			batDir + "/energy_full_design": "57720000\n",
			batDir + "/energy_full":        "53200000\n",
		})
		c, err := e.platform().BatteryCapacity()
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.InDelta(t, 57.72, *c.DesignWh, 1e-9)
		assert.InDelta(t, 53.2, *c.FullWh, 1e-9)
	})

	t.Run("sysfs charge", func(t *testing.T) {
		e := newTestEnv()
		writeFiles(t, e.fs, map[string]string{
			batDir + "/charge_full_design": "5000000\n",
			batDir + "/voltage_min_design": "11400000\n",
		})
		c, err := e.platform().BatteryCapacity()
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.InDelta(t, 57, *c.DesignWh, 1e-9)
		assert.Nil(t, c.FullWh)
	})

	t.Run("none", func(t *testing.T) {
		c, err := newTestEnv().platform().BatteryCapacity()
		assert.NoError(t, err)
		assert.Nil(t, c)
	})
}

func TestPlatform_CPULoad(t *testing.T) {
	e := newTestEnv()
	writeFiles(t, e.fs, map[string]string{"/proc/loadavg": "0.15 0.20 0.18 1/123 456\n"})
	v, err := e.platform().CPULoad()
	require.NoError(t, err)
	assert.InDelta(t, 0.15, v, 1e-9)

	e = newTestEnv()
	e.loadFB = func() (float64, error) { return 1.25, nil }
	v, err = e.platform().CPULoad()
	require.NoError(t, err)
	assert.InDelta(t, 1.25, v, 1e-9)

	_, err = newTestEnv().platform().CPULoad()
	assert.Equal(t, telemetry.NewUnavailable("loadavg"), err)
}

func TestPlatform_MemoryUsage(t *testing.T) {
	tests := []struct {
		name    string
		meminfo string
		want    float64
	}{
		{name: "half used", meminfo: "MemTotal: 16000000 kB\nMemFree: 1 kB\nMemAvailable: 8000000 kB\n", want: 50},
		{name: "zero total", meminfo: "MemTotal: 0 kB\nMemAvailable: 0 kB\n", want: 0},
		{name: "available exceeds total", meminfo: "MemTotal: 10 kB\nMemAvailable: 20 kB\n", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv()
			writeFiles(t, e.fs, map[string]string{"/proc/meminfo": tt.meminfo})
			v, err := e.platform().MemoryUsage()
			require.NoError(t, err)
			assert.InDelta(t, tt.want, v, 1e-9)
		})
	}

	t.Run("malformed uses fallback", func(t *testing.T) {
		e := newTestEnv()
		e.memFB = func() (float64, error) { return 42, nil }
		writeFiles(t, e.fs, map[string]string{"/proc/meminfo": "garbage"})
		v, err := e.platform().MemoryUsage()
		require.NoError(t, err)
		assert.Equal(t, 42.0, v)
	})
}

func TestPlatform_Temperature(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    float64
		wantErr bool
	}{
		{
			name: "first populated thermal zone",
			files: map[string]string{
				"/sys/class/thermal/thermal_zone0/temp": "0\n",
				"/sys/class/thermal/thermal_zone1/temp": "45000\n",
				"/sys/class/hwmon/hwmon0/temp1_input":   "60000\n",
			},
			want: 45,
		},
		{
			name: "hwmon when thermal zones are empty",
			files: map[string]string{
				"/sys/class/thermal/thermal_zone0/temp": "0\n",
				"/sys/class/hwmon/hwmon0/temp1_input":   "0\n",
				"/sys/class/hwmon/hwmon1/temp1_input":   "52500\n",
			},
			want: 52.5,
		},
		{
			name: "unreadable zone is skipped",
			files: map[string]string{
				"/sys/class/thermal/thermal_zone0/temp": "error\n",
				"/sys/class/thermal/thermal_zone1/temp": "38000\n",
			},
			want: 38,
		},
		{
			name: "all zero",
			files: map[string]string{
				"/sys/class/thermal/thermal_zone0/temp": "0\n",
				"/sys/class/hwmon/hwmon0/temp1_input":   "0\n",
			},
			wantErr: true,
		},
		{
			name:    "no sensors",
			files:   map[string]string{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv()
			writeFiles(t, e.fs, tt.files)
			v, err := e.platform().Temperature()
			if tt.wantErr {
				assert.Equal(t, telemetry.NewUnavailable("thermal sensors"), err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, v, 1e-9)
		})
	}
}

func TestPlatform_CheckSources(t *testing.T) {
	e := newTestEnv().withUpower("charging")

	statuses := e.platform().CheckSources()
	require.Len(t, statuses, 3)

	usable := map[string]bool{}
	for _, s := range statuses {
		usable[s.Source] = s.Usable()
	}
	assert.Equal(t, map[string]bool{"upower": true, "sysfs": false, "kernel": false}, usable)
	assert.ErrorIs(t, statuses[0].Err, telemetry.ErrCharging)
}

func TestPlatform_Name(t *testing.T) {
	assert.Equal(t, "Linux", newTestEnv().platform().Name())
}
