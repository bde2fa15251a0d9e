package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversions(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{name: "mW to W", got: MilliwattsToWatts(12500), want: 12.5},
		{name: "idle mW", got: MilliwattsToWatts(0), want: 0},
		{name: "negative mW", got: MilliwattsToWatts(-1), want: 0},
		{name: "µW to W", got: MicrowattsToWatts(9874000), want: 9.874},
		{name: "negative µW", got: MicrowattsToWatts(-9874000), want: 0},
		{name: "mWh to Wh", got: MilliwattHoursToWattHours(57040), want: 57.04},
		{name: "µWh to Wh", got: MicrowattHoursToWattHours(57720000), want: 57.72},
		{name: "m°C to °C", got: MillicelsiusToCelsius(45000), want: 45},
		{name: "m°C fractional", got: MillicelsiusToCelsius(47500), want: 47.5},
		{name: "µV×µA", got: PowerFromVoltageCurrent(11_800_000, 1_000_000), want: 11.8},
		{name: "µV×negative µA", got: PowerFromVoltageCurrent(11_800_000, -1_000_000), want: 11.8},
		{name: "µAh×µV", got: EnergyFromChargeVoltage(5_000_000, 11_400_000), want: 57},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.got, 1e-9)
		})
	}
}

func TestParseCelsius(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "45.0C", want: 45},
		{in: " 27.9C\n", want: 27.9},
		{in: "52", want: 52},
		{in: "52°C", want: 52},
		{in: "hot", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCelsius(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestUsagePercent(t *testing.T) {
	tests := []struct {
		name        string
		total, free uint64
		want        float64
	}{
		{name: "half used", total: 1000, free: 500, want: 50},
		{name: "all free", total: 1000, free: 1000, want: 0},
		{name: "free exceeds total", total: 1000, free: 2000, want: 0},
		{name: "zero total", total: 0, free: 10, want: 0},
		{name: "all used", total: 4096, free: 0, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UsagePercent(tt.total, tt.free)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, ClampPercent(-5))
	assert.Equal(t, 100.0, ClampPercent(104.2))
	assert.Equal(t, 55.5, ClampPercent(55.5))
	assert.Equal(t, 0.0, ClampPercent(math.NaN()))
}
