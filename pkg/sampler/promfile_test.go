package sampler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batlab.prom")
	e := NewPromExporter(path)

	s := testSample()
	e.Observe(s)
	s.Source = "sysfs"
	s.Percentage = 84
	e.Observe(s)
	e.ObserveFailure()

	assert.Equal(t, 84.0, testutil.ToFloat64(e.percentage))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.samples))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.failures))
	assert.Equal(t, 1, testutil.CollectAndCount(e.sourceInUse), "only the current source is reported")
	assert.Equal(t, float64(s.Timestamp.Unix()), testutil.ToFloat64(e.lastSample))

	require.NoError(t, e.Write())
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# TYPE batlab_battery_percent gauge")
	assert.Contains(t, string(content), "batlab_battery_percent 84")
	assert.Contains(t, string(content), "batlab_temperature_celsius 42")
	assert.Contains(t, string(content), "# HELP batlab_temperature_celsius First populated thermal sensor in degrees Celsius")
	assert.Contains(t, string(content), `batlab_battery_source{source="sysfs"} 1`)
	assert.NotContains(t, string(content), `source="acpiconf"`)
}

func TestPromExporter_WriteError(t *testing.T) {
	e := NewPromExporter(filepath.Join(t.TempDir(), "missing", "batlab.prom"))
	assert.Error(t, e.Write())
}
