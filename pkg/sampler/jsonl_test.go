package sampler

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

func testSample() *telemetry.TelemetrySample {
	return &telemetry.TelemetrySample{
		Timestamp:  time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC),
		Percentage: 85,
		Watts:      12.5,
		CPULoad:    0.15,
		RAMPct:     45.5,
		TempC:      42,
		Source:     "acpiconf",
	}
}

func TestJSONLWriter(t *testing.T) {
	const line = `{"t":"2024-01-15T13:30:00Z","pct":85,"watts":12.5,"cpu_load":0.15,"ram_pct":45.5,"temp_c":42,"src":"acpiconf"}` + "\n"

	buf := &bytes.Buffer{}
	w := NewJSONLWriter(buf, 2)

	require.NoError(t, w.Write(testSample()))
	assert.Empty(t, buf.String(), "first sample is buffered")

	require.NoError(t, w.Write(testSample()))
	assert.Equal(t, strings.Repeat(line, 2), buf.String())

	require.NoError(t, w.Write(testSample()))
	require.NoError(t, w.Flush())
	assert.Equal(t, strings.Repeat(line, 3), buf.String())
	assert.Equal(t, 3, w.Count())
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestJSONLWriter_IOError(t *testing.T) {
	w := NewJSONLWriter(errWriter{}, 1)

	err := w.Write(testSample())
	var te *telemetry.TelemetryError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, telemetry.KindIO, te.Kind)
}
