package sampler

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

// DefaultFlushEvery is how many samples are buffered between flushes.
const DefaultFlushEvery = 10

// JSONLWriter writes one JSON object per line.
type JSONLWriter struct {
	w          *bufio.Writer
	flushEvery int
	count      int
}

// NewJSONLWriter returns a writer that flushes to w every flushEvery
// samples. flushEvery < 1 uses DefaultFlushEvery.
func NewJSONLWriter(w io.Writer, flushEvery int) *JSONLWriter {
	if flushEvery < 1 {
		flushEvery = DefaultFlushEvery
	}
	return &JSONLWriter{
		w:          bufio.NewWriter(w),
		flushEvery: flushEvery,
	}
}

// Write appends sample as one line.
func (j *JSONLWriter) Write(sample *telemetry.TelemetrySample) error {
	line, err := json.Marshal(sample)
	if err != nil {
		return telemetry.NewSerializationError(err)
	}
	line = append(line, '\n')

	if _, err := j.w.Write(line); err != nil {
		return telemetry.NewIOError(err)
	}
	j.count++

	if j.count%j.flushEvery == 0 {
		return j.Flush()
	}
	return nil
}

// Flush writes any buffered lines.
func (j *JSONLWriter) Flush() error {
	if err := j.w.Flush(); err != nil {
		return telemetry.NewIOError(err)
	}
	return nil
}

// Count returns the number of samples written.
func (j *JSONLWriter) Count() int {
	return j.count
}
