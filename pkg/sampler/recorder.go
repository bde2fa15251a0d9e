package sampler

import (
	"sync"
	"time"
)

// gapTolerance is added to the sampling interval before two adjacent
// samples count as discontinuous.
const gapTolerance = time.Second

// Recorder records the times of the last N samples.
type Recorder struct {
	MaxRecordCount int
	// Interval is the expected time between two samples.
	Interval time.Duration
	records  []time.Time
	mu       *sync.Mutex
}

// NewRecorder returns a new Recorder.
func NewRecorder(maxRecordCount int, interval time.Duration) *Recorder {
	return &Recorder{
		MaxRecordCount: maxRecordCount,
		Interval:       interval,
		records:        make([]time.Time, 0),
		mu:             &sync.Mutex{},
	}
}

// AddRecord adds a new record and returns the time elapsed since the
// previous one if it is longer than expected (the host was probably
// suspended), or 0.
func (r *Recorder) AddRecord(t time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip monotonic clock reading so suspended time is counted.
	t = t.Round(0)

	var gap time.Duration
	if n := len(r.records); n > 0 {
		if d := t.Sub(r.records[n-1]); d >= r.Interval+gapTolerance {
			gap = d
		}
	}

	if len(r.records) >= r.MaxRecordCount {
		r.records = r.records[1:]
	}
	r.records = append(r.records, t)

	return gap
}

// LastRecord returns the newest record, or the zero time.
func (r *Recorder) LastRecord() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) == 0 {
		return time.Time{}
	}
	return r.records[len(r.records)-1]
}
