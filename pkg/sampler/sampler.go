// Package sampler collects telemetry samples at a fixed rate and hands
// them to the run log and the optional Prometheus textfile.
package sampler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

// ErrStartupFailed is returned when no sample succeeded before the
// failure limit was exceeded.
var ErrStartupFailed = errors.New("too many failures during startup")

// DefaultMaxStartupFailures is used when Options.MaxStartupFailures is 0.
const DefaultMaxStartupFailures = 10

// SampleWriter persists samples.
type SampleWriter interface {
	Write(sample *telemetry.TelemetrySample) error
	Flush() error
}

// Options configure Run.
type Options struct {
	Platform telemetry.Platform
	Interval time.Duration
	Writer   SampleWriter
	// Exporter is optional.
	Exporter *PromExporter
	// MaxStartupFailures is how many failed samples are tolerated before
	// the first successful one.
	MaxStartupFailures int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Stats summarise a run.
type Stats struct {
	Samples uint64
	Errors  uint64
	// Gaps counts sampling gaps, usually caused by a suspended host.
	Gaps uint64
	// LastAttempt is the time of the last sampling attempt, or zero.
	LastAttempt time.Time
}

// Run samples opts.Platform every opts.Interval until ctx is done.
// Collection and writing run in separate goroutines so slow disks do
// not delay sampling. It returns ErrStartupFailed if more than
// opts.MaxStartupFailures samples fail before one succeeds.
func Run(ctx context.Context, opts Options) (Stats, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxStartupFailures <= 0 {
		opts.MaxStartupFailures = DefaultMaxStartupFailures
	}

	var (
		samples  atomic.Uint64
		errCount atomic.Uint64
		gaps     atomic.Uint64
	)

	recorder := NewRecorder(60, opts.Interval)
	limiter := rate.NewLimiter(rate.Every(opts.Interval), 1)
	ch := make(chan *telemetry.TelemetrySample, 16)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ch)

		var collected, failed int
		for {
			if err := limiter.Wait(gctx); err != nil {
				// Context done, or its deadline falls before the next tick.
				return nil
			}

			now := opts.Now()
			if gap := recorder.AddRecord(now); gap > 0 {
				gaps.Add(1)
				logrus.WithFields(logrus.Fields{
					"gap":      gap.String(),
					"interval": opts.Interval.String(),
				}).Warn("sampling gap detected, the system was probably suspended")
			}

			sample, err := telemetry.CollectAt(opts.Platform, now)
			if err != nil {
				failed++
				errCount.Add(1)
				if opts.Exporter != nil {
					opts.Exporter.ObserveFailure()
					if err := opts.Exporter.Write(); err != nil {
						logrus.WithError(err).Warn("failed to export metrics")
					}
				}
				logrus.WithError(err).Warn("telemetry collection failed")

				if collected == 0 && failed > opts.MaxStartupFailures {
					return ErrStartupFailed
				}
				continue
			}
			collected++

			select {
			case ch <- sample:
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		for sample := range ch {
			if err := opts.Writer.Write(sample); err != nil {
				errCount.Add(1)
				logrus.WithError(err).Warn("failed to write sample")
				continue
			}
			samples.Add(1)

			if opts.Exporter != nil {
				opts.Exporter.Observe(sample)
				if err := opts.Exporter.Write(); err != nil {
					logrus.WithError(err).Warn("failed to export metrics")
				}
			}

			logrus.WithFields(logrus.Fields{
				"pct":   sample.Percentage,
				"watts": sample.Watts,
				"src":   sample.Source,
			}).Debug("sample written")
		}

		return opts.Writer.Flush()
	})

	err := g.Wait()

	return Stats{
		Samples: samples.Load(),
		Errors:  errCount.Load(),
		Gaps:    gaps.Load(),

		LastAttempt: recorder.LastRecord(),
	}, err
}
