package sampler

import (
	"github.com/prometheus/client_golang/prometheus"
	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/batlab/pkg/telemetry"
)

const metricsNamespace = "batlab"

// PromExporter keeps the latest sample in a private registry and writes
// it in the node_exporter textfile-collector format.
type PromExporter struct {
	path     string
	registry *prometheus.Registry

	percentage  prometheus.Gauge
	watts       prometheus.Gauge
	cpuLoad     prometheus.Gauge
	ramPct      prometheus.Gauge
	tempC       prometheus.Gauge
	lastSample  prometheus.Gauge
	samples     prometheus.Counter
	failures    prometheus.Counter
	sourceInUse *prometheus.GaugeVec
}

// NewPromExporter returns an exporter writing to path.
func NewPromExporter(path string) *PromExporter {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		})
	}

	e := &PromExporter{
		path:       path,
		registry:   prometheus.NewRegistry(),
		percentage: gauge("battery_percent", "Battery charge in percent"),
		watts:      gauge("battery_watts", "Battery discharge rate in watts"),
		cpuLoad:    gauge("cpu_load1", "1-minute load average"),
		ramPct:     gauge("memory_used_percent", "Used physical memory in percent"),
		tempC:      gauge("temperature_celsius", "First populated thermal sensor in degrees Celsius"),
		lastSample: gauge("last_sample_timestamp_seconds", "Unix time of the last sample"),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "samples_total",
			Help:      "Samples collected",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sample_failures_total",
			Help:      "Samples that could not be collected",
		}),
		sourceInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "battery_source",
			Help:      "1 for the battery source of the last sample",
		}, []string{"source"}),
	}

	e.registry.MustRegister(
		e.percentage,
		e.watts,
		e.cpuLoad,
		e.ramPct,
		e.tempC,
		e.lastSample,
		e.samples,
		e.failures,
		e.sourceInUse,
	)

	return e
}

// Observe records a successful sample.
func (e *PromExporter) Observe(sample *telemetry.TelemetrySample) {
	e.percentage.Set(sample.Percentage)
	e.watts.Set(sample.Watts)
	e.cpuLoad.Set(sample.CPULoad)
	e.ramPct.Set(sample.RAMPct)
	e.tempC.Set(sample.TempC)
	e.lastSample.Set(float64(sample.Timestamp.UnixNano()) / 1e9)
	e.samples.Inc()

	e.sourceInUse.Reset()
	e.sourceInUse.WithLabelValues(sample.Source).Set(1)
}

// ObserveFailure records a failed sample.
func (e *PromExporter) ObserveFailure() {
	e.failures.Inc()
}

// Write atomically replaces the textfile.
func (e *PromExporter) Write() error {
	if err := prometheus.WriteToTextfile(e.path, e.registry); err != nil {
		return pkgerrors.Wrapf(err, "failed to write metrics to %s", e.path)
	}
	return nil
}
