package biogas

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProducerMetrics holds the Prometheus instruments for one producer.
// The counters are always live; call Register to expose them on a
// registry, or leave them unregistered in tests and embedded use.
type ProducerMetrics struct {
	ReadingsProduced prometheus.Counter
	MalformedLines   prometheus.Counter
	Reconnects       prometheus.Counter
	SinkErrors       prometheus.Counter
	BufferLength     prometheus.Gauge
}

// NewProducerMetrics creates the instrument set for a producer. source
// distinguishes pipelines feeding the same registry ("simulated",
// "serial", or a device path).
func NewProducerMetrics(source string) *ProducerMetrics {
	labels := prometheus.Labels{"source": source}
	return &ProducerMetrics{
		ReadingsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "biogas",
			Name:        "readings_produced_total",
			Help:        "Readings pushed to the shared buffer",
			ConstLabels: labels,
		}),
		MalformedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "biogas",
			Name:        "malformed_lines_total",
			Help:        "Serial lines dropped because they failed to parse",
			ConstLabels: labels,
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "biogas",
			Name:        "reconnects_total",
			Help:        "Serial reconnect attempts after I/O failure",
			ConstLabels: labels,
		}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "biogas",
			Name:        "sink_errors_total",
			Help:        "Pass-through sink write failures (non-fatal)",
			ConstLabels: labels,
		}),
		BufferLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "biogas",
			Name:        "buffer_length",
			Help:        "Current number of readings in the shared buffer",
			ConstLabels: labels,
		}),
	}
}

// Register attaches all instruments to reg.
func (m *ProducerMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.ReadingsProduced, m.MalformedLines, m.Reconnects, m.SinkErrors, m.BufferLength,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
