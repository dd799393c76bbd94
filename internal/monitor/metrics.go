// Package monitor exposes Prometheus metrics for meter traffic and the
// measurement server.
package monitor

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ut181a"

// Metrics holds the collectors for one meter connection. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	BytesRead         prometheus.Counter
	FramesDecoded     *prometheus.CounterVec
	Resyncs           prometheus.Counter
	DecodeErrors      prometheus.Counter
	DeviceErrors      *prometheus.CounterVec
	WaitTimeouts      *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec
	ActiveClients     prometheus.Gauge
	MeasurementsSent  prometheus.Counter
	GoroutineCount    prometheus.Gauge
	LastMeasurementTS prometheus.Gauge
}

// New creates metrics registered on a private registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_read_total",
			Help:      "Bytes read from the meter transport",
		}),
		FramesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_decoded_total",
			Help:      "Frames with a valid checksum, by message type",
		}, []string{"type"}),
		Resyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resyncs_total",
			Help:      "Frame markers skipped because the frame did not validate",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Valid frames whose payload could not be decoded",
		}),
		DeviceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_errors_total",
			Help:      "Commands rejected by the meter",
		}, []string{"command"}),
		WaitTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wait_timeouts_total",
			Help:      "Commands that got no matching reply before the deadline",
		}, []string{"command"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time from sending a command to its reply",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"command"}),
		ActiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		}),
		MeasurementsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_broadcast_total",
			Help:      "Measurements broadcast to websocket clients",
		}),
		GoroutineCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		}),
		LastMeasurementTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_measurement_timestamp_seconds",
			Help:      "Unix time of the last measurement received",
		}),
	}

	m.registry.MustRegister(
		m.BytesRead,
		m.FramesDecoded,
		m.Resyncs,
		m.DecodeErrors,
		m.DeviceErrors,
		m.WaitTimeouts,
		m.CommandDuration,
		m.ActiveClients,
		m.MeasurementsSent,
		m.GoroutineCount,
		m.LastMeasurementTS,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry holding all collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBytes counts bytes read from the transport
func (m *Metrics) ObserveBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesRead.Add(float64(n))
}

// ObserveFrame counts a decoded frame by message type
func (m *Metrics) ObserveFrame(msgType string) {
	if m == nil {
		return
	}
	m.FramesDecoded.WithLabelValues(msgType).Inc()
}

// ObserveResync counts a skipped frame marker
func (m *Metrics) ObserveResync() {
	if m == nil {
		return
	}
	m.Resyncs.Inc()
}

// ObserveDecodeError counts a payload that failed to decode
func (m *Metrics) ObserveDecodeError() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}

// ObserveDeviceError counts a command rejected by the meter
func (m *Metrics) ObserveDeviceError(command string) {
	if m == nil {
		return
	}
	m.DeviceErrors.WithLabelValues(command).Inc()
}

// ObserveTimeout counts a command that timed out
func (m *Metrics) ObserveTimeout(command string) {
	if m == nil {
		return
	}
	m.WaitTimeouts.WithLabelValues(command).Inc()
}

// ObserveCommand records how long a command took
func (m *Metrics) ObserveCommand(command string, d time.Duration) {
	if m == nil {
		return
	}
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ObserveMeasurement records the arrival time of a measurement
func (m *Metrics) ObserveMeasurement(at time.Time) {
	if m == nil {
		return
	}
	m.LastMeasurementTS.Set(float64(at.UnixNano()) / 1e9)
}

// ObserveBroadcast counts a measurement sent to websocket clients
func (m *Metrics) ObserveBroadcast() {
	if m == nil {
		return
	}
	m.MeasurementsSent.Inc()
}

// SetClients sets the number of connected websocket clients
func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.ActiveClients.Set(float64(n))
}

// StartRuntimeMonitor samples runtime gauges every interval until ctx is done
func (m *Metrics) StartRuntimeMonitor(ctx context.Context, interval time.Duration) {
	if m == nil {
		return
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			m.GoroutineCount.Set(float64(runtime.NumGoroutine()))
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
