// Package observability holds the per-run Prometheus metrics written to a
// textfile with --metrics.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flashbang"

// Metrics holds the gauges describing a single estimation run.
type Metrics struct {
	registry *prometheus.Registry

	FlashTime      prometheus.Gauge
	SoundTime      prometheus.Gauge
	Delay          prometheus.Gauge
	TemperatureC   prometheus.Gauge
	DistanceMeters prometheus.Gauge
	FramesDecoded  prometheus.Gauge
	RunSuccess     prometheus.Gauge
	WeatherLookups prometheus.Counter

	StageDuration *prometheus.GaugeVec // labels: stage
	WeatherSource *prometheus.GaugeVec // labels: endpoint={forecast,archive}, fallback={true,false}
}

// NewMetrics creates the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FlashTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flash_time_seconds",
			Help:      "Time of the detected flash from the start of the video.",
		}),
		SoundTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sound_time_seconds",
			Help:      "Time of the detected sound peak from the start of the audio.",
		}),
		Delay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delay_seconds",
			Help:      "Sound time minus flash time.",
		}),
		TemperatureC: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Ambient temperature used for the speed of sound.",
		}),
		DistanceMeters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "distance_meters",
			Help:      "Estimated distance to the explosion.",
		}),
		FramesDecoded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frames_decoded",
			Help:      "Number of video frames extracted for brightness analysis.",
		}),
		RunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 when the run produced an estimate, 0 otherwise.",
		}),
		WeatherLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_lookups_total",
			Help:      "Weather lookups attempted during the run.",
		}),
		StageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
		}, []string{"stage"}),
		WeatherSource: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_source",
			Help:      "1 for the endpoint and selection mode used for the temperature.",
		}, []string{"endpoint", "fallback"}),
	}

	m.registry.MustRegister(
		m.FlashTime,
		m.SoundTime,
		m.Delay,
		m.TemperatureC,
		m.DistanceMeters,
		m.FramesDecoded,
		m.RunSuccess,
		m.WeatherLookups,
		m.StageDuration,
		m.WeatherSource,
	)

	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	m.StageDuration.WithLabelValues(stage).Set(seconds)
}

// ObserveWeather marks the endpoint and selection mode used.
func (m *Metrics) ObserveWeather(endpoint string, fallback bool) {
	m.WeatherSource.WithLabelValues(endpoint, fmt.Sprint(fallback)).Set(1)
}

// WriteTextfile writes all metrics in the Prometheus text exposition format,
// suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
