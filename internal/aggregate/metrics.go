// SPDX-License-Identifier: MPL-2.0

package aggregate

import (
	"fmt"

	"github.com/invowk/areas/internal/area"
	"github.com/invowk/areas/internal/routes"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "areas"

// Metrics holds the Prometheus collectors updated after every build.
type Metrics struct {
	registry    *prometheus.Registry
	builds      prometheus.Counter
	areas       *prometheus.GaugeVec
	routes      prometheus.Gauge
	stores      prometheus.Gauge
	diagnostics *prometheus.GaugeVec
	duration    prometheus.Gauge
}

// NewMetrics returns Metrics registered on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "builds_total",
			Help:      "Total number of completed builds",
		}),
		areas: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "areas",
			Help:      "Number of areas in the last build",
		}, []string{"kind"}),
		routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "routes",
			Help:      "Number of routes, children included, in the last build",
		}),
		stores: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stores",
			Help:      "Number of store modules in the last build",
		}),
		diagnostics: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "diagnostics",
			Help:      "Number of diagnostics in the last build by code",
		}, []string{"code"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of the last build in seconds",
		}),
	}
	m.registry.MustRegister(m.builds, m.areas, m.routes, m.stores, m.diagnostics, m.duration)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records res as the last build.
func (m *Metrics) Observe(res *Result) {
	leaves, groups := area.Count(res.Areas)

	m.builds.Inc()
	m.areas.WithLabelValues(string(area.KindLeaf)).Set(float64(leaves))
	m.areas.WithLabelValues(string(area.KindGroup)).Set(float64(groups))
	m.routes.Set(float64(routes.Count(res.Routes)))
	m.stores.Set(float64(len(res.Stores)))
	m.duration.Set(res.Duration.Seconds())

	m.diagnostics.Reset()
	for _, d := range res.Diagnostics {
		m.diagnostics.WithLabelValues(d.Code.String()).Inc()
	}
}

// WriteTextfile writes the collectors to path in the text exposition
// format, atomically, for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
