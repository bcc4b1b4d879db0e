package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes Prometheus observability primitives for the backend.
type Metrics struct {
	logins            *prometheus.CounterVec
	registrations     prometheus.Counter
	provisionings     *prometheus.CounterVec
	moduleInstalls    *prometheus.CounterVec
	installBacklog    prometheus.Gauge
	provisionDuration prometheus.Histogram
}

// NewMetrics registers and returns Prometheus metrics.
func NewMetrics() *Metrics {
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kover_logins_total",
		Help: "Counts login attempts by outcome.",
	}, []string{"outcome"})

	registrations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kover_registrations_total",
		Help: "Counts successful user registrations.",
	})

	provisionings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kover_provisionings_total",
		Help: "Counts tenant provisioning attempts by outcome.",
	}, []string{"outcome"})

	moduleInstalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kover_module_installs_total",
		Help: "Counts module install job runs by status.",
	}, []string{"status"})

	installBacklog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kover_install_backlog",
		Help: "Number of pending module install jobs.",
	})

	provisionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kover_provision_duration_seconds",
		Help:    "Tenant provisioning latency.",
		Buckets: prometheus.DefBuckets,
	})

	prometheus.MustRegister(
		logins,
		registrations,
		provisionings,
		moduleInstalls,
		installBacklog,
		provisionDuration,
	)

	return &Metrics{
		logins:            logins,
		registrations:     registrations,
		provisionings:     provisionings,
		moduleInstalls:    moduleInstalls,
		installBacklog:    installBacklog,
		provisionDuration: provisionDuration,
	}
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

func (m *Metrics) Provisioning(outcome string) {
	if m == nil {
		return
	}
	m.provisionings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ModuleInstall(status string) {
	if m == nil {
		return
	}
	m.moduleInstalls.WithLabelValues(status).Inc()
}

func (m *Metrics) SetInstallBacklog(n float64) {
	if m == nil {
		return
	}
	m.installBacklog.Set(n)
}

func (m *Metrics) ObserveProvisionDuration(seconds float64) {
	if m == nil {
		return
	}
	m.provisionDuration.Observe(seconds)
}

// Module wires application metrics.
var Module = fx.Module("telemetry",
	fx.Provide(NewMetrics),
)
