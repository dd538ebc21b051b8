// Package metrics provides Prometheus metrics for the shell.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the shell.
type Metrics struct {
	// Bridge metrics
	BridgeNotifications *prometheus.CounterVec
	BridgeCount         prometheus.Gauge

	// Render surface metrics
	NavigationDecisions *prometheus.CounterVec
	ContextMenus        *prometheus.CounterVec
	MenuActions         *prometheus.CounterVec
	PageLoadFailures    prometheus.Counter
	FrontendReloads     prometheus.Counter

	// Window metrics
	WindowEvents *prometheus.CounterVec

	// System metrics
	Uptime     prometheus.Gauge
	GoRoutines prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.BridgeNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taqyon_bridge_notifications_total",
			Help: "Total number of notifications sent to the frontend",
		},
		[]string{"event"},
	)

	m.BridgeCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "taqyon_bridge_count",
			Help: "Current value of the bridged counter",
		},
	)

	m.NavigationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taqyon_navigation_decisions_total",
			Help: "Total number of navigation and new window decisions",
		},
		[]string{"kind", "action"},
	)

	m.ContextMenus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taqyon_context_menus_total",
			Help: "Total number of context menu requests",
		},
		[]string{"outcome"},
	)

	m.MenuActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taqyon_menu_actions_total",
			Help: "Total number of context menu actions run",
		},
		[]string{"action"},
	)

	m.PageLoadFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taqyon_page_load_failures_total",
			Help: "Total number of pages or resources that failed to load",
		},
	)

	m.FrontendReloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taqyon_frontend_reloads_total",
			Help: "Total number of reloads after frontend changes",
		},
	)

	m.WindowEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taqyon_window_events_total",
			Help: "Total number of window lifecycle events",
		},
		[]string{"event"},
	)

	m.Uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "taqyon_uptime_seconds",
			Help: "Shell uptime in seconds",
		},
	)

	m.GoRoutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "taqyon_goroutines",
			Help: "Number of goroutines",
		},
	)

	// Register all metrics
	m.registry.MustRegister(
		m.BridgeNotifications,
		m.BridgeCount,
		m.NavigationDecisions,
		m.ContextMenus,
		m.MenuActions,
		m.PageLoadFailures,
		m.FrontendReloads,
		m.WindowEvents,
		m.Uptime,
		m.GoRoutines,
	)

	// Register default Go metrics
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
