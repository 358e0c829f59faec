package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests   *prometheus.CounterVec
	CounterPlans      *prometheus.CounterVec
	CounterSaves      *prometheus.CounterVec
	CounterLoads      *prometheus.CounterVec
	CounterLoadIssues prometheus.Counter

	// gauges
	GaugeDirty   prometheus.Gauge
	GaugeLifters prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistStoreDuration   *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("madcow", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("madcow", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of API requests",
		}, []string{"method", "status"}),
		CounterPlans: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plans_built_total",
			Help:      "The total number of week plans built",
		}, []string{"result"}),
		CounterSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_saves_total",
			Help:      "The total number of explicit saves to the record store",
		}, []string{"status"}),
		CounterLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_loads_total",
			Help:      "The total number of loads from the record store",
		}, []string{"status"}),
		CounterLoadIssues: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "load_issues_total",
			Help:      "Cells coerced or rows set aside while loading",
		}),
		GaugeDirty: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "unsaved_changes",
			Help:      "1 while the working copy has unsaved edits",
		}),
		GaugeLifters: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lifters",
			Help:      "Lifters in the working copy",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route"}),
		HistStoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_duration_seconds",
			Help:      "Duration of record store loads and saves in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"op"}),
	}
}

// StatusLabel is the status label value for an operation result.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
