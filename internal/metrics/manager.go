package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Manager struct {
	// counters
	CounterPlansCreated      prometheus.Counter
	CounterPlansDeleted      prometheus.Counter
	CounterWizardSubmissions *prometheus.CounterVec
	CounterSettingsUpdates   *prometheus.CounterVec
	CounterRealtimeEvents    *prometheus.CounterVec
	CounterRealtimeDropped   prometheus.Counter
	CounterGateRoutes        *prometheus.CounterVec

	// gauges
	GaugeSubscriptions prometheus.Gauge
	GaugeOpenDrafts    prometheus.Gauge

	// histograms
	HistExerciseSearchDuration prometheus.Histogram

	registry *prometheus.Registry
}

func NewTestManager() *Manager {
	return NewManager("fitcoach", "test_server", prometheus.NewRegistry())
}

// SetupPrometheus returns a registry preloaded with the build info, Go runtime
// and process collectors.
func SetupPrometheus() *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promRegistry
}

func NewManager(namespace, subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	counterPlansCreated := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plans_created",
		Help:      "The total number of workout plans created",
	})
	counterPlansDeleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plans_deleted",
		Help:      "The total number of workout plans deleted",
	})
	counterWizardSubmissions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "wizard_submissions",
		Help:      "Wizard submissions by result (ok, invalid, partial, failed)",
	}, []string{"result"})
	counterSettingsUpdates := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "settings_updates",
		Help:      "Settings field updates by field and result",
	}, []string{"field", "result"})
	counterRealtimeEvents := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "realtime_events",
		Help:      "Change events published, by table and type",
	}, []string{"table", "type"})
	counterRealtimeDropped := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "realtime_events_dropped",
		Help:      "Change events dropped because a subscriber buffer was full",
	})
	counterGateRoutes := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "gate_routes",
		Help:      "Role gate resolutions by resulting route",
	}, []string{"route"})

	gaugeSubscriptions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "realtime_subscriptions",
		Help:      "Current number of realtime subscriptions",
	})
	gaugeOpenDrafts := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "open_drafts",
		Help:      "Current number of open wizard drafts",
	})

	histExerciseSearchDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		Name:      "exercise_search_duration_seconds",
		Help:      "Duration of exercise catalog page fetches in seconds",
	})

	return &Manager{
		CounterPlansCreated:        counterPlansCreated,
		CounterPlansDeleted:        counterPlansDeleted,
		CounterWizardSubmissions:   counterWizardSubmissions,
		CounterSettingsUpdates:     counterSettingsUpdates,
		CounterRealtimeEvents:      counterRealtimeEvents,
		CounterRealtimeDropped:     counterRealtimeDropped,
		CounterGateRoutes:          counterGateRoutes,
		GaugeSubscriptions:         gaugeSubscriptions,
		GaugeOpenDrafts:            gaugeOpenDrafts,
		HistExerciseSearchDuration: histExerciseSearchDuration,
		registry:                   reg,
	}
}

// Handler serves the registry the manager was built on.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
