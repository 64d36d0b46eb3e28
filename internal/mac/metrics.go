package mac

import "github.com/prometheus/client_golang/prometheus"

const (
	metricsNamespace = "godash7"
	metricsSubsystem = "mac"
)

const labelTask = "task"

// Metrics holds the kernel-level Prometheus metrics, grounded on the
// same namespace/subsystem/label-vector construction the pack's
// metrics collector uses for its own counters.
type Metrics struct {
	TasksDispatched  *prometheus.CounterVec
	SessionsActive   prometheus.Gauge
	SysPanics        prometheus.Counter
	CSMARetries      prometheus.Counter
	HoldSleepCycles  prometheus.Counter
}

// NewMetrics creates a Metrics and registers it against reg. If reg is
// nil, prometheus.DefaultRegisterer is used.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		TasksDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "tasks_dispatched_total",
			Help:      "Total dispatcher tasks executed, labeled by task name.",
		}, []string{labelTask}),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sessions_active",
			Help:      "Current session stack depth.",
		}),

		SysPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "sys_panics_total",
			Help:      "Total sys_panic invocations.",
		}),

		CSMARetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "csma_retries_total",
			Help:      "Total CSMA-CA CCA-failure retries.",
		}),

		HoldSleepCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "hold_sleep_transitions_total",
			Help:      "Total hold-to-sleep idle-state transitions.",
		}),
	}

	reg.MustRegister(m.TasksDispatched, m.SessionsActive, m.SysPanics, m.CSMARetries, m.HoldSleepCycles)
	return m
}

// ObserveTask records one dispatcher iteration's chosen task.
func (m *Metrics) ObserveTask(t Task) {
	m.TasksDispatched.WithLabelValues(t.String()).Inc()
}
