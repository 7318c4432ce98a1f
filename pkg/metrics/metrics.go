package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster metrics
	ClustersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hypervisor_clusters_total",
			Help: "Total number of registered clusters",
		},
	)

	ClusterAvailableResources = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hypervisor_cluster_available_resources",
			Help: "Available capacity per cluster and dimension",
		},
		[]string{"cluster_id", "dimension"},
	)

	// Deployment metrics
	DeploymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypervisor_deployments_total",
			Help: "Total number of deployments created, by initial status",
		},
		[]string{"status"},
	)

	DeploymentsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hypervisor_deployments_by_status",
			Help: "Current number of deployments per cluster and status",
		},
		[]string{"cluster_id", "status"},
	)

	// Scheduler metrics
	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hypervisor_scheduling_latency_seconds",
			Help:    "Time taken to complete one scheduling pass (admission or completion)",
			Buckets: prometheus.DefBuckets,
		},
	)

	PreemptionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hypervisor_preemptions_total",
			Help: "Total number of deployments preempted from Running to Pending",
		},
	)

	BackfillPromotionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hypervisor_backfill_promotions_total",
			Help: "Total number of deployments promoted from Pending to Running by backfill",
		},
	)

	QueueStoreErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hypervisor_queue_store_errors_total",
			Help: "Total number of Queue Store operations that failed",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypervisor_api_requests_total",
			Help: "Total number of API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hypervisor_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Reconciler metrics
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hypervisor_reconciliation_duration_seconds",
			Help:    "Time taken for a reconciliation cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hypervisor_reconciliation_cycles_total",
			Help: "Total number of reconciliation cycles completed",
		},
	)

	ReconciliationDriftTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypervisor_reconciliation_drift_total",
			Help: "Total number of invariant drifts detected by the reconciler, by kind",
		},
		[]string{"kind"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypervisor_events_published_total",
			Help: "Total number of deployment events published, by event type",
		},
		[]string{"type"},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypervisor_events_dropped_total",
			Help: "Total number of deployment events dropped because a subscriber's buffer was full, by event type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		ClustersTotal,
		ClusterAvailableResources,
		DeploymentsTotal,
		DeploymentsByStatus,
		SchedulingLatency,
		PreemptionsTotal,
		BackfillPromotionsTotal,
		QueueStoreErrorsTotal,
		APIRequestsTotal,
		APIRequestDuration,
		ReconciliationDuration,
		ReconciliationCyclesTotal,
		ReconciliationDriftTotal,
		EventsPublishedTotal,
		EventsDroppedTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
