package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestCycles tracks ingestion cycles by outcome
	IngestCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuswatch_ingest_cycles_total",
			Help: "Total number of ingestion cycles",
		},
		[]string{"result"},
	)

	// IngestCycleDuration tracks wall time of a full ingestion cycle
	IngestCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "statuswatch_ingest_cycle_duration_seconds",
			Help:    "Ingestion cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ChecksRecorded tracks persisted checks per status
	ChecksRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuswatch_checks_recorded_total",
			Help: "Total number of checks recorded",
		},
		[]string{"status"},
	)

	// ServiceFailures tracks services whose processing failed within a cycle
	ServiceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statuswatch_service_failures_total",
			Help: "Total number of per-service processing failures",
		},
	)

	// IncidentChanges tracks applied incident ledger changes
	IncidentChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuswatch_incident_changes_total",
			Help: "Total number of incident changes applied",
		},
		[]string{"kind"},
	)

	// OpenIncidents tracks open incidents seen at the start of the last cycle
	OpenIncidents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_open_incidents",
			Help: "Number of open incidents",
		},
	)

	// Notifications tracks webhook deliveries
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statuswatch_notifications_total",
			Help: "Total number of notifications sent",
		},
		[]string{"kind", "result"},
	)

	// UpstreamLatency tracks upstream status API latency
	UpstreamLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "statuswatch_upstream_latency_seconds",
			Help:    "Upstream status API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DBQueryDuration tracks database query latency
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statuswatch_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// DBConnectionPoolUsage tracks the database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statuswatch_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
