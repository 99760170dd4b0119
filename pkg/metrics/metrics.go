package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogapi_http_requests_total",
			Help: "Total de requisições HTTP",
		},
		[]string{"method", "route", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogapi_http_request_duration_seconds",
			Help:    "Duração das requisições HTTP (segundos)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogapi_store_operations_total",
			Help: "Total de operações nos repositórios",
		},
		[]string{"operation", "entity"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogapi_store_operation_duration_seconds",
			Help:    "Duração das operações nos repositórios (segundos)",
			Buckets: []float64{.00001, .0001, .001, .01, .1, 1},
		},
		[]string{"operation", "entity"},
	)

	GateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogapi_gate_rejections_total",
			Help: "Requisições rejeitadas por validação, por tipo de erro",
		},
		[]string{"operation", "kind"},
	)

	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blogapi_users",
			Help: "Número de utilizadores em memória",
		},
	)

	PostsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blogapi_posts",
			Help: "Número de posts em memória",
		},
	)

	AuditQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blogapi_audit_queue_size",
			Help: "Registos de auditoria à espera na fila",
		},
	)

	AuditActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blogapi_audit_active_workers",
			Help: "Workers de auditoria ativos",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogapi_cache_hits_total",
			Help: "Acertos na cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogapi_cache_misses_total",
			Help: "Falhas na cache",
		},
	)
)

func RecordHttpRequest(method, route, status string, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, route, status).Inc()
	HttpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordStoreOperation(operation, entity string, duration time.Duration) {
	StoreOperationsTotal.WithLabelValues(operation, entity).Inc()
	StoreOperationDuration.WithLabelValues(operation, entity).Observe(duration.Seconds())
}

func RecordGateRejection(operation, kind string) {
	GateRejections.WithLabelValues(operation, kind).Inc()
}

func SetUserCount(n int) {
	UsersTotal.Set(float64(n))
}

func SetPostCount(n int) {
	PostsTotal.Set(float64(n))
}

func UpdateAuditPoolStats(queueSize, activeWorkers int) {
	AuditQueueSize.Set(float64(queueSize))
	AuditActiveWorkers.Set(float64(activeWorkers))
}

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}
