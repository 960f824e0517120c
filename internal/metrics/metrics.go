package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics 店铺服务的 Prometheus 指标
// 所有方法对 nil 接收者安全，未启用指标时直接传 nil 即可。
type Metrics struct {
	persistTotal     *prometheus.CounterVec
	persistDuration  *prometheus.HistogramVec
	catalogFailures  *prometheus.CounterVec
	catalogCache     *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	workerTasksTotal *prometheus.CounterVec
}

// New 在指定 registerer 上注册指标
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		persistTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_persist_total",
			Help: "Cart snapshot writes by backend and result.",
		}, []string{"backend", "result"}),
		persistDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cart_persist_duration_seconds",
			Help:    "Duration of cart snapshot writes in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
		catalogFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_fetch_failures_total",
			Help: "Catalog provider calls that degraded to an empty result.",
		}, []string{"operation"}),
		catalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "Catalog cache lookups by result.",
		}, []string{"result"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cart_sessions_active",
			Help: "Cart sessions currently held in memory.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		workerTasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_tasks_total",
			Help: "Background task executions by type and result.",
		}, []string{"task", "result"}),
	}
	reg.MustRegister(
		m.persistTotal,
		m.persistDuration,
		m.catalogFailures,
		m.catalogCache,
		m.sessionsActive,
		m.httpRequests,
		m.httpLatency,
		m.workerTasksTotal,
	)
	return m
}

// ObservePersist 记录一次购物车快照写入
func (m *Metrics) ObservePersist(backend string, duration time.Duration, err error) {
	if m == nil || m.persistTotal == nil {
		return
	}
	backend = normalizeLabel(backend)
	m.persistTotal.WithLabelValues(backend, resultLabel(err)).Inc()
	m.persistDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// IncCatalogFailure 记录目录接口降级
func (m *Metrics) IncCatalogFailure(operation string) {
	if m == nil || m.catalogFailures == nil {
		return
	}
	m.catalogFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

// ObserveCatalogCache 记录缓存命中情况
func (m *Metrics) ObserveCatalogCache(hit bool) {
	if m == nil || m.catalogCache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.catalogCache.WithLabelValues(result).Inc()
}

// SetActiveSessions 设置内存中的会话数
func (m *Metrics) SetActiveSessions(count int) {
	if m == nil || m.sessionsActive == nil {
		return
	}
	m.sessionsActive.Set(float64(count))
}

// ObserveHTTP 记录 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveTask 记录后台任务执行结果
func (m *Metrics) ObserveTask(task string, err error) {
	if m == nil || m.workerTasksTotal == nil {
		return
	}
	m.workerTasksTotal.WithLabelValues(normalizeLabel(task), resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
