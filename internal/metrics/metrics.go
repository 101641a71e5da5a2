// Package metrics 交付与批量确认的 Prometheus 指标。
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder 指标记录器，零值与 nil 均可安全调用
type Recorder struct {
	registry *prometheus.Registry

	commitsTotal        *prometheus.CounterVec
	commitUnitsTotal    prometheus.Counter
	batchesTotal        *prometheus.CounterVec
	shortageUnits       *prometheus.GaugeVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New 创建独立注册表的指标记录器
func New(namespace string) *Recorder {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "padaria"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		commitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_commits_total",
			Help:      "Delivery commit attempts by outcome status",
		}, []string{"status"}),
		commitUnitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_units_shipped_total",
			Help:      "Units written as saida movements by successful commits",
		}),
		batchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_batches_total",
			Help:      "Batch confirmations by status and final stage",
		}, []string{"status", "stage"}),
		shortageUnits: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_shortage_units",
			Help:      "Missing units per product reported by the most recent validation",
		}, []string{"product"}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Registry 返回底层注册表
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler 返回 /metrics 处理器
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveCommit 记录一次提交结果
func (r *Recorder) ObserveCommit(status string, units int) {
	if r == nil || r.commitsTotal == nil {
		return
	}
	r.commitsTotal.WithLabelValues(status).Inc()
	if units > 0 {
		r.commitUnitsTotal.Add(float64(units))
	}
}

// ObserveBatch 记录一次批量确认结果
func (r *Recorder) ObserveBatch(status, stage string) {
	if r == nil || r.batchesTotal == nil {
		return
	}
	r.batchesTotal.WithLabelValues(status, stage).Inc()
}

// SetShortage 记录商品缺口，missing 为 0 时清除
func (r *Recorder) SetShortage(product string, missing int) {
	if r == nil || r.shortageUnits == nil {
		return
	}
	if missing <= 0 {
		r.shortageUnits.DeleteLabelValues(product)
		return
	}
	r.shortageUnits.WithLabelValues(product).Set(float64(missing))
}

// ObserveHTTP 记录 HTTP 请求
func (r *Recorder) ObserveHTTP(method, path, status string, seconds float64) {
	if r == nil || r.httpRequestsTotal == nil {
		return
	}
	r.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.httpRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}
