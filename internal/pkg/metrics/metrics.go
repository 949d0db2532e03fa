// Package metrics Prometheus 指标：HTTP 请求与文件上传。
// 路由标签使用 gin 的路由模板（/view/:id），避免按文件 ID 产生高基数标签。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tomato_share"

// unmatchedRoute 未命中任何路由时的 path 标签
const unmatchedRoute = "unmatched"

// Metrics 持有独立的 registry 及所有指标
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	uploadsTotal  *prometheus.CounterVec
	uploadBytes   prometheus.Counter
	uploadLatency prometheus.Histogram
	lookupsTotal  *prometheus.CounterVec
}

// New 创建指标集合，并注册 Go 运行时与进程采集器
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// httpRequestsTotal 总请求数
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "File uploads by result (success, rejected, failed)",
			},
			[]string{"result"},
		),
		uploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes successfully stored",
		}),
		uploadLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Time spent transferring a file to storage",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "file_lookups_total",
				Help:      "File record lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
	}
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware 记录请求数与耗时
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		method := c.Request.Method

		m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// 上传结果
const (
	UploadSuccess  = "success"
	UploadRejected = "rejected"
	UploadFailed   = "failed"
)

// ObserveUpload 记录一次上传
func (m *Metrics) ObserveUpload(result string, size int64, elapsed time.Duration) {
	m.uploadsTotal.WithLabelValues(result).Inc()
	if result == UploadSuccess {
		m.uploadBytes.Add(float64(size))
		m.uploadLatency.Observe(elapsed.Seconds())
	}
}

// ObserveLookup 记录一次文件查询，found 为 false 时计为 miss
func (m *Metrics) ObserveLookup(found bool) {
	if found {
		m.lookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	m.lookupsTotal.WithLabelValues("miss").Inc()
}
