package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMiddleware HTTP-метрики API арены:
// <ns>_http_requests_total{method,route,code}, <ns>_http_request_duration_seconds{method,route},
// <ns>_http_requests_inflight. Маршруты из skip (долгие websocket потоки) учитываются
// только в счётчике запросов.
type PrometheusMiddleware struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
	skip     map[string]bool
}

// NewPrometheusMiddleware регистрирует метрики в reg.
func NewPrometheusMiddleware(namespace string, reg prometheus.Registerer, skipRoutes ...string) (*PrometheusMiddleware, error) {
	pm := &PrometheusMiddleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Количество HTTP-запросов по маршрутам и кодам ответа.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"method", "route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_inflight",
			Help:      "Запросы в обработке.",
		}),
		skip: make(map[string]bool, len(skipRoutes)),
	}
	for _, route := range skipRoutes {
		pm.skip[route] = true
	}

	for _, c := range []prometheus.Collector{pm.requests, pm.duration, pm.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return pm, nil
}

// Handler возвращает gin.HandlerFunc для router.Use().
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		if pm.skip[route] {
			c.Next()
			pm.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
			return
		}

		start := time.Now()
		pm.inflight.Inc()
		defer pm.inflight.Dec()
		c.Next()

		pm.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		pm.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
