package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	fetches  *prometheus.CounterVec
	aqi      *prometheus.GaugeVec
	requests *prometheus.CounterVec
}

// New builds a private registry so tests and multiple servers never collide
// on the global one.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purpleair_fetch_total",
				Help: "PurpleAir lookups by schema and result.",
			},
			[]string{"schema", "result"},
		),
		aqi: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "purpleair_aqi",
				Help: "Last computed PM2.5 AQI per sensor.",
			},
			[]string{"sensor"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "path", "status"},
		),
	}
	reg.MustRegister(
		m.fetches,
		m.aqi,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch counts one lookup. result is "ok", "cached" or an error class.
func (m *Metrics) ObserveFetch(schema, result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(schema, result).Inc()
}

func (m *Metrics) SetAQI(sensor string, value float64) {
	if m == nil {
		return
	}
	m.aqi.WithLabelValues(sensor).Set(value)
}

func (m *Metrics) ObserveRequest(method, path string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
