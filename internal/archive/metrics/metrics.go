package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the legacy archive.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ProxyRequests *prometheus.CounterVec
	Probes        *prometheus.CounterVec
	ProbeCache    *prometheus.CounterVec
	ProbesPerScan prometheus.Histogram
	PageRenders   *prometheus.CounterVec
	PageCache     *prometheus.CounterVec
	BreakerOpen   prometheus.Gauge
}

// New registers and returns archive metrics collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProxyRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "confsite_archive_proxy_requests_total",
			Help: "Legacy proxy requests by outcome (ok, upstream_status, transport_error, bad_request)",
		}, []string{"outcome"}),
		Probes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "confsite_archive_probes_total",
			Help: "HEAD probes against the legacy origin by result (found, missing, error, cancelled)",
		}, []string{"result"}),
		ProbeCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "confsite_archive_probe_cache_total",
			Help: "Probe cache lookups by result (hit, miss)",
		}, []string{"result"}),
		ProbesPerScan: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "confsite_archive_probes_per_scan",
			Help:    "Number of candidate years probed per image scan",
			Buckets: []float64{1, 2, 3, 5, 8, 12, 15},
		}),
		PageRenders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "confsite_archive_page_renders_total",
			Help: "Archived year page renders by mode (rewritten, iframe, redirect)",
		}, []string{"mode"}),
		PageCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "confsite_archive_page_cache_total",
			Help: "Rendered archive page cache lookups by result (hit, miss)",
		}, []string{"result"}),
		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "confsite_archive_page_breaker_open",
			Help: "1 while the legacy page circuit breaker is open",
		}),
	}
}

func (m *Metrics) IncProxyRequest(outcome string) {
	if m == nil {
		return
	}
	m.ProxyRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncProbe(result string) {
	if m == nil {
		return
	}
	m.Probes.WithLabelValues(result).Inc()
}

func (m *Metrics) IncProbeCache(hit bool) {
	if m == nil {
		return
	}
	m.ProbeCache.WithLabelValues(hitLabel(hit)).Inc()
}

func (m *Metrics) ObserveProbesPerScan(n int) {
	if m == nil {
		return
	}
	m.ProbesPerScan.Observe(float64(n))
}

func (m *Metrics) IncPageRender(mode string) {
	if m == nil {
		return
	}
	m.PageRenders.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncPageCache(hit bool) {
	if m == nil {
		return
	}
	m.PageCache.WithLabelValues(hitLabel(hit)).Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

func hitLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
