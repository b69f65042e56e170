package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	reg                *prom.Registry
	cmsDuration        *prom.HistogramVec
	cmsResults         *prom.CounterVec
	fallbackResolution *prom.CounterVec
	buildDuration      prom.Histogram
	buildOutcome       *prom.CounterVec
	pagesBuilt         prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.cmsDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "spacenews",
			Name:      "cms_request_duration_seconds",
			Help:      "Duration of CMS API requests",
			Buckets:   prom.DefBuckets,
		}, []string{"op"})
		pr.cmsResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "spacenews",
			Name:      "cms_requests_total",
			Help:      "CMS API requests by operation and result",
		}, []string{"op", "result"})
		pr.fallbackResolution = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "spacenews",
			Name:      "fallback_resolutions_total",
			Help:      "On-demand post resolutions by observed status",
		}, []string{"status"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "spacenews",
			Name:      "page_build_duration_seconds",
			Help:      "Duration of full page store builds",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "spacenews",
			Name:      "page_build_outcomes_total",
			Help:      "Page store builds by outcome",
		}, []string{"outcome"})
		pr.pagesBuilt = prom.NewGauge(prom.GaugeOpts{
			Namespace: "spacenews",
			Name:      "pages_built",
			Help:      "Number of post pages held by the last successful build",
		})
		reg.MustRegister(pr.cmsDuration, pr.cmsResults, pr.fallbackResolution, pr.buildDuration, pr.buildOutcome, pr.pagesBuilt)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveCMSRequest(op string, d time.Duration, result ResultLabel) {
	if p == nil || p.cmsDuration == nil {
		return
	}
	p.cmsDuration.WithLabelValues(op).Observe(d.Seconds())
	p.cmsResults.WithLabelValues(op, string(result)).Inc()
}

func (p *PrometheusRecorder) IncFallbackResolution(status string) {
	if p == nil || p.fallbackResolution == nil {
		return
	}
	p.fallbackResolution.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObservePageBuild(d time.Duration, success bool) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
	outcome := "failed"
	if success {
		outcome = "success"
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetPagesBuilt(n int) {
	if p == nil || p.pagesBuilt == nil {
		return
	}
	p.pagesBuilt.Set(float64(n))
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
