package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	VerificationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusthire_verification_runs_total",
			Help: "Total verification runs by final status",
		},
		[]string{"status"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trusthire_verification_run_duration_seconds",
			Help:    "End-to-end verification run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	AdapterRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusthire_adapter_requests_total",
			Help: "Adapter lookups by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	AdapterLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trusthire_adapter_latency_seconds",
			Help:    "Adapter lookup latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trusthire_api_cache_hits_total",
			Help: "Cached API client hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trusthire_api_cache_misses_total",
			Help: "Cached API client misses",
		},
	)

	RateLimitDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusthire_rate_limit_denied_total",
			Help: "Requests denied at the rate-limit boundary",
		},
		[]string{"scope"},
	)

	OverallRisk = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trusthire_overall_risk_score",
			Help:    "Overall risk score distribution across reports",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	DetectorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusthire_ai_detector_calls_total",
			Help: "AI content detector calls by outcome",
		},
		[]string{"outcome"},
	)
)

func Init() {
	prometheus.MustRegister(VerificationRuns)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(AdapterRequests)
	prometheus.MustRegister(AdapterLatency)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(RateLimitDenied)
	prometheus.MustRegister(OverallRisk)
	prometheus.MustRegister(DetectorCalls)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
