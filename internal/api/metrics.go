package api

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "t3_requests_total",
		Help: "Total T3 API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "t3_request_duration_seconds",
		Help:    "T3 API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20},
	}, []string{"endpoint"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "t3_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "t3_retry_exhausted_total",
		Help: "Total requests dropped after exhausting retries by error class",
	}, []string{"error_class"})
)

// LogMetrics gathers the default registry and logs every t3_* series.
// A one-shot CLI has no scrape endpoint, so the run summary is the
// exposition path: requests by endpoint and status, retry counts, and
// request durations.
func LogMetrics(logger zerolog.Logger) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		logger.Warn().Err(err).Msg("gathering run metrics failed")
		return
	}

	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), "t3_") {
			continue
		}
		for _, metric := range family.GetMetric() {
			ev := logger.Debug().Str("metric", family.GetName())
			for _, label := range metric.GetLabel() {
				ev = ev.Str(label.GetName(), label.GetValue())
			}
			switch {
			case metric.GetCounter() != nil:
				ev = ev.Float64("value", metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				ev = ev.
					Uint64("count", metric.GetHistogram().GetSampleCount()).
					Float64("sum_seconds", metric.GetHistogram().GetSampleSum())
			}
			ev.Msg("run metric")
		}
	}
}
