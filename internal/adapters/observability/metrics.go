package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"dormdesk/internal/domain"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dormdesk", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dormdesk", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dormdesk", Name: "sync_runs_total", Help: "Calendar sync runs."},
		[]string{"result"}, // result: ok|fetch_error
	)
	SyncLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dormdesk", Name: "sync_duration_seconds",
			Help:    "Calendar sync run duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	SyncEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dormdesk", Name: "sync_entries_total", Help: "Per-entry sync outcomes."},
		[]string{"outcome"}, // outcome: imported|cancelled|error|warning
	)
	BookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dormdesk", Name: "booking_conflicts_total", Help: "Writes rejected by the availability check."},
		[]string{"op"}, // op: create|extend|reassign|block
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dormdesk", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, SyncRuns, SyncLatency, SyncEntries, BookingConflicts, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveSync(result string, dur time.Duration) {
	SyncRuns.WithLabelValues(result).Inc()
	SyncLatency.Observe(dur.Seconds())
}

func ObserveSyncEntries(res domain.SyncResult) {
	SyncEntries.WithLabelValues("imported").Add(float64(res.Imported))
	SyncEntries.WithLabelValues("cancelled").Add(float64(res.Cancelled))
	SyncEntries.WithLabelValues("error").Add(float64(len(res.Errors)))
	SyncEntries.WithLabelValues("warning").Add(float64(len(res.Warnings)))
}

func ObserveConflict(op string) { BookingConflicts.WithLabelValues(op).Inc() }

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
