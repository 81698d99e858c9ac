package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelrecs", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotelrecs", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelrecs", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotelrecs", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelrecs", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	AssetResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelrecs", Name: "asset_resolutions_total", Help: "Image resolution outcomes per stage."},
		[]string{"stage", "outcome"}, // stage: cache|proxy|direct|decode, outcome: loaded|failed
	)
	DocumentBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelrecs", Name: "document_builds_total", Help: "Document builds by final status."},
		[]string{"status"},
	)
	DocumentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hotelrecs", Name: "document_build_duration_seconds",
			Help:    "End-to-end document build duration seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)
	DocumentPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hotelrecs", Name: "document_pages",
			Help:    "Pages per produced document.",
			Buckets: []float64{2, 3, 5, 8, 12, 20, 40},
		},
	)
)

// Serve exposes reg on a separate listener; an empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

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
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		AssetResolutions, DocumentBuilds, DocumentDuration, DocumentPages)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveAsset(stage, outcome string) {
	AssetResolutions.WithLabelValues(stage, outcome).Inc()
}

// ObserveBuild records a finished build; pages is ignored unless status is "ok".
func ObserveBuild(status string, pages int, dur time.Duration) {
	DocumentBuilds.WithLabelValues(status).Inc()
	DocumentDuration.Observe(dur.Seconds())
	if status == "ok" {
		DocumentPages.Observe(float64(pages))
	}
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
