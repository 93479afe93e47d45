package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	decodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgchain",
			Subsystem: "decode",
			Name:      "chains_total",
			Help:      "Decoded chains by source mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)
	decodeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "msgchain",
			Subsystem: "decode",
			Name:      "duration_seconds",
			Help:      "Decode pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
	ignoredElements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgchain",
			Subsystem: "decode",
			Name:      "ignored_elements_total",
			Help:      "Wire elements that produced no component.",
		},
		[]string{"tag", "reason"},
	)
	encodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgchain",
			Subsystem: "encode",
			Name:      "components_total",
			Help:      "Encoded components by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgchain",
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Deep refine retrievals by resource and success.",
		},
		[]string{"resource", "success"},
	)
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "msgchain",
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Deep refine retrieval duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource"},
	)
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgchain",
			Subsystem: "fetch",
			Name:      "cache_lookups_total",
			Help:      "Retrieval cache lookups by resource and hit.",
		},
		[]string{"resource", "hit"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			decodeTotal, decodeDuration, ignoredElements,
			encodeTotal,
			fetchTotal, fetchDuration, cacheLookups,
		)
	})
}

func RecordDecode(mode, outcome string, duration time.Duration) {
	RegisterMetrics()
	decodeTotal.WithLabelValues(mode, outcome).Inc()
	decodeDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func RecordIgnoredElement(tag, reason string) {
	RegisterMetrics()
	ignoredElements.WithLabelValues(tag, reason).Inc()
}

func RecordEncode(componentType, outcome string) {
	RegisterMetrics()
	encodeTotal.WithLabelValues(componentType, outcome).Inc()
}

func RecordFetch(resource string, duration time.Duration, success bool) {
	RegisterMetrics()
	fetchTotal.WithLabelValues(resource, strconv.FormatBool(success)).Inc()
	fetchDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

func RecordCache(resource string, hit bool) {
	RegisterMetrics()
	cacheLookups.WithLabelValues(resource, strconv.FormatBool(hit)).Inc()
}
