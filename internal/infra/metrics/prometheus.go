package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipper_sessions_opened_total",
		Help: "Total number of video sessions opened",
	})

	SessionCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipper_session_cache_total",
		Help: "Session cache admissions, by result (hit, miss, evict)",
	}, []string{"result"})

	FramesServedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipper_frames_served_total",
		Help: "Total number of single frames decoded and served",
	})

	MinuteShardTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipper_minute_shard_total",
		Help: "Minute-window shard lookups, by result (hit, miss)",
	}, []string{"result"})

	RangeExportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipper_range_exports_total",
		Help: "Total number of clip range exports",
	})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipper_operation_duration_seconds",
		Help:    "Duration of clipper operations",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	ActiveExtractions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clipper_active_extractions",
		Help: "Number of currently running decode operations",
	})
)
