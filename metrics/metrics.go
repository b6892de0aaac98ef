// Package metrics 定义推荐核心的 Prometheus 指标，通过 GET /metrics 暴露。
//
//	recommend_requests_total{kind,outcome}         推荐请求数（kind: similar / hybrid）
//	recommend_duration_seconds{kind}               推荐耗时
//	recall_source_duration_seconds{source}         单个召回源耗时
//	recall_source_errors_total{source}             召回源错误数
//	pipeline_node_duration_seconds{node}           Pipeline 节点耗时
//	interaction_events_total{kind,backend}         交互事件写入数
//	matrix_rebuild_total{outcome}                  矩阵重建次数（built / unchanged / failed）
//	matrix_rebuild_duration_seconds                矩阵重建耗时
//	matrix_dimension                               当前矩阵维度
//	content_cache_hits_total / content_cache_misses_total
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"kind", "outcome"},
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	RecallSourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recall_source_duration_seconds",
			Help:    "Duration of a single recall source in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"source"},
	)

	RecallSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_source_errors_total",
			Help: "Total number of recall source failures",
		},
		[]string{"source"},
	)

	PipelineNodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_node_duration_seconds",
			Help:    "Duration of pipeline nodes in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"node"},
	)

	InteractionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_events_total",
			Help: "Total number of recorded interaction events",
		},
		[]string{"kind", "backend"},
	)

	MatrixRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matrix_rebuild_total",
			Help: "Total number of similarity matrix rebuilds",
		},
		[]string{"outcome"},
	)

	MatrixRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matrix_rebuild_duration_seconds",
			Help:    "Duration of similarity matrix rebuilds in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
	)

	MatrixDimension = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matrix_dimension",
			Help: "Number of schemes in the loaded similarity matrix",
		},
	)

	ContentCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_hits_total",
			Help: "Total number of similar-scheme result cache hits",
		},
	)

	ContentCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_misses_total",
			Help: "Total number of similar-scheme result cache misses",
		},
	)
)

// ObserveRecommend 记录一次推荐请求。
func ObserveRecommend(kind string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RecommendRequests.WithLabelValues(kind, outcome).Inc()
	RecommendDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// ObserveRecallSource 记录单个召回源的结果，签名与 recall.Fanout.OnSourceDone 一致。
func ObserveRecallSource(source string, _ int, elapsed time.Duration, err error) {
	RecallSourceDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil {
		RecallSourceErrors.WithLabelValues(source).Inc()
	}
}
