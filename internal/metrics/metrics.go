// Package metrics 业务与 HTTP 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 按动作统计新建的行动链接
	LinksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actionlink_links_created_total",
			Help: "Total number of action links created",
		},
		[]string{"action"},
	)

	// 计入统计的使用次数（不含匿名和重复使用）
	UsagesLogged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "actionlink_usages_logged_total",
			Help: "Total number of distinct per-user link usages recorded",
		},
	)

	// 过期清理任务运行次数，outcome: completed / deadline / skipped / lock_timeout / failed
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actionlink_sweep_runs_total",
			Help: "Expiration sweep invocations partitioned by outcome",
		},
		[]string{"outcome"},
	)

	LinksExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "actionlink_links_expired_total",
			Help: "Total number of links transitioned to Expired by the sweeper",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "actionlink_sweep_duration_seconds",
			Help:    "Duration of expiration sweeps that held the lock",
			Buckets: prometheus.DefBuckets,
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
