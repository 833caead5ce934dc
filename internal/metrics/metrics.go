// Package metrics centralizes the Prometheus instrumentation shared by
// the scheduler, feed pipelines, wind rasterizer, and HTTP handlers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SchedulerTaskRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firemap_scheduler_task_runs_total",
			Help: "Total scheduled task executions",
		},
		[]string{"task"},
	)

	SchedulerTaskFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firemap_scheduler_task_failures_total",
			Help: "Total scheduled task executions that returned an error or panicked",
		},
		[]string{"task"},
	)

	SchedulerTaskDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firemap_scheduler_task_duration_seconds",
			Help:    "Scheduled task execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)

	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firemap_feed_fetch_total",
			Help: "Total upstream fetch attempts per feed",
		},
		[]string{"feed", "status"},
	)

	FeedFetchLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firemap_feed_fetch_latency_seconds",
			Help:    "Upstream fetch latency per feed, in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	FeedRecordsPublished = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "firemap_feed_records_published",
			Help: "Number of records in the most recently published artifact per feed",
		},
		[]string{"feed"},
	)

	WindRasterDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "firemap_wind_raster_duration_seconds",
			Help:    "Wind raster generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReportSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firemap_report_submissions_total",
			Help: "Total report submissions by outcome",
		},
		[]string{"outcome"},
	)

	ShelterEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firemap_shelter_evaluations_total",
			Help: "Total shelter up/down evaluations submitted",
		},
		[]string{"direction"},
	)
)
