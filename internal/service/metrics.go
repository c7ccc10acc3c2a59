package service

import (
	"time"

	"github.com/gituserindia/eptest-sub000/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	editionOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edition_ingest_total",
			Help: "Edition create/edit/delete operations by result and failing stage",
		},
		[]string{"operation", "result", "stage"},
	)

	rasterDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edition_raster_duration_seconds",
			Help:    "Time spent rasterizing one edition PDF",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	renderedPages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edition_rendered_pages",
			Help:    "Pages produced per rasterized edition",
			Buckets: prometheus.LinearBuckets(4, 8, 10),
		},
	)

	cleanupWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edition_cleanup_warnings_total",
			Help: "Best-effort file cleanup failures",
		},
	)
)

func recordOp(operation string, err error) {
	if err == nil {
		editionOpsTotal.WithLabelValues(operation, "success", "").Inc()
		return
	}
	stage := string(common.StageOf(err))
	if stage == "" {
		stage = "unknown"
	}
	editionOpsTotal.WithLabelValues(operation, "failure", stage).Inc()
}

func recordRender(start time.Time, pages int) {
	rasterDuration.Observe(time.Since(start).Seconds())
	if pages > 0 {
		renderedPages.Observe(float64(pages))
	}
}
