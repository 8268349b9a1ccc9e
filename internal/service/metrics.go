package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	parseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsearch_parse_total",
			Help: "Parsed queries by classified intent",
		},
		[]string{"intent"},
	)

	parseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smartsearch_parse_duration_seconds",
			Help:    "Time spent parsing a free-text query",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025},
		},
	)

	rerankTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartsearch_rerank_total",
			Help: "Semantic re-rank attempts by outcome (applied, skipped, failed)",
		},
		[]string{"outcome"},
	)
)
