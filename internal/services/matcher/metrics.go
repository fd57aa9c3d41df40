package matcher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matrimony_match_scores",
			Help:    "Distribution of computed match scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	rankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "matrimony_rank_duration_seconds",
			Help: "Time spent ranking a candidate pool",
		},
		[]string{"source"},
	)

	rankCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matrimony_rank_cache_lookups_total",
			Help: "Ranked list cache lookups by result",
		},
		[]string{"result"},
	)

	candidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matrimony_candidates_scored_total",
			Help: "Total number of candidate profiles scored",
		},
	)
)

func recordScores(scores []int) {
	candidatesScored.Add(float64(len(scores)))
	for _, s := range scores {
		matchScores.Observe(float64(s))
	}
}

func recordRank(source string, d time.Duration) {
	rankDuration.WithLabelValues(source).Observe(d.Seconds())
}

func recordCacheLookup(hit bool) {
	if hit {
		rankCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	rankCacheLookups.WithLabelValues("miss").Inc()
}
