package question

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation outcome labels.
const (
	outcomeCacheHit = "cache_hit"
	outcomeRemote   = "remote"
	outcomeFallback = "fallback"
	outcomeNone     = "none"
)

var (
	generateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "question",
		Name:      "generate_total",
		Help:      "Question generation calls by outcome.",
	}, []string{"outcome"})

	swapTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "question",
		Name:      "swap_total",
		Help:      "Question swap attempts by outcome.",
	}, []string{"outcome"})

	parseRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quizarena",
		Subsystem: "question",
		Name:      "parse_rejected_lines_total",
		Help:      "Generator response lines dropped by the record parser.",
	})
)
