package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopquery_questions_total",
			Help: "Total number of natural-language questions received.",
		},
	)
	answersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopquery_answers_total",
			Help: "Total number of pipeline outcomes by terminal state.",
		},
		[]string{"outcome"},
	)
	generationRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopquery_generation_retries_total",
			Help: "Total number of SQL generation retries (transport or amended-prompt).",
		},
	)
	validationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopquery_validation_failures_total",
			Help: "Total number of SQL candidates rejected by static validation, by rule.",
		},
		[]string{"rule"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopquery_query_duration_seconds",
			Help:    "Warehouse query execution latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
	resultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopquery_result_rows",
			Help:    "Row counts of executed query results.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 250, 500, 1000},
		},
	)
	chartSpecsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopquery_chart_specs_total",
			Help: "Total number of chart specs emitted by type.",
		},
		[]string{"chart"},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		answersTotal,
		generationRetriesTotal,
		validationFailuresTotal,
		queryDurationSeconds,
		resultRows,
		chartSpecsTotal,
	)
}

func IncrementQuestions() {
	questionsTotal.Inc()
}

func ObserveAnswer(outcome string) {
	answersTotal.WithLabelValues(outcome).Inc()
}

func IncrementGenerationRetry() {
	generationRetriesTotal.Inc()
}

func ObserveValidationFailure(rule string) {
	validationFailuresTotal.WithLabelValues(rule).Inc()
}

func ObserveQuery(rows int, elapsed time.Duration) {
	queryDurationSeconds.Observe(elapsed.Seconds())
	resultRows.Observe(float64(rows))
}

func ObserveChartSpec(chart string) {
	chartSpecsTotal.WithLabelValues(chart).Inc()
}
