package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BacktestsRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtests_run_total",
		Help: "Total number of backtest runs completed",
	}, []string{"strategy"})

	BacktestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "backtest_duration_seconds",
		Help: "Wall-clock duration of backtest runs",
	}, []string{"strategy"})

	CombinationsTested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optimizer_combinations_total",
		Help: "Total number of grid-search combinations evaluated",
	})

	CandlesLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "candles_loaded_total",
		Help: "Total number of candles loaded from storage",
	}, []string{"symbol"})

	ResultsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "results_published_total",
		Help: "Total number of result events published to NATS",
	}, []string{"kind"})
)
