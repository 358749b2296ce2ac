package model

import (
	"time"
)

// ParameterRange enumerates a tunable parameter from Min to Max inclusive,
// stepping by Step. Step must be > 0.
type ParameterRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Count is the number of values the range enumerates.
func (r ParameterRange) Count() int {
	if r.Step <= 0 || r.Max < r.Min {
		return 0
	}
	return int((r.Max-r.Min)/r.Step+1e-9) + 1
}

// ParameterGrid maps parameter name to its range.
type ParameterGrid map[string]ParameterRange

// Combinations is the size of the grid's Cartesian product.
func (g ParameterGrid) Combinations() int {
	total := 1
	for _, r := range g {
		total *= r.Count()
	}
	return total
}

// Optimization target metrics.
const (
	MetricTotalReturn  = "total_return"
	MetricSharpe       = "sharpe"
	MetricSortino      = "sortino"
	MetricProfitFactor = "profit_factor"
	MetricWinRate      = "win_rate"
)

// CombinationResult is the summary kept for every grid point, winner or not.
type CombinationResult struct {
	Parameters  map[string]float64 `json:"parameters"`
	Score       float64            `json:"score"`
	ReturnPct   float64            `json:"return_pct"`
	Sharpe      float64            `json:"sharpe"`
	TotalTrades int                `json:"total_trades"`
}

// OptimizationResult is the outcome of one grid search.
type OptimizationResult struct {
	StrategyName   string              `json:"strategy_name"`
	Metric         string              `json:"metric"`
	BestParameters map[string]float64  `json:"best_parameters"`
	BestScore      float64             `json:"best_score"`
	BestResult     *BacktestResult     `json:"best_result"`
	AllResults     []CombinationResult `json:"all_results"`
	Combinations   int                 `json:"combinations"`
	Elapsed        time.Duration       `json:"elapsed"`
}

// WalkForwardWindow is one rolling train/validate split.
type WalkForwardWindow struct {
	Index          int                `json:"index"`
	InSampleStart  time.Time          `json:"in_sample_start"`
	InSampleEnd    time.Time          `json:"in_sample_end"`
	OutSampleStart time.Time          `json:"out_sample_start"`
	OutSampleEnd   time.Time          `json:"out_sample_end"`
	Parameters     map[string]float64 `json:"parameters"`
	InSample       *BacktestResult    `json:"in_sample"`
	OutSample      *BacktestResult    `json:"out_sample"`
}

// WalkForwardResult aggregates all windows. Degradation is the gap between
// average in-sample and out-of-sample return, a diagnostic for overfitting.
type WalkForwardResult struct {
	StrategyName        string              `json:"strategy_name"`
	Windows             []WalkForwardWindow `json:"windows"`
	RecommendedParams   map[string]float64  `json:"recommended_params"`
	AvgInSampleReturn   float64             `json:"avg_in_sample_return"`
	AvgOutSampleReturn  float64             `json:"avg_out_sample_return"`
	ReturnDegradation   float64             `json:"return_degradation"`
	Elapsed             time.Duration       `json:"elapsed"`
}

// Trend, volatility and phase classifications for market regimes.
const (
	TrendStrong  = "strong_trending"
	TrendWeak    = "weak_trending"
	TrendRanging = "ranging"

	VolHigh   = "high"
	VolMedium = "medium"
	VolLow    = "low"

	PhaseBull     = "bull"
	PhaseBear     = "bear"
	PhaseSideways = "sideways"
)

// MarketRegime classifies one point in history. Recomputed on demand.
type MarketRegime struct {
	Trend               string  `json:"trend"`
	Volatility          string  `json:"volatility"`
	Phase               string  `json:"phase"`
	ADX                 float64 `json:"adx"`
	ATRPct              float64 `json:"atr_pct"`
	RecommendedStrategy string  `json:"recommended_strategy"`
}

// HistoricalEra is a named date range for multi-period backtests.
type HistoricalEra struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EraResult is one era's outcome in a multi-period run.
type EraResult struct {
	Era       HistoricalEra   `json:"era"`
	Result    *BacktestResult `json:"result"`
	Regime    *MarketRegime   `json:"regime"`
	ReturnPct float64         `json:"return_pct"`
}

// MultiPeriodResult compounds era returns as sequential re-investment.
type MultiPeriodResult struct {
	StrategyName     string      `json:"strategy_name"`
	Eras             []EraResult `json:"eras"`
	OverallReturnPct float64     `json:"overall_return_pct"`
}
