// Package optimize wraps the backtest engine with parameter-search
// machinery: exhaustive grid search, rolling walk-forward validation and
// multi-era backtesting. Candle data is shared read-only across workers;
// every combination gets its own strategy instance and portfolio.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"quantsim/internal/engine"
	"quantsim/internal/infrastructure"
	"quantsim/internal/model"
	"quantsim/internal/strategy"
)

var ErrNoCombinations = errors.New("optimize: no combination completed successfully")

// GridSearch runs the engine once per point of the Cartesian parameter
// grid, ranking by Metric.
type GridSearch struct {
	StrategyType string
	Grid         model.ParameterGrid
	Metric       string
	Config       model.BacktestConfig
	Workers      int
	Logger       *zap.Logger
}

func (g *GridSearch) Run(ctx context.Context, candles []model.Candle) (*model.OptimizationResult, error) {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := validateMetric(g.Metric); err != nil {
		return nil, err
	}
	for name, r := range g.Grid {
		if r.Step <= 0 {
			return nil, fmt.Errorf("optimize: parameter %q has step %v, must be > 0", name, r.Step)
		}
	}
	if _, err := strategy.New(g.StrategyType, nil); err != nil {
		return nil, err
	}

	started := time.Now()
	combos := enumerate(g.Grid)

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(combos) {
		workers = len(combos)
	}

	jobs := make(chan map[string]float64)
	var wg sync.WaitGroup

	var mu sync.Mutex
	res := &model.OptimizationResult{
		StrategyName: g.StrategyType,
		Metric:       g.Metric,
		AllResults:   make([]model.CombinationResult, 0, len(combos)),
	}
	best := false

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				run, err := g.runOne(params, candles)
				infrastructure.CombinationsTested.Inc()
				if err != nil {
					logger.Warn("combination skipped",
						zap.Any("params", params), zap.Error(err))
					continue
				}
				score := scoreMetric(run.Metrics, g.Metric)

				mu.Lock()
				res.AllResults = append(res.AllResults, model.CombinationResult{
					Parameters:  params,
					Score:       score,
					ReturnPct:   run.Metrics.TotalReturnPct,
					Sharpe:      run.Metrics.SharpeRatio,
					TotalTrades: run.Metrics.TotalTrades,
				})
				res.Combinations++
				if !best || score > res.BestScore {
					best = true
					res.BestScore = score
					res.BestParameters = params
					res.BestResult = run
				}
				mu.Unlock()
			}
		}()
	}

	// Dispatch cooperatively: cancellation is honored between
	// combinations, never inside a running engine loop.
dispatch:
	for _, params := range combos {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- params:
		}
	}
	close(jobs)
	wg.Wait()

	res.Elapsed = time.Since(started)
	if !best {
		return nil, ErrNoCombinations
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// runOne backtests a single parameter set, converting panics from a
// misbehaving strategy into errors so the search continues.
func (g *GridSearch) runOne(params map[string]float64, candles []model.Candle) (run *model.BacktestResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("optimize: combination panicked: %v", r)
		}
	}()
	strat, err := strategy.New(g.StrategyType, params)
	if err != nil {
		return nil, err
	}
	return engine.NewBacktester(strat, params, g.Config, nil).Run(candles)
}

// enumerate expands the grid's Cartesian product. Parameter names are
// iterated in sorted order so results are deterministic.
func enumerate(grid model.ParameterGrid) []map[string]float64 {
	names := make([]string, 0, len(grid))
	for name := range grid {
		names = append(names, name)
	}
	sort.Strings(names)

	combos := []map[string]float64{{}}
	for _, name := range names {
		r := grid[name]
		next := make([]map[string]float64, 0, len(combos)*r.Count())
		for i := 0; i < r.Count(); i++ {
			v := r.Min + r.Step*float64(i)
			for _, base := range combos {
				combo := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					combo[k] = bv
				}
				combo[name] = v
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

func validateMetric(metric string) error {
	switch metric {
	case model.MetricTotalReturn, model.MetricSharpe, model.MetricSortino,
		model.MetricProfitFactor, model.MetricWinRate:
		return nil
	}
	return fmt.Errorf("optimize: unknown metric %q", metric)
}

// scoreMetric extracts the ranking score. Unbounded sentinels are already
// capped at engine.Unbounded, so ranking stays finite.
func scoreMetric(m model.PerformanceMetrics, metric string) float64 {
	switch metric {
	case model.MetricSharpe:
		return m.SharpeRatio
	case model.MetricSortino:
		return m.SortinoRatio
	case model.MetricProfitFactor:
		return m.ProfitFactor
	case model.MetricWinRate:
		return m.WinRate
	default:
		return m.TotalReturnPct
	}
}
