package optimize

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"quantsim/internal/engine"
	"quantsim/internal/model"
	"quantsim/internal/strategy"
)

// Data minimums below which a window is skipped rather than trained on
// noise.
const (
	minInSampleCandles  = 50
	minOutSampleCandles = 10
)

var ErrNoWindows = errors.New("optimize: no walk-forward window had enough data")

// WalkForward repeatedly grid-searches a rolling in-sample window and
// validates the winner on the adjacent out-of-sample window. The gap
// between average in-sample and out-of-sample return estimates overfitting.
type WalkForward struct {
	StrategyType    string
	Grid            model.ParameterGrid
	Metric          string
	Config          model.BacktestConfig
	InSampleMonths  int
	OutSampleMonths int
	Workers         int
	Logger          *zap.Logger
}

func (w *WalkForward) Run(ctx context.Context, candles []model.Candle) (*model.WalkForwardResult, error) {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(candles) == 0 {
		return nil, engine.ErrNoCandles
	}
	if err := validateMetric(w.Metric); err != nil {
		return nil, err
	}

	started := time.Now()
	first := candles[0].Timestamp
	last := candles[len(candles)-1].Timestamp

	res := &model.WalkForwardResult{StrategyName: w.StrategyType}
	bestOOS := 0.0
	haveBest := false

	for k := 0; ; k++ {
		isStart := first.AddDate(0, k*w.OutSampleMonths, 0)
		isEnd := isStart.AddDate(0, w.InSampleMonths, 0)
		oosEnd := isEnd.AddDate(0, w.OutSampleMonths, 0)
		if oosEnd.After(last) {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		inSample := sliceByTime(candles, isStart, isEnd)
		outSample := sliceByTime(candles, isEnd, oosEnd)
		if len(inSample) < minInSampleCandles || len(outSample) < minOutSampleCandles {
			logger.Warn("walk-forward window skipped, too few candles",
				zap.Int("window", k),
				zap.Int("in_sample", len(inSample)),
				zap.Int("out_sample", len(outSample)))
			continue
		}

		search := &GridSearch{
			StrategyType: w.StrategyType,
			Grid:         w.Grid,
			Metric:       w.Metric,
			Config:       w.Config,
			Workers:      w.Workers,
			Logger:       logger,
		}
		opt, err := search.Run(ctx, inSample)
		if err != nil {
			if ctx.Err() != nil {
				return res, err
			}
			logger.Warn("walk-forward window skipped, in-sample search failed",
				zap.Int("window", k), zap.Error(err))
			continue
		}

		strat, err := strategy.New(w.StrategyType, opt.BestParameters)
		if err != nil {
			return nil, err
		}
		oosRun, err := engine.NewBacktester(strat, opt.BestParameters, w.Config, nil).Run(outSample)
		if err != nil {
			logger.Warn("walk-forward window skipped, out-of-sample run failed",
				zap.Int("window", k), zap.Error(err))
			continue
		}

		window := model.WalkForwardWindow{
			Index:          k,
			InSampleStart:  isStart,
			InSampleEnd:    isEnd,
			OutSampleStart: isEnd,
			OutSampleEnd:   oosEnd,
			Parameters:     opt.BestParameters,
			InSample:       opt.BestResult,
			OutSample:      oosRun,
		}
		res.Windows = append(res.Windows, window)

		// Recommended parameters come from the best OUT-of-sample score,
		// not the best in-sample one.
		oosScore := scoreMetric(oosRun.Metrics, w.Metric)
		if !haveBest || oosScore > bestOOS {
			haveBest = true
			bestOOS = oosScore
			res.RecommendedParams = opt.BestParameters
		}
	}

	if len(res.Windows) == 0 {
		return nil, ErrNoWindows
	}

	var isSum, oosSum float64
	for _, win := range res.Windows {
		isSum += win.InSample.Metrics.TotalReturnPct
		oosSum += win.OutSample.Metrics.TotalReturnPct
	}
	n := float64(len(res.Windows))
	res.AvgInSampleReturn = isSum / n
	res.AvgOutSampleReturn = oosSum / n
	res.ReturnDegradation = res.AvgInSampleReturn - res.AvgOutSampleReturn
	res.Elapsed = time.Since(started)
	return res, nil
}

// sliceByTime returns candles with start <= ts < end. Input is already
// time-ordered, so a linear scan with early exit suffices.
func sliceByTime(candles []model.Candle, start, end time.Time) []model.Candle {
	lo := len(candles)
	for i, c := range candles {
		if !c.Timestamp.Before(start) {
			lo = i
			break
		}
	}
	hi := lo
	for hi < len(candles) && candles[hi].Timestamp.Before(end) {
		hi++
	}
	return candles[lo:hi]
}
