package optimize

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"quantsim/internal/engine"
	"quantsim/internal/model"
	"quantsim/internal/regime"
	"quantsim/internal/strategy"
)

const minEraCandles = 50

var ErrNoEras = errors.New("optimize: no era had enough data")

// MultiPeriod backtests one strategy across several named historical eras
// and compounds the era returns as sequential re-investment of the same
// capital.
type MultiPeriod struct {
	StrategyType string
	Params       map[string]float64
	Config       model.BacktestConfig
	Eras         []model.HistoricalEra
	Logger       *zap.Logger
}

func (m *MultiPeriod) Run(ctx context.Context, candles []model.Candle) (*model.MultiPeriodResult, error) {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &model.MultiPeriodResult{StrategyName: m.StrategyType}
	compound := 1.0

	for _, era := range m.Eras {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		slice := sliceByTime(candles, era.Start, era.End)
		if len(slice) < minEraCandles {
			logger.Warn("era skipped, too few candles",
				zap.String("era", era.Name), zap.Int("candles", len(slice)))
			continue
		}

		strat, err := strategy.New(m.StrategyType, m.Params)
		if err != nil {
			return nil, err
		}
		run, err := engine.NewBacktester(strat, m.Params, m.Config, nil).Run(slice)
		if err != nil {
			logger.Warn("era skipped, backtest failed",
				zap.String("era", era.Name), zap.Error(err))
			continue
		}

		eraRes := model.EraResult{
			Era:       era,
			Result:    run,
			Regime:    regime.Detect(slice[:len(slice)/2+1]),
			ReturnPct: run.Metrics.TotalReturnPct,
		}
		res.Eras = append(res.Eras, eraRes)
		compound *= 1 + eraRes.ReturnPct/100
	}

	if len(res.Eras) == 0 {
		return nil, ErrNoEras
	}
	res.OverallReturnPct = (compound - 1) * 100
	return res, nil
}
