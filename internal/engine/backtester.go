// Package engine runs deterministic historical simulations: an order
// simulator, the per-candle backtest loop and the performance summary
// derived from its output.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"quantsim/internal/model"
	"quantsim/internal/portfolio"
	"quantsim/internal/strategy"
)

var (
	ErrNoCandles      = errors.New("engine: empty candle sequence")
	ErrInvalidBalance = errors.New("engine: initial balance must be positive")
)

// Backtester simulates one strategy over one candle sequence. The loop is
// strictly chronological and single-threaded; step i never observes candle
// i+1. One Backtester services one run.
type Backtester struct {
	strat  strategy.Strategy
	params map[string]float64
	cfg    model.BacktestConfig
	logger *zap.Logger
}

func NewBacktester(strat strategy.Strategy, params map[string]float64, cfg model.BacktestConfig, logger *zap.Logger) *Backtester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backtester{strat: strat, params: params, cfg: cfg, logger: logger}
}

func (b *Backtester) Run(candles []model.Candle) (*model.BacktestResult, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	if !b.cfg.InitialBalance.IsPositive() {
		return nil, ErrInvalidBalance
	}
	if !model.SortedByTime(candles) {
		return nil, fmt.Errorf("engine: candles not sorted by timestamp")
	}

	b.strat.Init(b.params)
	port := portfolio.NewVirtualPortfolio(b.cfg.InitialBalance)
	sim := NewOrderSimulator(b.cfg)
	symbol := candles[0].Symbol

	curve := make([]model.PortfolioSnapshot, 0, len(candles))
	var pendingLimit *decimal.Decimal

	dayStart := candles[0].Timestamp.UTC().Truncate(24 * time.Hour)
	dayOpenEquity := b.cfg.InitialBalance
	dailyLocked := false

	for i, candle := range candles {
		history := candles[:i+1] // never exposes future candles

		// Daily loss bookkeeping resets at each UTC day boundary.
		if day := candle.Timestamp.UTC().Truncate(24 * time.Hour); day.After(dayStart) {
			dayStart = day
			dayOpenEquity = port.TotalValue(symbol, candle.Close)
			dailyLocked = false
		}

		// A parked limit entry gets exactly one re-check, on this candle.
		if pendingLimit != nil {
			if fill, ok := sim.LimitBuyFill(candle, *pendingLimit); ok {
				b.tryBuy(port, sim, candle, fill, true)
			}
			pendingLimit = nil
		}

		signal := b.riskSignal(port, candle)
		if signal == strategy.Hold {
			signal = b.strat.OnCandle(candle, port, history)
		}

		switch signal {
		case strategy.Buy:
			if port.OpenTrade() == nil && !dailyLocked {
				if b.cfg.UseLimitEntries {
					limit := candle.Close
					pendingLimit = &limit
				} else {
					b.tryBuy(port, sim, candle, sim.MarketBuyPrice(candle.Close), false)
				}
			}
		case strategy.Sell:
			if port.OpenTrade() != nil && port.Holding(symbol).IsPositive() {
				b.sell(port, sim, candle)
			}
		}

		// One snapshot per candle, even on hold.
		equity := port.TotalValue(symbol, candle.Close)
		curve = append(curve, model.PortfolioSnapshot{
			Timestamp:     candle.Timestamp,
			TotalValue:    equity,
			Cash:          port.Cash(),
			PositionValue: port.Holding(symbol).Mul(candle.Close),
		})

		if b.cfg.MaxDailyLossPct.IsPositive() && dayOpenEquity.IsPositive() {
			loss := equity.Sub(dayOpenEquity).Div(dayOpenEquity)
			if loss.LessThan(b.cfg.MaxDailyLossPct.Neg()) {
				dailyLocked = true
			}
		}
	}

	// Force-close anything still open at the final candle's market price.
	last := candles[len(candles)-1]
	if port.OpenTrade() != nil {
		b.sell(port, sim, last)
	}

	final := port.Cash()
	metrics := ComputeMetrics(port.Trades(), curve, b.cfg.InitialBalance, final)

	return &model.BacktestResult{
		StrategyName:   b.strat.Name(),
		Symbol:         symbol,
		Timeframe:      candles[0].Timeframe,
		StartTime:      candles[0].Timestamp,
		EndTime:        last.Timestamp,
		InitialBalance: b.cfg.InitialBalance,
		FinalBalance:   final,
		Metrics:        metrics,
		Trades:         port.Trades(),
		EquityCurve:    curve,
		Config:         b.cfg,
	}, nil
}

// riskSignal evaluates the open position's risk rules against the candle
// close. Any trigger forces a sell, bypassing the strategy for this candle.
func (b *Backtester) riskSignal(port *portfolio.VirtualPortfolio, candle model.Candle) strategy.Action {
	info := port.OpenInfo()
	if info == nil {
		return strategy.Hold
	}
	close := candle.Close

	if close.GreaterThan(info.HighestPrice) {
		info.HighestPrice = close
	}
	if b.cfg.TrailingStopPct.IsPositive() {
		armAt := info.EntryPrice.Mul(one.Add(b.cfg.TrailingStopPct))
		if info.HighestPrice.GreaterThanOrEqual(armAt) {
			info.TrailingStop = info.HighestPrice.Mul(one.Sub(b.cfg.TrailingStopPct))
		}
	}

	// Hard per-trade stop from config, checked before everything else.
	if b.cfg.MaxLossPerTrade.IsPositive() && info.EntryPrice.IsPositive() {
		change := close.Sub(info.EntryPrice).Div(info.EntryPrice)
		if change.LessThan(b.cfg.MaxLossPerTrade.Neg()) {
			b.logger.Debug("hard stop-loss triggered",
				zap.String("entry", info.EntryPrice.String()),
				zap.String("close", close.String()))
			return strategy.Sell
		}
	}
	if info.StopLoss.IsPositive() && close.LessThanOrEqual(info.StopLoss) {
		return strategy.Sell
	}
	if info.TakeProfit.IsPositive() && close.GreaterThanOrEqual(info.TakeProfit) {
		return strategy.Sell
	}
	if info.TrailingStop.IsPositive() && close.LessThanOrEqual(info.TrailingStop) {
		return strategy.Sell
	}
	return strategy.Hold
}

func (b *Backtester) tryBuy(port *portfolio.VirtualPortfolio, sim *OrderSimulator, candle model.Candle, price decimal.Decimal, maker bool) {
	equity := port.TotalValue(candle.Symbol, candle.Close)
	qty := sim.Quantity(equity, port.Cash(), price)
	if !qty.IsPositive() {
		return
	}

	notional := price.Mul(qty)
	fee := sim.TakerFee(notional)
	if maker {
		fee = sim.MakerFee(notional)
	}
	if !port.CanBuy(price, qty, feeRate(b.cfg, maker)) {
		return
	}
	if err := port.ExecuteBuy(candle.Symbol, price, qty, fee, candle.Timestamp); err != nil {
		b.logger.Warn("buy rejected", zap.Error(err))
		return
	}

	info := port.OpenInfo()
	if b.cfg.StopLossPct.IsPositive() {
		info.StopLoss = price.Mul(one.Sub(b.cfg.StopLossPct))
	}
	if b.cfg.TakeProfitPct.IsPositive() {
		info.TakeProfit = price.Mul(one.Add(b.cfg.TakeProfitPct))
	}
}

func (b *Backtester) sell(port *portfolio.VirtualPortfolio, sim *OrderSimulator, candle model.Candle) {
	qty := port.Holding(candle.Symbol)
	if !qty.IsPositive() {
		return
	}
	price := sim.MarketSellPrice(candle.Close)
	fee := sim.TakerFee(price.Mul(qty))
	port.ExecuteSell(candle.Symbol, price, qty, fee, candle.Timestamp)
}

func feeRate(cfg model.BacktestConfig, maker bool) decimal.Decimal {
	if maker {
		return cfg.MakerFeeRate
	}
	return cfg.TakerFeeRate
}
