package engine

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"quantsim/internal/model"
)

// Unbounded stands in for ratios whose denominator is zero: profit factor
// with no losing trades, Sortino with no downside deviation. The same value
// is used for reporting and for optimizer ranking.
const Unbounded = 999.0

// tradingDaysPerYear annualizes Sharpe and Sortino.
const tradingDaysPerYear = 252.0

// ComputeMetrics derives the performance summary from the closed-trade
// ledger and equity curve of a finished run.
func ComputeMetrics(trades []model.Trade, curve []model.PortfolioSnapshot, initial, final decimal.Decimal) model.PerformanceMetrics {
	var m model.PerformanceMetrics

	if initial.IsPositive() {
		m.TotalReturnPct, _ = final.Sub(initial).Div(initial).Mul(decimal.NewFromInt(100)).Float64()
	}

	if len(curve) > 0 {
		m.Duration = curve[len(curve)-1].Timestamp.Sub(curve[0].Timestamp)
		m.AnnualizedReturnPct = annualizedReturn(initial, final, m.Duration)
		m.MaxDrawdown, m.MaxDrawdownPct = maxDrawdown(curve)

		returns := snapshotReturns(curve)
		m.SharpeRatio = sharpe(returns)
		m.SortinoRatio = sortino(returns)
	}

	fillTradeStats(&m, trades)
	return m
}

func annualizedReturn(initial, final decimal.Decimal, dur time.Duration) float64 {
	days := dur.Hours() / 24
	if days <= 0 || !initial.IsPositive() {
		return 0
	}
	ratio, _ := final.Div(initial).Float64()
	if ratio <= 0 {
		return -100
	}
	return (math.Pow(ratio, 365/days) - 1) * 100
}

func maxDrawdown(curve []model.PortfolioSnapshot) (decimal.Decimal, float64) {
	peak := curve[0].TotalValue
	maxAbs := decimal.Zero
	maxPct := 0.0
	for _, snap := range curve {
		if snap.TotalValue.GreaterThan(peak) {
			peak = snap.TotalValue
		}
		dd := peak.Sub(snap.TotalValue)
		if dd.GreaterThan(maxAbs) {
			maxAbs = dd
		}
		if peak.IsPositive() {
			pct, _ := dd.Div(peak).Mul(decimal.NewFromInt(100)).Float64()
			if pct > maxPct {
				maxPct = pct
			}
		}
	}
	return maxAbs, maxPct
}

// snapshotReturns is the per-snapshot simple return series.
func snapshotReturns(curve []model.PortfolioSnapshot) []float64 {
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].TotalValue
		if !prev.IsPositive() {
			continue
		}
		r, _ := curve[i].TotalValue.Sub(prev).Div(prev).Float64()
		returns = append(returns, r)
	}
	return returns
}

func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := meanStd(returns)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// sortino divides by downside deviation only. With no negative returns it
// is Unbounded when the mean is positive, else zero.
func sortino(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, _ := meanStd(returns)

	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) == 0 {
		if mean > 0 {
			return Unbounded
		}
		return 0
	}
	_, downside := meanStd(negatives)
	if downside == 0 {
		if mean > 0 {
			return Unbounded
		}
		return 0
	}
	return mean / downside * math.Sqrt(tradingDaysPerYear)
}

func meanStd(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func fillTradeStats(m *model.PerformanceMetrics, trades []model.Trade) {
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	var holding time.Duration
	for _, tr := range trades {
		holding += tr.ExitTime.Sub(tr.EntryTime)
		if tr.PnL.IsPositive() {
			m.WinningTrades++
			grossProfit = grossProfit.Add(tr.PnL)
			if tr.PnL.GreaterThan(m.LargestWin) {
				m.LargestWin = tr.PnL
			}
		} else {
			m.LosingTrades++
			grossLoss = grossLoss.Add(tr.PnL.Abs())
			if tr.PnL.LessThan(m.LargestLoss) {
				m.LargestLoss = tr.PnL
			}
		}
	}

	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	m.AvgHoldingPeriod = holding / time.Duration(m.TotalTrades)

	if m.WinningTrades > 0 {
		m.AverageWin = grossProfit.Div(decimal.NewFromInt(int64(m.WinningTrades)))
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = grossLoss.Div(decimal.NewFromInt(int64(m.LosingTrades))).Neg()
	}

	switch {
	case grossLoss.IsPositive():
		m.ProfitFactor, _ = grossProfit.Div(grossLoss).Float64()
		if m.ProfitFactor > Unbounded {
			m.ProfitFactor = Unbounded
		}
	case grossProfit.IsPositive():
		m.ProfitFactor = Unbounded
	}
}
