// Package regime classifies market conditions (trend strength, volatility,
// phase) from candle history and recommends a strategy per regime.
package regime

import (
	"quantsim/internal/indicator"
	"quantsim/internal/model"
)

const (
	adxPeriod      = 14
	atrPeriod      = 14
	smaPhasePeriod = 200
	momentumBars   = 20
)

// Detect classifies the point ending the history slice. It needs at least
// 2*adxPeriod+1 candles; with fewer it returns nil rather than an error,
// since the caller simply has no regime yet.
func Detect(history []model.Candle) *model.MarketRegime {
	if len(history) < 2*adxPeriod+1 {
		return nil
	}

	highs := make([]float64, len(history))
	lows := make([]float64, len(history))
	closes := make([]float64, len(history))
	for i, c := range history {
		highs[i], _ = c.High.Float64()
		lows[i], _ = c.Low.Float64()
		closes[i], _ = c.Close.Float64()
	}
	price := closes[len(closes)-1]

	r := &model.MarketRegime{}

	adx, adxOK := indicator.Last(indicator.ADX(highs, lows, closes, adxPeriod))
	if adxOK {
		r.ADX = adx
	}
	r.Trend = classifyTrend(adx, adxOK)

	atr, atrOK := indicator.Last(indicator.ATR(highs, lows, closes, atrPeriod))
	if atrOK && price > 0 {
		r.ATRPct = atr / price * 100
	}
	r.Volatility = classifyVolatility(r.ATRPct, atrOK && price > 0)

	r.Phase = classifyPhase(closes, price)
	r.RecommendedStrategy = recommend(r.Trend, r.Volatility)
	return r
}

func classifyTrend(adx float64, defined bool) string {
	switch {
	case !defined:
		return model.TrendRanging
	case adx >= 25:
		return model.TrendStrong
	case adx >= 20:
		return model.TrendWeak
	default:
		return model.TrendRanging
	}
}

func classifyVolatility(atrPct float64, defined bool) string {
	switch {
	case !defined:
		return model.VolMedium
	case atrPct >= 3:
		return model.VolHigh
	case atrPct >= 1:
		return model.VolMedium
	default:
		return model.VolLow
	}
}

// classifyPhase uses SMA(200) plus 20-bar momentum; with under 200 candles
// it falls back to the momentum rule alone.
func classifyPhase(closes []float64, price float64) string {
	change := closes[len(closes)-1] - closes[len(closes)-1-min(momentumBars, len(closes)-1)]

	if len(closes) >= smaPhasePeriod {
		if sma200, ok := indicator.Last(indicator.SMA(closes, smaPhasePeriod)); ok {
			switch {
			case price > sma200 && change > 0:
				return model.PhaseBull
			case price < sma200 && change < 0:
				return model.PhaseBear
			default:
				return model.PhaseSideways
			}
		}
	}

	switch {
	case change > 0:
		return model.PhaseBull
	case change < 0:
		return model.PhaseBear
	default:
		return model.PhaseSideways
	}
}

// recommend is a fixed lookup keyed by (trend, volatility).
func recommend(trend, volatility string) string {
	table := map[[2]string]string{
		{model.TrendStrong, model.VolHigh}:    "donchian_breakout",
		{model.TrendStrong, model.VolMedium}:  "ma_cross",
		{model.TrendStrong, model.VolLow}:     "ma_cross",
		{model.TrendWeak, model.VolHigh}:      "macd_momentum",
		{model.TrendWeak, model.VolMedium}:    "macd_momentum",
		{model.TrendWeak, model.VolLow}:       "ma_cross_slow",
		{model.TrendRanging, model.VolHigh}:   "rsi_reversal",
		{model.TrendRanging, model.VolMedium}: "rsi_reversal",
		{model.TrendRanging, model.VolLow}:    "ma_cross_slow",
	}
	return table[[2]string{trend, volatility}]
}
