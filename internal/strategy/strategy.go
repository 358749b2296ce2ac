// Package strategy defines the pluggable signal-generator contract the
// engine consumes, plus a set of reference strategies built on the
// indicator library. Strategy instances carry per-run state and must never
// be shared across concurrent runs; Init resets them.
package strategy

import (
	"quantsim/internal/model"
	"quantsim/internal/portfolio"
)

type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
	Hold Action = "hold"
)

type Strategy interface {
	Name() string

	// Defaults names every tunable parameter with its default value.
	Defaults() map[string]float64

	// Init resets internal state and applies parameters. Unknown names are
	// ignored; missing names fall back to the defaults.
	Init(params map[string]float64)

	// OnCandle returns the signal for the current candle. history is
	// candles[0..i] inclusive; the engine never exposes future data.
	OnCandle(candle model.Candle, port *portfolio.VirtualPortfolio, history []model.Candle) Action
}

// resolve merges params over defaults, dropping unknown names.
func resolve(defaults, params map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(defaults))
	for name, v := range defaults {
		out[name] = v
	}
	for name, v := range params {
		if _, known := out[name]; known {
			out[name] = v
		}
	}
	return out
}

func closes(history []model.Candle) []float64 {
	out := make([]float64, len(history))
	for i, c := range history {
		out[i], _ = c.Close.Float64()
	}
	return out
}

func highsLows(history []model.Candle) (highs, lows []float64) {
	highs = make([]float64, len(history))
	lows = make([]float64, len(history))
	for i, c := range history {
		highs[i], _ = c.High.Float64()
		lows[i], _ = c.Low.Float64()
	}
	return highs, lows
}

func ohlc(history []model.Candle) (highs, lows, cls []float64) {
	highs, lows = highsLows(history)
	return highs, lows, closes(history)
}
