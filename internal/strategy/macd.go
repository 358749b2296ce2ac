package strategy

import (
	"quantsim/internal/indicator"
	"quantsim/internal/model"
	"quantsim/internal/portfolio"
)

// MACDMomentum trades histogram sign flips: buy when the MACD histogram
// turns positive, sell when it turns negative.
type MACDMomentum struct {
	fast   int
	slow   int
	signal int
}

func NewMACDMomentum() *MACDMomentum {
	s := &MACDMomentum{}
	s.Init(nil)
	return s
}

func (s *MACDMomentum) Name() string { return "macd_momentum" }

func (s *MACDMomentum) Defaults() map[string]float64 {
	return map[string]float64{
		"fast_period":   12,
		"slow_period":   26,
		"signal_period": 9,
	}
}

func (s *MACDMomentum) Init(params map[string]float64) {
	p := resolve(s.Defaults(), params)
	s.fast = int(p["fast_period"])
	s.slow = int(p["slow_period"])
	s.signal = int(p["signal_period"])
}

func (s *MACDMomentum) OnCandle(_ model.Candle, port *portfolio.VirtualPortfolio, history []model.Candle) Action {
	_, _, hist := indicator.MACD(closes(history), s.fast, s.slow, s.signal)

	i := len(hist) - 1
	if i < 1 || !hist[i].Valid || !hist[i-1].Valid {
		return Hold
	}

	turnedPositive := hist[i-1].V <= 0 && hist[i].V > 0
	turnedNegative := hist[i-1].V >= 0 && hist[i].V < 0

	switch {
	case turnedPositive && port.OpenTrade() == nil:
		return Buy
	case turnedNegative && port.OpenTrade() != nil:
		return Sell
	}
	return Hold
}
