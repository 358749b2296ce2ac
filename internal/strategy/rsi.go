package strategy

import (
	"quantsim/internal/indicator"
	"quantsim/internal/model"
	"quantsim/internal/portfolio"
)

// RSIReversal buys oversold and sells overbought readings of Wilder's RSI.
type RSIReversal struct {
	period     int
	oversold   float64
	overbought float64
}

func NewRSIReversal() *RSIReversal {
	s := &RSIReversal{}
	s.Init(nil)
	return s
}

func (s *RSIReversal) Name() string { return "rsi_reversal" }

func (s *RSIReversal) Defaults() map[string]float64 {
	return map[string]float64{
		"period":     14,
		"oversold":   30,
		"overbought": 70,
	}
}

func (s *RSIReversal) Init(params map[string]float64) {
	p := resolve(s.Defaults(), params)
	s.period = int(p["period"])
	s.oversold = p["oversold"]
	s.overbought = p["overbought"]
}

func (s *RSIReversal) OnCandle(_ model.Candle, port *portfolio.VirtualPortfolio, history []model.Candle) Action {
	rsi := indicator.RSI(closes(history), s.period)
	last := rsi[len(rsi)-1]
	if !last.Valid {
		return Hold
	}

	switch {
	case last.V <= s.oversold && port.OpenTrade() == nil:
		return Buy
	case last.V >= s.overbought && port.OpenTrade() != nil:
		return Sell
	}
	return Hold
}
