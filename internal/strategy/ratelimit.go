package strategy

import (
	"quantsim/internal/model"
	"quantsim/internal/portfolio"
)

// RateLimited wraps any strategy with a minimum-holding-period filter:
// sell signals from the inner strategy are suppressed until the position
// has been held for min_holding_period candles. Risk-rule exits in the
// engine are not affected; only the wrapped strategy's own exits are.
type RateLimited struct {
	inner    Strategy
	minHold  int
	heldBars int
	wasOpen  bool
}

func NewRateLimited(inner Strategy) *RateLimited {
	s := &RateLimited{inner: inner}
	s.Init(nil)
	return s
}

func (s *RateLimited) Name() string { return s.inner.Name() + "+min_hold" }

func (s *RateLimited) Defaults() map[string]float64 {
	out := map[string]float64{"min_holding_period": 5}
	for name, v := range s.inner.Defaults() {
		out[name] = v
	}
	return out
}

func (s *RateLimited) Init(params map[string]float64) {
	p := resolve(s.Defaults(), params)
	s.minHold = int(p["min_holding_period"])
	s.heldBars = 0
	s.wasOpen = false
	s.inner.Init(params)
}

func (s *RateLimited) OnCandle(candle model.Candle, port *portfolio.VirtualPortfolio, history []model.Candle) Action {
	open := port.OpenTrade() != nil
	switch {
	case open && !s.wasOpen:
		s.heldBars = 0
	case open:
		s.heldBars++
	}
	s.wasOpen = open

	action := s.inner.OnCandle(candle, port, history)
	if action == Sell && open && s.heldBars < s.minHold {
		return Hold
	}
	return action
}
