package strategy

import (
	"quantsim/internal/indicator"
	"quantsim/internal/model"
	"quantsim/internal/portfolio"
)

// MACross signals on golden and death crosses of two simple moving
// averages.
type MACross struct {
	shortPeriod int
	longPeriod  int
}

func NewMACross() *MACross {
	s := &MACross{}
	s.Init(nil)
	return s
}

func (s *MACross) Name() string { return "ma_cross" }

func (s *MACross) Defaults() map[string]float64 {
	return map[string]float64{
		"short_period": 9,
		"long_period":  21,
	}
}

func (s *MACross) Init(params map[string]float64) {
	p := resolve(s.Defaults(), params)
	s.shortPeriod = int(p["short_period"])
	s.longPeriod = int(p["long_period"])
}

func (s *MACross) OnCandle(_ model.Candle, port *portfolio.VirtualPortfolio, history []model.Candle) Action {
	if len(history) < s.longPeriod+1 {
		return Hold
	}
	cls := closes(history)
	short := indicator.SMA(cls, s.shortPeriod)
	long := indicator.SMA(cls, s.longPeriod)

	i := len(cls) - 1
	if !short[i].Valid || !long[i].Valid || !short[i-1].Valid || !long[i-1].Valid {
		return Hold
	}

	goldenCross := short[i-1].V <= long[i-1].V && short[i].V > long[i].V
	deathCross := short[i-1].V >= long[i-1].V && short[i].V < long[i].V

	switch {
	case goldenCross && port.OpenTrade() == nil:
		return Buy
	case deathCross && port.OpenTrade() != nil:
		return Sell
	}
	return Hold
}
