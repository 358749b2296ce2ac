package strategy

import (
	"quantsim/internal/indicator"
	"quantsim/internal/model"
	"quantsim/internal/portfolio"
)

// DonchianBreakout buys a close above the prior channel high and exits on a
// close below the prior channel low. The channel excludes the current
// candle so a bar cannot break out of itself.
type DonchianBreakout struct {
	period int
}

func NewDonchianBreakout() *DonchianBreakout {
	s := &DonchianBreakout{}
	s.Init(nil)
	return s
}

func (s *DonchianBreakout) Name() string { return "donchian_breakout" }

func (s *DonchianBreakout) Defaults() map[string]float64 {
	return map[string]float64{"period": 20}
}

func (s *DonchianBreakout) Init(params map[string]float64) {
	p := resolve(s.Defaults(), params)
	s.period = int(p["period"])
}

func (s *DonchianBreakout) OnCandle(candle model.Candle, port *portfolio.VirtualPortfolio, history []model.Candle) Action {
	if len(history) < s.period+1 {
		return Hold
	}
	highs, lows := highsLows(history[:len(history)-1])
	upper, lower, _ := indicator.DonchianChannel(highs, lows, s.period)

	i := len(upper) - 1
	if !upper[i].Valid || !lower[i].Valid {
		return Hold
	}
	cls, _ := candle.Close.Float64()

	switch {
	case cls > upper[i].V && port.OpenTrade() == nil:
		return Buy
	case cls < lower[i].V && port.OpenTrade() != nil:
		return Sell
	}
	return Hold
}
