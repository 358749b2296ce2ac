package strategy

import (
	"fmt"
)

// New builds a freshly initialized strategy instance by type name. Each
// call returns an independent instance, so concurrent optimizer workers can
// each own one.
func New(strategyType string, params map[string]float64) (Strategy, error) {
	var s Strategy
	switch strategyType {
	case "ma_cross":
		s = NewMACross()
	case "rsi_reversal":
		s = NewRSIReversal()
	case "macd_momentum":
		s = NewMACDMomentum()
	case "donchian_breakout":
		s = NewDonchianBreakout()
	case "ma_cross_slow":
		// ma_cross with a minimum holding period, for choppy markets.
		s = NewRateLimited(NewMACross())
	default:
		return nil, fmt.Errorf("unknown strategy type: %s", strategyType)
	}
	s.Init(params)
	return s, nil
}

// Types lists the registered strategy type names.
func Types() []string {
	return []string{"ma_cross", "rsi_reversal", "macd_momentum", "donchian_breakout", "ma_cross_slow"}
}
