package engine

import (
	"github.com/shopspring/decimal"

	"quantsim/internal/model"
)

var one = decimal.NewFromInt(1)

// OrderSimulator converts signals into fill prices, fees and quantities
// under a fixed fee/slippage configuration. It is stateless.
type OrderSimulator struct {
	cfg model.BacktestConfig
}

func NewOrderSimulator(cfg model.BacktestConfig) *OrderSimulator {
	return &OrderSimulator{cfg: cfg}
}

// MarketBuyPrice applies adverse slippage to a market buy at close.
func (s *OrderSimulator) MarketBuyPrice(close decimal.Decimal) decimal.Decimal {
	return close.Mul(one.Add(s.cfg.SlippageRate))
}

// MarketSellPrice applies adverse slippage to a market sell at close.
func (s *OrderSimulator) MarketSellPrice(close decimal.Decimal) decimal.Decimal {
	return close.Mul(one.Sub(s.cfg.SlippageRate))
}

// LimitBuyFill reports whether a buy limit order fills within the candle.
// It triggers only if the candle traded at or below the limit, filling at
// min(limit, high).
func (s *OrderSimulator) LimitBuyFill(c model.Candle, limit decimal.Decimal) (decimal.Decimal, bool) {
	if c.Low.GreaterThan(limit) {
		return decimal.Decimal{}, false
	}
	if c.High.LessThan(limit) {
		return c.High, true
	}
	return limit, true
}

// LimitSellFill reports whether a sell limit order fills within the candle,
// filling at max(limit, low).
func (s *OrderSimulator) LimitSellFill(c model.Candle, limit decimal.Decimal) (decimal.Decimal, bool) {
	if c.High.LessThan(limit) {
		return decimal.Decimal{}, false
	}
	if c.Low.GreaterThan(limit) {
		return c.Low, true
	}
	return limit, true
}

// TakerFee and MakerFee compute the fee on a trade's notional value.
func (s *OrderSimulator) TakerFee(tradeValue decimal.Decimal) decimal.Decimal {
	return tradeValue.Mul(s.cfg.TakerFeeRate)
}

func (s *OrderSimulator) MakerFee(tradeValue decimal.Decimal) decimal.Decimal {
	return tradeValue.Mul(s.cfg.MakerFeeRate)
}

// Quantity sizes a buy at the given fill price. The desired notional is a
// fraction of portfolio value (percent mode) or a fixed amount, capped by
// the max-position fraction and then by what available cash affords net of
// the taker fee. A zero result means the signal should not be traded.
func (s *OrderSimulator) Quantity(portfolioValue, availableCash, price decimal.Decimal) decimal.Decimal {
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var desired decimal.Decimal
	switch s.cfg.SizingMode {
	case model.SizingFixed:
		desired = s.cfg.PositionSize
	default:
		desired = portfolioValue.Mul(s.cfg.PositionSize)
	}

	if s.cfg.MaxPositionPct.IsPositive() {
		if maxValue := portfolioValue.Mul(s.cfg.MaxPositionPct); desired.GreaterThan(maxValue) {
			desired = maxValue
		}
	}

	// Cash must cover notional plus the taker fee.
	affordable := availableCash.Div(one.Add(s.cfg.TakerFeeRate))
	if desired.GreaterThan(affordable) {
		desired = affordable
	}
	if desired.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	// Truncate to 8 decimal places so cost plus fee never exceeds cash by
	// a rounding hair.
	return desired.Div(price).RoundDown(8)
}
