package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantsim/internal/model"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func simConfig() model.BacktestConfig {
	cfg := model.DefaultConfig(d(10000))
	cfg.SlippageRate = d(0.001)
	cfg.TakerFeeRate = d(0.002)
	cfg.MakerFeeRate = d(0.001)
	return cfg
}

func TestMarketPricesApplyAdverseSlippage(t *testing.T) {
	sim := NewOrderSimulator(simConfig())
	assert.True(t, sim.MarketBuyPrice(d(100)).Equal(d(100.1)))
	assert.True(t, sim.MarketSellPrice(d(100)).Equal(d(99.9)))
}

func TestLimitBuyFill(t *testing.T) {
	sim := NewOrderSimulator(simConfig())
	candle := model.Candle{High: d(105), Low: d(95)}

	// Candle never trades down to the limit: no fill.
	_, ok := sim.LimitBuyFill(candle, d(90))
	assert.False(t, ok)

	price, ok := sim.LimitBuyFill(candle, d(100))
	require.True(t, ok)
	assert.True(t, price.Equal(d(100)))

	// Limit above the candle range fills at the high.
	price, ok = sim.LimitBuyFill(candle, d(110))
	require.True(t, ok)
	assert.True(t, price.Equal(d(105)))
}

func TestLimitSellFill(t *testing.T) {
	sim := NewOrderSimulator(simConfig())
	candle := model.Candle{High: d(105), Low: d(95)}

	_, ok := sim.LimitSellFill(candle, d(110))
	assert.False(t, ok)

	price, ok := sim.LimitSellFill(candle, d(100))
	require.True(t, ok)
	assert.True(t, price.Equal(d(100)))

	price, ok = sim.LimitSellFill(candle, d(90))
	require.True(t, ok)
	assert.True(t, price.Equal(d(95)))
}

func TestQuantity_PercentSizingWithCaps(t *testing.T) {
	cfg := simConfig()
	cfg.PositionSize = d(0.5)
	cfg.MaxPositionPct = d(0.3)
	sim := NewOrderSimulator(cfg)

	// Desired 5000 is capped to 30% of equity = 3000.
	qty := sim.Quantity(d(10000), d(10000), d(100))
	assert.True(t, qty.Equal(d(30)), "qty=%s", qty)
}

func TestQuantity_CappedByAvailableCash(t *testing.T) {
	cfg := simConfig()
	cfg.PositionSize = d(1)
	sim := NewOrderSimulator(cfg)

	// Equity is 10000 but only 501 cash remains; fee rate 0.002 means at
	// most 501/1.002 = 500 of notional is affordable.
	qty := sim.Quantity(d(10000), d(501), d(100))
	assert.True(t, qty.Equal(d(5)), "qty=%s", qty)
}

func TestQuantity_FixedSizing(t *testing.T) {
	cfg := simConfig()
	cfg.SizingMode = model.SizingFixed
	cfg.PositionSize = d(1000)
	sim := NewOrderSimulator(cfg)

	qty := sim.Quantity(d(50000), d(50000), d(100))
	assert.True(t, qty.Equal(d(10)))
}

func TestQuantity_ZeroMeansNoTrade(t *testing.T) {
	sim := NewOrderSimulator(simConfig())
	assert.True(t, sim.Quantity(d(10000), d(0), d(100)).IsZero())
	assert.True(t, sim.Quantity(d(10000), d(100), d(0)).IsZero())
}
