package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantsim/internal/model"
	"quantsim/internal/portfolio"
)

func candlesFromCloses(prices []float64) []model.Candle {
	now := time.Now().UTC()
	out := make([]model.Candle, len(prices))
	for i, p := range prices {
		d := decimal.NewFromFloat(p)
		out[i] = model.Candle{
			Symbol:    "BTCUSDT",
			Open:      d,
			High:      d,
			Low:       d,
			Close:     d,
			Volume:    decimal.NewFromInt(1),
			Timestamp: now.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

// feed replays candles through the strategy, returning the last action per
// candle. The portfolio is only read by strategies, never mutated here.
func feed(s Strategy, candles []model.Candle, port *portfolio.VirtualPortfolio) []Action {
	actions := make([]Action, len(candles))
	for i, c := range candles {
		actions[i] = s.OnCandle(c, port, candles[:i+1])
	}
	return actions
}

func TestMACross_GoldenCrossBuys(t *testing.T) {
	s, err := New("ma_cross", map[string]float64{"short_period": 2, "long_period": 4})
	require.NoError(t, err)

	port := portfolio.NewVirtualPortfolio(decimal.NewFromInt(10000))
	// Downtrend then sharp reversal: the short SMA crosses up through the
	// long SMA.
	prices := []float64{110, 108, 106, 104, 102, 100, 108, 116}
	actions := feed(s, candlesFromCloses(prices), port)

	var sawBuy bool
	for _, a := range actions {
		if a == Buy {
			sawBuy = true
		}
	}
	assert.True(t, sawBuy, "expected a golden-cross buy, got %v", actions)
}

func TestMACross_HoldsWithoutEnoughHistory(t *testing.T) {
	s := NewMACross()
	port := portfolio.NewVirtualPortfolio(decimal.NewFromInt(10000))
	actions := feed(s, candlesFromCloses([]float64{100, 101, 102}), port)
	for _, a := range actions {
		assert.Equal(t, Hold, a)
	}
}

func TestRSIReversal_BuysOversold(t *testing.T) {
	s, err := New("rsi_reversal", map[string]float64{"period": 5})
	require.NoError(t, err)

	port := portfolio.NewVirtualPortfolio(decimal.NewFromInt(10000))
	prices := []float64{100, 98, 96, 94, 92, 90, 88, 86}
	actions := feed(s, candlesFromCloses(prices), port)

	assert.Equal(t, Buy, actions[len(actions)-1])
}

func TestDonchianBreakout_BuysNewHigh(t *testing.T) {
	s, err := New("donchian_breakout", map[string]float64{"period": 4})
	require.NoError(t, err)

	port := portfolio.NewVirtualPortfolio(decimal.NewFromInt(10000))
	prices := []float64{100, 101, 100, 101, 100, 120}
	actions := feed(s, candlesFromCloses(prices), port)

	assert.Equal(t, Buy, actions[len(actions)-1])
}

func TestFlatMarketNeverFires(t *testing.T) {
	port := portfolio.NewVirtualPortfolio(decimal.NewFromInt(10000))
	flat := make([]float64, 300)
	for i := range flat {
		flat[i] = 100
	}
	candles := candlesFromCloses(flat)

	for _, name := range Types() {
		s, err := New(name, nil)
		require.NoError(t, err)
		for _, a := range feed(s, candles, port) {
			assert.Equal(t, Hold, a, "strategy %s fired on a flat series", name)
		}
	}
}

func TestResolve_IgnoresUnknownAndDefaultsMissing(t *testing.T) {
	s := NewMACross()
	s.Init(map[string]float64{"short_period": 5, "bogus": 42})
	assert.Equal(t, 5, s.shortPeriod)
	assert.Equal(t, 21, s.longPeriod)
}

func TestRateLimited_SuppressesEarlyExit(t *testing.T) {
	inner := &scriptedStrategy{script: []Action{Hold, Buy, Sell, Sell, Sell, Sell, Sell, Sell, Sell}}
	s := NewRateLimited(inner)
	s.Init(map[string]float64{"min_holding_period": 3})

	port := portfolio.NewVirtualPortfolio(decimal.NewFromInt(10000))
	candles := candlesFromCloses([]float64{100, 100, 100, 100, 100, 100, 100, 100, 100})

	var actions []Action
	for i, c := range candles {
		a := s.OnCandle(c, port, candles[:i+1])
		actions = append(actions, a)
		// Mirror the engine: execute accepted signals against the portfolio.
		if a == Buy && port.OpenTrade() == nil {
			require.NoError(t, port.ExecuteBuy(c.Symbol, c.Close, decimal.NewFromInt(1), decimal.Zero, c.Timestamp))
		}
		if a == Sell && port.OpenTrade() != nil {
			port.ExecuteSell(c.Symbol, c.Close, decimal.NewFromInt(1), decimal.Zero, c.Timestamp)
		}
	}

	// Sells at indexes 2-4 fall inside the holding window and are held.
	assert.Equal(t, Buy, actions[1])
	assert.Equal(t, Hold, actions[2])
	assert.Equal(t, Hold, actions[3])
	assert.Equal(t, Hold, actions[4])
	assert.Equal(t, Sell, actions[5])
}

// scriptedStrategy replays a fixed action script, for decorator tests.
type scriptedStrategy struct {
	script []Action
	i      int
}

func (s *scriptedStrategy) Name() string                 { return "scripted" }
func (s *scriptedStrategy) Defaults() map[string]float64 { return map[string]float64{} }
func (s *scriptedStrategy) Init(map[string]float64)      { s.i = 0 }

func (s *scriptedStrategy) OnCandle(model.Candle, *portfolio.VirtualPortfolio, []model.Candle) Action {
	if s.i >= len(s.script) {
		return Hold
	}
	a := s.script[s.i]
	s.i++
	return a
}
