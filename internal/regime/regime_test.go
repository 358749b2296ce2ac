package regime

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantsim/internal/model"
)

func mkCandles(n int, price func(i int) (o, h, l, c float64)) []model.Candle {
	now := time.Now().UTC()
	out := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		o, h, l, c := price(i)
		out[i] = model.Candle{
			Symbol:    "BTCUSDT",
			Open:      decimal.NewFromFloat(o),
			High:      decimal.NewFromFloat(h),
			Low:       decimal.NewFromFloat(l),
			Close:     decimal.NewFromFloat(c),
			Timestamp: now.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestDetect_TooFewCandles(t *testing.T) {
	candles := mkCandles(28, func(i int) (float64, float64, float64, float64) {
		return 100, 101, 99, 100
	})
	assert.Nil(t, Detect(candles))
}

func TestDetect_StrongUptrendIsBullAndTrending(t *testing.T) {
	candles := mkCandles(250, func(i int) (float64, float64, float64, float64) {
		p := 100 + 2*float64(i)
		return p - 0.5, p + 1, p - 1, p
	})
	r := Detect(candles)
	require.NotNil(t, r)

	assert.Equal(t, model.TrendStrong, r.Trend)
	assert.Equal(t, model.PhaseBull, r.Phase)
	assert.Greater(t, r.ADX, 25.0)
	assert.NotEmpty(t, r.RecommendedStrategy)
}

func TestDetect_DowntrendIsBearWithMomentumFallback(t *testing.T) {
	// Under 200 candles: phase comes from the 20-bar change alone.
	candles := mkCandles(100, func(i int) (float64, float64, float64, float64) {
		p := 500 - 2*float64(i)
		return p + 0.5, p + 1, p - 1, p
	})
	r := Detect(candles)
	require.NotNil(t, r)
	assert.Equal(t, model.PhaseBear, r.Phase)
}

func TestDetect_FlatSeriesIsRangingSideways(t *testing.T) {
	candles := mkCandles(250, func(i int) (float64, float64, float64, float64) {
		return 100, 100, 100, 100
	})
	r := Detect(candles)
	require.NotNil(t, r)

	// ADX undefined on a flat series: ranging by definition.
	assert.Equal(t, model.TrendRanging, r.Trend)
	assert.Equal(t, model.PhaseSideways, r.Phase)
	assert.Equal(t, model.VolLow, r.Volatility)
	assert.Equal(t, "ma_cross_slow", r.RecommendedStrategy)
}

func TestRecommend_CoversAllPairs(t *testing.T) {
	trends := []string{model.TrendStrong, model.TrendWeak, model.TrendRanging}
	vols := []string{model.VolHigh, model.VolMedium, model.VolLow}
	for _, tr := range trends {
		for _, v := range vols {
			assert.NotEmpty(t, recommend(tr, v), "no recommendation for (%s,%s)", tr, v)
		}
	}
}
