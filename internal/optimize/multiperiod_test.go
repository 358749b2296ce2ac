package optimize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantsim/internal/model"
)

func TestMultiPeriod_CompoundsEraReturns(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := trendingCandles(400, start, 24*time.Hour)

	mp := &MultiPeriod{
		StrategyType: "ma_cross",
		Params:       map[string]float64{"short_period": 3, "long_period": 10},
		Config:       gridConfig(),
		Eras: []model.HistoricalEra{
			{Name: "era-1", Start: start, End: start.AddDate(0, 6, 0)},
			{Name: "era-2", Start: start.AddDate(0, 6, 0), End: start.AddDate(1, 0, 0)},
			{Name: "too-short", Start: start.AddDate(1, 1, 0), End: start.AddDate(1, 1, 3)},
		},
	}
	res, err := mp.Run(context.Background(), candles)
	require.NoError(t, err)

	// The third era has under 50 candles and is skipped.
	require.Len(t, res.Eras, 2)

	compound := 1.0
	for _, era := range res.Eras {
		compound *= 1 + era.ReturnPct/100
	}
	assert.InDelta(t, (compound-1)*100, res.OverallReturnPct, 1e-9)
}

func TestMultiPeriod_DetectsRegimePerEra(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := trendingCandles(200, start, 24*time.Hour)

	mp := &MultiPeriod{
		StrategyType: "ma_cross",
		Config:       gridConfig(),
		Eras: []model.HistoricalEra{
			{Name: "all", Start: start, End: start.AddDate(1, 0, 0)},
		},
	}
	res, err := mp.Run(context.Background(), candles)
	require.NoError(t, err)
	require.Len(t, res.Eras, 1)
	assert.NotNil(t, res.Eras[0].Regime)
}

func TestMultiPeriod_AllErasTooShort(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := trendingCandles(40, start, 24*time.Hour)

	mp := &MultiPeriod{
		StrategyType: "ma_cross",
		Config:       gridConfig(),
		Eras: []model.HistoricalEra{
			{Name: "short", Start: start, End: start.AddDate(0, 1, 0)},
		},
	}
	_, err := mp.Run(context.Background(), candles)
	assert.ErrorIs(t, err, ErrNoEras)
}
