package optimize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantsim/internal/model"
)

func TestWalkForward_WindowsStayInsideData(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := trendingCandles(365, start, 24*time.Hour) // one year of dailies

	wf := &WalkForward{
		StrategyType:    "ma_cross",
		Grid:            model.ParameterGrid{"short_period": {Min: 3, Max: 7, Step: 2}},
		Metric:          model.MetricTotalReturn,
		Config:          gridConfig(),
		InSampleMonths:  4,
		OutSampleMonths: 2,
		Workers:         2,
	}
	res, err := wf.Run(context.Background(), candles)
	require.NoError(t, err)
	require.NotEmpty(t, res.Windows)

	last := candles[len(candles)-1].Timestamp
	first := candles[0].Timestamp
	for _, win := range res.Windows {
		assert.False(t, win.InSampleStart.Before(first))
		assert.False(t, win.OutSampleEnd.After(last))
		assert.Equal(t, win.InSampleEnd, win.OutSampleStart)
		assert.NotNil(t, win.InSample)
		assert.NotNil(t, win.OutSample)
	}

	// 4 IS + 2 OOS months stepping by 2: windows starting at months 0, 2
	// and 4 fit; the month-6 window would end past the last candle.
	assert.Len(t, res.Windows, 3)
	assert.NotEmpty(t, res.RecommendedParams)
	assert.InDelta(t, res.AvgInSampleReturn-res.AvgOutSampleReturn, res.ReturnDegradation, 1e-12)
}

func TestWalkForward_RecommendsBestOutOfSampleWindow(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := trendingCandles(365, start, 24*time.Hour)

	wf := &WalkForward{
		StrategyType:    "ma_cross",
		Grid:            model.ParameterGrid{"short_period": {Min: 3, Max: 5, Step: 2}},
		Metric:          model.MetricTotalReturn,
		Config:          gridConfig(),
		InSampleMonths:  4,
		OutSampleMonths: 2,
	}
	res, err := wf.Run(context.Background(), candles)
	require.NoError(t, err)

	bestScore := res.Windows[0].OutSample.Metrics.TotalReturnPct
	bestParams := res.Windows[0].Parameters
	for _, win := range res.Windows[1:] {
		if s := win.OutSample.Metrics.TotalReturnPct; s > bestScore {
			bestScore = s
			bestParams = win.Parameters
		}
	}
	assert.Equal(t, bestParams, res.RecommendedParams)
}

func TestWalkForward_TooLittleDataErrors(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := trendingCandles(30, start, 24*time.Hour) // one month only

	wf := &WalkForward{
		StrategyType:    "ma_cross",
		Grid:            model.ParameterGrid{"short_period": {Min: 3, Max: 5, Step: 2}},
		Metric:          model.MetricTotalReturn,
		Config:          gridConfig(),
		InSampleMonths:  4,
		OutSampleMonths: 2,
	}
	_, err := wf.Run(context.Background(), candles)
	assert.ErrorIs(t, err, ErrNoWindows)
}

func TestSliceByTime(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := trendingCandles(10, start, 24*time.Hour)

	got := sliceByTime(candles, start.AddDate(0, 0, 2), start.AddDate(0, 0, 5))
	require.Len(t, got, 3)
	assert.Equal(t, start.AddDate(0, 0, 2), got[0].Timestamp)
	assert.Equal(t, start.AddDate(0, 0, 4), got[2].Timestamp)

	assert.Empty(t, sliceByTime(candles, start.AddDate(1, 0, 0), start.AddDate(1, 1, 0)))
}
