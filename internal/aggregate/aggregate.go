// Package aggregate rolls a finer-grained candle sequence up into coarser
// bars (daily, weekly) for multi-timeframe strategies.
package aggregate

import (
	"fmt"
	"time"

	"quantsim/internal/model"
)

// Daily buckets candles by UTC calendar day.
func Daily(candles []model.Candle) ([]model.Candle, error) {
	return roll(candles, model.TF1d, func(ts time.Time) time.Time {
		return ts.UTC().Truncate(24 * time.Hour)
	})
}

// Weekly buckets candles by ISO week, anchored on Monday 00:00 UTC.
func Weekly(candles []model.Candle) ([]model.Candle, error) {
	return roll(candles, model.Timeframe("1w"), func(ts time.Time) time.Time {
		day := ts.UTC().Truncate(24 * time.Hour)
		// time.Weekday: Sunday == 0.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	})
}

// roll performs the OHLCV reduction: first open, max high, min low, last
// close, summed volume per bucket. Input must be time-ordered.
func roll(candles []model.Candle, tf model.Timeframe, bucket func(time.Time) time.Time) ([]model.Candle, error) {
	if !model.SortedByTime(candles) {
		return nil, fmt.Errorf("aggregate: candles not sorted by timestamp")
	}

	var out []model.Candle
	for _, c := range candles {
		window := bucket(c.Timestamp)
		if len(out) == 0 || !out[len(out)-1].Timestamp.Equal(window) {
			agg := c
			agg.Timeframe = tf
			agg.Timestamp = window
			out = append(out, agg)
			continue
		}
		cur := &out[len(out)-1]
		if c.High.GreaterThan(cur.High) {
			cur.High = c.High
		}
		if c.Low.LessThan(cur.Low) {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume = cur.Volume.Add(c.Volume)
	}
	return out, nil
}
