package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar. Candle sequences fed to the engine must be
// ordered by non-decreasing timestamp and are treated as immutable.
type Candle struct {
	Symbol    string          `json:"symbol" db:"symbol"`
	Exchange  string          `json:"exchange" db:"exchange"`
	Timeframe Timeframe       `json:"timeframe" db:"timeframe"`
	Open      decimal.Decimal `json:"o" db:"open"`
	High      decimal.Decimal `json:"h" db:"high"`
	Low       decimal.Decimal `json:"l" db:"low"`
	Close     decimal.Decimal `json:"c" db:"close"`
	Volume    decimal.Decimal `json:"v" db:"volume"`
	Timestamp time.Time       `json:"t" db:"time"`
}

// Timeframe is a candle resolution. Only the values below are accepted.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

var timeframeDurations = map[Timeframe]time.Duration{
	TF1m:  time.Minute,
	TF5m:  5 * time.Minute,
	TF15m: 15 * time.Minute,
	TF30m: 30 * time.Minute,
	TF1h:  time.Hour,
	TF4h:  4 * time.Hour,
	TF1d:  24 * time.Hour,
}

func (tf Timeframe) Valid() bool {
	_, ok := timeframeDurations[tf]
	return ok
}

func (tf Timeframe) Duration() (time.Duration, error) {
	d, ok := timeframeDurations[tf]
	if !ok {
		return 0, fmt.Errorf("unsupported timeframe %q", string(tf))
	}
	return d, nil
}

// SortedByTime reports whether timestamps are non-decreasing.
func SortedByTime(candles []Candle) bool {
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp.Before(candles[i-1].Timestamp) {
			return false
		}
	}
	return true
}
