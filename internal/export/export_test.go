package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantsim/internal/model"
)

func TestWriteTradesCSV_ColumnContract(t *testing.T) {
	entry := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	trades := []model.Trade{{
		ID:         1,
		Symbol:     "BTCUSDT",
		Direction:  "long",
		EntryTime:  entry,
		ExitTime:   entry.Add(48 * time.Hour),
		EntryPrice: decimal.NewFromInt(100),
		ExitPrice:  decimal.NewFromInt(110),
		Quantity:   decimal.NewFromInt(2),
		PnL:        decimal.NewFromInt(20),
		PnLPct:     10,
		Fees:       decimal.NewFromFloat(0.4),
		Closed:     true,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, trades))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"id", "symbol", "direction", "entry_time", "exit_time",
		"entry_price", "exit_price", "quantity", "pnl", "pnl_pct", "fees",
	}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "2023-05-01T12:00:00Z", rows[1][3])
	assert.Equal(t, "110", rows[1][6])
	assert.Equal(t, "10.0000", rows[1][9])
}

func TestWriteEquityCSV(t *testing.T) {
	now := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	curve := []model.PortfolioSnapshot{
		{Timestamp: now, TotalValue: decimal.NewFromInt(10000), Cash: decimal.NewFromInt(10000), PositionValue: decimal.Zero},
		{Timestamp: now.Add(time.Hour), TotalValue: decimal.NewFromInt(10100), Cash: decimal.NewFromInt(100), PositionValue: decimal.NewFromInt(10000)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEquityCSV(&buf, curve))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"timestamp", "total_value", "cash", "position_value"}, rows[0])
	assert.Equal(t, "10100", rows[2][1])
}

func TestWriteResultJSON(t *testing.T) {
	res := &model.BacktestResult{StrategyName: "ma_cross", Symbol: "BTCUSDT"}

	var buf bytes.Buffer
	require.NoError(t, WriteResultJSON(&buf, res))
	assert.True(t, strings.Contains(buf.String(), `"strategy_name": "ma_cross"`))
}
