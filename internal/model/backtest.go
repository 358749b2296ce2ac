package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one round-trip position. A trade is created when a buy fills and
// finalized when the matching sell fills; only closed trades enter the ledger.
type Trade struct {
	ID         int64           `json:"id"`
	Symbol     string          `json:"symbol"`
	Direction  string          `json:"direction"` // "long"
	EntryTime  time.Time       `json:"entry_time"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Quantity   decimal.Decimal `json:"quantity"`
	ExitTime   time.Time       `json:"exit_time,omitempty"`
	ExitPrice  decimal.Decimal `json:"exit_price,omitempty"`
	PnL        decimal.Decimal `json:"pnl"`
	PnLPct     float64         `json:"pnl_pct"`
	Fees       decimal.Decimal `json:"fees"`
	Closed     bool            `json:"closed"`
}

// EntryCost is the notional paid at entry, before fees.
func (t Trade) EntryCost() decimal.Decimal {
	return t.EntryPrice.Mul(t.Quantity)
}

// OpenTradeInfo is the risk state tracked while a trade is open. It is
// discarded the moment the trade closes.
type OpenTradeInfo struct {
	EntryPrice   decimal.Decimal `json:"entry_price"`
	StopLoss     decimal.Decimal `json:"stop_loss"`
	TakeProfit   decimal.Decimal `json:"take_profit"`   // zero when disabled
	HighestPrice decimal.Decimal `json:"highest_price"` // highest close since entry
	TrailingStop decimal.Decimal `json:"trailing_stop"` // zero until armed
}

// PortfolioSnapshot is one equity-curve point, appended once per candle.
type PortfolioSnapshot struct {
	Timestamp     time.Time       `json:"timestamp"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Cash          decimal.Decimal `json:"cash"`
	PositionValue decimal.Decimal `json:"position_value"`
}

// Position sizing modes.
const (
	SizingPercent = "percent"
	SizingFixed   = "fixed"
)

// BacktestConfig parameterizes one engine run. Immutable for its duration.
type BacktestConfig struct {
	InitialBalance  decimal.Decimal `json:"initial_balance"`
	TakerFeeRate    decimal.Decimal `json:"taker_fee_rate"`
	MakerFeeRate    decimal.Decimal `json:"maker_fee_rate"`
	SlippageRate    decimal.Decimal `json:"slippage_rate"`
	SizingMode      string          `json:"sizing_mode"` // SizingPercent or SizingFixed
	PositionSize    decimal.Decimal `json:"position_size"`
	MaxPositionPct  decimal.Decimal `json:"max_position_pct"`   // cap on one position, fraction of equity; zero disables
	MaxLossPerTrade decimal.Decimal `json:"max_loss_per_trade"` // hard stop, fraction; zero disables
	MaxDailyLossPct decimal.Decimal `json:"max_daily_loss_pct"` // fraction; zero disables
	StopLossPct     decimal.Decimal `json:"stop_loss_pct"`      // seeds OpenTradeInfo.StopLoss; zero disables
	TakeProfitPct   decimal.Decimal `json:"take_profit_pct"`    // zero disables
	TrailingStopPct decimal.Decimal `json:"trailing_stop_pct"`  // zero disables
	UseLimitEntries bool            `json:"use_limit_entries"`
}

// DefaultConfig mirrors the simulator defaults: 0.1% taker fee, 0.05%
// slippage, full-balance percentage sizing.
func DefaultConfig(initial decimal.Decimal) BacktestConfig {
	return BacktestConfig{
		InitialBalance: initial,
		TakerFeeRate:   decimal.NewFromFloat(0.001),
		MakerFeeRate:   decimal.NewFromFloat(0.001),
		SlippageRate:   decimal.NewFromFloat(0.0005),
		SizingMode:     SizingPercent,
		PositionSize:   decimal.NewFromInt(1),
	}
}

// PerformanceMetrics summarizes one closed-trade ledger plus equity curve.
type PerformanceMetrics struct {
	TotalReturnPct      float64         `json:"total_return_pct"`
	AnnualizedReturnPct float64         `json:"annualized_return_pct"`
	MaxDrawdown         decimal.Decimal `json:"max_drawdown"`
	MaxDrawdownPct      float64         `json:"max_drawdown_pct"`
	SharpeRatio         float64         `json:"sharpe_ratio"`
	SortinoRatio        float64         `json:"sortino_ratio"`
	TotalTrades         int             `json:"total_trades"`
	WinningTrades       int             `json:"winning_trades"`
	LosingTrades        int             `json:"losing_trades"`
	WinRate             float64         `json:"win_rate"`
	ProfitFactor        float64         `json:"profit_factor"`
	AverageWin          decimal.Decimal `json:"average_win"`
	AverageLoss         decimal.Decimal `json:"average_loss"`
	LargestWin          decimal.Decimal `json:"largest_win"`
	LargestLoss         decimal.Decimal `json:"largest_loss"`
	Duration            time.Duration   `json:"duration"`
	AvgHoldingPeriod    time.Duration   `json:"avg_holding_period"`
}

// BacktestResult is the full outcome of one engine run.
type BacktestResult struct {
	StrategyName   string              `json:"strategy_name"`
	Symbol         string              `json:"symbol"`
	Timeframe      Timeframe           `json:"timeframe"`
	StartTime      time.Time           `json:"start_time"`
	EndTime        time.Time           `json:"end_time"`
	InitialBalance decimal.Decimal     `json:"initial_balance"`
	FinalBalance   decimal.Decimal     `json:"final_balance"`
	Metrics        PerformanceMetrics  `json:"metrics"`
	Trades         []Trade             `json:"trades"`
	EquityCurve    []PortfolioSnapshot `json:"equity_curve"`
	Config         BacktestConfig      `json:"config"`
}
