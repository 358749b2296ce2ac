package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"quantsim/internal/model"
)

// RunRepository persists a summary row per completed backtest run so past
// runs stay inspectable. Full result payloads travel over the API or the
// result stream, not the database.
type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) SaveRun(ctx context.Context, res *model.BacktestResult) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO backtest_runs
			(strategy, symbol, timeframe, start_time, end_time,
			 initial_balance, final_balance, total_return_pct, sharpe_ratio,
			 max_drawdown_pct, total_trades, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id`,
		res.StrategyName, res.Symbol, string(res.Timeframe),
		res.StartTime, res.EndTime,
		res.InitialBalance, res.FinalBalance,
		res.Metrics.TotalReturnPct, res.Metrics.SharpeRatio,
		res.Metrics.MaxDrawdownPct, res.Metrics.TotalTrades,
		time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	return id, nil
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID             int64     `json:"id"`
	Strategy       string    `json:"strategy"`
	Symbol         string    `json:"symbol"`
	Timeframe      string    `json:"timeframe"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	TotalReturnPct float64   `json:"total_return_pct"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	TotalTrades    int       `json:"total_trades"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, strategy, symbol, timeframe, start_time, end_time,
		       total_return_pct, sharpe_ratio, max_drawdown_pct, total_trades, created_at
		FROM backtest_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Strategy, &s.Symbol, &s.Timeframe,
			&s.StartTime, &s.EndTime, &s.TotalReturnPct, &s.SharpeRatio,
			&s.MaxDrawdownPct, &s.TotalTrades, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
