package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"quantsim/internal/infrastructure"
	"quantsim/internal/model"
)

// CandleProvider supplies the ordered candle sequence a simulation runs
// over. Fetching and caching live behind this interface; the engine only
// consumes its output.
type CandleProvider interface {
	Candles(ctx context.Context, exchange, symbol string, tf model.Timeframe, start, end time.Time) ([]model.Candle, error)
}

// PGLoader loads historical candles from Postgres.
type PGLoader struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPGLoader(pool *pgxpool.Pool, logger *zap.Logger) *PGLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGLoader{pool: pool, logger: logger}
}

func (l *PGLoader) Candles(ctx context.Context, exchange, symbol string, tf model.Timeframe, start, end time.Time) ([]model.Candle, error) {
	step, err := tf.Duration()
	if err != nil {
		return nil, err
	}

	rows, err := l.pool.Query(ctx, `
		SELECT time, symbol, exchange, timeframe, open, high, low, close, volume
		FROM candles
		WHERE exchange = $1 AND symbol = $2 AND timeframe = $3 AND time >= $4 AND time <= $5
		ORDER BY time ASC`,
		exchange, symbol, string(tf), start, end)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		if err := rows.Scan(&c.Timestamp, &c.Symbol, &c.Exchange, &c.Timeframe,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !model.SortedByTime(candles) {
		return nil, fmt.Errorf("candle store returned unsorted data for %s", symbol)
	}
	l.checkGaps(candles, symbol, step)
	infrastructure.CandlesLoaded.WithLabelValues(symbol).Add(float64(len(candles)))
	return candles, nil
}

// checkGaps flags holes in the series. Gaps are warnings, not errors:
// exchanges have maintenance windows and the engine tolerates them.
func (l *PGLoader) checkGaps(candles []model.Candle, symbol string, step time.Duration) {
	for i := 1; i < len(candles); i++ {
		if gap := candles[i].Timestamp.Sub(candles[i-1].Timestamp); gap > 2*step {
			l.logger.Warn("gap in candle data",
				zap.String("symbol", symbol),
				zap.Time("from", candles[i-1].Timestamp),
				zap.Time("to", candles[i].Timestamp),
				zap.Duration("gap", gap))
		}
	}
}
