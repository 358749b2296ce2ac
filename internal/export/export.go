// Package export serializes simulation results for downstream tooling.
// Column order in the CSV writers is a compatibility contract; do not
// reorder.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"quantsim/internal/model"
)

// WriteTradesCSV writes the closed-trade ledger.
func WriteTradesCSV(w io.Writer, trades []model.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"id", "symbol", "direction", "entry_time", "exit_time",
		"entry_price", "exit_price", "quantity", "pnl", "pnl_pct", "fees",
	}); err != nil {
		return err
	}
	for _, tr := range trades {
		rec := []string{
			strconv.FormatInt(tr.ID, 10),
			tr.Symbol,
			tr.Direction,
			tr.EntryTime.UTC().Format(time.RFC3339),
			tr.ExitTime.UTC().Format(time.RFC3339),
			tr.EntryPrice.String(),
			tr.ExitPrice.String(),
			tr.Quantity.String(),
			tr.PnL.String(),
			strconv.FormatFloat(tr.PnLPct, 'f', 4, 64),
			tr.Fees.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes the equity curve.
func WriteEquityCSV(w io.Writer, curve []model.PortfolioSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "total_value", "cash", "position_value"}); err != nil {
		return err
	}
	for _, snap := range curve {
		rec := []string{
			snap.Timestamp.UTC().Format(time.RFC3339),
			snap.TotalValue.String(),
			snap.Cash.String(),
			snap.PositionValue.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultJSON writes the full result object, indented for humans.
func WriteResultJSON(w io.Writer, res any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
