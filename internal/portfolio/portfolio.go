// Package portfolio holds the simulated account state for one backtest run:
// cash, holdings, the single open trade and its risk state, and the
// closed-trade ledger. A portfolio is owned by exactly one engine run and is
// not safe for concurrent use.
package portfolio

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"quantsim/internal/model"
)

var ErrTradeAlreadyOpen = errors.New("portfolio: a trade is already open")

type VirtualPortfolio struct {
	cash           decimal.Decimal
	holdings       map[string]decimal.Decimal
	openTrade      *model.Trade
	openInfo       *model.OpenTradeInfo
	ledger         []model.Trade
	initialBalance decimal.Decimal
	nextTradeID    int64
}

func NewVirtualPortfolio(initialBalance decimal.Decimal) *VirtualPortfolio {
	return &VirtualPortfolio{
		cash:           initialBalance,
		holdings:       make(map[string]decimal.Decimal),
		initialBalance: initialBalance,
		nextTradeID:    1,
	}
}

func (p *VirtualPortfolio) Cash() decimal.Decimal           { return p.cash }
func (p *VirtualPortfolio) InitialBalance() decimal.Decimal { return p.initialBalance }
func (p *VirtualPortfolio) OpenTrade() *model.Trade         { return p.openTrade }
func (p *VirtualPortfolio) OpenInfo() *model.OpenTradeInfo  { return p.openInfo }
func (p *VirtualPortfolio) Trades() []model.Trade           { return p.ledger }

func (p *VirtualPortfolio) Holding(symbol string) decimal.Decimal {
	return p.holdings[symbol]
}

// TotalValue marks holdings of symbol to the given price and adds cash.
func (p *VirtualPortfolio) TotalValue(symbol string, price decimal.Decimal) decimal.Decimal {
	return p.cash.Add(p.holdings[symbol].Mul(price))
}

// CanBuy reports whether cash covers cost plus fee at the given fee rate.
func (p *VirtualPortfolio) CanBuy(price, qty, feeRate decimal.Decimal) bool {
	cost := price.Mul(qty)
	return p.cash.GreaterThanOrEqual(cost.Add(cost.Mul(feeRate)))
}

// CanSell reports whether at least qty of symbol is held.
func (p *VirtualPortfolio) CanSell(symbol string, qty decimal.Decimal) bool {
	return p.holdings[symbol].GreaterThanOrEqual(qty) && qty.GreaterThan(decimal.Zero)
}

// ExecuteBuy debits cash by cost+fee, increments holdings and opens a new
// trade with its risk state seeded at the fill price. At most one trade may
// be open; callers must guard with OpenTrade() or handle the error.
func (p *VirtualPortfolio) ExecuteBuy(symbol string, price, qty, fee decimal.Decimal, ts time.Time) error {
	if p.openTrade != nil {
		return ErrTradeAlreadyOpen
	}
	cost := price.Mul(qty)
	p.cash = p.cash.Sub(cost).Sub(fee)
	p.holdings[symbol] = p.holdings[symbol].Add(qty)

	p.openTrade = &model.Trade{
		ID:         p.nextTradeID,
		Symbol:     symbol,
		Direction:  "long",
		EntryTime:  ts,
		EntryPrice: price,
		Quantity:   qty,
		Fees:       fee,
	}
	p.nextTradeID++
	p.openInfo = &model.OpenTradeInfo{
		EntryPrice:   price,
		HighestPrice: price,
	}
	return nil
}

// ExecuteSell credits cash by proceeds-fee and decrements holdings. If a
// trade is open it is finalized and appended to the ledger; otherwise the
// ledger is untouched.
func (p *VirtualPortfolio) ExecuteSell(symbol string, price, qty, fee decimal.Decimal, ts time.Time) {
	proceeds := price.Mul(qty)
	p.cash = p.cash.Add(proceeds).Sub(fee)

	remaining := p.holdings[symbol].Sub(qty)
	if remaining.LessThanOrEqual(decimal.Zero) {
		delete(p.holdings, symbol)
	} else {
		p.holdings[symbol] = remaining
	}

	if p.openTrade == nil {
		return
	}
	tr := *p.openTrade
	tr.ExitTime = ts
	tr.ExitPrice = price
	tr.Fees = tr.Fees.Add(fee)
	tr.Closed = true

	entryCost := tr.EntryCost()
	tr.PnL = proceeds.Sub(entryCost).Sub(tr.Fees)
	if entryCost.IsPositive() {
		tr.PnLPct, _ = tr.PnL.Div(entryCost).Mul(decimal.NewFromInt(100)).Float64()
	}

	p.ledger = append(p.ledger, tr)
	p.openTrade = nil
	p.openInfo = nil
}
