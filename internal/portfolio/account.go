// Package portfolio tracks the cash/position state of a single-instrument
// long-only account and its equity drawdown.
//
// An Account is either flat (all cash) or long (all shares). There is no
// pyramiding, no partial fills and no shorting.
package portfolio

// Account holds the capital of one backtest run.
type Account struct {
	cash   float64
	shares float64
	entry  float64 // entry price while long
	long   bool
}

// NewAccount creates a flat account with the given starting capital.
func NewAccount(capital float64) *Account {
	return &Account{cash: capital}
}

// Long reports whether a position is open.
func (a *Account) Long() bool {
	return a.long
}

// Cash returns the uninvested capital (zero while long).
func (a *Account) Cash() float64 { return a.cash }

// Shares returns the position size (zero while flat).
func (a *Account) Shares() float64 { return a.shares }

// Entry returns the entry price of the open position, or 0 when flat.
func (a *Account) Entry() float64 { return a.entry }

// Buy converts all cash to shares at price. Returns false, leaving the
// account untouched, when already long or price is not positive.
func (a *Account) Buy(price float64) bool {
	if a.Long() || price <= 0 {
		return false
	}
	a.shares = a.cash / price
	a.cash = 0
	a.entry = price
	a.long = true
	return true
}

// Sell converts all shares to cash at price and returns the round trip's
// percentage P&L relative to the entry price. ok is false when flat.
func (a *Account) Sell(price float64) (pnlPct float64, ok bool) {
	if !a.Long() {
		return 0, false
	}
	pnlPct = (price - a.entry) / a.entry * 100
	a.cash = a.shares * price
	a.shares = 0
	a.entry = 0
	a.long = false
	return pnlPct, true
}

// Equity values the account at price: shares*price when long, else cash.
func (a *Account) Equity(price float64) float64 {
	if a.Long() {
		return a.shares * price
	}
	return a.cash
}
