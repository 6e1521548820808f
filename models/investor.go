package models

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Investor holds an exact-decimal balance and the investor's application
// history. Balance mutations go through AddBalance/DeductBalance only, which
// serialize on a per-investor mutex so concurrent deposits, deductions, and
// refunds never interleave incorrectly.
type Investor struct {
	InvestorID  string `json:"investor_id"`
	DisplayName string `json:"display_name"`

	mu      sync.Mutex
	balance decimal.Decimal

	historyMu sync.RWMutex
	history   []*ApplicationRecord
}

// NewInvestor creates an investor with the given starting balance.
func NewInvestor(investorID, displayName string, balance decimal.Decimal) *Investor {
	return &Investor{
		InvestorID:  investorID,
		DisplayName: displayName,
		balance:     balance,
	}
}

// Balance returns the current balance.
func (inv *Investor) Balance() decimal.Decimal {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.balance
}

// AddBalance credits the balance. Non-positive amounts are ignored.
func (inv *Investor) AddBalance(amount decimal.Decimal) {
	if amount.Sign() <= 0 {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.balance = inv.balance.Add(amount)
}

// DeductBalance debits the balance and reports whether the deduction
// succeeded. The balance never goes negative: an insufficient balance leaves
// it untouched and returns false.
func (inv *Investor) DeductBalance(amount decimal.Decimal) bool {
	if amount.Sign() <= 0 {
		return true
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.balance.LessThan(amount) {
		return false
	}
	inv.balance = inv.balance.Sub(amount)
	return true
}

// AppendRecord appends a record to the investor's ordered history.
func (inv *Investor) AppendRecord(record *ApplicationRecord) {
	if record == nil {
		return
	}
	inv.historyMu.Lock()
	defer inv.historyMu.Unlock()
	inv.history = append(inv.history, record)
}

// HistorySnapshot returns a copy of the application history in apply order.
func (inv *Investor) HistorySnapshot() []*ApplicationRecord {
	inv.historyMu.RLock()
	defer inv.historyMu.RUnlock()
	out := make([]*ApplicationRecord, len(inv.history))
	copy(out, inv.history)
	return out
}
