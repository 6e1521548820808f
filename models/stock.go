package models

import (
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// IPOStock is an offering. Everything except the drawExecuted flag is fixed at
// creation; the flag transitions false→true exactly once via MarkDrawExecuted.
type IPOStock struct {
	StockID       string          `json:"stock_id"`
	StockName     string          `json:"stock_name"`
	StockSymbol   string          `json:"stock_symbol"`
	Price         decimal.Decimal `json:"price"`
	TotalQuantity int             `json:"total_quantity"`
	Deadline      time.Time       `json:"deadline"`
	IssuerName    string          `json:"issuer_name"`

	drawExecuted atomic.Bool
}

// NewIPOStock creates an offering with the draw not yet executed.
func NewIPOStock(stockID, stockName, stockSymbol string, price decimal.Decimal, totalQuantity int, deadline time.Time, issuerName string) *IPOStock {
	return &IPOStock{
		StockID:       stockID,
		StockName:     stockName,
		StockSymbol:   stockSymbol,
		Price:         price,
		TotalQuantity: totalQuantity,
		Deadline:      deadline,
		IssuerName:    issuerName,
	}
}

// IsDrawExecuted reports whether the lottery has already run.
func (s *IPOStock) IsDrawExecuted() bool {
	return s.drawExecuted.Load()
}

// IsExpired reports whether the subscription deadline has passed.
func (s *IPOStock) IsExpired(now time.Time) bool {
	return now.After(s.Deadline)
}

// IsOpen reports whether the offering still accepts applications.
func (s *IPOStock) IsOpen(now time.Time) bool {
	return !s.IsDrawExecuted() && now.Before(s.Deadline)
}

// MarkDrawExecuted flips the one-way drawExecuted flag. It reports whether
// this caller performed the transition; when two callers race to draw the
// same offering, exactly one observes true and may allocate.
func (s *IPOStock) MarkDrawExecuted() bool {
	return s.drawExecuted.CompareAndSwap(false, true)
}
