package models

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an application record.
type Status string

const (
	// StatusPending means the application holds funds and awaits the draw.
	StatusPending Status = "PENDING"
	// StatusWon and StatusLost are set exclusively by the draw engine.
	StatusWon  Status = "WON"
	StatusLost Status = "LOST"

	// Terminal failures set at apply time.
	StatusFailedFunds     Status = "FAILED_FUNDS"
	StatusFailedDuplicate Status = "FAILED_DUPLICATE"
	StatusFailedDeadline  Status = "FAILED_DEADLINE"
	StatusFailedSoldOut   Status = "FAILED_SOLD_OUT"
)

// IsFailure reports whether the status is one of the apply-time failures.
// Failed records never count against the one-application-per-pair rule.
func (s Status) IsFailure() bool {
	switch s {
	case StatusFailedFunds, StatusFailedDuplicate, StatusFailedDeadline, StatusFailedSoldOut:
		return true
	}
	return false
}

// ApplicationRecord is an investor's application for an offering. Records are
// created once and mutated at most once afterward (the draw outcome or an
// immediate failure marking); they are never deleted and form the audit trail.
type ApplicationRecord struct {
	RecordID    string          `json:"record_id"`
	InvestorID  string          `json:"investor_id"`
	StockID     string          `json:"stock_id"`
	Quantity    int             `json:"quantity"`
	PricePerLot decimal.Decimal `json:"price_per_lot"`
	ApplyTime   time.Time       `json:"apply_time"`

	mu            sync.RWMutex
	status        Status
	failureReason string
}

// NewApplicationRecord creates a record in the given initial status.
func NewApplicationRecord(recordID, investorID, stockID string, quantity int, pricePerLot decimal.Decimal, applyTime time.Time, initial Status) *ApplicationRecord {
	if initial == "" {
		initial = StatusPending
	}
	return &ApplicationRecord{
		RecordID:    recordID,
		InvestorID:  investorID,
		StockID:     stockID,
		Quantity:    quantity,
		PricePerLot: pricePerLot,
		ApplyTime:   applyTime,
		status:      initial,
	}
}

// Status returns the current lifecycle state.
func (r *ApplicationRecord) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// FailureReason returns the human-readable reason for an apply-time failure.
func (r *ApplicationRecord) FailureReason() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failureReason
}

// MarkWon transitions the record to WON.
func (r *ApplicationRecord) MarkWon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusWon
	r.failureReason = ""
}

// MarkLost transitions the record to LOST.
func (r *ApplicationRecord) MarkLost() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusLost
	r.failureReason = ""
}

// MarkFailed records an apply-time failure with its reason.
func (r *ApplicationRecord) MarkFailed(failure Status, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = failure
	r.failureReason = reason
}

// TotalCost is the funds held against this record.
func (r *ApplicationRecord) TotalCost() decimal.Decimal {
	return r.PricePerLot.Mul(decimal.NewFromInt(int64(r.Quantity)))
}
