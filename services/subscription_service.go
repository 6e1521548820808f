package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tradesystem/ipo-simulation/models"
	"github.com/tradesystem/ipo-simulation/repository"
	"github.com/tradesystem/ipo-simulation/shared"
)

// SubscriptionService orchestrates an IPO application: validation, atomic lot
// reservation, funds deduction with compensating rollback, and audit record
// persistence. Every outcome past the existence checks leaves exactly one
// persisted record.
type SubscriptionService struct {
	Ledger  *repository.Ledger
	Locks   *shared.KeyedLockRegistry
	Metrics *shared.ServiceMetrics
}

func NewSubscriptionService(ledger *repository.Ledger, locks *shared.KeyedLockRegistry) *SubscriptionService {
	return &SubscriptionService{
		Ledger:  ledger,
		Locks:   locks,
		Metrics: shared.NewServiceMetrics("subscription"),
	}
}

// Apply submits an application for quantity lots of the offering.
//
// Business rejections (deadline passed, duplicate, sold out, insufficient
// funds) return a failure ApplicationResult with a persisted record and a nil
// error. Only a missing investor/offering or an invalid quantity returns an
// error, with nothing persisted.
func (s *SubscriptionService) Apply(investorID, stockID string, quantity int) (*models.ApplicationResult, error) {
	if quantity < 1 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1", "apply")
	}

	investor, ok := s.Ledger.FindInvestor(investorID)
	if !ok {
		return nil, shared.NewNotFoundError("INVESTOR_NOT_FOUND", "Investor not found", "apply")
	}
	stock, ok := s.Ledger.FindStock(stockID)
	if !ok {
		return nil, shared.NewNotFoundError("IPO_NOT_FOUND", "IPO not found", "apply")
	}

	now := time.Now()
	if stock.IsExpired(now) {
		return s.reject(investor, stock, quantity, now, models.StatusFailedDeadline, "IPO deadline passed"), nil
	}
	// Optimistic duplicate probe before taking the lock.
	if s.Ledger.HasActiveRecord(investorID, stockID) {
		return s.reject(investor, stock, quantity, now, models.StatusFailedDuplicate, "Duplicate application detected"), nil
	}

	unlock := s.Locks.Acquire(investorID, stockID)
	defer unlock()

	// Recheck under the lock: a racing application for the same pair may have
	// committed between the probe and lock acquisition.
	if s.Ledger.HasActiveRecord(investorID, stockID) {
		return s.reject(investor, stock, quantity, now, models.StatusFailedDuplicate, "Duplicate application detected"), nil
	}

	if !s.Ledger.ReserveLots(stockID, quantity, stock.TotalQuantity) {
		return s.reject(investor, stock, quantity, now, models.StatusFailedSoldOut, "IPO sold out"), nil
	}

	totalCost := stock.Price.Mul(decimal.NewFromInt(int64(quantity)))
	if !investor.DeductBalance(totalCost) {
		// Compensating rollback: the reservation must not survive the failure.
		s.Ledger.ReleaseLots(stockID, quantity)
		logrus.WithFields(logrus.Fields{
			"investor_id": investorID,
			"stock_id":    stockID,
			"required":    totalCost.String(),
		}).Warn("Application failed on insufficient funds")
		return s.reject(investor, stock, quantity, now, models.StatusFailedFunds, "Insufficient balance"), nil
	}

	record := models.NewApplicationRecord(
		s.Ledger.NextRecordID(),
		investorID,
		stockID,
		quantity,
		stock.Price,
		now,
		models.StatusPending,
	)
	s.Ledger.SaveRecord(record)
	investor.AppendRecord(record)

	s.Metrics.RecordRequest(true)
	logrus.WithFields(logrus.Fields{
		"investor_id": investorID,
		"stock_id":    stockID,
		"stock_name":  stock.StockName,
		"record_id":   record.RecordID,
		"quantity":    quantity,
	}).Info("Application submitted")

	return &models.ApplicationResult{
		Success: true,
		Message: "Application submitted",
		Record:  record,
	}, nil
}

// reject persists a terminal failure record and builds the failure result.
func (s *SubscriptionService) reject(investor *models.Investor, stock *models.IPOStock, quantity int, now time.Time, failure models.Status, reason string) *models.ApplicationResult {
	record := models.NewApplicationRecord(
		s.Ledger.NextRecordID(),
		investor.InvestorID,
		stock.StockID,
		quantity,
		stock.Price,
		now,
		failure,
	)
	record.MarkFailed(failure, reason)
	s.Ledger.SaveRecord(record)
	investor.AppendRecord(record)

	s.Metrics.RecordRequest(false)
	logrus.WithFields(logrus.Fields{
		"investor_id": investor.InvestorID,
		"stock_id":    stock.StockID,
		"status":      string(failure),
		"reason":      reason,
	}).Info(fmt.Sprintf("Application rejected: %s", reason))

	return &models.ApplicationResult{
		Success: false,
		Message: reason,
		Record:  record,
	}
}
