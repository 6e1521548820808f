package services

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tradesystem/ipo-simulation/models"
	"github.com/tradesystem/ipo-simulation/repository"
	"github.com/tradesystem/ipo-simulation/shared"
)

// DefaultInvestorBalance is granted to investors created through LoginOrCreate.
var DefaultInvestorBalance = decimal.NewFromInt(100000)

// InvestorService manages investor identity and funds on top of the ledger.
type InvestorService struct {
	Ledger *repository.Ledger
}

func NewInvestorService(ledger *repository.Ledger) *InvestorService {
	return &InvestorService{Ledger: ledger}
}

// FindInvestor looks up an investor by ID.
func (s *InvestorService) FindInvestor(investorID string) (*models.Investor, bool) {
	return s.Ledger.FindInvestor(investorID)
}

// GetAllInvestors returns all known investors.
func (s *InvestorService) GetAllInvestors() []*models.Investor {
	return s.Ledger.FindAllInvestors()
}

// LoginOrCreate returns the existing investor, or creates one under the given
// ID with the default balance. The identifier arrives already authenticated
// by the session collaborator.
func (s *InvestorService) LoginOrCreate(investorID string) *models.Investor {
	if inv, ok := s.Ledger.FindInvestor(investorID); ok {
		return inv
	}
	inv := models.NewInvestor(investorID, investorID, DefaultInvestorBalance)
	s.Ledger.SaveInvestor(inv)
	logrus.WithFields(logrus.Fields{
		"investor_id": investorID,
		"balance":     DefaultInvestorBalance.String(),
	}).Info("Created investor on first login")
	return inv
}

// Register creates an investor under an explicit ID and rejects duplicates.
func (s *InvestorService) Register(investorID, displayName string, initialBalance decimal.Decimal) (*models.Investor, error) {
	if _, ok := s.Ledger.FindInvestor(investorID); ok {
		return nil, shared.NewValidationError("INVESTOR_EXISTS", "Investor already exists", "register")
	}
	inv := models.NewInvestor(investorID, displayName, initialBalance)
	s.Ledger.SaveInvestor(inv)
	return inv, nil
}

// Deposit credits the investor's balance. Amounts must be positive.
func (s *InvestorService) Deposit(investorID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return shared.NewValidationError("INVALID_AMOUNT", "Deposit amount must be positive", "deposit")
	}
	inv, ok := s.Ledger.FindInvestor(investorID)
	if !ok {
		return shared.NewNotFoundError("INVESTOR_NOT_FOUND", "Investor not found", "deposit")
	}
	inv.AddBalance(amount)
	return nil
}

// History returns the investor's application records in apply order.
func (s *InvestorService) History(investorID string) []*models.ApplicationRecord {
	return s.Ledger.FindRecordsByInvestor(investorID)
}
