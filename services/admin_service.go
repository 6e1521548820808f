package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tradesystem/ipo-simulation/models"
	"github.com/tradesystem/ipo-simulation/repository"
	"github.com/tradesystem/ipo-simulation/shared"
)

// PublishIPOForm carries the admin input for creating an offering.
type PublishIPOForm struct {
	StockName     string          `json:"stock_name"`
	StockSymbol   string          `json:"stock_symbol"`
	Price         decimal.Decimal `json:"price"`
	TotalQuantity int             `json:"total_quantity"`
	Deadline      time.Time       `json:"deadline"`
	IssuerName    string          `json:"issuer_name"`
}

// AdminService covers operator actions: publishing offerings, listings, and
// draw execution (delegated to the DrawEngine).
type AdminService struct {
	Ledger *repository.Ledger
	Draw   *DrawEngine
}

func NewAdminService(ledger *repository.Ledger, draw *DrawEngine) *AdminService {
	return &AdminService{Ledger: ledger, Draw: draw}
}

// PublishIPO creates a new offering with a fixed capacity and deadline.
func (s *AdminService) PublishIPO(form PublishIPOForm) (*models.IPOStock, error) {
	if form.StockName == "" || form.StockSymbol == "" {
		return nil, shared.NewValidationError("MISSING_FIELDS", "Stock name and symbol are required", "publishIPO")
	}
	if form.TotalQuantity < 1 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Total quantity must be at least 1", "publishIPO")
	}
	stock := models.NewIPOStock(
		s.Ledger.NextStockID(),
		form.StockName,
		form.StockSymbol,
		form.Price,
		form.TotalQuantity,
		form.Deadline,
		form.IssuerName,
	)
	s.Ledger.SaveStock(stock)
	logrus.WithFields(logrus.Fields{
		"stock_id":       stock.StockID,
		"stock_name":     stock.StockName,
		"total_quantity": stock.TotalQuantity,
		"deadline":       stock.Deadline,
	}).Info("Published IPO")
	return stock, nil
}

// ExecuteDraw runs the lottery for the offering.
func (s *AdminService) ExecuteDraw(stockID string, refundLosers bool) (*models.DrawResult, error) {
	return s.Draw.ExecuteDraw(stockID, refundLosers)
}

// ListOpenIPOs returns offerings still accepting applications.
func (s *AdminService) ListOpenIPOs(now time.Time) []*models.IPOStock {
	return s.Ledger.ListOpenStocks(now)
}

// ListAllIPOs returns every offering.
func (s *AdminService) ListAllIPOs() []*models.IPOStock {
	return s.Ledger.ListAllStocks()
}

// ListIPOsForDisplay orders offerings for listing pages: available first,
// then ended awaiting draw, then finished; ties broken by deadline.
func (s *AdminService) ListIPOsForDisplay(now time.Time) []*models.IPOStock {
	stocks := s.Ledger.ListAllStocks()
	sort.SliceStable(stocks, func(i, j int) bool {
		oi, oj := displayOrder(stocks[i], now), displayOrder(stocks[j], now)
		if oi != oj {
			return oi < oj
		}
		return stocks[i].Deadline.Before(stocks[j].Deadline)
	})
	return stocks
}

func displayOrder(stock *models.IPOStock, now time.Time) int {
	switch {
	case !stock.IsDrawExecuted() && !stock.IsExpired(now):
		return 0 // Available
	case !stock.IsDrawExecuted():
		return 1 // Ended, draw pending
	default:
		return 2 // Finished
	}
}

// Reset wipes all state and restores the demo data set.
func (s *AdminService) Reset() {
	s.Ledger.Reset()
	logrus.Info("Ledger reset to demo data")
}
