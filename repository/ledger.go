package repository

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradesystem/ipo-simulation/models"
)

// Ledger is the thread-safe in-memory store for investors, offerings,
// application records, and per-offering reservation counters. It is
// constructed once and passed to the services that need it; all cross-cutting
// invariants (capacity bound, one active record per pair, non-negative
// balances) hold at every observable point.
type Ledger struct {
	mu        sync.RWMutex
	investors map[string]*models.Investor
	stocks    map[string]*models.IPOStock
	records   []*models.ApplicationRecord

	reservationsMu sync.Mutex
	reservations   map[string]*atomic.Int64

	investorSeq atomic.Int64
	stockSeq    atomic.Int64
}

// NewLedger creates a ledger pre-loaded with the demo data set.
func NewLedger() *Ledger {
	l := &Ledger{
		investors:    make(map[string]*models.Investor),
		stocks:       make(map[string]*models.IPOStock),
		reservations: make(map[string]*atomic.Int64),
	}
	l.investorSeq.Store(1000)
	l.stockSeq.Store(2000)
	l.seedDemoData()
	return l
}

// NextInvestorID returns a fresh investor identifier.
func (l *Ledger) NextInvestorID() string {
	return fmt.Sprintf("INV-%d", l.investorSeq.Add(1))
}

// NextStockID returns a fresh offering identifier.
func (l *Ledger) NextStockID() string {
	return fmt.Sprintf("STK-%d", l.stockSeq.Add(1))
}

// NextRecordID returns a fresh application record identifier.
func (l *Ledger) NextRecordID() string {
	return "REC-" + uuid.NewString()
}

// FindInvestor looks up an investor by ID.
func (l *Ledger) FindInvestor(investorID string) (*models.Investor, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	inv, ok := l.investors[investorID]
	return inv, ok
}

// SaveInvestor stores an investor.
func (l *Ledger) SaveInvestor(investor *models.Investor) *models.Investor {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.investors[investor.InvestorID] = investor
	return investor
}

// FindAllInvestors returns a snapshot of all investors.
func (l *Ledger) FindAllInvestors() []*models.Investor {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*models.Investor, 0, len(l.investors))
	for _, inv := range l.investors {
		out = append(out, inv)
	}
	return out
}

// SaveStock stores an offering and initializes its reservation counter.
func (l *Ledger) SaveStock(stock *models.IPOStock) *models.IPOStock {
	l.mu.Lock()
	l.stocks[stock.StockID] = stock
	l.mu.Unlock()

	l.reservationsMu.Lock()
	if _, ok := l.reservations[stock.StockID]; !ok {
		l.reservations[stock.StockID] = &atomic.Int64{}
	}
	l.reservationsMu.Unlock()
	return stock
}

// FindStock looks up an offering by ID.
func (l *Ledger) FindStock(stockID string) (*models.IPOStock, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stock, ok := l.stocks[stockID]
	return stock, ok
}

// ListOpenStocks returns offerings still accepting applications at now.
func (l *Ledger) ListOpenStocks(now time.Time) []*models.IPOStock {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*models.IPOStock
	for _, stock := range l.stocks {
		if stock.IsOpen(now) {
			out = append(out, stock)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockID < out[j].StockID })
	return out
}

// ListAllStocks returns a snapshot of every offering.
func (l *Ledger) ListAllStocks() []*models.IPOStock {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*models.IPOStock, 0, len(l.stocks))
	for _, stock := range l.stocks {
		out = append(out, stock)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockID < out[j].StockID })
	return out
}

// SaveRecord appends an application record to the audit trail.
func (l *Ledger) SaveRecord(record *models.ApplicationRecord) *models.ApplicationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	return record
}

// FindRecordsByInvestor returns the investor's records in apply order.
func (l *Ledger) FindRecordsByInvestor(investorID string) []*models.ApplicationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*models.ApplicationRecord
	for _, record := range l.records {
		if record.InvestorID == investorID {
			out = append(out, record)
		}
	}
	return out
}

// FindRecordsByStock returns all records for the offering in apply order.
func (l *Ledger) FindRecordsByStock(stockID string) []*models.ApplicationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*models.ApplicationRecord
	for _, record := range l.records {
		if record.StockID == stockID {
			out = append(out, record)
		}
	}
	return out
}

// FindPendingByStock returns the offering's records still awaiting the draw.
func (l *Ledger) FindPendingByStock(stockID string) []*models.ApplicationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*models.ApplicationRecord
	for _, record := range l.records {
		if record.StockID == stockID && record.Status() == models.StatusPending {
			out = append(out, record)
		}
	}
	return out
}

// HasActiveRecord reports whether the pair already has a non-failed record
// (PENDING, WON, or LOST). Failed applications do not block a retry.
func (l *Ledger) HasActiveRecord(investorID, stockID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, record := range l.records {
		if record.InvestorID == investorID && record.StockID == stockID && !record.Status().IsFailure() {
			return true
		}
	}
	return false
}

// ReserveLots tries to advance the offering's reservation counter by quantity
// without exceeding maxLots. The compare-and-swap retry loop is lock-free:
// unrelated investors reserve against the same offering concurrently, and a
// failed CAS simply retries against the committed value. Returns false with
// no mutation when the capacity bound would be violated.
func (l *Ledger) ReserveLots(stockID string, quantity, maxLots int) bool {
	counter := l.reservationCounter(stockID)
	for {
		current := counter.Load()
		if current+int64(quantity) > int64(maxLots) {
			return false
		}
		if counter.CompareAndSwap(current, current+int64(quantity)) {
			return true
		}
	}
}

// ReleaseLots undoes a reservation, floored at zero. Idempotent against a
// double release.
func (l *Ledger) ReleaseLots(stockID string, quantity int) {
	counter := l.reservationCounter(stockID)
	for {
		current := counter.Load()
		next := current - int64(quantity)
		if next < 0 {
			next = 0
		}
		if counter.CompareAndSwap(current, next) {
			return
		}
	}
}

// ReservedLots returns the current reservation counter value.
func (l *Ledger) ReservedLots(stockID string) int {
	return int(l.reservationCounter(stockID).Load())
}

func (l *Ledger) reservationCounter(stockID string) *atomic.Int64 {
	l.reservationsMu.Lock()
	defer l.reservationsMu.Unlock()
	counter, ok := l.reservations[stockID]
	if !ok {
		counter = &atomic.Int64{}
		l.reservations[stockID] = counter
	}
	return counter
}

// Reset wipes all state and re-seeds the demo data.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.investors = make(map[string]*models.Investor)
	l.stocks = make(map[string]*models.IPOStock)
	l.records = nil
	l.mu.Unlock()

	l.reservationsMu.Lock()
	l.reservations = make(map[string]*atomic.Int64)
	l.reservationsMu.Unlock()

	l.seedDemoData()
}

func (l *Ledger) seedDemoData() {
	demo := models.NewInvestor(l.NextInvestorID(), "Demo Investor", decimal.NewFromInt(50000))
	l.SaveInvestor(demo)

	now := time.Now()
	l.SaveStock(models.NewIPOStock(l.NextStockID(), "TSMC", "2330", decimal.NewFromInt(1000), 10, now.Add(-time.Minute), "TSMC"))
	l.SaveStock(models.NewIPOStock(l.NextStockID(), "MediaTek", "2454", decimal.NewFromInt(1200), 5, now.Add(48*time.Hour), "MediaTek"))

	l.SaveStock(models.NewIPOStock(l.NextStockID(), "Evergreen", "2603", decimal.NewFromInt(150), 100, now.Add(5*24*time.Hour), "Evergreen Marine"))
	l.SaveStock(models.NewIPOStock(l.NextStockID(), "Yang Ming", "2609", decimal.NewFromInt(120), 80, now.Add(5*24*time.Hour), "Yang Ming Marine"))

	l.SaveStock(models.NewIPOStock(l.NextStockID(), "Fubon Financial", "2881", decimal.NewFromInt(60), 500, now.Add(7*24*time.Hour), "Fubon"))
	l.SaveStock(models.NewIPOStock(l.NextStockID(), "Mega Financial", "2886", decimal.NewFromInt(40), 600, now.Add(7*24*time.Hour), "Mega"))

	l.SaveStock(models.NewIPOStock(l.NextStockID(), "Old Corp", "0000", decimal.NewFromInt(200), 50, now.Add(-24*time.Hour), "Legacy Holdings"))
	l.SaveStock(models.NewIPOStock(l.NextStockID(), "Urgent Corp", "9999", decimal.NewFromInt(300), 30, now.Add(time.Hour), "Urgent Ventures"))
	l.SaveStock(models.NewIPOStock(l.NextStockID(), "Penny Stock", "1111", decimal.NewFromInt(10), 1000, now.Add(4*24*time.Hour), "Penny Inc"))
	l.SaveStock(models.NewIPOStock(l.NextStockID(), "Luxury Corp", "8888", decimal.NewFromInt(5000), 1, now.Add(6*24*time.Hour), "Luxury Holdings"))
}
