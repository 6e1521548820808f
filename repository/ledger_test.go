package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradesystem/ipo-simulation/models"
)

func newTestStock(l *Ledger, capacity int, deadline time.Time) *models.IPOStock {
	stock := models.NewIPOStock(l.NextStockID(), "Test Corp", "TEST", decimal.NewFromInt(100), capacity, deadline, "Test Issuer")
	l.SaveStock(stock)
	return stock
}

func TestReserveLotsRespectsCapacity(t *testing.T) {
	ledger := NewLedger()
	stock := newTestStock(ledger, 5, time.Now().Add(time.Hour))

	assert.True(t, ledger.ReserveLots(stock.StockID, 3, stock.TotalQuantity))
	assert.True(t, ledger.ReserveLots(stock.StockID, 2, stock.TotalQuantity))
	assert.False(t, ledger.ReserveLots(stock.StockID, 1, stock.TotalQuantity))
	assert.Equal(t, 5, ledger.ReservedLots(stock.StockID))
}

func TestReserveLotsConcurrentNoOversell(t *testing.T) {
	ledger := NewLedger()
	const capacity = 10
	const applicants = 100
	stock := newTestStock(ledger, capacity, time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < applicants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ledger.ReserveLots(stock.StockID, 1, capacity) {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, capacity, ledger.ReservedLots(stock.StockID))
}

func TestReleaseLotsFlooredAtZero(t *testing.T) {
	ledger := NewLedger()
	stock := newTestStock(ledger, 10, time.Now().Add(time.Hour))

	require.True(t, ledger.ReserveLots(stock.StockID, 2, 10))
	ledger.ReleaseLots(stock.StockID, 2)
	assert.Equal(t, 0, ledger.ReservedLots(stock.StockID))

	// Double release stays at zero.
	ledger.ReleaseLots(stock.StockID, 5)
	assert.Equal(t, 0, ledger.ReservedLots(stock.StockID))
}

func TestHasActiveRecordIgnoresFailures(t *testing.T) {
	ledger := NewLedger()
	stock := newTestStock(ledger, 10, time.Now().Add(time.Hour))
	inv := models.NewInvestor(ledger.NextInvestorID(), "Alice", decimal.NewFromInt(1000))
	ledger.SaveInvestor(inv)

	failed := models.NewApplicationRecord(ledger.NextRecordID(), inv.InvestorID, stock.StockID, 1, stock.Price, time.Now(), models.StatusFailedFunds)
	failed.MarkFailed(models.StatusFailedFunds, "Insufficient balance")
	ledger.SaveRecord(failed)
	assert.False(t, ledger.HasActiveRecord(inv.InvestorID, stock.StockID))

	pending := models.NewApplicationRecord(ledger.NextRecordID(), inv.InvestorID, stock.StockID, 1, stock.Price, time.Now(), models.StatusPending)
	ledger.SaveRecord(pending)
	assert.True(t, ledger.HasActiveRecord(inv.InvestorID, stock.StockID))

	// Draw outcomes still count as active.
	pending.MarkLost()
	assert.True(t, ledger.HasActiveRecord(inv.InvestorID, stock.StockID))
}

func TestFindPendingByStock(t *testing.T) {
	ledger := NewLedger()
	stock := newTestStock(ledger, 10, time.Now().Add(time.Hour))

	pending := models.NewApplicationRecord(ledger.NextRecordID(), "INV-A", stock.StockID, 1, stock.Price, time.Now(), models.StatusPending)
	won := models.NewApplicationRecord(ledger.NextRecordID(), "INV-B", stock.StockID, 1, stock.Price, time.Now(), models.StatusPending)
	ledger.SaveRecord(pending)
	ledger.SaveRecord(won)
	won.MarkWon()

	got := ledger.FindPendingByStock(stock.StockID)
	require.Len(t, got, 1)
	assert.Equal(t, pending.RecordID, got[0].RecordID)
}

func TestResetReseedsDemoData(t *testing.T) {
	ledger := NewLedger()
	seeded := len(ledger.ListAllStocks())
	require.Greater(t, seeded, 0)

	newTestStock(ledger, 10, time.Now().Add(time.Hour))
	assert.Len(t, ledger.ListAllStocks(), seeded+1)

	ledger.Reset()
	assert.Len(t, ledger.ListAllStocks(), seeded)
	assert.Len(t, ledger.FindAllInvestors(), 1)
}

func TestListOpenStocksExcludesExpiredAndDrawn(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()

	open := newTestStock(ledger, 10, now.Add(time.Hour))
	expired := newTestStock(ledger, 10, now.Add(-time.Hour))
	drawn := newTestStock(ledger, 10, now.Add(time.Hour))
	drawn.MarkDrawExecuted()

	ids := map[string]bool{}
	for _, stock := range ledger.ListOpenStocks(now) {
		ids[stock.StockID] = true
	}
	assert.True(t, ids[open.StockID])
	assert.False(t, ids[expired.StockID])
	assert.False(t, ids[drawn.StockID])
}

func TestIDGeneratorsProduceUniqueIDs(t *testing.T) {
	ledger := NewLedger()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		for _, id := range []string{ledger.NextInvestorID(), ledger.NextStockID(), ledger.NextRecordID()} {
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
}
