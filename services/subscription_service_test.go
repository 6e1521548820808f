package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradesystem/ipo-simulation/models"
	"github.com/tradesystem/ipo-simulation/repository"
	"github.com/tradesystem/ipo-simulation/shared"
)

type subscriptionFixture struct {
	ledger       *repository.Ledger
	locks        *shared.KeyedLockRegistry
	subscription *SubscriptionService
}

func newSubscriptionFixture() *subscriptionFixture {
	ledger := repository.NewLedger()
	locks := shared.NewKeyedLockRegistry()
	return &subscriptionFixture{
		ledger:       ledger,
		locks:        locks,
		subscription: NewSubscriptionService(ledger, locks),
	}
}

func (f *subscriptionFixture) addStock(price, capacity int, deadline time.Time) *models.IPOStock {
	stock := models.NewIPOStock(f.ledger.NextStockID(), "Test Corp", "TEST", decimal.NewFromInt(int64(price)), capacity, deadline, "Test Issuer")
	f.ledger.SaveStock(stock)
	return stock
}

func (f *subscriptionFixture) addInvestor(name string, balance int) *models.Investor {
	inv := models.NewInvestor(f.ledger.NextInvestorID(), name, decimal.NewFromInt(int64(balance)))
	f.ledger.SaveInvestor(inv)
	return inv
}

func TestApplyDeductsExactCost(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(100, 10, time.Now().Add(time.Hour))
	inv := f.addInvestor("Alice", 1000)

	result, err := f.subscription.Apply(inv.InvestorID, stock.StockID, 3)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Record)

	assert.Equal(t, models.StatusPending, result.Record.Status())
	assert.Equal(t, 3, result.Record.Quantity)
	assert.True(t, result.Record.PricePerLot.Equal(decimal.NewFromInt(100)))
	assert.True(t, inv.Balance().Equal(decimal.NewFromInt(700)), "got %s", inv.Balance())
	assert.Equal(t, 3, f.ledger.ReservedLots(stock.StockID))
	assert.Len(t, inv.HistorySnapshot(), 1)
}

func TestApplyInvestorNotFound(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(100, 10, time.Now().Add(time.Hour))

	result, err := f.subscription.Apply("INV-missing", stock.StockID, 1)
	assert.Nil(t, result)
	assert.True(t, shared.IsNotFound(err))
	assert.Empty(t, f.ledger.FindRecordsByStock(stock.StockID), "NotFound must not persist a record")
}

func TestApplyStockNotFound(t *testing.T) {
	f := newSubscriptionFixture()
	inv := f.addInvestor("Alice", 1000)

	result, err := f.subscription.Apply(inv.InvestorID, "STK-missing", 1)
	assert.Nil(t, result)
	assert.True(t, shared.IsNotFound(err))
}

func TestApplyRejectsInvalidQuantity(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(100, 10, time.Now().Add(time.Hour))
	inv := f.addInvestor("Alice", 1000)

	_, err := f.subscription.Apply(inv.InvestorID, stock.StockID, 0)
	assert.Error(t, err)
	assert.Empty(t, f.ledger.FindRecordsByStock(stock.StockID))
}

func TestApplyAfterDeadlineRecordsFailure(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(100, 10, time.Now().Add(-time.Hour))
	inv := f.addInvestor("Alice", 1000)

	result, err := f.subscription.Apply(inv.InvestorID, stock.StockID, 1)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.StatusFailedDeadline, result.Record.Status())
	assert.True(t, inv.Balance().Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 0, f.ledger.ReservedLots(stock.StockID))

	records := f.ledger.FindRecordsByStock(stock.StockID)
	require.Len(t, records, 1)
	assert.Equal(t, "IPO deadline passed", records[0].FailureReason())
}

func TestApplyDuplicateRecordsFailure(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(100, 10, time.Now().Add(time.Hour))
	inv := f.addInvestor("Alice", 1000)

	first, err := f.subscription.Apply(inv.InvestorID, stock.StockID, 1)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := f.subscription.Apply(inv.InvestorID, stock.StockID, 1)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, models.StatusFailedDuplicate, second.Record.Status())

	// The duplicate touched neither funds nor reservations.
	assert.True(t, inv.Balance().Equal(decimal.NewFromInt(900)))
	assert.Equal(t, 1, f.ledger.ReservedLots(stock.StockID))
}

func TestApplyAfterFailureIsAllowed(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(100, 10, time.Now().Add(time.Hour))
	inv := f.addInvestor("Alice", 50) // cannot afford one lot

	first, err := f.subscription.Apply(inv.InvestorID, stock.StockID, 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailedFunds, first.Record.Status())

	inv.AddBalance(decimal.NewFromInt(100))

	second, err := f.subscription.Apply(inv.InvestorID, stock.StockID, 1)
	require.NoError(t, err)
	assert.True(t, second.Success, "a failed attempt must not block a retry")
}

func TestApplyInsufficientFundsRollsBackReservation(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(1000, 10, time.Now().Add(time.Hour))
	inv := f.addInvestor("Alice", 500)

	result, err := f.subscription.Apply(inv.InvestorID, stock.StockID, 1)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.StatusFailedFunds, result.Record.Status())

	// Balance untouched and no orphaned reservation survives the failure.
	assert.True(t, inv.Balance().Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 0, f.ledger.ReservedLots(stock.StockID))
}

func TestApplySoldOutRecordsFailureWithoutTouchingFunds(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(100, 1, time.Now().Add(time.Hour))
	winner := f.addInvestor("Alice", 1000)
	loser := f.addInvestor("Bob", 1000)

	first, err := f.subscription.Apply(winner.InvestorID, stock.StockID, 1)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := f.subscription.Apply(loser.InvestorID, stock.StockID, 1)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, models.StatusFailedSoldOut, second.Record.Status())
	assert.True(t, loser.Balance().Equal(decimal.NewFromInt(1000)))
}

// Capacity 10, 50 investors with balance 1000 each apply concurrently at
// price 100 for one lot. Exactly 10 succeed at balance 900; the other 40
// fail sold-out with funds untouched.
func TestConcurrentApplicationsNoOversell(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(100, 10, time.Now().Add(time.Hour))

	const applicants = 50
	investors := make([]*models.Investor, applicants)
	for i := range investors {
		investors[i] = f.addInvestor(fmt.Sprintf("Investor %d", i), 1000)
	}

	var wg sync.WaitGroup
	results := make([]*models.ApplicationResult, applicants)
	for i := range investors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := f.subscription.Apply(investors[i].InvestorID, stock.StockID, 1)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	succeeded, soldOut := 0, 0
	for i, result := range results {
		if result.Success {
			succeeded++
			assert.Equal(t, models.StatusPending, result.Record.Status())
			assert.True(t, investors[i].Balance().Equal(decimal.NewFromInt(900)),
				"winner %d balance %s", i, investors[i].Balance())
		} else {
			soldOut++
			assert.Equal(t, models.StatusFailedSoldOut, result.Record.Status())
			assert.True(t, investors[i].Balance().Equal(decimal.NewFromInt(1000)),
				"loser %d balance %s", i, investors[i].Balance())
		}
	}

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 40, soldOut)
	assert.Equal(t, 10, f.ledger.ReservedLots(stock.StockID))
	assert.Len(t, f.ledger.FindPendingByStock(stock.StockID), 10)
}

func TestConcurrentDuplicateApplicationsSamePair(t *testing.T) {
	f := newSubscriptionFixture()
	stock := f.addStock(100, 10, time.Now().Add(time.Hour))
	inv := f.addInvestor("Alice", 10000)

	const attempts = 20
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.subscription.Apply(inv.InvestorID, stock.StockID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	active := 0
	for _, record := range f.ledger.FindRecordsByStock(stock.StockID) {
		if !record.Status().IsFailure() {
			active++
		}
	}
	assert.Equal(t, 1, active, "at most one non-failed record per pair")
	assert.True(t, inv.Balance().Equal(decimal.NewFromInt(9900)), "only one deduction may land, got %s", inv.Balance())
	assert.Equal(t, 1, f.ledger.ReservedLots(stock.StockID))
}
