package services

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tradesystem/ipo-simulation/models"
	"github.com/tradesystem/ipo-simulation/repository"
	"github.com/tradesystem/ipo-simulation/shared"
)

// DrawEngine runs the one-shot lottery allocation for an offering once its
// deadline has passed. The rand source is injected so tests can seed it for
// reproducible draws; production wires a time-seeded source.
type DrawEngine struct {
	Ledger  *repository.Ledger
	Locks   *shared.KeyedLockRegistry
	Metrics *shared.ServiceMetrics

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewDrawEngine creates a draw engine drawing from the given rand source.
func NewDrawEngine(ledger *repository.Ledger, locks *shared.KeyedLockRegistry, src rand.Source) *DrawEngine {
	return &DrawEngine{
		Ledger:  ledger,
		Locks:   locks,
		Metrics: shared.NewServiceMetrics("draw"),
		rnd:     rand.New(src),
	}
}

// NewDefaultDrawEngine creates a draw engine with a time-seeded rand source.
func NewDefaultDrawEngine(ledger *repository.Ledger, locks *shared.KeyedLockRegistry) *DrawEngine {
	return NewDrawEngine(ledger, locks, rand.NewSource(time.Now().UnixNano()))
}

// ExecuteDraw allocates the offering's lots among its pending applications.
//
// Preconditions: the offering exists, its deadline has passed, and its draw
// has not run yet. The drawExecuted transition is an atomic compare-and-set,
// so when two callers race exactly one allocates; the loser gets an
// invalid_state error and has performed no side effects. There is no partial
// draw state: allocation completes in full or does not start.
func (e *DrawEngine) ExecuteDraw(stockID string, refundLosers bool) (*models.DrawResult, error) {
	stock, ok := e.Ledger.FindStock(stockID)
	if !ok {
		e.Metrics.RecordRequest(false)
		return nil, shared.NewNotFoundError("IPO_NOT_FOUND", "Stock not found", "executeDraw")
	}
	if !stock.IsExpired(time.Now()) {
		e.Metrics.RecordRequest(false)
		return nil, shared.NewInvalidStateError("DRAW_TOO_EARLY", "Cannot draw before deadline", "executeDraw")
	}
	if !stock.MarkDrawExecuted() {
		e.Metrics.RecordRequest(false)
		return nil, shared.NewInvalidStateError("DRAW_ALREADY_EXECUTED", "Draw already executed", "executeDraw")
	}

	pending := e.Ledger.FindPendingByStock(stockID)
	e.shuffle(pending)

	remaining := stock.TotalQuantity
	winners := 0
	losers := 0

	for _, record := range pending {
		if remaining >= record.Quantity {
			record.MarkWon()
			winners++
			remaining -= record.Quantity
			continue
		}
		record.MarkLost()
		losers++
		if refundLosers {
			if investor, found := e.Ledger.FindInvestor(record.InvestorID); found {
				investor.AddBalance(record.TotalCost())
			}
		}
	}

	// No further applications can arrive for a drawn offering; release its
	// per-pair lock entries to keep the registry bounded.
	e.Locks.EvictStock(stockID)

	result := &models.DrawResult{
		AllocatedLots: stock.TotalQuantity - remaining,
		TotalPending:  len(pending),
		Winners:       winners,
		Losers:        losers,
	}

	e.Metrics.RecordRequest(true)
	logrus.WithFields(logrus.Fields{
		"stock_id":       stockID,
		"stock_name":     stock.StockName,
		"allocated_lots": result.AllocatedLots,
		"total_pending":  result.TotalPending,
		"winners":        result.Winners,
		"losers":         result.Losers,
		"refund_losers":  refundLosers,
	}).Info("Draw executed")

	return result, nil
}

// shuffle produces a uniformly random permutation (Fisher-Yates) so the
// allocation order is not predictable from application order or identifiers.
func (e *DrawEngine) shuffle(records []*models.ApplicationRecord) {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()
	e.rnd.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}
