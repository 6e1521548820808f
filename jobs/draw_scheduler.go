package jobs

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tradesystem/ipo-simulation/services"
	"github.com/tradesystem/ipo-simulation/shared"
)

// DrawSchedulerJob periodically executes the draw for offerings whose
// deadline has passed. The manual admin trigger stays available; the
// compare-and-set inside the draw engine makes the two safe to race.
type DrawSchedulerJob struct {
	AdminService *services.AdminService
	RateLimiter  *shared.OperationRateLimiter
	RefundLosers bool
}

func NewDrawSchedulerJob(adminService *services.AdminService, refundLosers bool) *DrawSchedulerJob {
	return &DrawSchedulerJob{
		AdminService: adminService,
		RateLimiter:  shared.NewOperationRateLimiter(200 * time.Millisecond),
		RefundLosers: refundLosers,
	}
}

// Run scans all offerings and draws every expired one not yet drawn.
func (j *DrawSchedulerJob) Run() {
	logrus.Info("Starting draw scheduler run")
	now := time.Now()
	executed := 0

	for _, stock := range j.AdminService.ListAllIPOs() {
		if !stock.IsExpired(now) || stock.IsDrawExecuted() {
			continue
		}

		j.RateLimiter.EnforceRateLimit()
		result, err := j.AdminService.ExecuteDraw(stock.StockID, j.RefundLosers)
		if err != nil {
			// Losing the race against a manual trigger lands here; nothing to do.
			if shared.IsInvalidState(err) {
				continue
			}
			logrus.WithFields(logrus.Fields{
				"stock_id": stock.StockID,
				"error":    err.Error(),
			}).Error("Scheduled draw failed")
			continue
		}

		executed++
		logrus.WithFields(logrus.Fields{
			"stock_id":       stock.StockID,
			"allocated_lots": result.AllocatedLots,
			"winners":        result.Winners,
			"losers":         result.Losers,
		}).Info("Scheduled draw completed")
	}

	logrus.WithField("draws_executed", executed).Info("Draw scheduler run completed")
}
