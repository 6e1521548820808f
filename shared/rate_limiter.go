package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// OperationRateLimiter implements thread-safe pacing between operations.
// The draw scheduler uses it to space out consecutive draw executions.
type OperationRateLimiter struct {
	minimumDelay   time.Duration // Minimum delay between operations
	lastOpTime     time.Time     // Timestamp of the last operation
	mutex          sync.Mutex    // Ensures thread-safe access
	operationCount int64         // Total number of operations processed
}

// NewOperationRateLimiter creates a new rate limiter with the specified minimum delay
func NewOperationRateLimiter(minimumDelay time.Duration) *OperationRateLimiter {
	return &OperationRateLimiter{
		minimumDelay: minimumDelay,
		lastOpTime:   time.Now(),
	}
}

// EnforceRateLimit blocks execution until the minimum delay has elapsed since the last operation
func (limiter *OperationRateLimiter) EnforceRateLimit() {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	elapsedTime := time.Since(limiter.lastOpTime)
	if elapsedTime < limiter.minimumDelay {
		remainingDelay := limiter.minimumDelay - elapsedTime

		logrus.WithFields(logrus.Fields{
			"component":       "OperationRateLimiter",
			"elapsed_time":    elapsedTime,
			"minimum_delay":   limiter.minimumDelay,
			"remaining_delay": remainingDelay,
			"operation_count": limiter.operationCount + 1,
		}).Debug("Enforcing rate limit delay")

		time.Sleep(remainingDelay)
	}

	limiter.lastOpTime = time.Now()
	limiter.operationCount++
}

// GetOperationCount returns the total number of operations processed
func (limiter *OperationRateLimiter) GetOperationCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.operationCount
}

// Reset resets the rate limiter state
func (limiter *OperationRateLimiter) Reset() {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	limiter.lastOpTime = time.Now()
	limiter.operationCount = 0
}
