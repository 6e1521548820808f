package shared

import (
	"sync"
	"time"
)

// ServiceMetrics tracks request counts and success rate for a service
type ServiceMetrics struct {
	ServiceName        string    `json:"service_name"`
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	LastUpdated        time.Time `json:"last_updated"`
	mutex              sync.RWMutex
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		ServiceName: serviceName,
		LastUpdated: time.Now(),
	}
}

// RecordRequest records a request with its success status
func (m *ServiceMetrics) RecordRequest(success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRequests++
	if success {
		m.SuccessfulRequests++
	} else {
		m.FailedRequests++
	}
	m.LastUpdated = time.Now()
}

// GetSuccessRate returns the success rate as a percentage
func (m *ServiceMetrics) GetSuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.TotalRequests == 0 {
		return 0.0
	}
	return float64(m.SuccessfulRequests) / float64(m.TotalRequests) * 100.0
}

// Snapshot returns a copy safe for serialization
func (m *ServiceMetrics) Snapshot() ServiceMetrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return ServiceMetrics{
		ServiceName:        m.ServiceName,
		TotalRequests:      m.TotalRequests,
		SuccessfulRequests: m.SuccessfulRequests,
		FailedRequests:     m.FailedRequests,
		LastUpdated:        m.LastUpdated,
	}
}
