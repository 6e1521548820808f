package models

// ApplicationResult is the structured outcome of a subscription attempt.
// Business rejections (deadline, duplicate, sold out, funds) come back here
// with Success=false and the persisted failure record attached; they are
// never surfaced as errors.
type ApplicationResult struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Record  *ApplicationRecord `json:"record,omitempty"`
}

// DrawResult summarizes a completed lottery allocation.
type DrawResult struct {
	AllocatedLots int `json:"allocated_lots"`
	TotalPending  int `json:"total_pending"`
	Winners       int `json:"winners"`
	Losers        int `json:"losers"`
}
