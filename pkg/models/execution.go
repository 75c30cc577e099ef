package models

import "time"

// ExecutionResult is the outcome of one execution attempt.
type ExecutionResult struct {
	Recommendation   Recommendation `json:"recommendation"`
	Success          bool           `json:"success"`
	Error            string         `json:"error,omitempty"`
	EstimatedSavings float64        `json:"estimated_savings"`
}

// ExecutionReport aggregates all per-recommendation outcomes of a cycle.
type ExecutionReport struct {
	Executed              []ExecutionResult `json:"executed"`
	Skipped               []ExecutionResult `json:"skipped"`
	Failed                []ExecutionResult `json:"failed"`
	TotalSavingsEstimated float64           `json:"total_savings_estimated"`
}

// CycleResult is the top-level outcome of one optimization cycle. A
// cycle never propagates an error to its caller; residual failures
// surface here as Success=false plus Error.
type CycleResult struct {
	CycleID          string           `json:"cycle_id"`
	Success          bool             `json:"success"`
	Error            string           `json:"error,omitempty"`
	StartedAt        time.Time        `json:"started_at"`
	Duration         time.Duration    `json:"duration"`
	Metrics          *MetricsSnapshot `json:"metrics,omitempty"`
	Analysis         *AIAnalysis      `json:"analysis,omitempty"`
	Recommendations  []Recommendation `json:"recommendations,omitempty"`
	ExecutionResults *ExecutionReport `json:"execution_results,omitempty"`
}

// AuditRecord is the write-once record persisted after every cycle.
// Its JSON layout is the only semi-stable external contract.
type AuditRecord struct {
	Timestamp        time.Time        `json:"timestamp"`
	Metrics          *MetricsSnapshot `json:"metrics"`
	Analysis         *AIAnalysis      `json:"analysis"`
	ExecutionResults *ExecutionReport `json:"execution_results"`
}
