// Package agent runs the optimization control loop: collect metrics,
// analyze usage, consult the AI advisor, generate recommendations,
// execute the gated ones and persist an audit record.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opscart/eks-cost-agent/pkg/analyzer"
	"github.com/opscart/eks-cost-agent/pkg/audit"
	"github.com/opscart/eks-cost-agent/pkg/models"
)

// MetricsCollector assembles the per-cycle snapshot.
type MetricsCollector interface {
	Collect(ctx context.Context) *models.MetricsSnapshot
}

// UsageAnalyzer classifies node utilization.
type UsageAnalyzer interface {
	AnalyzeUsage(snapshot *models.MetricsSnapshot) *analyzer.UsageAnalysis
}

// AIAdvisor produces a validated analysis for the snapshot.
type AIAdvisor interface {
	Analyze(ctx context.Context, snapshot *models.MetricsSnapshot) *models.AIAnalysis
}

// RecommendationEngine turns a snapshot and analysis into actions.
type RecommendationEngine interface {
	GenerateRecommendations(snapshot *models.MetricsSnapshot, analysis *models.AIAnalysis) []models.Recommendation
}

// ExecutionCoordinator applies recommendations.
type ExecutionCoordinator interface {
	Execute(ctx context.Context, recommendations []models.Recommendation) *models.ExecutionReport
}

// Deps wires the pipeline stages into an agent. Sink and Metrics may be
// nil; auditing and self-metrics are then disabled.
type Deps struct {
	Collector MetricsCollector
	Analyzer  UsageAnalyzer
	Advisor   AIAdvisor
	Engine    RecommendationEngine
	Executor  ExecutionCoordinator
	Sink      audit.Sink
	Metrics   *Metrics
	Interval  time.Duration
}

// Agent owns the optimization loop.
type Agent struct {
	deps Deps
}

// New creates an agent from its wired dependencies.
func New(deps Deps) *Agent {
	return &Agent{deps: deps}
}

// Run executes cycles on the configured interval until the context is
// cancelled. The first cycle starts immediately. Ticks that arrive
// while a cycle is still running are dropped, so at most one cycle is
// ever in flight.
func (a *Agent) Run(ctx context.Context) error {
	slog.Info("cost optimization agent started", "interval", a.deps.Interval)

	a.RunCycle(ctx)

	ticker := time.NewTicker(a.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cost optimization agent stopping")
			return ctx.Err()
		case <-ticker.C:
			a.RunCycle(ctx)
		}
	}
}

// RunCycle executes one full optimization cycle. It never returns an
// error: any failure, including a panic in a pipeline stage, lands in
// the result as Success=false so the loop always reaches the next tick.
func (a *Agent) RunCycle(ctx context.Context) (result *models.CycleResult) {
	start := time.Now()
	result = &models.CycleResult{
		CycleID:   uuid.NewString(),
		StartedAt: start.UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("cycle panic: %v", r)
		}
		result.Duration = time.Since(start)
		a.deps.Metrics.observeCycle(result)

		if result.Success {
			slog.Info("optimization cycle completed",
				"cycle", result.CycleID,
				"duration", result.Duration,
				"recommendations", len(result.Recommendations))
		} else {
			slog.Error("optimization cycle failed",
				"cycle", result.CycleID,
				"duration", result.Duration,
				"error", result.Error)
		}
	}()

	slog.Info("optimization cycle started", "cycle", result.CycleID)

	snapshot := a.deps.Collector.Collect(ctx)
	result.Metrics = snapshot

	usage := a.deps.Analyzer.AnalyzeUsage(snapshot)
	a.deps.Metrics.observeUsage(usage)

	analysis := a.deps.Advisor.Analyze(ctx, snapshot)
	result.Analysis = analysis

	recommendations := a.deps.Engine.GenerateRecommendations(snapshot, analysis)
	result.Recommendations = recommendations

	report := a.deps.Executor.Execute(ctx, recommendations)
	result.ExecutionResults = report
	result.Success = true

	// Auditing is best-effort: a sink failure is logged but never
	// fails the cycle that produced the record.
	if a.deps.Sink != nil {
		record := &models.AuditRecord{
			Timestamp:        result.StartedAt,
			Metrics:          snapshot,
			Analysis:         analysis,
			ExecutionResults: report,
		}
		if err := a.deps.Sink.Persist(ctx, record); err != nil {
			slog.Error("audit persistence failed", "cycle", result.CycleID, "error", err)
		}
	}

	return result
}
