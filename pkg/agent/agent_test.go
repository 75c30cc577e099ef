package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opscart/eks-cost-agent/pkg/analyzer"
	"github.com/opscart/eks-cost-agent/pkg/models"
)

type fakeCollector struct{ snapshot *models.MetricsSnapshot }

func (f *fakeCollector) Collect(ctx context.Context) *models.MetricsSnapshot {
	return f.snapshot
}

type fakeAnalyzer struct{ usage *analyzer.UsageAnalysis }

func (f *fakeAnalyzer) AnalyzeUsage(snapshot *models.MetricsSnapshot) *analyzer.UsageAnalysis {
	if f.usage != nil {
		return f.usage
	}
	return &analyzer.UsageAnalysis{}
}

type fakeAdvisor struct{ analysis *models.AIAnalysis }

func (f *fakeAdvisor) Analyze(ctx context.Context, snapshot *models.MetricsSnapshot) *models.AIAnalysis {
	return f.analysis
}

type fakeEngine struct {
	recommendations []models.Recommendation
	panicWith       string
}

func (f *fakeEngine) GenerateRecommendations(snapshot *models.MetricsSnapshot, analysis *models.AIAnalysis) []models.Recommendation {
	if f.panicWith != "" {
		panic(f.panicWith)
	}
	return f.recommendations
}

type fakeExecutor struct{ report *models.ExecutionReport }

func (f *fakeExecutor) Execute(ctx context.Context, recommendations []models.Recommendation) *models.ExecutionReport {
	return f.report
}

type fakeSink struct {
	records []*models.AuditRecord
	err     error
}

func (f *fakeSink) Persist(ctx context.Context, record *models.AuditRecord) error {
	f.records = append(f.records, record)
	return f.err
}

func testDeps(engine *fakeEngine, sink *fakeSink) Deps {
	return Deps{
		Collector: &fakeCollector{snapshot: models.NewSnapshot("test-cluster", time.Now())},
		Analyzer:  &fakeAnalyzer{},
		Advisor:   &fakeAdvisor{analysis: &models.AIAnalysis{ConfidenceScore: 0.8}},
		Engine:    engine,
		Executor: &fakeExecutor{report: &models.ExecutionReport{
			Executed:              []models.ExecutionResult{},
			Skipped:               []models.ExecutionResult{},
			Failed:                []models.ExecutionResult{},
			TotalSavingsEstimated: 42.0,
		}},
		Sink:     sink,
		Metrics:  NewMetrics(prometheus.NewRegistry()),
		Interval: time.Minute,
	}
}

func TestRunCycleHappyPath(t *testing.T) {
	engine := &fakeEngine{recommendations: []models.Recommendation{
		{ActionType: models.ActionScalePods, ConfidenceScore: 0.8},
	}}
	sink := &fakeSink{}
	a := New(testDeps(engine, sink))

	result := a.RunCycle(context.Background())

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.CycleID == "" {
		t.Error("cycle must be assigned an ID")
	}
	if result.Metrics == nil || result.Analysis == nil || result.ExecutionResults == nil {
		t.Error("all pipeline outputs must be attached to the result")
	}
	if len(result.Recommendations) != 1 {
		t.Errorf("expected 1 recommendation, got %d", len(result.Recommendations))
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if !record.Timestamp.Equal(result.StartedAt) {
		t.Error("audit record must carry the cycle start time")
	}
	if record.Metrics != result.Metrics || record.ExecutionResults != result.ExecutionResults {
		t.Error("audit record must reference the cycle's own outputs")
	}
}

func TestRunCycleContainsPanics(t *testing.T) {
	a := New(testDeps(&fakeEngine{panicWith: "nil map write"}, &fakeSink{}))

	result := a.RunCycle(context.Background())

	if result == nil {
		t.Fatal("a panicking cycle must still produce a result")
	}
	if result.Success {
		t.Error("panicked cycle must not report success")
	}
	if !strings.Contains(result.Error, "cycle panic") || !strings.Contains(result.Error, "nil map write") {
		t.Errorf("panic must be captured in the error, got %q", result.Error)
	}
	if result.Duration <= 0 {
		t.Error("duration must be recorded even on failure")
	}
}

func TestAuditFailureDoesNotFailCycle(t *testing.T) {
	sink := &fakeSink{err: errors.New("bucket does not exist")}
	a := New(testDeps(&fakeEngine{}, sink))

	result := a.RunCycle(context.Background())

	if !result.Success {
		t.Errorf("audit failure must not fail the cycle, got error %q", result.Error)
	}
}

func TestRunCycleIDsAreUnique(t *testing.T) {
	a := New(testDeps(&fakeEngine{}, &fakeSink{}))

	first := a.RunCycle(context.Background())
	second := a.RunCycle(context.Background())

	if first.CycleID == second.CycleID {
		t.Errorf("cycle IDs must be unique, both were %q", first.CycleID)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a := New(testDeps(&fakeEngine{}, &fakeSink{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
