package analyzer

import (
	"testing"
	"time"

	"github.com/opscart/eks-cost-agent/pkg/models"
	"github.com/opscart/eks-cost-agent/pkg/pricing"
)

func snapshotWithNodes(nodes map[string]models.NodeMetric) *models.MetricsSnapshot {
	s := models.NewSnapshot("test-cluster", time.Now())
	s.NodeMetrics = nodes
	return s
}

func TestUnderutilizedClassification(t *testing.T) {
	a := New(pricing.NewTable(nil))

	analysis := a.AnalyzeUsage(snapshotWithNodes(map[string]models.NodeMetric{
		"i-1": {InstanceID: "i-1", InstanceType: "t3.large", CPUUtilization: 15, MemoryUtilization: 20},
		"i-2": {InstanceID: "i-2", InstanceType: "t3.large", CPUUtilization: 25, MemoryUtilization: 20},
	}))

	if len(analysis.Underutilized) != 1 {
		t.Fatalf("expected 1 underutilized instance, got %d", len(analysis.Underutilized))
	}
	if analysis.Underutilized[0].InstanceID != "i-1" {
		t.Errorf("expected i-1, got %s", analysis.Underutilized[0].InstanceID)
	}
}

func TestUnderutilizedAlsoSpotCandidate(t *testing.T) {
	a := New(pricing.NewTable(nil))

	// Lists are non-exclusive: a low-usage on-demand node lands in both.
	analysis := a.AnalyzeUsage(snapshotWithNodes(map[string]models.NodeMetric{
		"i-1": {InstanceID: "i-1", InstanceType: "t3.large", CPUUtilization: 15, MemoryUtilization: 20},
	}))

	if len(analysis.Underutilized) != 1 {
		t.Errorf("expected underutilized membership")
	}
	if len(analysis.SpotOpportunities) != 1 {
		t.Errorf("expected spot candidate membership")
	}
}

func TestOverutilizedEitherDimension(t *testing.T) {
	a := New(pricing.NewTable(nil))

	analysis := a.AnalyzeUsage(snapshotWithNodes(map[string]models.NodeMetric{
		"cpu-hot": {InstanceID: "cpu-hot", InstanceType: "t3.medium", CPUUtilization: 90, MemoryUtilization: 40},
		"mem-hot": {InstanceID: "mem-hot", InstanceType: "t3.large", CPUUtilization: 40, MemoryUtilization: 90},
		"ok":      {InstanceID: "ok", InstanceType: "t3.large", CPUUtilization: 70, MemoryUtilization: 75},
	}))

	if len(analysis.Overutilized) != 2 {
		t.Fatalf("expected 2 overutilized instances, got %d", len(analysis.Overutilized))
	}
	for _, op := range analysis.Overutilized {
		if op.RecommendedUpgrade == "" {
			t.Errorf("expected upgrade suggestion for %s", op.InstanceID)
		}
	}
}

func TestSpotExcludesExistingSpot(t *testing.T) {
	a := New(pricing.NewTable(nil))

	analysis := a.AnalyzeUsage(snapshotWithNodes(map[string]models.NodeMetric{
		"spot":     {InstanceID: "spot", InstanceType: "t3.large", CPUUtilization: 30, MemoryUtilization: 40, SpotInstance: true},
		"ondemand": {InstanceID: "ondemand", InstanceType: "t3.large", CPUUtilization: 30, MemoryUtilization: 40},
	}))

	if len(analysis.SpotOpportunities) != 1 {
		t.Fatalf("expected 1 spot opportunity, got %d", len(analysis.SpotOpportunities))
	}
	if analysis.SpotOpportunities[0].InstanceID != "ondemand" {
		t.Errorf("spot instances must not be re-recommended")
	}
}

func TestRightSizingRequiresDifferentOptimalType(t *testing.T) {
	a := New(pricing.NewTable(nil))

	analysis := a.AnalyzeUsage(snapshotWithNodes(map[string]models.NodeMetric{
		// In band, optimal (t3.medium) differs from current.
		"resize": {InstanceID: "resize", InstanceType: "t3.xlarge", CPUUtilization: 25, MemoryUtilization: 35},
		// In band, but already the optimal type.
		"keep": {InstanceID: "keep", InstanceType: "t3.medium", CPUUtilization: 25, MemoryUtilization: 35},
		// Out of band.
		"idle": {InstanceID: "idle", InstanceType: "t3.xlarge", CPUUtilization: 5, MemoryUtilization: 10},
	}))

	if len(analysis.RightSizeOpportunities) != 1 {
		t.Fatalf("expected 1 right-sizing opportunity, got %d", len(analysis.RightSizeOpportunities))
	}
	op := analysis.RightSizeOpportunities[0]
	if op.InstanceID != "resize" || op.RecommendedType != "t3.medium" {
		t.Errorf("unexpected opportunity %+v", op)
	}
	if op.EstimatedSavings <= 0 {
		t.Errorf("downsizing should save money, got %v", op.EstimatedSavings)
	}
}

func TestNilSnapshotYieldsEmptyLists(t *testing.T) {
	a := New(pricing.NewTable(nil))

	analysis := a.AnalyzeUsage(nil)
	if analysis == nil {
		t.Fatal("expected non-nil analysis")
	}
	if len(analysis.Underutilized)+len(analysis.Overutilized)+
		len(analysis.SpotOpportunities)+len(analysis.RightSizeOpportunities) != 0 {
		t.Errorf("expected all lists empty")
	}
}
