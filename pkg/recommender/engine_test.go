package recommender

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/opscart/eks-cost-agent/pkg/models"
	"github.com/opscart/eks-cost-agent/pkg/pricing"
)

// offPeak is a fixed clock inside the 2-6 AM UTC scheduling window.
func offPeak() time.Time {
	return time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
}

// midday is a fixed clock outside the scheduling window.
func midday() time.Time {
	return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
}

func newEngine(now func() time.Time) *Engine {
	return NewWithClock(pricing.NewTable(nil), now)
}

func emptySnapshot() *models.MetricsSnapshot {
	return models.NewSnapshot("test-cluster", midday())
}

func TestScaleDownNeverBelowOneReplica(t *testing.T) {
	e := newEngine(midday)

	for _, replicas := range []int32{2, 3, 10} {
		s := emptySnapshot()
		s.PodMetrics.Deployments["app"] = models.DeploymentMetric{
			Namespace: "default", Replicas: replicas, CPUUsage: 0.1, MemoryUsage: 0.1,
		}
		recs := e.GenerateRecommendations(s, nil)
		if len(recs) != 1 {
			t.Fatalf("replicas=%d: expected 1 recommendation, got %d", replicas, len(recs))
		}
		if recs[0].ScalePods.TargetReplicas < 1 {
			t.Errorf("replicas=%d: target dropped below 1", replicas)
		}
		if recs[0].ScalePods.TargetReplicas != replicas-1 {
			t.Errorf("replicas=%d: expected target %d, got %d", replicas, replicas-1, recs[0].ScalePods.TargetReplicas)
		}
	}
}

func TestSingleReplicaNeverScaledDown(t *testing.T) {
	e := newEngine(midday)

	s := emptySnapshot()
	s.PodMetrics.Deployments["app"] = models.DeploymentMetric{
		Namespace: "default", Replicas: 1, CPUUsage: 0.05, MemoryUsage: 0.05,
	}
	if recs := e.GenerateRecommendations(s, nil); len(recs) != 0 {
		t.Errorf("expected no recommendation for a single idle replica, got %d", len(recs))
	}
}

func TestScaleUpIsCostNeutralAndHighPriority(t *testing.T) {
	e := newEngine(midday)

	s := emptySnapshot()
	s.PodMetrics.Deployments["hot-app"] = models.DeploymentMetric{
		Namespace: "prod", Replicas: 3, CPUUsage: 0.9, MemoryUsage: 0.5,
	}
	recs := e.GenerateRecommendations(s, nil)
	if len(recs) != 1 {
		t.Fatalf("expected exactly 1 recommendation, got %d", len(recs))
	}
	rec := recs[0]
	if rec.ActionType != models.ActionScalePods || rec.ScalePods.TargetReplicas != 4 {
		t.Errorf("expected scale up to 4 replicas, got %+v", rec)
	}
	if rec.EstimatedSavings != 0 {
		t.Errorf("scale up must be cost neutral, got %v", rec.EstimatedSavings)
	}
	if rec.Priority != models.PriorityHigh || rec.ConfidenceScore != 0.9 {
		t.Errorf("expected high priority, confidence 0.9: %+v", rec)
	}
}

func TestRightSizeAndSpotBothPresentIndependently(t *testing.T) {
	e := newEngine(midday)

	s := emptySnapshot()
	s.NodeMetrics["i-abc"] = models.NodeMetric{
		InstanceID: "i-abc", InstanceType: "t3.large",
		CPUUtilization: 15, MemoryUtilization: 20, HourlyCost: 0.0832,
	}
	recs := e.GenerateRecommendations(s, nil)

	var rightSize, spot *models.Recommendation
	for i := range recs {
		switch recs[i].ActionType {
		case models.ActionRightSizeInstance:
			rightSize = &recs[i]
		case models.ActionMigrateToSpot:
			spot = &recs[i]
		}
	}

	if rightSize == nil {
		t.Fatal("expected a right-sizing recommendation")
	}
	if rightSize.RightSize.TargetInstanceType != "t3.medium" {
		t.Errorf("expected t3.medium target, got %s", rightSize.RightSize.TargetInstanceType)
	}
	if math.Abs(rightSize.EstimatedSavings-29.952) > 0.01 {
		t.Errorf("expected monthly savings ~29.95, got %v", rightSize.EstimatedSavings)
	}

	if spot == nil {
		t.Fatal("expected a spot migration recommendation")
	}
	if math.Abs(spot.EstimatedSavings-35.9424) > 0.01 {
		t.Errorf("expected monthly savings ~35.94, got %v", spot.EstimatedSavings)
	}
}

func TestUpgradeReportsNegativeSavings(t *testing.T) {
	e := newEngine(midday)

	s := emptySnapshot()
	s.NodeMetrics["i-hot"] = models.NodeMetric{
		InstanceID: "i-hot", InstanceType: "t3.large",
		CPUUtilization: 90, MemoryUtilization: 60,
	}
	recs := e.GenerateRecommendations(s, nil)

	var upgrade *models.Recommendation
	for i := range recs {
		if recs[i].ActionType == models.ActionRightSizeInstance {
			upgrade = &recs[i]
		}
	}
	if upgrade == nil {
		t.Fatal("expected an upgrade recommendation")
	}
	if upgrade.RightSize.TargetInstanceType != "t3.xlarge" {
		t.Errorf("expected t3.xlarge, got %s", upgrade.RightSize.TargetInstanceType)
	}
	if upgrade.EstimatedSavings >= 0 {
		t.Errorf("upgrade must encode a cost increase as negative savings, got %v", upgrade.EstimatedSavings)
	}
	if upgrade.Priority != models.PriorityHigh {
		t.Errorf("safety upgrades are high priority, got %s", upgrade.Priority)
	}
}

func TestSchedulingOnlyInOffPeakWindow(t *testing.T) {
	s := emptySnapshot()
	s.CostMetrics.DailyAverageCost = 240.0

	if recs := newEngine(midday).GenerateRecommendations(s, nil); len(recs) != 0 {
		t.Errorf("expected no scheduling recommendation at midday, got %d", len(recs))
	}

	recs := newEngine(offPeak).GenerateRecommendations(s, nil)
	if len(recs) != 1 || recs[0].ActionType != models.ActionScheduleWorkload {
		t.Fatalf("expected one scheduling recommendation in window, got %+v", recs)
	}
	if math.Abs(recs[0].EstimatedSavings-24.0) > 1e-9 {
		t.Errorf("expected 10%% of daily average, got %v", recs[0].EstimatedSavings)
	}

	// Hour 6 is outside the half-open window.
	atSix := func() time.Time { return time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC) }
	if recs := newEngine(atSix).GenerateRecommendations(s, nil); len(recs) != 0 {
		t.Errorf("hour 6 must not fire the scheduling heuristic")
	}
}

func TestOrderingDeterministicAndStable(t *testing.T) {
	build := func() []models.Recommendation {
		e := newEngine(midday)
		s := emptySnapshot()
		s.NodeMetrics["i-a"] = models.NodeMetric{InstanceID: "i-a", InstanceType: "t3.large", CPUUtilization: 15, MemoryUtilization: 20}
		s.NodeMetrics["i-b"] = models.NodeMetric{InstanceID: "i-b", InstanceType: "t3.xlarge", CPUUtilization: 10, MemoryUtilization: 15}
		s.PodMetrics.Deployments["idle"] = models.DeploymentMetric{Namespace: "default", Replicas: 4, CPUUsage: 0.1, MemoryUsage: 0.1}
		s.PodMetrics.Deployments["hot"] = models.DeploymentMetric{Namespace: "default", Replicas: 2, CPUUsage: 0.95, MemoryUsage: 0.4}
		return e.GenerateRecommendations(s, nil)
	}

	first := build()
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(first, build()) {
			t.Fatal("identical inputs must yield identical ordered output")
		}
	}

	// Priority dominates savings.
	if first[0].Priority != models.PriorityHigh {
		t.Errorf("expected high priority first, got %s", first[0].Priority)
	}
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.Priority.Weight() < cur.Priority.Weight() {
			t.Errorf("priority order violated at %d", i)
		}
		if prev.Priority.Weight() == cur.Priority.Weight() && prev.EstimatedSavings < cur.EstimatedSavings {
			t.Errorf("savings tie-break violated at %d", i)
		}
	}
}

func TestApplyInsightsBoostAndMultiplier(t *testing.T) {
	e := newEngine(midday)
	s := emptySnapshot()
	s.NodeMetrics["i-a"] = models.NodeMetric{InstanceID: "i-a", InstanceType: "t3.large", CPUUtilization: 15, MemoryUtilization: 20}
	s.PodMetrics.Deployments["hot"] = models.DeploymentMetric{Namespace: "default", Replicas: 2, CPUUsage: 0.95, MemoryUsage: 0.4}

	baseline := e.GenerateRecommendations(s, nil)

	analysis := &models.AIAnalysis{
		RecommendationConfidence: 0.9,
		SavingsMultiplier:        2.0,
		Reasoning:                "sustained low utilization over the window",
	}
	boosted := e.GenerateRecommendations(s, analysis)

	if len(boosted) != len(baseline) {
		t.Fatalf("insight merge must not add or drop recommendations")
	}
	for i := range boosted {
		wantConf := math.Min(1.0, baseline[i].ConfidenceScore*1.1)
		if math.Abs(boosted[i].ConfidenceScore-wantConf) > 1e-9 {
			t.Errorf("rec %d: expected confidence %v, got %v", i, wantConf, boosted[i].ConfidenceScore)
		}
		if math.Abs(boosted[i].EstimatedSavings-baseline[i].EstimatedSavings*2) > 1e-9 {
			t.Errorf("rec %d: expected doubled savings", i)
		}
		if boosted[i].AIReasoning != analysis.Reasoning {
			t.Errorf("rec %d: reasoning not attached", i)
		}
	}

	// Confidence 0.9 boosted by 1.1 caps at 1.0.
	for _, rec := range boosted {
		if rec.ConfidenceScore > 1.0 {
			t.Errorf("confidence exceeded cap: %v", rec.ConfidenceScore)
		}
	}
}

func TestApplyInsightsDefaultsAreNoOps(t *testing.T) {
	e := newEngine(midday)
	s := emptySnapshot()
	s.NodeMetrics["i-a"] = models.NodeMetric{InstanceID: "i-a", InstanceType: "t3.large", CPUUtilization: 15, MemoryUtilization: 20}

	baseline := e.GenerateRecommendations(s, nil)
	// Low aggregate confidence and an absent multiplier change nothing.
	unchanged := e.GenerateRecommendations(s, &models.AIAnalysis{RecommendationConfidence: 0.5})

	if len(baseline) != len(unchanged) {
		t.Fatal("length mismatch")
	}
	for i := range baseline {
		if baseline[i].ConfidenceScore != unchanged[i].ConfidenceScore {
			t.Errorf("rec %d: confidence changed without a boost trigger", i)
		}
		if baseline[i].EstimatedSavings != unchanged[i].EstimatedSavings {
			t.Errorf("rec %d: savings changed without a multiplier", i)
		}
	}
}
