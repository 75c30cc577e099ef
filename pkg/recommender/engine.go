// Package recommender turns a metrics snapshot plus an optional AI
// analysis into a ranked, confidence-scored list of discrete actions.
// Every recommendation is independently executable: applying one never
// requires another to have run first.
package recommender

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/opscart/eks-cost-agent/pkg/models"
	"github.com/opscart/eks-cost-agent/pkg/pricing"
)

// Per-replica resource assumptions used for pod scaling savings.
const (
	cpuCoresPerReplica   = 0.5
	memoryGiBPerReplica  = 0.5
	cpuCostPerCoreHour   = 0.05
	memoryCostPerGiBHour = 0.01
)

// Engine generates recommendations. The clock is injectable so the
// off-peak scheduling window is testable.
type Engine struct {
	table *pricing.Table
	now   func() time.Time
}

// New creates an engine backed by the given pricing table.
func New(table *pricing.Table) *Engine {
	return &Engine{table: table, now: time.Now}
}

// NewWithClock creates an engine with a fixed clock source.
func NewWithClock(table *pricing.Table, now func() time.Time) *Engine {
	return &Engine{table: table, now: now}
}

// GenerateRecommendations runs every sub-generator, blends in the AI
// analysis, and returns the list ordered by (priority weight, estimated
// savings) descending. Generation order (pods, instances, spot,
// scheduling) is preserved for equal sort keys, so identical inputs
// always yield an identical list. A failing sub-generator contributes
// an empty list; the rest of the cycle continues.
func (e *Engine) GenerateRecommendations(snapshot *models.MetricsSnapshot, analysis *models.AIAnalysis) []models.Recommendation {
	recommendations := []models.Recommendation{}

	recommendations = append(recommendations, e.collect("pod_scaling", func() []models.Recommendation {
		return e.podScalingRecommendations(snapshot)
	})...)
	recommendations = append(recommendations, e.collect("instance_right_sizing", func() []models.Recommendation {
		return e.instanceRecommendations(snapshot)
	})...)
	recommendations = append(recommendations, e.collect("spot_migration", func() []models.Recommendation {
		return e.spotRecommendations(snapshot)
	})...)
	recommendations = append(recommendations, e.collect("workload_scheduling", func() []models.Recommendation {
		return e.schedulingRecommendations(snapshot)
	})...)

	recommendations = applyInsights(recommendations, analysis)

	sort.SliceStable(recommendations, func(i, j int) bool {
		wi, wj := recommendations[i].Priority.Weight(), recommendations[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return recommendations[i].EstimatedSavings > recommendations[j].EstimatedSavings
	})

	slog.Info("generated recommendations", "count", len(recommendations))
	return recommendations
}

// collect isolates one sub-generator: a panic is logged and converted
// into an empty contribution instead of aborting the cycle.
func (e *Engine) collect(name string, fn func() []models.Recommendation) (recs []models.Recommendation) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recommendation generator failed", "generator", name, "panic", r)
			recs = nil
		}
	}()
	return fn()
}

// podScalingRecommendations scales deployments by one replica in either
// direction. Usage values are fractions of requested resources.
func (e *Engine) podScalingRecommendations(snapshot *models.MetricsSnapshot) []models.Recommendation {
	var recs []models.Recommendation
	if snapshot == nil {
		return recs
	}

	for _, name := range sortedKeys(snapshot.PodMetrics.Deployments) {
		d := snapshot.PodMetrics.Deployments[name]
		namespace := d.Namespace
		if namespace == "" {
			namespace = "default"
		}

		switch {
		case d.Replicas > 1 && d.CPUUsage < 0.2 && d.MemoryUsage < 0.3:
			target := d.Replicas - 1
			if target < 1 {
				target = 1
			}
			recs = append(recs, models.Recommendation{
				ActionType:       models.ActionScalePods,
				Action:           fmt.Sprintf("Scale down %s from %d to %d replicas", name, d.Replicas, target),
				Reason:           "Low CPU and memory utilization",
				EstimatedSavings: podScalingSavings(d.Replicas, target),
				Priority:         models.PriorityMedium,
				ConfidenceScore:  0.8,
				RiskLevel:        models.RiskLow,
				ScalePods: &models.ScalePodsParams{
					DeploymentName: name,
					Namespace:      namespace,
					TargetReplicas: target,
				},
			})

		case d.CPUUsage > 0.8 || d.MemoryUsage > 0.85:
			target := d.Replicas + 1
			recs = append(recs, models.Recommendation{
				ActionType: models.ActionScalePods,
				Action:     fmt.Sprintf("Scale up %s from %d to %d replicas", name, d.Replicas, target),
				Reason:     "High CPU or memory utilization",
				// Scaling up costs money; it is surfaced for correctness,
				// not savings.
				EstimatedSavings: 0,
				Priority:         models.PriorityHigh,
				ConfidenceScore:  0.9,
				RiskLevel:        models.RiskLow,
				ScalePods: &models.ScalePodsParams{
					DeploymentName: name,
					Namespace:      namespace,
					TargetReplicas: target,
				},
			})
		}
	}
	return recs
}

// instanceRecommendations right-sizes nodes one step along the size
// ladder. Node utilization is on the percent scale and is compared as a
// fraction here.
func (e *Engine) instanceRecommendations(snapshot *models.MetricsSnapshot) []models.Recommendation {
	var recs []models.Recommendation
	if snapshot == nil {
		return recs
	}

	for _, key := range sortedKeys(snapshot.NodeMetrics) {
		node := snapshot.NodeMetrics[key]
		cpu := node.CPUUtilization / 100
		mem := node.MemoryUtilization / 100

		switch {
		case cpu < 0.3 && mem < 0.4:
			smaller := e.table.Smaller(node.InstanceType)
			if smaller == "" || smaller == node.InstanceType {
				continue
			}
			recs = append(recs, models.Recommendation{
				ActionType:       models.ActionRightSizeInstance,
				Action:           fmt.Sprintf("Right-size %s from %s to %s", node.InstanceID, node.InstanceType, smaller),
				Reason:           fmt.Sprintf("Low utilization (CPU: %.1f%%, Memory: %.1f%%)", node.CPUUtilization, node.MemoryUtilization),
				EstimatedSavings: e.table.MonthlySavings(node.InstanceType, smaller),
				Priority:         models.PriorityMedium,
				ConfidenceScore:  0.85,
				RiskLevel:        models.RiskMedium,
				RightSize: &models.RightSizeParams{
					InstanceID:          node.InstanceID,
					CurrentInstanceType: node.InstanceType,
					TargetInstanceType:  smaller,
				},
			})

		case cpu > 0.8 || mem > 0.85:
			larger := e.table.Larger(node.InstanceType)
			if larger == "" || larger == node.InstanceType {
				continue
			}
			recs = append(recs, models.Recommendation{
				ActionType: models.ActionRightSizeInstance,
				Action:     fmt.Sprintf("Upgrade %s from %s to %s", node.InstanceID, node.InstanceType, larger),
				Reason:     fmt.Sprintf("High utilization (CPU: %.1f%%, Memory: %.1f%%)", node.CPUUtilization, node.MemoryUtilization),
				// Negative savings: this upgrade deliberately costs money.
				EstimatedSavings: e.table.MonthlySavings(node.InstanceType, larger),
				Priority:         models.PriorityHigh,
				ConfidenceScore:  0.9,
				RiskLevel:        models.RiskLow,
				RightSize: &models.RightSizeParams{
					InstanceID:          node.InstanceID,
					CurrentInstanceType: node.InstanceType,
					TargetInstanceType:  larger,
				},
			})
		}
	}
	return recs
}

// spotRecommendations proposes spot migration for moderately loaded
// on-demand nodes, assuming spot runs at 40% of on-demand cost.
func (e *Engine) spotRecommendations(snapshot *models.MetricsSnapshot) []models.Recommendation {
	var recs []models.Recommendation
	if snapshot == nil {
		return recs
	}

	for _, key := range sortedKeys(snapshot.NodeMetrics) {
		node := snapshot.NodeMetrics[key]
		if node.SpotInstance {
			continue
		}
		cpu := node.CPUUtilization / 100
		mem := node.MemoryUtilization / 100
		if cpu >= 0.6 || mem >= 0.7 {
			continue
		}
		recs = append(recs, models.Recommendation{
			ActionType:       models.ActionMigrateToSpot,
			Action:           fmt.Sprintf("Migrate %s to spot instance", node.InstanceID),
			Reason:           fmt.Sprintf("Moderate utilization suitable for spot (CPU: %.1f%%, Memory: %.1f%%)", node.CPUUtilization, node.MemoryUtilization),
			EstimatedSavings: e.table.MonthlySpotSavings(node.InstanceType),
			Priority:         models.PriorityMedium,
			ConfidenceScore:  0.75,
			RiskLevel:        models.RiskMedium,
			SpotMigration: &models.SpotMigrationParams{
				InstanceID:   node.InstanceID,
				InstanceType: node.InstanceType,
			},
		})
	}
	return recs
}

// schedulingRecommendations fires only inside the off-peak window
// [02:00, 06:00) UTC. It is a coarse heuristic, not an idle-window
// analysis.
func (e *Engine) schedulingRecommendations(snapshot *models.MetricsSnapshot) []models.Recommendation {
	hour := e.now().UTC().Hour()
	if hour < 2 || hour >= 6 {
		return nil
	}
	var dailyAverage float64
	if snapshot != nil {
		dailyAverage = snapshot.CostMetrics.DailyAverageCost
	}
	return []models.Recommendation{{
		ActionType:       models.ActionScheduleWorkload,
		Action:           "Schedule batch jobs during off-peak hours",
		Reason:           "Current time is in off-peak window (2-6 AM UTC)",
		EstimatedSavings: dailyAverage * 0.1,
		Priority:         models.PriorityLow,
		ConfidenceScore:  0.6,
		RiskLevel:        models.RiskLow,
		Schedule:         &models.ScheduleParams{Window: "02:00-06:00 UTC"},
	}}
}

func podScalingSavings(current, target int32) float64 {
	diff := float64(current - target)
	hourly := diff * (cpuCoresPerReplica*cpuCostPerCoreHour + memoryGiBPerReplica*memoryCostPerGiBHour)
	return hourly * pricing.HoursPerMonth
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
