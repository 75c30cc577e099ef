// Package analyzer classifies node utilization into optimization
// opportunity lists. It is a pure function over a metrics snapshot and
// never calls out to the cluster.
package analyzer

import (
	"log/slog"

	"github.com/opscart/eks-cost-agent/pkg/models"
	"github.com/opscart/eks-cost-agent/pkg/pricing"
)

// InstanceOpportunity is one classified instance. Not every field is
// populated by every list.
type InstanceOpportunity struct {
	InstanceID         string  `json:"instance_id"`
	InstanceType       string  `json:"instance_type"`
	CPUUtilization     float64 `json:"cpu_utilization"`
	MemoryUtilization  float64 `json:"memory_utilization"`
	RecommendedType    string  `json:"recommended_type,omitempty"`
	RecommendedUpgrade string  `json:"recommended_upgrade,omitempty"`
	EstimatedSavings   float64 `json:"estimated_savings,omitempty"`
}

// UsageAnalysis holds the four opportunity lists. The lists are not
// mutually exclusive: an instance may legitimately appear in several.
// Deduplication and prioritization happen downstream in the
// recommendation engine.
type UsageAnalysis struct {
	Underutilized          []InstanceOpportunity `json:"underutilized_instances"`
	Overutilized           []InstanceOpportunity `json:"overutilized_instances"`
	SpotOpportunities      []InstanceOpportunity `json:"spot_opportunities"`
	RightSizeOpportunities []InstanceOpportunity `json:"right_sizing_opportunities"`
}

// Analyzer derives opportunity lists from a snapshot.
type Analyzer struct {
	table *pricing.Table
}

// New creates an analyzer backed by the given pricing table.
func New(table *pricing.Table) *Analyzer {
	return &Analyzer{table: table}
}

// AnalyzeUsage classifies every node in the snapshot. Utilization is on
// the 0-100 percent scale. A snapshot with no node metrics yields empty
// lists rather than an error.
func (a *Analyzer) AnalyzeUsage(snapshot *models.MetricsSnapshot) *UsageAnalysis {
	analysis := &UsageAnalysis{
		Underutilized:          []InstanceOpportunity{},
		Overutilized:           []InstanceOpportunity{},
		SpotOpportunities:      []InstanceOpportunity{},
		RightSizeOpportunities: []InstanceOpportunity{},
	}
	if snapshot == nil {
		return analysis
	}

	for _, node := range snapshot.NodeMetrics {
		cpu := node.CPUUtilization
		mem := node.MemoryUtilization

		if cpu < 20 && mem < 30 {
			analysis.Underutilized = append(analysis.Underutilized, InstanceOpportunity{
				InstanceID:        node.InstanceID,
				InstanceType:      node.InstanceType,
				CPUUtilization:    cpu,
				MemoryUtilization: mem,
				EstimatedSavings:  a.downsizeSavings(node.InstanceType, cpu),
			})
		}

		if cpu > 80 || mem > 85 {
			analysis.Overutilized = append(analysis.Overutilized, InstanceOpportunity{
				InstanceID:         node.InstanceID,
				InstanceType:       node.InstanceType,
				CPUUtilization:     cpu,
				MemoryUtilization:  mem,
				RecommendedUpgrade: a.table.Larger(node.InstanceType),
			})
		}

		if !node.SpotInstance && cpu < 50 && mem < 60 {
			analysis.SpotOpportunities = append(analysis.SpotOpportunities, InstanceOpportunity{
				InstanceID:        node.InstanceID,
				InstanceType:      node.InstanceType,
				CPUUtilization:    cpu,
				MemoryUtilization: mem,
				EstimatedSavings:  a.table.MonthlySpotSavings(node.InstanceType),
			})
		}

		if cpu >= 20 && cpu <= 60 && mem >= 30 && mem <= 70 {
			optimal := a.table.Optimal(cpu, mem)
			if optimal != node.InstanceType {
				analysis.RightSizeOpportunities = append(analysis.RightSizeOpportunities, InstanceOpportunity{
					InstanceID:        node.InstanceID,
					InstanceType:      node.InstanceType,
					CPUUtilization:    cpu,
					MemoryUtilization: mem,
					RecommendedType:   optimal,
					EstimatedSavings:  a.table.MonthlySavings(node.InstanceType, optimal),
				})
			}
		}
	}

	slog.Info("usage analysis completed",
		"underutilized", len(analysis.Underutilized),
		"overutilized", len(analysis.Overutilized),
		"spot_opportunities", len(analysis.SpotOpportunities),
		"right_sizing", len(analysis.RightSizeOpportunities),
	)

	return analysis
}

// downsizeSavings is the monthly saving of stepping one size down the
// ladder, zero when there is no smaller type or CPU is not low enough.
func (a *Analyzer) downsizeSavings(instanceType string, cpuUtil float64) float64 {
	if cpuUtil >= 30 {
		return 0
	}
	smaller := a.table.Smaller(instanceType)
	if smaller == "" {
		return 0
	}
	return a.table.MonthlySavings(instanceType, smaller)
}
