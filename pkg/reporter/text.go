package reporter

import (
	"fmt"
	"io"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

func writeText(w io.Writer, result *models.CycleResult) error {
	status := "SUCCESS"
	if !result.Success {
		status = "FAILED"
	}

	fmt.Fprintf(w, "Optimization Cycle %s\n", result.CycleID)
	fmt.Fprintf(w, "Status: %s  Started: %s  Duration: %s\n",
		status, result.StartedAt.Format("2006-01-02 15:04:05 UTC"), result.Duration.Round(1e6))
	if result.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", result.Error)
	}

	if snapshot := result.Metrics; snapshot != nil {
		fmt.Fprintf(w, "\nCluster: %s  Nodes: %d  Deployments: %d  Daily cost: $%.2f\n",
			snapshot.ClusterName,
			len(snapshot.NodeMetrics),
			len(snapshot.PodMetrics.Deployments),
			snapshot.CostMetrics.DailyAverageCost)
	}

	if analysis := result.Analysis; analysis != nil {
		fmt.Fprintf(w, "AI confidence: %.2f  AI estimated savings: $%.2f/mo\n",
			analysis.ConfidenceScore, analysis.EstimatedSavings)
	}

	if len(result.Recommendations) == 0 {
		fmt.Fprintln(w, "\nNo recommendations.")
	} else {
		fmt.Fprintf(w, "\n%-22s %-32s %-8s %-6s %-12s\n",
			"Action", "Target", "Priority", "Conf", "Savings/mo")
		for i := range result.Recommendations {
			rec := &result.Recommendations[i]
			fmt.Fprintf(w, "%-22s %-32s %-8s %-6.2f $%-11.2f\n",
				rec.ActionType, actionTarget(rec), rec.Priority, rec.ConfidenceScore, rec.EstimatedSavings)
		}
	}

	if report := result.ExecutionResults; report != nil {
		fmt.Fprintf(w, "\nExecuted: %d  Skipped: %d  Failed: %d  Total estimated savings: $%.2f/mo\n",
			len(report.Executed), len(report.Skipped), len(report.Failed), report.TotalSavingsEstimated)
		for _, failure := range report.Failed {
			fmt.Fprintf(w, "  failed %s: %s\n", failure.Recommendation.ActionType, failure.Error)
		}
	}

	return nil
}
