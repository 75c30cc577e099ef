package reporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

func writeCSV(w io.Writer, result *models.CycleResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"Action",
		"Target",
		"Reason",
		"Priority",
		"Risk",
		"Confidence",
		"Monthly Savings ($)",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range result.Recommendations {
		rec := &result.Recommendations[i]
		row := []string{
			string(rec.ActionType),
			actionTarget(rec),
			rec.Reason,
			string(rec.Priority),
			string(rec.RiskLevel),
			fmt.Sprintf("%.2f", rec.ConfidenceScore),
			fmt.Sprintf("%.2f", rec.EstimatedSavings),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	if report := result.ExecutionResults; report != nil {
		cw.Write([]string{})
		cw.Write([]string{"SUMMARY"})
		cw.Write([]string{"Cycle", result.CycleID})
		cw.Write([]string{"Executed", fmt.Sprintf("%d", len(report.Executed))})
		cw.Write([]string{"Skipped", fmt.Sprintf("%d", len(report.Skipped))})
		cw.Write([]string{"Failed", fmt.Sprintf("%d", len(report.Failed))})
		cw.Write([]string{"Total Monthly Savings", fmt.Sprintf("$%.2f", report.TotalSavingsEstimated)})
	}

	return nil
}
