package reporter

import (
	"fmt"
	"html/template"
	"io"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>EKS Cost Agent Report - {{.Cycle.CycleID}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #333;
            padding: 20px;
            line-height: 1.6;
        }
        .container {
            max-width: 1100px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);
            padding: 30px 40px;
        }
        h1 { color: #1a4d8f; margin-bottom: 4px; }
        .meta { color: #777; margin-bottom: 24px; }
        .status-success { color: #1e7e34; font-weight: 600; }
        .status-failed { color: #c0392b; font-weight: 600; }
        table { width: 100%; border-collapse: collapse; margin: 16px 0; }
        th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #e3e8ee; }
        th { background: #f0f4f8; }
        .savings { text-align: right; }
        .summary { margin-top: 24px; font-size: 1.05em; }
    </style>
</head>
<body>
<div class="container">
    <h1>EKS Cost Optimization Report</h1>
    <div class="meta">
        Cycle {{.Cycle.CycleID}} &middot; {{.Cycle.StartedAt.Format "2006-01-02 15:04:05 UTC"}} &middot;
        {{if .Cycle.Success}}<span class="status-success">SUCCESS</span>{{else}}<span class="status-failed">FAILED</span>{{end}}
    </div>

    {{if .Cycle.Recommendations}}
    <table>
        <tr><th>Action</th><th>Target</th><th>Reason</th><th>Priority</th><th>Risk</th><th>Confidence</th><th class="savings">Savings/mo</th></tr>
        {{range .Rows}}
        <tr>
            <td>{{.ActionType}}</td>
            <td>{{.Target}}</td>
            <td>{{.Reason}}</td>
            <td>{{.Priority}}</td>
            <td>{{.Risk}}</td>
            <td>{{printf "%.2f" .Confidence}}</td>
            <td class="savings">{{printf "$%.2f" .Savings}}</td>
        </tr>
        {{end}}
    </table>
    {{else}}
    <p>No recommendations this cycle.</p>
    {{end}}

    {{if .Cycle.ExecutionResults}}
    <div class="summary">
        Executed {{len .Cycle.ExecutionResults.Executed}},
        skipped {{len .Cycle.ExecutionResults.Skipped}},
        failed {{len .Cycle.ExecutionResults.Failed}} &mdash;
        estimated savings <strong>{{printf "$%.2f" .Cycle.ExecutionResults.TotalSavingsEstimated}}/month</strong>
    </div>
    {{end}}
</div>
</body>
</html>
`

type htmlRow struct {
	ActionType models.ActionType
	Target     string
	Reason     string
	Priority   models.Priority
	Risk       models.RiskLevel
	Confidence float64
	Savings    float64
}

func writeHTML(w io.Writer, result *models.CycleResult) error {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	rows := make([]htmlRow, 0, len(result.Recommendations))
	for i := range result.Recommendations {
		rec := &result.Recommendations[i]
		rows = append(rows, htmlRow{
			ActionType: rec.ActionType,
			Target:     actionTarget(rec),
			Reason:     rec.Reason,
			Priority:   rec.Priority,
			Risk:       rec.RiskLevel,
			Confidence: rec.ConfidenceScore,
			Savings:    rec.EstimatedSavings,
		})
	}

	return tmpl.Execute(w, struct {
		Cycle *models.CycleResult
		Rows  []htmlRow
	}{Cycle: result, Rows: rows})
}
