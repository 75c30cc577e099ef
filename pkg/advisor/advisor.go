// Package advisor is the boundary to the hosted inference endpoint. The
// model's output is untrusted: whatever comes back (malformed JSON,
// truncated text, transport errors) is coerced into a structurally
// valid analysis. Analyze never returns an error to the caller.
package advisor

import (
	"context"
	"log/slog"

	"github.com/opscart/eks-cost-agent/pkg/config"
	"github.com/opscart/eks-cost-agent/pkg/models"
)

// Invoker is the opaque inference call: prompt in, raw text out.
type Invoker interface {
	InvokeText(ctx context.Context, prompt string) (string, error)
}

// Advisor builds prompts, invokes the model, and normalizes responses.
type Advisor struct {
	invoker     Invoker
	clusterName string
	region      string
	thresholds  config.Thresholds
}

// New creates an advisor around the given invoker.
func New(invoker Invoker, clusterName, region string, thresholds config.Thresholds) *Advisor {
	return &Advisor{
		invoker:     invoker,
		clusterName: clusterName,
		region:      region,
		thresholds:  thresholds,
	}
}

// Analyze asks the model for a cost optimization analysis of the
// snapshot. Every return path yields a validated analysis; transport or
// parse failures degrade to defaults instead of propagating.
func (a *Advisor) Analyze(ctx context.Context, snapshot *models.MetricsSnapshot) *models.AIAnalysis {
	prompt := a.buildPrompt(snapshot)

	raw, err := a.invoker.InvokeText(ctx, prompt)
	if err != nil {
		slog.Error("advisor invocation failed", "error", err)
		return fallbackAnalysis()
	}

	analysis := ParseResponse(raw)
	slog.Info("advisor analysis completed",
		"confidence", analysis.ConfidenceScore,
		"estimated_savings", analysis.EstimatedSavings,
	)
	return analysis
}
