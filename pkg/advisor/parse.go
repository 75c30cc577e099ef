package advisor

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

// fallbackReasoning marks analyses produced without any model output.
const fallbackReasoning = "Fallback analysis due to AI service unavailability"

// ParseResponse turns raw model output into a validated analysis.
// Protocol, in order: extract the first '{' .. last '}' substring and
// parse it as JSON; on failure fall back to a text heuristic; the
// result always passes through validation.
func ParseResponse(raw string) *models.AIAnalysis {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start != -1 && end > start {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err == nil {
			return ValidateAnalysis(payload)
		}
		slog.Warn("advisor response contained unparseable JSON, falling back to text scan")
	}

	return parseTextResponse(raw)
}

// parseTextResponse is the heuristic fallback when the model did not
// produce parseable JSON. It keeps the raw text as reasoning and sets
// coarse defaults from keyword hints.
func parseTextResponse(text string) *models.AIAnalysis {
	analysis := emptyAnalysis()
	analysis.ConfidenceScore = 0.7
	analysis.Reasoning = text

	lower := strings.ToLower(text)
	if strings.Contains(lower, "underutilized") {
		analysis.ConfidenceScore = 0.8
	}
	if strings.Contains(lower, "savings") {
		analysis.EstimatedSavings = 100.0
	}
	return analysis
}

// fallbackAnalysis is the static analysis used when the inference
// endpoint is unreachable or returned nothing usable.
func fallbackAnalysis() *models.AIAnalysis {
	analysis := emptyAnalysis()
	analysis.ConfidenceScore = 0.5
	analysis.Reasoning = fallbackReasoning
	return analysis
}
