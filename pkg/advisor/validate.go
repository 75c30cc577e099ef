package advisor

import (
	"math"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

// emptyAnalysis returns an analysis with every required field present
// and type-appropriate empty defaults.
func emptyAnalysis() *models.AIAnalysis {
	return &models.AIAnalysis{
		UsageAnalysis:             map[string]any{},
		OptimizationOpportunities: map[string]any{},
		RiskAssessment:            map[string]any{},
		ConfidenceScore:           0.0,
		EstimatedSavings:          0.0,
		ImplementationPriority:    []any{},
		SavingsMultiplier:         1.0,
	}
}

// ValidateAnalysis coerces an untrusted JSON payload into the canonical
// analysis shape. Guarantees: all six required top-level fields exist
// (missing ones get type-appropriate defaults), confidence_score is
// numeric and clamped to [0,1] (0.7 when missing or invalid),
// estimated_savings is numeric and >= 0 (0.0 when missing or invalid).
// Validation is idempotent: a payload produced from an already-valid
// analysis comes back unchanged.
func ValidateAnalysis(payload map[string]any) *models.AIAnalysis {
	analysis := emptyAnalysis()

	analysis.UsageAnalysis = asObject(payload["usage_analysis"])
	analysis.OptimizationOpportunities = asObject(payload["optimization_opportunities"])
	analysis.RiskAssessment = asObject(payload["risk_assessment"])
	analysis.ImplementationPriority = asList(payload["implementation_priority"])

	analysis.ConfidenceScore = clamp01(asNumber(payload["confidence_score"], 0.7))
	if savings := asNumber(payload["estimated_savings"], 0.0); savings > 0 {
		analysis.EstimatedSavings = savings
	}

	if reasoning, ok := payload["reasoning"].(string); ok {
		analysis.Reasoning = reasoning
	}

	// Optional global recalibration knobs.
	analysis.RecommendationConfidence = clamp01(asNumber(payload["recommendation_confidence"], 0.0))
	if multiplier := asNumber(payload["savings_multiplier"], 1.0); multiplier > 0 {
		analysis.SavingsMultiplier = multiplier
	}

	return analysis
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

func asList(v any) []any {
	if l, ok := v.([]any); ok && l != nil {
		return l
	}
	return []any{}
}

// asNumber accepts the numeric types encoding/json can produce and
// falls back on anything else, including NaN and infinities.
func asNumber(v any, fallback float64) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
