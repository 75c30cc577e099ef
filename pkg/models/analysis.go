package models

// AIAnalysis is the canonical shape of an advisor response. The raw
// model output is untrusted; every instance reaching the rest of the
// system has passed through advisor validation, so all maps and slices
// are non-nil and numeric fields are in range.
type AIAnalysis struct {
	UsageAnalysis             map[string]any `json:"usage_analysis"`
	OptimizationOpportunities map[string]any `json:"optimization_opportunities"`
	RiskAssessment            map[string]any `json:"risk_assessment"`
	ConfidenceScore           float64        `json:"confidence_score"`
	EstimatedSavings          float64        `json:"estimated_savings"`
	ImplementationPriority    []any          `json:"implementation_priority"`
	Reasoning                 string         `json:"reasoning"`

	// Optional global recalibration knobs the model may emit. They apply
	// uniformly to every recommendation, never per action.
	RecommendationConfidence float64 `json:"recommendation_confidence,omitempty"`
	SavingsMultiplier        float64 `json:"savings_multiplier,omitempty"`
}
