package recommender

import "github.com/opscart/eks-cost-agent/pkg/models"

// applyInsights blends the AI analysis into the generated
// recommendations. The policy is deliberately coarse and global: the
// analysis never selects or vetoes individual actions, it only
// recalibrates confidence and savings magnitude uniformly.
//
//   - recommendation_confidence > 0.8 boosts every confidence by x1.1,
//     capped at 1.0
//   - every estimated saving is scaled by the single savings_multiplier
//     (1.0 when absent or invalid)
//   - the analysis reasoning is attached verbatim
func applyInsights(recs []models.Recommendation, analysis *models.AIAnalysis) []models.Recommendation {
	if analysis == nil {
		return recs
	}

	boost := analysis.RecommendationConfidence > 0.8
	multiplier := analysis.SavingsMultiplier
	if multiplier <= 0 {
		multiplier = 1.0
	}

	for i := range recs {
		if boost {
			recs[i].ConfidenceScore = min(1.0, recs[i].ConfidenceScore*1.1)
		}
		recs[i].EstimatedSavings *= multiplier
		if analysis.Reasoning != "" {
			recs[i].AIReasoning = analysis.Reasoning
		}
	}
	return recs
}
