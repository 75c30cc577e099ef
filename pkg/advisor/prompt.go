package advisor

import (
	"encoding/json"
	"fmt"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

const promptTemplate = `You are an AI cost optimization expert analyzing an AWS EKS cluster. Please analyze the following metrics and provide recommendations for cost optimization.

Cluster Information:
- Name: %s
- Region: %s

Current Metrics:
%s

Optimization Thresholds:
%s

Please provide a comprehensive analysis including:

1. **Usage Pattern Analysis**: Identify underutilized and overutilized resources
2. **Cost Optimization Opportunities**:
   - Instance right-sizing recommendations
   - Pod scaling opportunities
   - Spot instance migration possibilities
   - Workload scheduling optimizations
3. **Risk Assessment**: Evaluate the impact and risk of each recommendation
4. **Confidence Score**: Rate your confidence in the analysis (0.0-1.0)
5. **Estimated Savings**: Calculate potential monthly cost savings
6. **Implementation Priority**: Rank recommendations by impact and ease of implementation

Provide your response in JSON format with the following structure:
{
    "usage_analysis": {
        "underutilized_resources": [],
        "overutilized_resources": [],
        "usage_patterns": {}
    },
    "optimization_opportunities": {
        "instance_right_sizing": [],
        "pod_scaling": [],
        "spot_migration": [],
        "workload_scheduling": []
    },
    "risk_assessment": {
        "high_risk_actions": [],
        "medium_risk_actions": [],
        "low_risk_actions": []
    },
    "confidence_score": 0.0,
    "estimated_savings": 0.0,
    "implementation_priority": [],
    "reasoning": "Detailed explanation of the analysis and recommendations"
}`

// buildPrompt embeds the snapshot and the deterministic thresholds so
// the model reasons against the same bands the engine enforces.
func (a *Advisor) buildPrompt(snapshot *models.MetricsSnapshot) string {
	metricsJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		metricsJSON = []byte("{}")
	}

	thresholds := map[string]float64{
		"cpu_low":          a.thresholds.CPULow,
		"cpu_high":         a.thresholds.CPUHigh,
		"memory_low":       a.thresholds.MemoryLow,
		"memory_high":      a.thresholds.MemoryHigh,
		"cost_savings_min": a.thresholds.CostSavingsMin,
	}
	thresholdsJSON, err := json.MarshalIndent(thresholds, "", "  ")
	if err != nil {
		thresholdsJSON = []byte("{}")
	}

	return fmt.Sprintf(promptTemplate, a.clusterName, a.region, metricsJSON, thresholdsJSON)
}
