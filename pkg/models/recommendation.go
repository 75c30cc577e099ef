package models

// ActionType identifies the family of optimization action.
type ActionType string

const (
	ActionScalePods         ActionType = "scale_pods"
	ActionRightSizeInstance ActionType = "right_size_instance"
	ActionMigrateToSpot     ActionType = "migrate_to_spot"
	ActionScheduleWorkload  ActionType = "schedule_workload"
)

// Priority ranks how urgently a recommendation should be applied.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight returns the sort weight used when ordering recommendations.
func (p Priority) Weight() float64 {
	switch p {
	case PriorityHigh:
		return 1.0
	case PriorityMedium:
		return 0.7
	default:
		return 0.4
	}
}

// RiskLevel classifies the blast radius of applying a recommendation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ScalePodsParams are the parameters for a scale_pods action.
type ScalePodsParams struct {
	DeploymentName string `json:"deployment_name"`
	Namespace      string `json:"namespace"`
	TargetReplicas int32  `json:"target_replicas"`
}

// RightSizeParams are the parameters for a right_size_instance action.
type RightSizeParams struct {
	InstanceID          string `json:"instance_id"`
	CurrentInstanceType string `json:"current_instance_type"`
	TargetInstanceType  string `json:"target_instance_type"`
}

// SpotMigrationParams are the parameters for a migrate_to_spot action.
type SpotMigrationParams struct {
	InstanceID   string `json:"instance_id"`
	InstanceType string `json:"instance_type"`
}

// ScheduleParams are the parameters for a schedule_workload action.
type ScheduleParams struct {
	Window string `json:"window"`
}

// Recommendation is a single, independently executable optimization
// action. EstimatedSavings is monthly and signed: negative values encode
// a deliberate cost increase (e.g. a safety upgrade).
type Recommendation struct {
	ActionType       ActionType `json:"action_type"`
	Action           string     `json:"action"`
	Reason           string     `json:"reason"`
	EstimatedSavings float64    `json:"estimated_savings"`
	Priority         Priority   `json:"priority"`
	ConfidenceScore  float64    `json:"confidence_score"`
	RiskLevel        RiskLevel  `json:"risk_level"`
	AIReasoning      string     `json:"ai_reasoning,omitempty"`

	// Exactly one of these is set, matching ActionType.
	ScalePods     *ScalePodsParams     `json:"scale_pods,omitempty"`
	RightSize     *RightSizeParams     `json:"right_size,omitempty"`
	SpotMigration *SpotMigrationParams `json:"spot_migration,omitempty"`
	Schedule      *ScheduleParams      `json:"schedule,omitempty"`
}
