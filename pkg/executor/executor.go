package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

// PodScaler applies a replica count to a deployment.
type PodScaler interface {
	ScaleDeployment(ctx context.Context, namespace, name string, replicas int32) error
}

// InstanceResizer changes the instance type of an EC2 instance.
type InstanceResizer interface {
	ResizeInstance(ctx context.Context, instanceID, targetType string) error
}

// Coordinator executes recommendations behind a confidence gate.
// Recommendations are independent: one failing never stops the rest.
type Coordinator struct {
	podScaler           PodScaler
	resizer             InstanceResizer
	confidenceThreshold float64
	dryRun              bool
}

// New creates a coordinator. With dryRun set, every gated-in action is
// logged and reported as executed without touching the cluster.
func New(podScaler PodScaler, resizer InstanceResizer, confidenceThreshold float64, dryRun bool) *Coordinator {
	return &Coordinator{
		podScaler:           podScaler,
		resizer:             resizer,
		confidenceThreshold: confidenceThreshold,
		dryRun:              dryRun,
	}
}

// Execute applies each recommendation in order. Recommendations whose
// confidence is strictly below the threshold are skipped, never failed.
func (c *Coordinator) Execute(ctx context.Context, recommendations []models.Recommendation) *models.ExecutionReport {
	report := &models.ExecutionReport{
		Executed: []models.ExecutionResult{},
		Skipped:  []models.ExecutionResult{},
		Failed:   []models.ExecutionResult{},
	}

	for _, rec := range recommendations {
		result := models.ExecutionResult{
			Recommendation:   rec,
			EstimatedSavings: rec.EstimatedSavings,
		}

		if rec.ConfidenceScore < c.confidenceThreshold {
			result.Error = fmt.Sprintf("confidence %.2f below threshold %.2f",
				rec.ConfidenceScore, c.confidenceThreshold)
			report.Skipped = append(report.Skipped, result)
			slog.Info("recommendation skipped",
				"action", rec.ActionType,
				"confidence", rec.ConfidenceScore)
			continue
		}

		if err := c.apply(ctx, rec); err != nil {
			result.Error = err.Error()
			report.Failed = append(report.Failed, result)
			slog.Error("recommendation failed",
				"action", rec.ActionType,
				"error", err)
			continue
		}

		result.Success = true
		report.Executed = append(report.Executed, result)
		report.TotalSavingsEstimated += rec.EstimatedSavings
		slog.Info("recommendation executed",
			"action", rec.ActionType,
			"estimated_savings", rec.EstimatedSavings,
			"dry_run", c.dryRun)
	}

	return report
}

// apply dispatches on the action type. A panic inside an actuator is
// contained here and reported as that recommendation's failure.
func (c *Coordinator) apply(ctx context.Context, rec models.Recommendation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("execution panic: %v", r)
		}
	}()

	switch rec.ActionType {
	case models.ActionScalePods:
		return c.scalePods(ctx, rec.ScalePods)
	case models.ActionRightSizeInstance:
		return c.rightSizeInstance(ctx, rec.RightSize)
	case models.ActionMigrateToSpot:
		return c.migrateToSpot(rec.SpotMigration)
	case models.ActionScheduleWorkload:
		return c.scheduleWorkload(rec.Schedule)
	default:
		return fmt.Errorf("unknown action type: %s", rec.ActionType)
	}
}

func (c *Coordinator) scalePods(ctx context.Context, params *models.ScalePodsParams) error {
	if params == nil {
		return fmt.Errorf("missing scale_pods parameters")
	}
	if c.dryRun {
		slog.Info("dry run: would scale deployment",
			"namespace", params.Namespace,
			"deployment", params.DeploymentName,
			"target_replicas", params.TargetReplicas)
		return nil
	}
	if c.podScaler == nil {
		return fmt.Errorf("no pod scaler configured")
	}
	return c.podScaler.ScaleDeployment(ctx, params.Namespace, params.DeploymentName, params.TargetReplicas)
}

func (c *Coordinator) rightSizeInstance(ctx context.Context, params *models.RightSizeParams) error {
	if params == nil {
		return fmt.Errorf("missing right_size parameters")
	}
	if c.dryRun {
		slog.Info("dry run: would resize instance",
			"instance", params.InstanceID,
			"from", params.CurrentInstanceType,
			"to", params.TargetInstanceType)
		return nil
	}
	if c.resizer == nil {
		return fmt.Errorf("no instance resizer configured")
	}
	return c.resizer.ResizeInstance(ctx, params.InstanceID, params.TargetInstanceType)
}

// migrateToSpot is advisory. Replacing an on-demand node with a spot
// node means draining and reprovisioning through the node group, which
// stays a human decision; the recommendation is surfaced, not applied.
func (c *Coordinator) migrateToSpot(params *models.SpotMigrationParams) error {
	if params == nil {
		return fmt.Errorf("missing spot_migration parameters")
	}
	slog.Info("spot migration recommended, manual intervention required",
		"instance", params.InstanceID,
		"instance_type", params.InstanceType)
	return nil
}

// scheduleWorkload is advisory for the same reason: moving batch work
// into the off-peak window needs owner sign-off.
func (c *Coordinator) scheduleWorkload(params *models.ScheduleParams) error {
	if params == nil {
		return fmt.Errorf("missing schedule parameters")
	}
	slog.Info("workload scheduling recommended", "window", params.Window)
	return nil
}
