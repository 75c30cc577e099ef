package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// stopTimeout bounds how long a resize waits for the instance to stop.
const stopTimeout = 5 * time.Minute

// EC2Resizer changes instance types through the stop, modify, start
// sequence EC2 requires for type changes.
type EC2Resizer struct {
	client *ec2.Client
}

// NewEC2Resizer creates a resizer against the given AWS config.
func NewEC2Resizer(cfg aws.Config) *EC2Resizer {
	return &EC2Resizer{client: ec2.NewFromConfig(cfg)}
}

// ResizeInstance stops the instance, applies the new type and starts it
// again. The instance is unavailable for the duration of the stop.
func (r *EC2Resizer) ResizeInstance(ctx context.Context, instanceID, targetType string) error {
	slog.Info("resizing instance", "instance", instanceID, "target_type", targetType)

	if _, err := r.client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return fmt.Errorf("stop instance %s: %w", instanceID, err)
	}

	waiter := ec2.NewInstanceStoppedWaiter(r.client)
	if err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	}, stopTimeout); err != nil {
		return fmt.Errorf("wait for instance %s to stop: %w", instanceID, err)
	}

	if _, err := r.client.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
		InstanceId:   aws.String(instanceID),
		InstanceType: &ec2types.AttributeValue{Value: aws.String(targetType)},
	}); err != nil {
		return fmt.Errorf("modify instance type for %s: %w", instanceID, err)
	}

	if _, err := r.client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	}); err != nil {
		return fmt.Errorf("start instance %s: %w", instanceID, err)
	}

	slog.Info("instance resized", "instance", instanceID, "instance_type", targetType)
	return nil
}
