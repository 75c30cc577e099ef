package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/opscart/eks-cost-agent/pkg/models"
	"github.com/opscart/eks-cost-agent/pkg/pricing"
)

const (
	// Utilization is averaged over the trailing hour at 5 minute
	// resolution, matching the CloudWatch basic monitoring period.
	metricWindow = time.Hour
	metricPeriod = 300
)

// EC2NodeSource discovers the EC2 instances backing the cluster and
// reads their utilization from CloudWatch.
type EC2NodeSource struct {
	ec2Client   *ec2.Client
	cwClient    *cloudwatch.Client
	clusterName string
	table       *pricing.Table
}

// NewEC2NodeSource creates a node source against the given AWS config.
func NewEC2NodeSource(cfg aws.Config, clusterName string, table *pricing.Table) *EC2NodeSource {
	return &EC2NodeSource{
		ec2Client:   ec2.NewFromConfig(cfg),
		cwClient:    cloudwatch.NewFromConfig(cfg),
		clusterName: clusterName,
		table:       table,
	}
}

// FetchNodeMetrics returns metrics for every instance carrying the
// cluster ownership tag, keyed by instance ID.
func (s *EC2NodeSource) FetchNodeMetrics(ctx context.Context) (map[string]models.NodeMetric, error) {
	nodes := make(map[string]models.NodeMetric)

	paginator := ec2.NewDescribeInstancesPaginator(s.ec2Client, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("tag:kubernetes.io/cluster/" + s.clusterName),
				Values: []string{"owned", "shared"},
			},
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"running", "stopped"},
			},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe cluster instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				node := s.describeNode(ctx, instance)
				nodes[node.InstanceID] = node
			}
		}
	}

	return nodes, nil
}

func (s *EC2NodeSource) describeNode(ctx context.Context, instance ec2types.Instance) models.NodeMetric {
	id := aws.ToString(instance.InstanceId)
	instanceType := string(instance.InstanceType)

	node := models.NodeMetric{
		InstanceID:   id,
		InstanceType: instanceType,
		HourlyCost:   s.table.Hourly(instanceType),
		SpotInstance: instance.InstanceLifecycle == ec2types.InstanceLifecycleTypeSpot,
	}
	if instance.Placement != nil {
		node.AvailabilityZone = aws.ToString(instance.Placement.AvailabilityZone)
	}
	if instance.State != nil {
		node.State = string(instance.State.Name)
	}

	cpu, err := s.averageMetric(ctx, "AWS/EC2", "CPUUtilization", id)
	if err != nil {
		slog.Warn("cpu utilization unavailable", "instance", id, "error", err)
	}
	node.CPUUtilization = cpu

	// MemoryUtilization needs the CloudWatch agent on the node; without
	// it the value reads as zero and the low-memory band applies.
	mem, err := s.averageMetric(ctx, "System/Linux", "MemoryUtilization", id)
	if err != nil {
		slog.Warn("memory utilization unavailable", "instance", id, "error", err)
	}
	node.MemoryUtilization = mem

	return node
}

// averageMetric returns the mean of the datapoints in the trailing
// window, or zero when the metric has no data.
func (s *EC2NodeSource) averageMetric(ctx context.Context, namespace, metricName, instanceID string) (float64, error) {
	end := time.Now()
	start := end.Add(-metricWindow)

	out, err := s.cwClient.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
		StartTime: aws.Time(start),
		EndTime:   aws.Time(end),
		MetricDataQueries: []cwtypes.MetricDataQuery{
			{
				Id: aws.String("m0"),
				MetricStat: &cwtypes.MetricStat{
					Metric: &cwtypes.Metric{
						Namespace:  aws.String(namespace),
						MetricName: aws.String(metricName),
						Dimensions: []cwtypes.Dimension{
							{Name: aws.String("InstanceId"), Value: aws.String(instanceID)},
						},
					},
					Period: aws.Int32(metricPeriod),
					Stat:   aws.String("Average"),
				},
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("get metric data %s/%s: %w", namespace, metricName, err)
	}

	if len(out.MetricDataResults) == 0 || len(out.MetricDataResults[0].Values) == 0 {
		return 0, nil
	}

	values := out.MetricDataResults[0].Values
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}
