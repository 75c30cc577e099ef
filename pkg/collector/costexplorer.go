package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

const (
	ec2ServiceName = "Amazon Elastic Compute Cloud - Compute"
	eksServiceName = "Amazon Elastic Container Service for Kubernetes"

	costWindowDays = 7
	trendDays      = 3
)

// CostExplorerSource reads rolling billing totals from Cost Explorer.
type CostExplorerSource struct {
	client *costexplorer.Client
}

// NewCostExplorerSource creates a cost source against the given AWS config.
func NewCostExplorerSource(cfg aws.Config) *CostExplorerSource {
	return &CostExplorerSource{client: costexplorer.NewFromConfig(cfg)}
}

// FetchCostMetrics returns daily unblended costs for the trailing week,
// broken down by service, with a trend computed over the last three days.
func (s *CostExplorerSource) FetchCostMetrics(ctx context.Context) (models.CostMetrics, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -costWindowDays)

	out, err := s.client.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(end.Format("2006-01-02")),
		},
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		GroupBy: []cetypes.GroupDefinition{
			{
				Type: cetypes.GroupDefinitionTypeDimension,
				Key:  aws.String("SERVICE"),
			},
		},
	})
	if err != nil {
		return models.CostMetrics{}, fmt.Errorf("get cost and usage: %w", err)
	}

	costs := models.CostMetrics{ServiceBreakdown: make(map[string]float64)}

	var dailyTotals []float64
	for _, day := range out.ResultsByTime {
		dayTotal := 0.0
		for _, group := range day.Groups {
			if len(group.Keys) == 0 {
				continue
			}
			amount, err := strconv.ParseFloat(aws.ToString(group.Metrics["UnblendedCost"].Amount), 64)
			if err != nil {
				continue
			}
			costs.ServiceBreakdown[group.Keys[0]] += amount
			dayTotal += amount
		}
		dailyTotals = append(dailyTotals, dayTotal)
	}

	for _, total := range dailyTotals {
		costs.TotalCost7Days += total
	}
	if len(dailyTotals) > 0 {
		costs.DailyAverageCost = costs.TotalCost7Days / float64(len(dailyTotals))
	}
	costs.EC2Cost = costs.ServiceBreakdown[ec2ServiceName]
	costs.EKSCost = costs.ServiceBreakdown[eksServiceName]

	// Slope of the trailing three days, in dollars per day.
	if len(dailyTotals) >= trendDays {
		recent := dailyTotals[len(dailyTotals)-trendDays:]
		costs.CostTrend = (recent[len(recent)-1] - recent[0]) / float64(trendDays)
		if recent[0] > 0 {
			costs.CostTrendPercentage = (recent[len(recent)-1] - recent[0]) / recent[0] * 100
		}
	}

	return costs, nil
}
