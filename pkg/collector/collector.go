package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

// NodeSource supplies per-instance utilization and cost metadata.
type NodeSource interface {
	FetchNodeMetrics(ctx context.Context) (map[string]models.NodeMetric, error)
}

// PodSource supplies workload-level metrics.
type PodSource interface {
	FetchPodMetrics(ctx context.Context) (models.PodMetrics, error)
}

// CostSource supplies rolling billing totals.
type CostSource interface {
	FetchCostMetrics(ctx context.Context) (models.CostMetrics, error)
}

// Collector assembles a MetricsSnapshot from independent sources.
type Collector struct {
	clusterName string
	nodes       NodeSource
	pods        PodSource
	costs       CostSource
}

// New creates a collector. Any source may be nil; its section of the
// snapshot stays empty.
func New(clusterName string, nodes NodeSource, pods PodSource, costs CostSource) *Collector {
	return &Collector{
		clusterName: clusterName,
		nodes:       nodes,
		pods:        pods,
		costs:       costs,
	}
}

// Collect builds the per-cycle snapshot. Collection is best-effort: a
// failing source logs a warning and leaves its section empty so one
// unreachable API never aborts a cycle.
func (c *Collector) Collect(ctx context.Context) *models.MetricsSnapshot {
	snapshot := models.NewSnapshot(c.clusterName, time.Now())

	if c.nodes != nil {
		nodes, err := c.nodes.FetchNodeMetrics(ctx)
		if err != nil {
			slog.Warn("node metrics collection failed", "error", err)
		} else if nodes != nil {
			snapshot.NodeMetrics = nodes
		}
	}

	if c.pods != nil {
		pods, err := c.pods.FetchPodMetrics(ctx)
		if err != nil {
			slog.Warn("pod metrics collection failed", "error", err)
		} else {
			if pods.Deployments != nil {
				snapshot.PodMetrics.Deployments = pods.Deployments
			}
			if pods.Pods != nil {
				snapshot.PodMetrics.Pods = pods.Pods
			}
		}
	}

	if c.costs != nil {
		costs, err := c.costs.FetchCostMetrics(ctx)
		if err != nil {
			slog.Warn("cost metrics collection failed", "error", err)
		} else {
			snapshot.CostMetrics = costs
		}
	}

	slog.Info("metrics collected",
		"cluster", c.clusterName,
		"nodes", len(snapshot.NodeMetrics),
		"deployments", len(snapshot.PodMetrics.Deployments),
		"daily_cost", snapshot.CostMetrics.DailyAverageCost)

	return snapshot
}
