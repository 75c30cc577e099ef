package models

import "time"

// MetricsSnapshot is the immutable per-cycle view of the cluster. It is
// assembled once by the collector and read-only afterwards.
type MetricsSnapshot struct {
	Timestamp   time.Time             `json:"timestamp"`
	ClusterName string                `json:"cluster_name"`
	NodeMetrics map[string]NodeMetric `json:"node_metrics"`
	PodMetrics  PodMetrics            `json:"pod_metrics"`
	CostMetrics CostMetrics           `json:"cost_metrics"`
}

// NodeMetric describes one EC2 instance backing a cluster node.
// Utilization values are percentages on a 0-100 scale.
type NodeMetric struct {
	InstanceID        string  `json:"instance_id"`
	InstanceType      string  `json:"instance_type"`
	AvailabilityZone  string  `json:"availability_zone"`
	State             string  `json:"state"`
	CPUUtilization    float64 `json:"cpu_utilization"`
	MemoryUtilization float64 `json:"memory_utilization"`
	HourlyCost        float64 `json:"hourly_cost"`
	SpotInstance      bool    `json:"spot_instance"`
}

// PodMetrics groups workload-level metrics keyed by name.
type PodMetrics struct {
	Deployments map[string]DeploymentMetric `json:"deployments"`
	Pods        map[string]PodMetric        `json:"pods"`
}

// DeploymentMetric describes one deployment. Usage values are fractions
// of the requested resources on a 0-1 scale.
type DeploymentMetric struct {
	Namespace         string  `json:"namespace"`
	Replicas          int32   `json:"replicas"`
	AvailableReplicas int32   `json:"available_replicas"`
	CPUUsage          float64 `json:"cpu_usage"`
	MemoryUsage       float64 `json:"memory_usage"`
}

// PodMetric describes a single pod.
type PodMetric struct {
	Namespace   string  `json:"namespace"`
	Deployment  string  `json:"deployment"`
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	Status      string  `json:"status"`
}

// CostMetrics holds rolling billing totals for the account.
type CostMetrics struct {
	TotalCost7Days      float64            `json:"total_cost_7_days"`
	DailyAverageCost    float64            `json:"daily_average_cost"`
	ServiceBreakdown    map[string]float64 `json:"service_breakdown"`
	EC2Cost             float64            `json:"ec2_cost"`
	EKSCost             float64            `json:"eks_cost"`
	CostTrend           float64            `json:"cost_trend"`
	CostTrendPercentage float64            `json:"cost_trend_percentage"`
}

// NewSnapshot returns an empty snapshot stamped with the current time.
func NewSnapshot(clusterName string, now time.Time) *MetricsSnapshot {
	return &MetricsSnapshot{
		Timestamp:   now.UTC(),
		ClusterName: clusterName,
		NodeMetrics: make(map[string]NodeMetric),
		PodMetrics: PodMetrics{
			Deployments: make(map[string]DeploymentMetric),
			Pods:        make(map[string]PodMetric),
		},
	}
}
