package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

// PrometheusPodSource is an alternative PodSource for clusters that run
// kube-state-metrics and cAdvisor scraping instead of metrics-server.
// It reports deployment aggregates only; the pod map stays empty.
type PrometheusPodSource struct {
	api v1.API
	url string
}

// NewPrometheusPodSource creates a pod source against a Prometheus endpoint.
func NewPrometheusPodSource(url string) (*PrometheusPodSource, error) {
	client, err := api.NewClient(api.Config{Address: url})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &PrometheusPodSource{
		api: v1.NewAPI(client),
		url: url,
	}, nil
}

// IsAvailable reports whether the endpoint answers queries.
func (p *PrometheusPodSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.api.Query(ctx, "up", time.Now())
	return err == nil
}

// FetchPodMetrics discovers deployments through kube-state-metrics and
// computes usage fractions from cAdvisor counters.
func (p *PrometheusPodSource) FetchPodMetrics(ctx context.Context) (models.PodMetrics, error) {
	metrics := models.PodMetrics{
		Deployments: make(map[string]models.DeploymentMetric),
		Pods:        make(map[string]models.PodMetric),
	}

	replicas, err := p.queryVector(ctx, "kube_deployment_spec_replicas")
	if err != nil {
		return metrics, fmt.Errorf("list deployments: %w", err)
	}
	available, err := p.queryVector(ctx, "kube_deployment_status_replicas_available")
	if err != nil {
		slog.Warn("available replicas query failed", "error", err)
	}

	for _, sample := range replicas {
		name := string(sample.Metric["deployment"])
		namespace := string(sample.Metric["namespace"])
		if name == "" {
			continue
		}

		metric := models.DeploymentMetric{
			Namespace: namespace,
			Replicas:  int32(sample.Value),
		}
		for _, avail := range available {
			if string(avail.Metric["deployment"]) == name && string(avail.Metric["namespace"]) == namespace {
				metric.AvailableReplicas = int32(avail.Value)
				break
			}
		}
		metric.CPUUsage = p.usageFraction(ctx, namespace, name, "cpu")
		metric.MemoryUsage = p.usageFraction(ctx, namespace, name, "memory")

		metrics.Deployments[name] = metric
	}

	return metrics, nil
}

// usageFraction computes used/requested for a deployment's pods. Pods
// are matched by the deployment name prefix, the same convention the
// deployment controller uses when naming ReplicaSets.
func (p *PrometheusPodSource) usageFraction(ctx context.Context, namespace, deployment, resource string) float64 {
	var usedQuery string
	switch resource {
	case "cpu":
		usedQuery = fmt.Sprintf(`sum(rate(container_cpu_usage_seconds_total{namespace=%q,pod=~"%s-.*"}[5m]))`,
			namespace, deployment)
	case "memory":
		usedQuery = fmt.Sprintf(`sum(container_memory_working_set_bytes{namespace=%q,pod=~"%s-.*"})`,
			namespace, deployment)
	default:
		return 0
	}
	requestedQuery := fmt.Sprintf(`sum(kube_pod_container_resource_requests{namespace=%q,pod=~"%s-.*",resource=%q})`,
		namespace, deployment, resource)

	used, err := p.querySingle(ctx, usedQuery)
	if err != nil {
		return 0
	}
	requested, err := p.querySingle(ctx, requestedQuery)
	if err != nil {
		return 0
	}
	return fraction(used, requested)
}

func (p *PrometheusPodSource) queryVector(ctx context.Context, query string) (model.Vector, error) {
	result, warnings, err := p.api.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if len(warnings) > 0 {
		slog.Warn("prometheus query warnings", "query", query, "warnings", warnings)
	}
	vector, ok := result.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T for query: %s", result, query)
	}
	return vector, nil
}

func (p *PrometheusPodSource) querySingle(ctx context.Context, query string) (float64, error) {
	vector, err := p.queryVector(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("no data for query: %s", query)
	}
	sum := 0.0
	for _, sample := range vector {
		sum += float64(sample.Value)
	}
	return sum, nil
}
