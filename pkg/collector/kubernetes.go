package collector

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/opscart/eks-cost-agent/pkg/models"
)

// KubePodSource reads workload metrics from the Kubernetes API and the
// metrics-server.
type KubePodSource struct {
	clientset     kubernetes.Interface
	metricsClient metricsv.Interface
}

// NewKubePodSource creates a pod source from existing clients.
func NewKubePodSource(clientset kubernetes.Interface, metricsClient metricsv.Interface) *KubePodSource {
	return &KubePodSource{
		clientset:     clientset,
		metricsClient: metricsClient,
	}
}

// BuildRestConfig returns the in-cluster config when running inside a
// pod, falling back to the default kubeconfig otherwise.
func BuildRestConfig() (*rest.Config, error) {
	if config, err := rest.InClusterConfig(); err == nil {
		return config, nil
	}

	var kubeconfig string
	if home := homedir.HomeDir(); home != "" {
		kubeconfig = filepath.Join(home, ".kube", "config")
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}
	return config, nil
}

// FetchPodMetrics lists deployments and pods across all namespaces and
// joins them with metrics-server usage. Usage values are fractions of
// the requested resources; pods without requests read as zero.
func (s *KubePodSource) FetchPodMetrics(ctx context.Context) (models.PodMetrics, error) {
	metrics := models.PodMetrics{
		Deployments: make(map[string]models.DeploymentMetric),
		Pods:        make(map[string]models.PodMetric),
	}

	deployments, err := s.clientset.AppsV1().Deployments(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return metrics, fmt.Errorf("list deployments: %w", err)
	}

	pods, err := s.clientset.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return metrics, fmt.Errorf("list pods: %w", err)
	}

	// pod usage keyed by namespace/name: [cpu cores, memory bytes]
	usage := make(map[string][2]float64)
	podMetricsList, err := s.metricsClient.MetricsV1beta1().PodMetricses(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Warn("metrics-server unavailable, usage reads as zero", "error", err)
	} else {
		for _, pm := range podMetricsList.Items {
			var cores, bytes float64
			for _, container := range pm.Containers {
				cores += container.Usage.Cpu().AsApproximateFloat64()
				bytes += container.Usage.Memory().AsApproximateFloat64()
			}
			usage[pm.Namespace+"/"+pm.Name] = [2]float64{cores, bytes}
		}
	}

	type aggregate struct {
		usedCores, requestedCores float64
		usedBytes, requestedBytes float64
	}
	byDeployment := make(map[string]*aggregate)

	for i := range pods.Items {
		pod := &pods.Items[i]
		deployment := workloadName(pod)

		var reqCores, reqBytes float64
		for _, container := range pod.Spec.Containers {
			reqCores += container.Resources.Requests.Cpu().AsApproximateFloat64()
			reqBytes += container.Resources.Requests.Memory().AsApproximateFloat64()
		}
		used := usage[pod.Namespace+"/"+pod.Name]

		metrics.Pods[pod.Name] = models.PodMetric{
			Namespace:   pod.Namespace,
			Deployment:  deployment,
			CPUUsage:    fraction(used[0], reqCores),
			MemoryUsage: fraction(used[1], reqBytes),
			Status:      string(pod.Status.Phase),
		}

		if deployment == "" {
			continue
		}
		agg := byDeployment[deployment]
		if agg == nil {
			agg = &aggregate{}
			byDeployment[deployment] = agg
		}
		agg.usedCores += used[0]
		agg.requestedCores += reqCores
		agg.usedBytes += used[1]
		agg.requestedBytes += reqBytes
	}

	for i := range deployments.Items {
		deployment := &deployments.Items[i]
		replicas := int32(1)
		if deployment.Spec.Replicas != nil {
			replicas = *deployment.Spec.Replicas
		}

		metric := models.DeploymentMetric{
			Namespace:         deployment.Namespace,
			Replicas:          replicas,
			AvailableReplicas: deployment.Status.AvailableReplicas,
		}
		if agg := byDeployment[deployment.Name]; agg != nil {
			metric.CPUUsage = fraction(agg.usedCores, agg.requestedCores)
			metric.MemoryUsage = fraction(agg.usedBytes, agg.requestedBytes)
		}
		metrics.Deployments[deployment.Name] = metric
	}

	return metrics, nil
}

// workloadName resolves the deployment a pod belongs to by walking the
// ReplicaSet owner reference and stripping its hash suffix.
func workloadName(pod *corev1.Pod) string {
	for _, owner := range pod.OwnerReferences {
		if owner.Kind == "ReplicaSet" {
			if i := strings.LastIndex(owner.Name, "-"); i > 0 {
				return owner.Name[:i]
			}
			return owner.Name
		}
	}
	return ""
}

func fraction(used, requested float64) float64 {
	if requested <= 0 {
		return 0
	}
	return used / requested
}
