package executor

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// KubePodScaler scales deployments through the scale subresource.
type KubePodScaler struct {
	clientset kubernetes.Interface
}

// NewKubePodScaler creates a scaler from an existing clientset.
func NewKubePodScaler(clientset kubernetes.Interface) *KubePodScaler {
	return &KubePodScaler{clientset: clientset}
}

// ScaleDeployment sets the deployment's replica count.
func (s *KubePodScaler) ScaleDeployment(ctx context.Context, namespace, name string, replicas int32) error {
	deployments := s.clientset.AppsV1().Deployments(namespace)

	scale, err := deployments.GetScale(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("get scale for %s/%s: %w", namespace, name, err)
	}

	scale.Spec.Replicas = replicas
	if _, err := deployments.UpdateScale(ctx, name, scale, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("update scale for %s/%s: %w", namespace, name, err)
	}
	return nil
}
