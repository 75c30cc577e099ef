package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Thresholds are the deterministic utilization bands (percent scale)
// that drive classification and recommendation generation.
type Thresholds struct {
	CPULow         float64 // scale down below this CPU %
	CPUHigh        float64 // scale up above this CPU %
	MemoryLow      float64 // scale down below this memory %
	MemoryHigh     float64 // scale up above this memory %
	CostSavingsMin float64 // minimum % savings worth acting on
}

// DefaultThresholds returns the standard optimization bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPULow:         20.0,
		CPUHigh:        80.0,
		MemoryLow:      30.0,
		MemoryHigh:     85.0,
		CostSavingsMin: 10.0,
	}
}

// Config holds agent configuration. Everything is externally supplied;
// nothing here is computed from the cluster.
type Config struct {
	ClusterName string
	Region      string

	// Cycle cadence
	OptimizationInterval time.Duration

	// Execution gate
	ConfidenceThreshold float64

	// Audit sink
	AuditBucket string

	// Advisor
	BedrockModelID string

	// Metrics sources
	PodMetricsSource string // kubernetes or prometheus
	PrometheusURL    string

	// Self-metrics endpoint ("" disables)
	MetricsAddr string

	Thresholds Thresholds

	// Static instance pricing, type -> on-demand hourly USD. Parsed from
	// PRICING_OVERRIDES as "type=price,type=price"; merged over defaults.
	PricingOverrides map[string]float64
}

// NewConfig creates a new configuration from the environment with defaults.
func NewConfig() *Config {
	clusterName := getEnv("CLUSTER_NAME", "cost-optimizer-cluster")
	return &Config{
		ClusterName:          clusterName,
		Region:               getEnv("AWS_REGION", "us-west-2"),
		OptimizationInterval: time.Duration(getEnvInt("OPTIMIZATION_INTERVAL_MINUTES", 15)) * time.Minute,
		ConfidenceThreshold:  getEnvFloat("CONFIDENCE_THRESHOLD", 0.7),
		AuditBucket:          getEnv("AUDIT_BUCKET", clusterName+"-cost-optimization"),
		BedrockModelID:       getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-sonnet-20240229-v1:0"),
		PodMetricsSource:     getEnv("POD_METRICS_SOURCE", "kubernetes"),
		PrometheusURL:        getEnv("PROMETHEUS_URL", "http://localhost:9090"),
		MetricsAddr:          getEnv("METRICS_ADDR", ""),
		Thresholds:           DefaultThresholds(),
		PricingOverrides:     parsePricing(getEnv("PRICING_OVERRIDES", "")),
	}
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("CLUSTER_NAME must be set")
	}
	if c.OptimizationInterval < time.Minute {
		return fmt.Errorf("optimization interval must be at least 1 minute")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1]")
	}
	switch c.PodMetricsSource {
	case "kubernetes", "prometheus":
	default:
		return fmt.Errorf("unknown pod metrics source: %s", c.PodMetricsSource)
	}
	if c.PodMetricsSource == "prometheus" && c.PrometheusURL == "" {
		return fmt.Errorf("PROMETHEUS_URL must be set when POD_METRICS_SOURCE=prometheus")
	}
	return nil
}

func parsePricing(raw string) map[string]float64 {
	overrides := make(map[string]float64)
	if raw == "" {
		return overrides
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		price, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || price <= 0 {
			continue
		}
		overrides[parts[0]] = price
	}
	return overrides
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
