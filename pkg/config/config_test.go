package config

import (
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	for _, key := range []string{"CLUSTER_NAME", "AUDIT_BUCKET", "OPTIMIZATION_INTERVAL_MINUTES", "CONFIDENCE_THRESHOLD"} {
		t.Setenv(key, "")
	}

	cfg := NewConfig()

	if cfg.ClusterName != "cost-optimizer-cluster" {
		t.Errorf("unexpected default cluster name %q", cfg.ClusterName)
	}
	if cfg.AuditBucket != "cost-optimizer-cluster-cost-optimization" {
		t.Errorf("audit bucket must derive from the cluster name, got %q", cfg.AuditBucket)
	}
	if cfg.OptimizationInterval != 15*time.Minute {
		t.Errorf("unexpected default interval %v", cfg.OptimizationInterval)
	}
	if cfg.ConfidenceThreshold != 0.7 {
		t.Errorf("unexpected default confidence threshold %v", cfg.ConfidenceThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestNewConfigFromEnvironment(t *testing.T) {
	t.Setenv("CLUSTER_NAME", "prod-eks")
	t.Setenv("AUDIT_BUCKET", "")
	t.Setenv("OPTIMIZATION_INTERVAL_MINUTES", "30")
	t.Setenv("POD_METRICS_SOURCE", "prometheus")
	t.Setenv("PRICING_OVERRIDES", "t3.large=0.09,m5.large=0.10")

	cfg := NewConfig()

	if cfg.ClusterName != "prod-eks" {
		t.Errorf("unexpected cluster name %q", cfg.ClusterName)
	}
	if cfg.AuditBucket != "prod-eks-cost-optimization" {
		t.Errorf("unexpected audit bucket %q", cfg.AuditBucket)
	}
	if cfg.OptimizationInterval != 30*time.Minute {
		t.Errorf("unexpected interval %v", cfg.OptimizationInterval)
	}
	if cfg.PodMetricsSource != "prometheus" {
		t.Errorf("unexpected pod metrics source %q", cfg.PodMetricsSource)
	}
	if cfg.PricingOverrides["t3.large"] != 0.09 || cfg.PricingOverrides["m5.large"] != 0.10 {
		t.Errorf("unexpected pricing overrides %v", cfg.PricingOverrides)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty cluster name", func(c *Config) { c.ClusterName = "" }},
		{"sub-minute interval", func(c *Config) { c.OptimizationInterval = 30 * time.Second }},
		{"confidence above one", func(c *Config) { c.ConfidenceThreshold = 1.5 }},
		{"negative confidence", func(c *Config) { c.ConfidenceThreshold = -0.1 }},
		{"unknown pod source", func(c *Config) { c.PodMetricsSource = "datadog" }},
		{"prometheus without URL", func(c *Config) {
			c.PodMetricsSource = "prometheus"
			c.PrometheusURL = ""
		}},
	}
	for _, tc := range cases {
		cfg := NewConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestParsePricingIgnoresMalformedEntries(t *testing.T) {
	overrides := parsePricing("t3.large=0.08, m5.large=0.09,bogus,free=0,negative=-1,unpriced=")

	if len(overrides) != 2 {
		t.Fatalf("expected 2 valid overrides, got %v", overrides)
	}
	if overrides["t3.large"] != 0.08 || overrides["m5.large"] != 0.09 {
		t.Errorf("unexpected overrides %v", overrides)
	}
}
