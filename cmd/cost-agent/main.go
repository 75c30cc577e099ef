package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/opscart/eks-cost-agent/pkg/advisor"
	"github.com/opscart/eks-cost-agent/pkg/agent"
	"github.com/opscart/eks-cost-agent/pkg/analyzer"
	"github.com/opscart/eks-cost-agent/pkg/audit"
	"github.com/opscart/eks-cost-agent/pkg/collector"
	"github.com/opscart/eks-cost-agent/pkg/config"
	"github.com/opscart/eks-cost-agent/pkg/executor"
	"github.com/opscart/eks-cost-agent/pkg/pricing"
	"github.com/opscart/eks-cost-agent/pkg/recommender"
	"github.com/opscart/eks-cost-agent/pkg/reporter"
)

var (
	clusterName string
	region      string
	interval    time.Duration
	metricsAddr string
	output      string
	once        bool
	dryRun      bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "cost-agent",
		Short: "AI-assisted cost optimization agent for EKS clusters",
		Run:   runAgent,
	}

	rootCmd.Flags().StringVar(&clusterName, "cluster", "", "EKS cluster name (defaults to CLUSTER_NAME)")
	rootCmd.Flags().StringVar(&region, "region", "", "AWS region (defaults to AWS_REGION)")
	rootCmd.Flags().DurationVar(&interval, "interval", 0, "Optimization cycle interval (defaults to OPTIMIZATION_INTERVAL_MINUTES)")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the Prometheus /metrics endpoint (defaults to METRICS_ADDR)")
	rootCmd.Flags().StringVarP(&output, "output", "o", "text", "Report format for --once: text, json, csv, html")
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single cycle, print the report and exit")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log actions instead of applying them")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAgent(cmd *cobra.Command, args []string) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	})))

	cfg := config.NewConfig()
	if clusterName != "" {
		cfg.ClusterName = clusterName
		if os.Getenv("AUDIT_BUCKET") == "" {
			cfg.AuditBucket = clusterName + "-cost-optimization"
		}
	}
	if region != "" {
		cfg.Region = region
	}
	if interval > 0 {
		cfg.OptimizationInterval = interval
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load AWS configuration: %v\n", err)
		os.Exit(1)
	}

	table := pricing.NewTable(cfg.PricingOverrides)

	// Kubernetes access is best-effort: without it the agent still
	// analyzes instance and billing metrics, but pod actions fail.
	var podSource collector.PodSource
	var podScaler executor.PodScaler
	if restCfg, err := collector.BuildRestConfig(); err != nil {
		slog.Warn("kubernetes unavailable, pod metrics and scaling disabled", "error", err)
	} else {
		clientset, err := kubernetes.NewForConfig(restCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create Kubernetes client: %v\n", err)
			os.Exit(1)
		}
		podScaler = executor.NewKubePodScaler(clientset)

		if cfg.PodMetricsSource == "prometheus" {
			promSource, err := collector.NewPrometheusPodSource(cfg.PrometheusURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to create Prometheus client: %v\n", err)
				os.Exit(1)
			}
			podSource = promSource
		} else {
			metricsClient, err := metricsv.NewForConfig(restCfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to create metrics client: %v\n", err)
				os.Exit(1)
			}
			podSource = collector.NewKubePodSource(clientset, metricsClient)
		}
	}

	metrics := agent.NewMetrics(nil)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := agent.ServeMetrics(cfg.MetricsAddr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics endpoint failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	a := agent.New(agent.Deps{
		Collector: collector.New(cfg.ClusterName,
			collector.NewEC2NodeSource(awsCfg, cfg.ClusterName, table),
			podSource,
			collector.NewCostExplorerSource(awsCfg)),
		Analyzer: analyzer.New(table),
		Advisor: advisor.New(advisor.NewBedrockInvoker(awsCfg, cfg.BedrockModelID),
			cfg.ClusterName, cfg.Region, cfg.Thresholds),
		Engine:   recommender.New(table),
		Executor: executor.New(podScaler, executor.NewEC2Resizer(awsCfg), cfg.ConfidenceThreshold, dryRun),
		Sink:     audit.NewS3Sink(awsCfg, cfg.AuditBucket),
		Metrics:  metrics,
		Interval: cfg.OptimizationInterval,
	})

	if once {
		result := a.RunCycle(ctx)
		if err := reporter.New(reporter.Format(output)).Write(os.Stdout, result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
			os.Exit(1)
		}
		if !result.Success {
			os.Exit(1)
		}
		return
	}

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Agent stopped: %v\n", err)
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
