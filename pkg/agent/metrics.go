package agent

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opscart/eks-cost-agent/pkg/analyzer"
	"github.com/opscart/eks-cost-agent/pkg/models"
)

// Metrics are the agent's own operational metrics, exposed in
// Prometheus format. They describe the control loop, not the cluster.
type Metrics struct {
	cyclesTotal          *prometheus.CounterVec
	cycleDuration        prometheus.Histogram
	recommendationsTotal *prometheus.CounterVec
	executionsTotal      *prometheus.CounterVec
	estimatedSavings     prometheus.Gauge
	opportunityGauge     *prometheus.GaugeVec
}

// NewMetrics registers the agent metrics with the given registerer.
// Passing nil uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		cyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cost_agent_cycles_total",
			Help: "Optimization cycles run, by result.",
		}, []string{"result"}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cost_agent_cycle_duration_seconds",
			Help:    "Wall-clock duration of optimization cycles.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		recommendationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cost_agent_recommendations_total",
			Help: "Recommendations generated, by action type.",
		}, []string{"action_type"}),
		executionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cost_agent_executions_total",
			Help: "Execution attempts, by outcome.",
		}, []string{"outcome"}),
		estimatedSavings: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cost_agent_estimated_monthly_savings_dollars",
			Help: "Estimated monthly savings from the last cycle's executed actions.",
		}),
		opportunityGauge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cost_agent_opportunities",
			Help: "Optimization opportunities found in the last cycle, by category.",
		}, []string{"category"}),
	}
}

func (m *Metrics) observeCycle(result *models.CycleResult) {
	if m == nil {
		return
	}

	label := "success"
	if !result.Success {
		label = "failure"
	}
	m.cyclesTotal.WithLabelValues(label).Inc()
	m.cycleDuration.Observe(result.Duration.Seconds())

	for _, rec := range result.Recommendations {
		m.recommendationsTotal.WithLabelValues(string(rec.ActionType)).Inc()
	}

	if report := result.ExecutionResults; report != nil {
		m.executionsTotal.WithLabelValues("executed").Add(float64(len(report.Executed)))
		m.executionsTotal.WithLabelValues("skipped").Add(float64(len(report.Skipped)))
		m.executionsTotal.WithLabelValues("failed").Add(float64(len(report.Failed)))
		m.estimatedSavings.Set(report.TotalSavingsEstimated)
	}
}

func (m *Metrics) observeUsage(usage *analyzer.UsageAnalysis) {
	if m == nil || usage == nil {
		return
	}
	m.opportunityGauge.WithLabelValues("underutilized").Set(float64(len(usage.Underutilized)))
	m.opportunityGauge.WithLabelValues("overutilized").Set(float64(len(usage.Overutilized)))
	m.opportunityGauge.WithLabelValues("spot").Set(float64(len(usage.SpotOpportunities)))
	m.opportunityGauge.WithLabelValues("right_sizing").Set(float64(len(usage.RightSizeOpportunities)))
}

// ServeMetrics exposes the registry on addr until the server fails.
// Intended to run in its own goroutine.
func ServeMetrics(addr string, gatherer prometheus.Gatherer) error {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
