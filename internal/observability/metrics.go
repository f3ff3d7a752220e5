// Package observability provides Prometheus metrics for pipeline runs.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "pairlab"

// Metrics holds the Prometheus collectors of one process on a private
// registry, so batch commands can dump them to a textfile.
type Metrics struct {
	registry *prometheus.Registry

	// Screening metrics
	PairsEvaluated *prometheus.CounterVec
	ScreenDuration prometheus.Histogram

	// Backtest metrics
	BacktestDays          prometheus.Counter
	BacktestInterruptions prometheus.Counter
	TradesSimulated       *prometheus.CounterVec
	FinalValue            *prometheus.GaugeVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PairsSkipped      *prometheus.CounterVec
	TickersFetched    *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PairsEvaluated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "pairs_evaluated_total",
			Help:      "Total number of pairs evaluated by finding status",
		}, []string{"status"}),
		ScreenDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "screening",
			Name:      "duration_seconds",
			Help:      "Pair screening duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),

		BacktestDays: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "days_simulated_total",
			Help:      "Total number of simulated dates",
		}),
		BacktestInterruptions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "interruptions_total",
			Help:      "Total number of dates carried because a price was missing",
		}),
		TradesSimulated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_total",
			Help:      "Total number of simulated trades by side",
		}, []string{"side"}),
		FinalValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "final_value",
			Help:      "Final portfolio value of the last backtest per pair",
		}, []string{"pair"}),

		PipelineRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PairsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "pairs_skipped_total",
			Help:      "Total number of selected pairs not backtested by reason",
		}, []string{"reason"}),
		TickersFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "data",
			Name:      "tickers_fetched_total",
			Help:      "Total number of ticker downloads by outcome",
		}, []string{"outcome"}),
	}
}

// Registry exposes the private registry as a gatherer.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps every metric in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
