package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger.
type Metrics struct {
	// Ledger operations by name and outcome ("ok" or an error kind)
	Operations *prometheus.CounterVec

	// Operation latency including the transaction
	OperationLatency *prometheus.HistogramVec

	// Value moved by flow: disbursed, repaid, penalty, deposited, withdrawn
	Volume *prometheus.CounterVec

	// Pool balance after the last committed operation
	PoolAvailable prometheus.Gauge

	// Events that could not be published after commit
	PublishFailures prometheus.Counter
}

// New registers the ledger collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bnpl_ledger_operations_total",
			Help: "Total ledger operations by operation and outcome",
		}, []string{"op", "outcome"}),

		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bnpl_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),

		Volume: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bnpl_ledger_volume_micro_units_total",
			Help: "Value moved through the ledger in micro-units by flow",
		}, []string{"flow"}),

		PoolAvailable: f.NewGauge(prometheus.GaugeOpts{
			Name: "bnpl_pool_available_micro_units",
			Help: "Liquidity pool available balance in micro-units",
		}),

		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "bnpl_event_publish_failures_total",
			Help: "Committed events that failed to publish",
		}),
	}
}

// ObserveOperation records the outcome and duration of one ledger operation.
func (m *Metrics) ObserveOperation(op, outcome string, start time.Time) {
	if m != nil {
		m.Operations.WithLabelValues(op, outcome).Inc()
		m.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// AddVolume records value moved for a flow.
func (m *Metrics) AddVolume(flow string, amount int64) {
	if m != nil && amount > 0 {
		m.Volume.WithLabelValues(flow).Add(float64(amount))
	}
}

// SetPoolAvailable records the pool balance after a commit.
func (m *Metrics) SetPoolAvailable(balance int64) {
	if m != nil {
		m.PoolAvailable.Set(float64(balance))
	}
}

// IncrementPublishFailures counts events dropped by the publisher.
func (m *Metrics) IncrementPublishFailures(n int) {
	if m != nil {
		m.PublishFailures.Add(float64(n))
	}
}
