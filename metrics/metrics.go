package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// SwapMetrics tracks executor activity. Collectors are created unregistered
// so multiple executors can coexist; call Register to expose one instance.
type SwapMetrics struct {
	Attempts        prometheus.Counter
	Successes       prometheus.Counter
	Failures        *prometheus.CounterVec
	VolumeWei       prometheus.Counter
	OutputWei       prometheus.Counter
	ExecutionTime   prometheus.Histogram
	ActiveExchanges prometheus.Gauge
	RollbackSteps   prometheus.Counter
	StrayDeposits   prometheus.Counter
}

// NewSwapMetrics creates the executor metric set under the given namespace.
func NewSwapMetrics(namespace string) *SwapMetrics {
	return &SwapMetrics{
		Attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_attempts_total",
			Help:      "Total number of exchange attempts",
		}),
		Successes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_successes_total",
			Help:      "Total number of successful exchanges",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_failures_total",
			Help:      "Number of failed exchanges by failure kind",
		}, []string{"kind"}),
		VolumeWei: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_input_volume_wei",
			Help:      "Total native value exchanged in wei",
		}),
		OutputWei: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_output_volume_wei",
			Help:      "Total output asset forwarded in wei",
		}),
		ExecutionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_execution_seconds",
			Help:      "Time taken to execute one exchange",
			Buckets:   prometheus.DefBuckets,
		}),
		ActiveExchanges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exchanges_in_flight",
			Help:      "Number of exchanges currently executing",
		}),
		RollbackSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollback_steps_total",
			Help:      "Total number of journal compensations executed",
		}),
		StrayDeposits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stray_deposits_total",
			Help:      "Number of unsolicited native value receipts",
		}),
	}
}

// Register attaches all collectors to the given registerer.
func (m *SwapMetrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.Attempts,
		m.Successes,
		m.Failures,
		m.VolumeWei,
		m.OutputWei,
		m.ExecutionTime,
		m.ActiveExchanges,
		m.RollbackSteps,
		m.StrayDeposits,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// SuccessRate derives the success ratio from the attempt and success
// counters. Returns 0 when nothing has been attempted yet.
func (m *SwapMetrics) SuccessRate() float64 {
	attempts := counterValue(m.Attempts)
	if attempts == 0 {
		return 0
	}
	return counterValue(m.Successes) / attempts
}

func counterValue(c prometheus.Counter) float64 {
	var metric dto.Metric
	if err := c.Write(&metric); err != nil || metric.Counter == nil {
		return 0
	}
	return metric.Counter.GetValue()
}
