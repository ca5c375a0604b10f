package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amm_operations_total",
			Help: "Pool operations by name and result",
		},
		[]string{"op", "result"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amm_operation_duration_seconds",
			Help:    "Pool operation duration in seconds, including persistence and settlement",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	SwapInput = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amm_swap_input_total",
			Help: "Base units swapped into pools by input side",
		},
		[]string{"side"},
	)

	SwapFees = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amm_swap_fee_total",
			Help: "Base units retained as swap fees by input side",
		},
		[]string{"side"},
	)

	SettlementRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amm_settlement_retries_total",
		Help: "Settlement attempts that failed and were retried",
	})
)

// ObserveOperation records one finished operation.
func ObserveOperation(op, result string, started time.Time) {
	Operations.WithLabelValues(op, result).Inc()
	OperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveSwap records swap volume and fees.
func ObserveSwap(side string, input, fee uint64) {
	SwapInput.WithLabelValues(side).Add(float64(input))
	SwapFees.WithLabelValues(side).Add(float64(fee))
}

// WriteTextfile dumps the default registry in the node exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
