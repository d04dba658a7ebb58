// Package monitoring exposes prometheus metrics for the inventory core.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quartermaster_ledger_operations_total",
			Help: "Ledger operations by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	itemsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quartermaster_items_tracked",
			Help: "Number of items currently registered.",
		},
	)
)

func init() {
	prometheus.MustRegister(operationsTotal, itemsTracked)
}

// ObserveOperation records the outcome of one ledger operation.
func ObserveOperation(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operationsTotal.WithLabelValues(action, outcome).Inc()
}

// SetItemsTracked updates the registered-items gauge.
func SetItemsTracked(n int) {
	itemsTracked.Set(float64(n))
}
