// Package metrics exposes Prometheus instrumentation for the order pipeline.
// Metrics are emitted fire-and-forget from command handlers through the
// observer interfaces; no business outcome ever depends on them.
package metrics

import (
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/order"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics implements the command handlers' observer interfaces with
// Prometheus counters.
type OrderMetrics struct {
	ordersCreated  prometheus.Counter
	orderItems     prometheus.Counter
	orderAmountSum prometheus.Counter
	processed      *prometheus.CounterVec
}

// NewOrderMetrics creates and registers the order counters.
// Panics on duplicate registration, which only happens on wiring mistakes.
func NewOrderMetrics(registerer prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders accepted at intake.",
		}),
		orderItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_line_items_total",
			Help: "Line items across all accepted orders.",
		}),
		orderAmountSum: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_amount_sum",
			Help: "Running sum of accepted order totals.",
		}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_processed_total",
			Help: "Processing attempts by outcome.",
		}, []string{"outcome"}),
	}

	registerer.MustRegister(m.ordersCreated, m.orderItems, m.orderAmountSum, m.processed)
	return m
}

// OrderCreated records one accepted order.
func (m *OrderMetrics) OrderCreated(ord *order.Order) {
	m.ordersCreated.Inc()
	m.orderItems.Add(float64(len(ord.LineItems())))

	amount, _ := ord.TotalAmount().Float64()
	m.orderAmountSum.Add(amount)
}

// OrderProcessed records one finished processing attempt.
func (m *OrderMetrics) OrderProcessed(outcome commands.ProcessOrderOutcome) {
	m.processed.WithLabelValues(outcome.String()).Inc()
}
