package metrics_test

import (
	"testing"

	"orderflow/internal/adapters/out/metrics"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMetrics_OrderCreated(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewOrderMetrics(registry)

	item1, err := order.NewLineItem("keyboard", 1, decimal.RequireFromString("49.90"))
	require.NoError(t, err)
	item2, err := order.NewLineItem("mouse", 2, decimal.RequireFromString("19.99"))
	require.NoError(t, err)
	ord, err := order.NewOrder(kernel.NewUUID(), "ref-1", []order.LineItem{item1, item2})
	require.NoError(t, err)

	m.OrderCreated(ord)
	m.OrderCreated(ord)

	families, err := registry.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, family := range families {
		values[family.GetName()] = family.GetMetric()[0].GetCounter().GetValue()
	}

	assert.InDelta(t, 2, values["orders_created_total"], 0)
	assert.InDelta(t, 4, values["orders_line_items_total"], 0)
	assert.InDelta(t, 179.76, values["orders_amount_sum"], 0.001)
}

func TestOrderMetrics_OrderProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewOrderMetrics(registry)

	m.OrderProcessed(commands.ProcessOrderOutcomeCompleted)
	m.OrderProcessed(commands.ProcessOrderOutcomeCompleted)
	m.OrderProcessed(commands.ProcessOrderOutcomeRetry)

	families, err := registry.Gather()
	require.NoError(t, err)

	byOutcome := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "orders_processed_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			byOutcome[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}

	assert.InDelta(t, 2, byOutcome["completed"], 0)
	assert.InDelta(t, 1, byOutcome["retry"], 0)
}
