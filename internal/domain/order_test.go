package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeOrderTotals(t *testing.T) {
	t.Run("below free shipping threshold", func(t *testing.T) {
		shipping, tax, total := ComputeOrderTotals(1500)
		assert.Equal(t, FlatShippingCost, shipping)
		assert.InDelta(t, 270.0, tax, 0.001)
		assert.InDelta(t, 1870.0, total, 0.001)
	})

	t.Run("above free shipping threshold", func(t *testing.T) {
		shipping, tax, total := ComputeOrderTotals(2500)
		assert.Equal(t, 0.0, shipping)
		assert.InDelta(t, 450.0, tax, 0.001)
		assert.InDelta(t, 2950.0, total, 0.001)
	})

	t.Run("exactly at the threshold still pays shipping", func(t *testing.T) {
		shipping, _, _ := ComputeOrderTotals(2000)
		assert.Equal(t, FlatShippingCost, shipping)
	})
}

func TestCartComputeTotals(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{Quantity: 2, Price: 500},
		{Quantity: 1, Price: 300},
	}}
	cart.ComputeTotals()
	assert.Equal(t, 1300.0, cart.TotalAmount)
	assert.Equal(t, 3, cart.TotalItems)

	cart.Items = nil
	cart.ComputeTotals()
	assert.Equal(t, 0.0, cart.TotalAmount)
	assert.Equal(t, 0, cart.TotalItems)
}

func TestOrderStatusChecks(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, IsValidOrderStatus(s), s)
	}
	assert.False(t, IsValidOrderStatus("misplaced"))

	assert.True(t, IsTerminalOrderStatus(OrderStatusDelivered))
	assert.True(t, IsTerminalOrderStatus(OrderStatusCancelled))
	assert.False(t, IsTerminalOrderStatus(OrderStatusShipped))
	assert.False(t, IsTerminalOrderStatus(OrderStatusPending))
}
