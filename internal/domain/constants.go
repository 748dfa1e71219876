package domain

// Order Statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment Statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment Methods. The method itself is opaque to the core; only "cod"
// carries meaning (payment stays pending until collected).
const (
	PaymentMethodCOD  = "cod"
	PaymentMethodCard = "card"
)

// Product Sizes
const (
	SizeXS      = "XS"
	SizeS       = "S"
	SizeM       = "M"
	SizeL       = "L"
	SizeXL      = "XL"
	SizeXXL     = "XXL"
	SizeOneSize = "One Size"
)

// List Exports for API
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var PaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

var ProductSizes = []string{
	SizeXS,
	SizeS,
	SizeM,
	SizeL,
	SizeXL,
	SizeXXL,
	SizeOneSize,
}

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminalOrderStatus reports whether no further transition may leave s.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsValidSize reports whether s is a known size enum value.
func IsValidSize(s string) bool {
	for _, v := range ProductSizes {
		if v == s {
			return true
		}
	}
	return false
}
