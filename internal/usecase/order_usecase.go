package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trendora-backend/internal/domain"
	"trendora-backend/pkg/cache"
	"trendora-backend/pkg/utils"
)

type OrderUsecase struct {
	orderRepo   domain.OrderRepository
	productRepo domain.ProductRepository
	txManager   domain.TransactionManager
	cache       cache.CacheService
	maxCartQty  int
}

func NewOrderUsecase(repo domain.OrderRepository, pRepo domain.ProductRepository, txManager domain.TransactionManager, cacheService cache.CacheService, maxCartQty int) *OrderUsecase {
	return &OrderUsecase{
		orderRepo:   repo,
		productRepo: pRepo,
		txManager:   txManager,
		cache:       cacheService,
		maxCartQty:  maxCartQty,
	}
}

// --- Cart Logic ---

// GetMyCart returns the user's cart, creating an empty one on first touch.
func (u *OrderUsecase) GetMyCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := u.orderRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			return nil, err
		}
		now := time.Now()
		cart = &domain.Cart{
			ID:        utils.GenerateUUID(),
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if createErr := u.orderRepo.CreateCart(ctx, cart); createErr != nil {
			slog.Error("Usecase: GetMyCart - CreateCart failed", "error", createErr)
			return nil, createErr
		}
		slog.Info("Usecase: GetMyCart - Created new cart", "cart_id", cart.ID, "user_id", userID)
	}

	items, err := u.orderRepo.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	cart.ComputeTotals()
	return cart, nil
}

func (u *OrderUsecase) AddToCart(ctx context.Context, userID, productID string, size *string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.InvalidInputf("quantity must be at least 1")
	}

	product, err := u.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.NotFoundf("product %s not found", productID)
	}

	// Availability is checked against the variant row when the chosen size
	// has one, otherwise against the aggregate stock.
	if size != nil {
		if !domain.IsValidSize(*size) {
			return nil, domain.InvalidInputf("unknown size %q", *size)
		}
		if v := product.VariantForSize(*size); v != nil {
			if v.Stock < quantity {
				return nil, domain.InsufficientStockf("only %d left in size %s", v.Stock, *size)
			}
		} else if len(product.Variants) > 0 {
			return nil, domain.InvalidInputf("size %s is not available for this product", *size)
		} else if product.Stock < quantity {
			return nil, domain.InsufficientStockf("only %d left in stock", product.Stock)
		}
	} else if len(product.Variants) > 0 {
		// A sizeless line on a variant-bearing product would reserve
		// against the aggregate only and let it drift from the variant sum.
		return nil, domain.InvalidInputf("size is required for this product")
	} else if product.Stock < quantity {
		return nil, domain.InsufficientStockf("only %d left in stock", product.Stock)
	}

	cart, err := u.GetMyCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing := 0
	for _, item := range cart.Items {
		if item.ProductID == productID && equalSize(item.Size, size) {
			existing = item.Quantity
			break
		}
	}
	if existing+quantity > u.maxCartQty {
		return nil, domain.InvalidInputf("cannot hold more than %d units of one item", u.maxCartQty)
	}

	price := product.ResolveUnitPrice(size)
	if err := u.orderRepo.UpsertCartItem(ctx, cart.ID, productID, size, quantity, price); err != nil {
		slog.Error("Usecase: AddToCart - UpsertCartItem failed", "error", err, "cart_id", cart.ID)
		return nil, err
	}

	return u.GetMyCart(ctx, userID)
}

// UpdateCartItemQuantity replaces the line quantity. It deliberately does
// not re-check stock: availability is enforced at checkout, where it is
// authoritative.
func (u *OrderUsecase) UpdateCartItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.InvalidInputf("quantity must be at least 1")
	}
	if quantity > u.maxCartQty {
		return nil, domain.InvalidInputf("cannot hold more than %d units of one item", u.maxCartQty)
	}

	cart, err := u.orderRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.orderRepo.UpdateCartItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		return nil, err
	}
	return u.GetMyCart(ctx, userID)
}

func (u *OrderUsecase) RemoveFromCart(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	cart, err := u.orderRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.orderRepo.RemoveCartItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}
	return u.GetMyCart(ctx, userID)
}

func (u *OrderUsecase) ClearCart(ctx context.Context, userID string) error {
	cart, err := u.orderRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return u.orderRepo.ClearCart(ctx, cart.ID)
}

// --- Checkout ---

type PlaceOrderInput struct {
	ShippingAddress domain.JSONB
	PaymentMethod   string
}

// PlaceOrder converts the user's cart into an order. Stock reservation,
// order persistence and cart clearing run in one transaction: a failed
// reservation on any line rolls back every earlier one, so partial
// reservations never survive.
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string, input PlaceOrderInput) (*domain.Order, error) {
	if len(input.ShippingAddress) == 0 {
		return nil, domain.InvalidInputf("shipping address is required")
	}
	if input.PaymentMethod == "" {
		return nil, domain.InvalidInputf("payment method is required")
	}

	cart, err := u.GetMyCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.EmptyCartf("cart is empty")
	}

	now := time.Now()
	order := &domain.Order{
		ID:              utils.GenerateUUID(),
		OrderNumber:     generateOrderNumber(now),
		UserID:          userID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusCompleted,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.PaymentMethod == domain.PaymentMethodCOD {
		order.PaymentStatus = domain.PaymentStatusPending
	}

	subtotal := 0.0
	for _, item := range cart.Items {
		image := ""
		if len(item.Product.Images) > 0 {
			image = item.Product.Images[0].URL
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:        utils.GenerateUUID(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Image:     image,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Product.Color,
			Price:     item.Price,
		})
		subtotal += item.Price * float64(item.Quantity)
	}
	order.Subtotal = subtotal
	order.ShippingCost, order.Tax, order.TotalAmount = domain.ComputeOrderTotals(subtotal)

	err = u.txManager.Do(ctx, func(ctx context.Context) error {
		for _, item := range order.Items {
			if err := u.productRepo.ReserveStock(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
				return err
			}
		}
		if err := u.orderRepo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return u.orderRepo.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		slog.Error("Usecase: PlaceOrder - transaction failed", "error", err, "user_id", userID)
		return nil, err
	}

	u.invalidateStockCaches(ctx, order.Items)
	slog.Info("Usecase: PlaceOrder - order placed", "order_number", order.OrderNumber, "total", order.TotalAmount)
	return order, nil
}

// invalidateStockCaches drops cached detail pages and inventory stats for
// products whose stock just moved, so the storefront never serves stale
// availability for a full TTL.
func (u *OrderUsecase) invalidateStockCaches(ctx context.Context, items []domain.OrderItem) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		product, err := u.productRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			continue
		}
		u.cache.Delete(cacheKeyProduct(product.Slug))
	}
	u.cache.Delete(cacheKeyProductStats)
}

// generateOrderNumber builds a human-readable reference like
// ORD-20250115-4F2A9C. Uniqueness comes from the random suffix; the date
// prefix is for support staff.
func generateOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(utils.GenerateUUID(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), suffix)
}

// --- Order Queries ---

func (u *OrderUsecase) GetMyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return u.orderRepo.GetByUserID(ctx, userID)
}

func (u *OrderUsecase) GetOrder(ctx context.Context, userID, orderID string, isAdmin bool) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, domain.Forbiddenf("you do not have access to this order")
	}
	return order, nil
}

func (u *OrderUsecase) GetAllOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	return u.orderRepo.GetAll(ctx, filter)
}

// --- Status Transitions ---

// CancelOrder is the customer-facing cancellation. Customers may cancel
// only their own orders and only before shipment.
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.Forbiddenf("you do not have access to this order")
	}
	if order.Status == domain.OrderStatusShipped {
		return nil, domain.InvalidTransitionf("order has already shipped and can no longer be cancelled")
	}
	return u.transition(ctx, order, domain.OrderStatusCancelled, nil)
}

// UpdateOrderStatus is the admin-facing transition, including admin
// cancellation.
func (u *OrderUsecase) UpdateOrderStatus(ctx context.Context, orderID, status string, trackingNumber *string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return u.transition(ctx, order, status, trackingNumber)
}

// transition is the single place order status changes. Side effects hang
// off the transition itself, not off who requested it: entering cancelled
// restores reserved stock no matter whether a customer or an admin asked.
func (u *OrderUsecase) transition(ctx context.Context, order *domain.Order, status string, trackingNumber *string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, domain.InvalidInputf("unknown order status %q", status)
	}
	if domain.IsTerminalOrderStatus(order.Status) {
		return nil, domain.InvalidTransitionf("order is already %s", order.Status)
	}
	// A same-status update is allowed only when it carries a tracking
	// number, so a shipped order's tracking can be attached or corrected.
	if status == order.Status && trackingNumber == nil {
		return nil, domain.InvalidTransitionf("order is already %s", status)
	}

	now := time.Now()
	order.Status = status
	order.UpdatedAt = now
	if trackingNumber != nil {
		order.TrackingNumber = trackingNumber
	}

	switch status {
	case domain.OrderStatusDelivered:
		order.DeliveredAt = &now
	case domain.OrderStatusCancelled:
		order.CancelledAt = &now
	}

	err := u.txManager.Do(ctx, func(ctx context.Context) error {
		if status == domain.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := u.productRepo.RestoreStock(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
					return err
				}
			}
		}
		return u.orderRepo.UpdateStatus(ctx, order)
	})
	if err != nil {
		slog.Error("Usecase: order transition failed", "error", err, "order_id", order.ID, "status", status)
		return nil, err
	}

	if status == domain.OrderStatusCancelled {
		u.invalidateStockCaches(ctx, order.Items)
	}
	slog.Info("Usecase: order transitioned", "order_number", order.OrderNumber, "status", status)
	return order, nil
}

func equalSize(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
