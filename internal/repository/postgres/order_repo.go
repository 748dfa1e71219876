package pgrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"trendora-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) q(ctx context.Context) DBTX {
	return querier(ctx, r.db)
}

// --- Orders ---

func (r *orderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	q := r.q(ctx)

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, shipping_address, payment_method, payment_status,
			subtotal, shipping_cost, tax, total_amount, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		order.ID, order.OrderNumber, order.UserID, address, order.PaymentMethod,
		order.PaymentStatus, order.Subtotal, order.ShippingCost, order.Tax,
		order.TotalAmount, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err := q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, image, quantity, size, color, price)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			item.ID, order.ID, item.ProductID, item.Name, item.Image,
			item.Quantity, item.Size, item.Color, item.Price,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

const orderColumns = `id, order_number, user_id, shipping_address, payment_method, payment_status,
	subtotal, shipping_cost, tax, total_amount, status, tracking_number,
	delivered_at, cancelled_at, created_at, updated_at`

func (r *orderRepository) scanOrderRows(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	q := r.q(ctx)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var address []byte
		err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.UserID, &address, &o.PaymentMethod, &o.PaymentStatus,
			&o.Subtotal, &o.ShippingCost, &o.Tax, &o.TotalAmount, &o.Status, &o.TrackingNumber,
			&o.DeliveredAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(address) > 0 {
			json.Unmarshal(address, &o.ShippingAddress)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.getOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *orderRepository) getOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT id, order_id, product_id, name, image, quantity, size, color, price
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Image,
			&it.Quantity, &it.Size, &it.Color, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	orders, err := r.scanOrderRows(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.NotFoundf("order %s not found", id)
	}
	return &orders[0], nil
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.scanOrderRows(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *orderRepository) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	q := r.q(ctx)

	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = %s", arg(filter.Status)))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(order_number ILIKE %s OR user_id::text ILIKE %s)", p, p))
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT %s OFFSET %s`,
		orderColumns, whereClause, arg(limit), arg((page-1)*limit))

	orders, err := r.scanOrderRows(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE orders SET
			status = $2,
			tracking_number = $3,
			delivered_at = $4,
			cancelled_at = $5,
			updated_at = $6
		WHERE id = $1`,
		order.ID, order.Status, order.TrackingNumber,
		order.DeliveredAt, order.CancelledAt, order.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("order %s not found", order.ID)
	}
	return nil
}

// --- Cart ---

func (r *orderRepository) GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.q(ctx).QueryRow(ctx, `
		SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`,
		userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("cart not found")
		}
		return nil, err
	}
	return &cart, nil
}

func (r *orderRepository) CreateCart(ctx context.Context, cart *domain.Cart) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1,$2,$3,$4)`,
		cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt,
	)
	return err
}

// GetCartItems joins a live product summary onto each line so the client
// can render current availability next to the captured price.
func (r *orderRepository) GetCartItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT
			ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.size, ci.price,
			p.name, p.slug, p.price, p.images, p.color, p.stock, p.in_stock, p.is_active
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		var images []byte
		err := rows.Scan(
			&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.Size, &it.Price,
			&it.Product.Name, &it.Product.Slug, &it.Product.Price, &images,
			&it.Product.Color, &it.Product.Stock, &it.Product.InStock, &it.Product.IsActive,
		)
		if err != nil {
			return nil, err
		}
		it.Product.ID = it.ProductID
		if len(images) > 0 {
			json.Unmarshal(images, &it.Product.Images)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *orderRepository) UpsertCartItem(ctx context.Context, cartID, productID string, size *string, quantity int, price float64) error {
	q := r.q(ctx)

	// The unique index on (cart_id, product_id, coalesce(size, '')) makes
	// the same (product, size) pair a single line.
	_, err := q.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, size, quantity, price)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (cart_id, product_id, COALESCE(size, ''))
		DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			price = EXCLUDED.price`,
		newID(), cartID, productID, size, quantity, price,
	)
	if err != nil {
		return err
	}
	return r.touchCart(ctx, cartID)
}

func (r *orderRepository) UpdateCartItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND id = $2`,
		cartID, itemID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("cart item %s not found", itemID)
	}
	return r.touchCart(ctx, cartID)
}

// RemoveCartItem is a no-op for an item id that is not in the cart:
// deleting an absent line is already the desired end state.
func (r *orderRepository) RemoveCartItem(ctx context.Context, cartID, itemID string) error {
	if _, err := r.q(ctx).Exec(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`, cartID, itemID); err != nil {
		return err
	}
	return r.touchCart(ctx, cartID)
}

func (r *orderRepository) ClearCart(ctx context.Context, cartID string) error {
	if _, err := r.q(ctx).Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	return r.touchCart(ctx, cartID)
}

func (r *orderRepository) touchCart(ctx context.Context, cartID string) error {
	_, err := r.q(ctx).Exec(ctx, `UPDATE carts SET updated_at = $2 WHERE id = $1`, cartID, time.Now())
	return err
}

// HasDeliveredProduct reports whether the user has a delivered order
// containing the product. Used to mark reviews as verified purchases.
func (r *orderRepository) HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := r.q(ctx).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status = $3
		)`, userID, productID, domain.OrderStatusDelivered).Scan(&exists)
	return exists, err
}
