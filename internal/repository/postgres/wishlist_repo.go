package pgrepo

import (
	"context"
	"encoding/json"
	"time"

	"trendora-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type wishlistRepository struct {
	db *pgxpool.Pool
}

func NewWishlistRepository(db *pgxpool.Pool) domain.WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) q(ctx context.Context) DBTX {
	return querier(ctx, r.db)
}

func (r *wishlistRepository) GetWishlistByUserID(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var w domain.Wishlist
	err := r.q(ctx).QueryRow(ctx, `
		SELECT id, user_id, created_at, updated_at FROM wishlists WHERE user_id = $1`,
		userID).Scan(&w.ID, &w.UserID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("wishlist not found")
		}
		return nil, err
	}
	return &w, nil
}

func (r *wishlistRepository) CreateWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	now := time.Now()
	w := &domain.Wishlist{
		ID:        newID(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO wishlists (id, user_id, created_at, updated_at) VALUES ($1,$2,$3,$4)`,
		w.ID, w.UserID, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *wishlistRepository) GetWishlistItems(ctx context.Context, wishlistID string) ([]domain.WishlistItem, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT
			wi.id, wi.product_id, wi.added_at,
			p.name, p.slug, p.price, p.original_price, p.images, p.in_stock, p.is_active
		FROM wishlist_items wi
		JOIN products p ON p.id = wi.product_id
		WHERE wi.wishlist_id = $1
		ORDER BY wi.added_at DESC`, wishlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.WishlistItem
	for rows.Next() {
		var it domain.WishlistItem
		var images []byte
		err := rows.Scan(
			&it.ID, &it.ProductID, &it.AddedAt,
			&it.Product.Name, &it.Product.Slug, &it.Product.Price, &it.Product.OriginalPrice,
			&images, &it.Product.InStock, &it.Product.IsActive,
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

// AddWishlistItem is idempotent: re-adding a product already on the
// wishlist leaves the set unchanged.
func (r *wishlistRepository) AddWishlistItem(ctx context.Context, wishlistID, productID string) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO wishlist_items (id, wishlist_id, product_id, added_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (wishlist_id, product_id) DO NOTHING`,
		newID(), wishlistID, productID, time.Now(),
	)
	return err
}

func (r *wishlistRepository) RemoveWishlistItem(ctx context.Context, wishlistID, productID string) error {
	_, err := r.q(ctx).Exec(ctx, `
		DELETE FROM wishlist_items WHERE wishlist_id = $1 AND product_id = $2`,
		wishlistID, productID)
	return err
}

func (r *wishlistRepository) CheckItemInWishlist(ctx context.Context, wishlistID, productID string) (bool, error) {
	var exists bool
	err := r.q(ctx).QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM wishlist_items WHERE wishlist_id = $1 AND product_id = $2)`,
		wishlistID, productID).Scan(&exists)
	return exists, err
}
