package pgrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"trendora-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type productRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) q(ctx context.Context) DBTX {
	return querier(ctx, r.db)
}

const productColumns = `id, name, slug, description, price, original_price, category_id,
	images, sizes, stock, color, in_stock, tags, featured, is_active,
	views, sold, rating_average, rating_count, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var images []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OriginalPrice, &p.CategoryID,
		&images, &p.Sizes, &p.Stock, &p.Color, &p.InStock, &p.Tags, &p.Featured, &p.IsActive,
		&p.Views, &p.Sold, &p.Rating.Average, &p.Rating.Count, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(images) > 0 {
		json.Unmarshal(images, &p.Images)
	}
	return &p, nil
}

// --- Products ---

func (r *productRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	q := r.q(ctx)

	images, _ := json.Marshal(product.Images)
	_, err := q.Exec(ctx, `
		INSERT INTO products (
			id, name, slug, description, price, original_price, category_id,
			images, sizes, stock, color, in_stock, tags, featured, is_active,
			views, sold, rating_average, rating_count, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,0,0,0,0,$16,$17)`,
		product.ID, product.Name, product.Slug, product.Description, product.Price,
		product.OriginalPrice, product.CategoryID, images, product.Sizes, product.Stock,
		product.Color, product.InStock, product.Tags, product.Featured, product.IsActive,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("slug '%s' is already taken", product.Slug)
		}
		return err
	}

	return r.replaceVariants(ctx, product.ID, product.Variants)
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	q := r.q(ctx)

	images, _ := json.Marshal(product.Images)
	tag, err := q.Exec(ctx, `
		UPDATE products SET
			name = $2, slug = $3, description = $4, price = $5, original_price = $6,
			category_id = $7, images = $8, sizes = $9, stock = $10, color = $11,
			in_stock = $12, tags = $13, featured = $14, is_active = $15, updated_at = $16
		WHERE id = $1`,
		product.ID, product.Name, product.Slug, product.Description, product.Price,
		product.OriginalPrice, product.CategoryID, images, product.Sizes, product.Stock,
		product.Color, product.InStock, product.Tags, product.Featured, product.IsActive,
		product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("slug '%s' is already taken", product.Slug)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("product %s not found", product.ID)
	}

	return r.replaceVariants(ctx, product.ID, product.Variants)
}

func (r *productRepository) replaceVariants(ctx context.Context, productID string, variants []domain.Variant) error {
	q := r.q(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for i, v := range variants {
		_, err := q.Exec(ctx, `
			INSERT INTO product_variants (product_id, position, size, stock, sku, price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			productID, i, v.Size, v.Stock, v.SKU, v.Price,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteProduct removes the product row; variants, reviews, cart lines
// and wishlist entries go with it through the schema's ON DELETE CASCADE.
func (r *productRepository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("product %s not found", id)
	}
	return nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	q := r.q(ctx)

	p, err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("product %s not found", id)
		}
		return nil, err
	}
	if err := r.loadVariants(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	q := r.q(ctx)

	p, err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("product '%s' not found", slug)
		}
		return nil, err
	}
	if err := r.loadVariants(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) loadVariants(ctx context.Context, p *domain.Product) error {
	q := r.q(ctx)

	rows, err := q.Query(ctx, `
		SELECT size, stock, sku, price FROM product_variants
		WHERE product_id = $1 ORDER BY position`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.Size, &v.Stock, &v.SKU, &v.Price); err != nil {
			return err
		}
		p.Variants = append(p.Variants, v)
	}
	return rows.Err()
}

func (r *productRepository) GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	q := r.q(ctx)

	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Query != "" {
		p := arg("%" + filter.Query + "%")
		where = append(where, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", p, p))
	}
	if filter.CategorySlug != "" {
		where = append(where, fmt.Sprintf(
			"p.category_id IN (SELECT id FROM categories WHERE slug = %s)", arg(filter.CategorySlug)))
	}
	if filter.MinPrice > 0 {
		where = append(where, fmt.Sprintf("p.price >= %s", arg(filter.MinPrice)))
	}
	if filter.MaxPrice > 0 {
		where = append(where, fmt.Sprintf("p.price <= %s", arg(filter.MaxPrice)))
	}
	if filter.IsActive != nil {
		where = append(where, fmt.Sprintf("p.is_active = %s", arg(*filter.IsActive)))
	}
	if filter.Featured != nil {
		where = append(where, fmt.Sprintf("p.featured = %s", arg(*filter.Featured)))
	}

	orderBy := "p.created_at DESC"
	switch filter.Sort {
	case "price_asc":
		orderBy = "p.price ASC"
	case "price_desc":
		orderBy = "p.price DESC"
	case "popular":
		orderBy = "p.sold DESC"
	case "rating":
		orderBy = "p.rating_average DESC"
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM products p WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM products p WHERE %s ORDER BY %s LIMIT %s OFFSET %s`,
		productColumns, whereClause, orderBy, arg(limit), arg(filter.Offset))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Variant rows for list views; one query per page item keeps the SQL
	// simple and the page sizes are small.
	for i := range products {
		if err := r.loadVariants(ctx, &products[i]); err != nil {
			return nil, 0, err
		}
	}

	return products, total, nil
}

func (r *productRepository) GetProductStats(ctx context.Context) (*domain.ProductStats, error) {
	q := r.q(ctx)

	var stats domain.ProductStats
	err := q.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active),
			COUNT(*) FILTER (WHERE stock = 0),
			COUNT(*) FILTER (WHERE stock > 0 AND stock <= 5),
			COALESCE(SUM(price * stock), 0)
		FROM products`).Scan(
		&stats.TotalProducts, &stats.ActiveProducts, &stats.InactiveProducts,
		&stats.OutOfStock, &stats.LowStock, &stats.TotalInventoryValue,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Field-scoped atomic updates ---

func (r *productRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.q(ctx).Exec(ctx, `UPDATE products SET views = views + 1 WHERE id = $1`, id)
	return err
}

// ReserveStock decrements stock and increments sold, guarded so stock can
// never go negative: concurrent placements for the last unit race on the
// conditional UPDATE and exactly one wins. When the line carries a size
// with a matching variant row, that row is decremented under the same
// guard so the variant sum stays consistent with the aggregate.
func (r *productRepository) ReserveStock(ctx context.Context, productID string, size *string, quantity int) error {
	q := r.q(ctx)

	if size != nil {
		tag, err := q.Exec(ctx, `
			UPDATE product_variants SET stock = stock - $3
			WHERE product_id = $1 AND size = $2 AND stock >= $3`,
			productID, *size, quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var hasVariant bool
			if err := q.QueryRow(ctx, `
				SELECT EXISTS(SELECT 1 FROM product_variants WHERE product_id = $1 AND size = $2)`,
				productID, *size).Scan(&hasVariant); err != nil {
				return err
			}
			if hasVariant {
				return domain.InsufficientStockf("not enough stock for size %s", *size)
			}
			// Legacy flat product: no variant row, the aggregate guard below decides.
		}
	}

	tag, err := q.Exec(ctx, `
		UPDATE products SET
			stock = stock - $2,
			sold = sold + $2,
			in_stock = (stock - $2) > 0,
			updated_at = now()
		WHERE id = $1 AND stock >= $2`,
		productID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.InsufficientStockf("not enough stock available")
	}
	return nil
}

// RestoreStock is the exact inverse of ReserveStock, used when an order
// transitions into cancelled.
func (r *productRepository) RestoreStock(ctx context.Context, productID string, size *string, quantity int) error {
	q := r.q(ctx)

	if size != nil {
		if _, err := q.Exec(ctx, `
			UPDATE product_variants SET stock = stock + $3
			WHERE product_id = $1 AND size = $2`,
			productID, *size, quantity); err != nil {
			return err
		}
	}

	_, err := q.Exec(ctx, `
		UPDATE products SET
			stock = stock + $2,
			sold = GREATEST(sold - $2, 0),
			in_stock = true,
			updated_at = now()
		WHERE id = $1`,
		productID, quantity)
	return err
}

func (r *productRepository) SetRatingSummary(ctx context.Context, productID string, average float64, count int) error {
	_, err := r.q(ctx).Exec(ctx, `
		UPDATE products SET rating_average = $2, rating_count = $3 WHERE id = $1`,
		productID, average, count)
	return err
}

// --- Categories ---

const categoryColumns = `id, name, slug, description, image, parent_id, is_active, sort_order`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.ParentID, &c.IsActive, &c.SortOrder)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *productRepository) GetCategories(ctx context.Context, isActive *bool) ([]domain.Category, error) {
	q := r.q(ctx)

	query := `SELECT ` + categoryColumns + ` FROM categories`
	args := []any{}
	if isActive != nil {
		query += ` WHERE is_active = $1`
		args = append(args, *isActive)
	}
	query += ` ORDER BY sort_order, name`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

func (r *productRepository) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	c, err := scanCategory(r.q(ctx).QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("category %s not found", id)
		}
		return nil, err
	}
	return c, nil
}

func (r *productRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO categories (id, name, slug, description, image, parent_id, is_active, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		category.ID, category.Name, category.Slug, category.Description,
		category.Image, category.ParentID, category.IsActive, category.SortOrder,
	)
	if isUniqueViolation(err) {
		return domain.Conflictf("slug '%s' is already taken", category.Slug)
	}
	return err
}

func (r *productRepository) UpdateCategory(ctx context.Context, category *domain.Category) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE categories SET
			name = $2, slug = $3, description = $4, image = $5,
			parent_id = $6, is_active = $7, sort_order = $8
		WHERE id = $1`,
		category.ID, category.Name, category.Slug, category.Description,
		category.Image, category.ParentID, category.IsActive, category.SortOrder,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("slug '%s' is already taken", category.Slug)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("category %s not found", category.ID)
	}
	return nil
}

func (r *productRepository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("category %s not found", id)
	}
	return nil
}

// --- Reviews ---

func (r *productRepository) CreateReview(ctx context.Context, review *domain.Review) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, title, comment, verified, helpful, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8)`,
		review.ID, review.ProductID, review.UserID, review.Rating,
		review.Title, review.Comment, review.Verified, review.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.Conflictf("you have already reviewed this product")
	}
	return err
}

func (r *productRepository) GetReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT id, product_id, user_id, rating, title, comment, verified, helpful, created_at
		FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating,
			&rv.Title, &rv.Comment, &rv.Verified, &rv.Helpful, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *productRepository) GetReviewSummary(ctx context.Context, productID string) (float64, int, error) {
	var average float64
	var count int
	err := r.q(ctx).QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE product_id = $1`,
		productID).Scan(&average, &count)
	return average, count, err
}
