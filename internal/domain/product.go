package domain

import (
	"context"
	"math"
	"time"
)

// --- Interfaces ---

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	ParentID    *string `json:"parentId"`
	IsActive    bool    `json:"isActive"`
	SortOrder   int     `json:"sortOrder"`
}

// Image is one entry of a product's ordered media list. PublicID is the
// handle on the external asset host, kept so deletion can target the
// hosted object.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	AltText  string `json:"altText"`
}

// Variant is a per-size inventory row. Price, when set, overrides the
// product base price for cart lines selecting this size.
type Variant struct {
	Size  string   `json:"size"`
	Stock int      `json:"stock"`
	SKU   string   `json:"sku"`
	Price *float64 `json:"price"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	CategoryID    string   `json:"categoryId"`
	Images        []Image  `json:"images"`

	// Legacy flat inventory. Authoritative only while Variants is empty;
	// otherwise derived by ApplyInventoryDerivation.
	Sizes   []string `json:"sizes"`
	Stock   int      `json:"stock"`
	Color   string   `json:"color"`
	InStock bool     `json:"inStock"`

	Variants []Variant `json:"variants"`

	Tags     []string  `json:"tags"`
	Featured bool      `json:"featured"`
	IsActive bool      `json:"isActive"`
	Views    int       `json:"views"`
	Sold     int       `json:"sold"`
	Rating   Rating    `json:"rating"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApplyInventoryDerivation recomputes the flat inventory view from the
// variant list. With variants present, stock is the sum of variant stocks,
// inStock follows from it and sizes is the distinct variant size set. With
// no variants the flat fields stand as entered. Pure and idempotent:
// re-running it on a consistent product changes nothing.
func (p *Product) ApplyInventoryDerivation() {
	if len(p.Variants) == 0 {
		return
	}

	total := 0
	sizes := make([]string, 0, len(p.Variants))
	seen := make(map[string]bool, len(p.Variants))
	for _, v := range p.Variants {
		total += v.Stock
		if !seen[v.Size] {
			seen[v.Size] = true
			sizes = append(sizes, v.Size)
		}
	}

	p.Stock = total
	p.InStock = total > 0
	p.Sizes = sizes
}

// DiscountPercent is a read-time derived value, never persisted.
// Zero when no original price is set or it does not exceed the price.
func (p *Product) DiscountPercent() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= p.Price {
		return 0
	}
	return int(math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100))
}

// ResolveUnitPrice returns the price a cart line should snapshot: the
// variant price when the chosen size has one, else the base price.
func (p *Product) ResolveUnitPrice(size *string) float64 {
	if size == nil {
		return p.Price
	}
	for _, v := range p.Variants {
		if v.Size == *size {
			if v.Price != nil {
				return *v.Price
			}
			return p.Price
		}
	}
	return p.Price
}

// VariantForSize returns the variant row matching size, or nil.
func (p *Product) VariantForSize(size string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].Size == size {
			return &p.Variants[i]
		}
	}
	return nil
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"` // 1-5
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	Verified  bool      `json:"verified"`
	Helpful   int       `json:"helpful"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProductFilter struct {
	CategorySlug string
	Query        string
	MinPrice     float64
	MaxPrice     float64
	Sort         string // newest, price_asc, price_desc, popular
	Limit        int
	Offset       int
	IsActive     *bool // nil = all, true = active, false = inactive
	Featured     *bool
}

type ProductStats struct {
	TotalProducts       int64   `json:"totalProducts"`
	ActiveProducts      int64   `json:"activeProducts"`
	InactiveProducts    int64   `json:"inactiveProducts"`
	OutOfStock          int64   `json:"outOfStock"`
	LowStock            int64   `json:"lowStock"`
	TotalInventoryValue float64 `json:"totalInventoryValue"`
}

// --- Interfaces ---

type ProductRepository interface {
	// Products
	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, id string) error
	GetProductByID(ctx context.Context, id string) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	GetProducts(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	GetProductStats(ctx context.Context) (*ProductStats, error)

	// Field-scoped atomic updates. Stock mutation is conditional at the
	// storage layer (decrement-if-enough) so it can never go negative,
	// and unrelated writers never clobber each other's fields.
	IncrementViews(ctx context.Context, id string) error
	ReserveStock(ctx context.Context, productID string, size *string, quantity int) error
	RestoreStock(ctx context.Context, productID string, size *string, quantity int) error
	SetRatingSummary(ctx context.Context, productID string, average float64, count int) error

	// Categories
	GetCategories(ctx context.Context, isActive *bool) ([]Category, error)
	GetCategoryByID(ctx context.Context, id string) (*Category, error)
	CreateCategory(ctx context.Context, category *Category) error
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id string) error

	// Reviews
	CreateReview(ctx context.Context, review *Review) error
	GetReviews(ctx context.Context, productID string) ([]Review, error)
	GetReviewSummary(ctx context.Context, productID string) (average float64, count int, err error)
}

// MediaStorage is the external asset host boundary. The core only consumes
// the resulting (URL, handle) pair and deletes by handle.
type MediaStorage interface {
	UploadBuffer(ctx context.Context, data []byte, contentType string) (url string, publicID string, err error)
	DeleteFile(ctx context.Context, publicID string) error
}
