package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trendora-backend/internal/domain"
)

// In-memory repository fakes. They enforce the same guards the SQL layer
// does (conditional stock decrement, unique review per user, upsert cart
// lines) so usecase tests exercise real semantics.

type fakeProductRepo struct {
	products   map[string]*domain.Product
	categories map[string]*domain.Category
	reviews    map[string][]domain.Review
	reviewed   map[string]bool // productID+userID
	orderRepo  *fakeOrderRepo  // for cascading cart lines on product delete
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:   make(map[string]*domain.Product),
		categories: make(map[string]*domain.Category),
		reviews:    make(map[string][]domain.Review),
		reviewed:   make(map[string]bool),
	}
}

func (f *fakeProductRepo) put(p domain.Product) {
	cp := p
	f.products[p.ID] = &cp
}

func copyProduct(p *domain.Product) *domain.Product {
	cp := *p
	cp.Variants = append([]domain.Variant(nil), p.Variants...)
	cp.Sizes = append([]string(nil), p.Sizes...)
	cp.Images = append([]domain.Image(nil), p.Images...)
	return &cp
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, product *domain.Product) error {
	for _, existing := range f.products {
		if existing.Slug == product.Slug {
			return domain.Conflictf("slug '%s' is already taken", product.Slug)
		}
	}
	f.put(*product)
	return nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if _, ok := f.products[product.ID]; !ok {
		return domain.NotFoundf("product %s not found", product.ID)
	}
	for id, existing := range f.products {
		if id != product.ID && existing.Slug == product.Slug {
			return domain.Conflictf("slug '%s' is already taken", product.Slug)
		}
	}
	f.put(*product)
	return nil
}

// DeleteProduct mirrors the schema's ON DELETE CASCADE: reviews and cart
// lines referencing the product disappear with it.
func (f *fakeProductRepo) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return domain.NotFoundf("product %s not found", id)
	}
	delete(f.products, id)
	delete(f.reviews, id)
	for key := range f.reviewed {
		if strings.HasPrefix(key, id+"/") {
			delete(f.reviewed, key)
		}
	}
	if f.orderRepo != nil {
		for cartID, items := range f.orderRepo.cartItems {
			kept := items[:0]
			for _, item := range items {
				if item.ProductID != id {
					kept = append(kept, item)
				}
			}
			f.orderRepo.cartItems[cartID] = kept
		}
	}
	return nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.NotFoundf("product %s not found", id)
	}
	return copyProduct(p), nil
}

func (f *fakeProductRepo) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			return copyProduct(p), nil
		}
	}
	return nil, domain.NotFoundf("product '%s' not found", slug)
}

func (f *fakeProductRepo) GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	var out []domain.Product
	for _, p := range f.products {
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *copyProduct(p))
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) GetProductStats(ctx context.Context) (*domain.ProductStats, error) {
	stats := &domain.ProductStats{}
	for _, p := range f.products {
		stats.TotalProducts++
		if p.IsActive {
			stats.ActiveProducts++
		} else {
			stats.InactiveProducts++
		}
		if p.Stock == 0 {
			stats.OutOfStock++
		} else if p.Stock <= 5 {
			stats.LowStock++
		}
		stats.TotalInventoryValue += p.Price * float64(p.Stock)
	}
	return stats, nil
}

func (f *fakeProductRepo) IncrementViews(ctx context.Context, id string) error {
	if p, ok := f.products[id]; ok {
		p.Views++
	}
	return nil
}

func (f *fakeProductRepo) ReserveStock(ctx context.Context, productID string, size *string, quantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return domain.NotFoundf("product %s not found", productID)
	}
	if size != nil {
		if v := p.VariantForSize(*size); v != nil {
			if v.Stock < quantity {
				return domain.InsufficientStockf("not enough stock for size %s", *size)
			}
			v.Stock -= quantity
		}
	}
	if p.Stock < quantity {
		return domain.InsufficientStockf("not enough stock available")
	}
	p.Stock -= quantity
	p.Sold += quantity
	p.InStock = p.Stock > 0
	return nil
}

func (f *fakeProductRepo) RestoreStock(ctx context.Context, productID string, size *string, quantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return domain.NotFoundf("product %s not found", productID)
	}
	if size != nil {
		if v := p.VariantForSize(*size); v != nil {
			v.Stock += quantity
		}
	}
	p.Stock += quantity
	p.Sold -= quantity
	if p.Sold < 0 {
		p.Sold = 0
	}
	p.InStock = true
	return nil
}

func (f *fakeProductRepo) SetRatingSummary(ctx context.Context, productID string, average float64, count int) error {
	p, ok := f.products[productID]
	if !ok {
		return domain.NotFoundf("product %s not found", productID)
	}
	p.Rating = domain.Rating{Average: average, Count: count}
	return nil
}

func (f *fakeProductRepo) GetCategories(ctx context.Context, isActive *bool) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range f.categories {
		if isActive != nil && c.IsActive != *isActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeProductRepo) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, domain.NotFoundf("category %s not found", id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeProductRepo) CreateCategory(ctx context.Context, category *domain.Category) error {
	for _, c := range f.categories {
		if c.Slug == category.Slug {
			return domain.Conflictf("slug '%s' is already taken", category.Slug)
		}
	}
	cp := *category
	f.categories[category.ID] = &cp
	return nil
}

func (f *fakeProductRepo) UpdateCategory(ctx context.Context, category *domain.Category) error {
	if _, ok := f.categories[category.ID]; !ok {
		return domain.NotFoundf("category %s not found", category.ID)
	}
	cp := *category
	f.categories[category.ID] = &cp
	return nil
}

func (f *fakeProductRepo) DeleteCategory(ctx context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return domain.NotFoundf("category %s not found", id)
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeProductRepo) CreateReview(ctx context.Context, review *domain.Review) error {
	key := review.ProductID + "/" + review.UserID
	if f.reviewed[key] {
		return domain.Conflictf("you have already reviewed this product")
	}
	f.reviewed[key] = true
	f.reviews[review.ProductID] = append(f.reviews[review.ProductID], *review)
	return nil
}

func (f *fakeProductRepo) GetReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	return append([]domain.Review(nil), f.reviews[productID]...), nil
}

func (f *fakeProductRepo) GetReviewSummary(ctx context.Context, productID string) (float64, int, error) {
	reviews := f.reviews[productID]
	if len(reviews) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), len(reviews), nil
}

// --- Order repo fake ---

type fakeOrderRepo struct {
	productRepo *fakeProductRepo

	carts     map[string]*domain.Cart // by userID
	cartItems map[string][]domain.CartItem
	orders    map[string]*domain.Order
	nextID    int
}

func newFakeOrderRepo(productRepo *fakeProductRepo) *fakeOrderRepo {
	f := &fakeOrderRepo{
		productRepo: productRepo,
		carts:       make(map[string]*domain.Cart),
		cartItems:   make(map[string][]domain.CartItem),
		orders:      make(map[string]*domain.Order),
	}
	productRepo.orderRepo = f
	return f
}

func (f *fakeOrderRepo) genID() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	cp := *order
	cp.Items = append([]domain.OrderItem(nil), order.Items...)
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.NotFoundf("order %s not found", id)
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (f *fakeOrderRepo) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	var out []domain.Order
	for _, o := range f.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, order *domain.Order) error {
	o, ok := f.orders[order.ID]
	if !ok {
		return domain.NotFoundf("order %s not found", order.ID)
	}
	o.Status = order.Status
	o.TrackingNumber = order.TrackingNumber
	o.DeliveredAt = order.DeliveredAt
	o.CancelledAt = order.CancelledAt
	o.UpdatedAt = order.UpdatedAt
	return nil
}

func (f *fakeOrderRepo) GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	c, ok := f.carts[userID]
	if !ok {
		return nil, domain.NotFoundf("cart not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeOrderRepo) CreateCart(ctx context.Context, cart *domain.Cart) error {
	cp := *cart
	f.carts[cart.UserID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetCartItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	items := append([]domain.CartItem(nil), f.cartItems[cartID]...)
	for i := range items {
		if p, ok := f.productRepo.products[items[i].ProductID]; ok {
			items[i].Product = *copyProduct(p)
		}
	}
	return items, nil
}

func sameSize(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *fakeOrderRepo) UpsertCartItem(ctx context.Context, cartID, productID string, size *string, quantity int, price float64) error {
	items := f.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID && sameSize(items[i].Size, size) {
			items[i].Quantity += quantity
			items[i].Price = price
			f.cartItems[cartID] = items
			return nil
		}
	}
	f.cartItems[cartID] = append(items, domain.CartItem{
		ID:        f.genID(),
		CartID:    cartID,
		ProductID: productID,
		Size:      size,
		Quantity:  quantity,
		Price:     price,
	})
	return nil
}

func (f *fakeOrderRepo) UpdateCartItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	items := f.cartItems[cartID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			return nil
		}
	}
	return domain.NotFoundf("cart item %s not found", itemID)
}

func (f *fakeOrderRepo) RemoveCartItem(ctx context.Context, cartID, itemID string) error {
	items := f.cartItems[cartID]
	for i := range items {
		if items[i].ID == itemID {
			f.cartItems[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeOrderRepo) ClearCart(ctx context.Context, cartID string) error {
	f.cartItems[cartID] = nil
	return nil
}

func (f *fakeOrderRepo) HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error) {
	for _, o := range f.orders {
		if o.UserID != userID || o.Status != domain.OrderStatusDelivered {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// --- Transaction manager fake ---

// fakeTxManager snapshots repo state before fn and restores it when fn
// fails, mirroring a rollback.
type fakeTxManager struct {
	productRepo *fakeProductRepo
	orderRepo   *fakeOrderRepo
}

func (f *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	products := make(map[string]*domain.Product, len(f.productRepo.products))
	for id, p := range f.productRepo.products {
		products[id] = copyProduct(p)
	}
	orders := make(map[string]*domain.Order, len(f.orderRepo.orders))
	for id, o := range f.orderRepo.orders {
		cp := *o
		cp.Items = append([]domain.OrderItem(nil), o.Items...)
		orders[id] = &cp
	}
	cartItems := make(map[string][]domain.CartItem, len(f.orderRepo.cartItems))
	for id, items := range f.orderRepo.cartItems {
		cartItems[id] = append([]domain.CartItem(nil), items...)
	}

	if err := fn(ctx); err != nil {
		f.productRepo.products = products
		f.orderRepo.orders = orders
		f.orderRepo.cartItems = cartItems
		return err
	}
	return nil
}

// --- Media storage and cache fakes ---

type fakeMediaStorage struct {
	uploads int
	deleted []string
}

func (f *fakeMediaStorage) UploadBuffer(ctx context.Context, data []byte, contentType string) (string, string, error) {
	f.uploads++
	key := fmt.Sprintf("products/upload-%d", f.uploads)
	return "https://cdn.example.com/" + key, key, nil
}

func (f *fakeMediaStorage) DeleteFile(ctx context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

type fakeCache struct {
	entries map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]interface{})}
}

func (f *fakeCache) Get(key string) (interface{}, bool) {
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) Set(key string, value interface{}, duration time.Duration) {
	f.entries[key] = value
}

func (f *fakeCache) Delete(key string) {
	delete(f.entries, key)
}

func (f *fakeCache) Flush() {
	f.entries = make(map[string]interface{})
}
