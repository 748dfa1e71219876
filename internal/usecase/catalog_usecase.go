package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"trendora-backend/internal/domain"
	"trendora-backend/pkg/cache"
	"trendora-backend/pkg/utils"
)

const (
	cacheKeyCategoriesAll    = "categories:all"
	cacheKeyCategoriesActive = "categories:active"
	cacheKeyCategoryTree     = "categories:tree"
	cacheKeyProductStats     = "stats:products"
)

func cacheKeyProduct(slug string) string {
	return "product:slug:" + slug
}

type CatalogUsecase struct {
	productRepo domain.ProductRepository
	orderRepo   domain.OrderRepository
	storage     domain.MediaStorage
	cache       cache.CacheService

	categoryTTL time.Duration
	productTTL  time.Duration
	statsTTL    time.Duration
}

func NewCatalogUsecase(
	productRepo domain.ProductRepository,
	orderRepo domain.OrderRepository,
	storage domain.MediaStorage,
	cacheService cache.CacheService,
	categoryTTL, productTTL, statsTTL time.Duration,
) *CatalogUsecase {
	return &CatalogUsecase{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		storage:     storage,
		cache:       cacheService,
		categoryTTL: categoryTTL,
		productTTL:  productTTL,
		statsTTL:    statsTTL,
	}
}

// --- Product Inputs ---

// ImageUpload is a processed image buffer ready for the asset host.
type ImageUpload struct {
	Data        []byte
	ContentType string
	AltText     string
}

type ProductInput struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice *float64
	CategoryID    string
	Color         string
	Sizes         []string
	Stock         int
	Tags          []string
	Featured      bool
	IsActive      bool
	Variants      []domain.Variant

	// ExistingImages is the media the caller keeps (update only); anything
	// previously on the product but absent here is deleted from the host.
	ExistingImages []domain.Image
	NewImages      []ImageUpload
}

func (u *CatalogUsecase) validateProductInput(input *ProductInput) error {
	if input.Name == "" {
		return domain.InvalidInputf("product name is required")
	}
	if input.Price <= 0 {
		return domain.InvalidInputf("price must be positive")
	}
	if input.OriginalPrice != nil && *input.OriginalPrice < 0 {
		return domain.InvalidInputf("original price cannot be negative")
	}
	if input.Stock < 0 {
		return domain.InvalidInputf("stock cannot be negative")
	}
	for _, s := range input.Sizes {
		if !domain.IsValidSize(s) {
			return domain.InvalidInputf("unknown size %q", s)
		}
	}
	seen := make(map[string]bool, len(input.Variants))
	for _, v := range input.Variants {
		if !domain.IsValidSize(v.Size) {
			return domain.InvalidInputf("unknown variant size %q", v.Size)
		}
		if seen[v.Size] {
			return domain.InvalidInputf("duplicate variant size %q", v.Size)
		}
		seen[v.Size] = true
		if v.Stock < 0 {
			return domain.InvalidInputf("variant stock cannot be negative")
		}
		if v.Price != nil && *v.Price < 0 {
			return domain.InvalidInputf("variant price cannot be negative")
		}
	}
	return nil
}

// --- Products ---

func (u *CatalogUsecase) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := u.validateProductInput(&input); err != nil {
		return nil, err
	}
	if _, err := u.productRepo.GetCategoryByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	images, err := u.uploadImages(ctx, input.NewImages)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:            utils.GenerateUUID(),
		Name:          input.Name,
		Slug:          utils.GenerateSlug(input.Name),
		Description:   input.Description,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		CategoryID:    input.CategoryID,
		Images:        images,
		Sizes:         input.Sizes,
		Stock:         input.Stock,
		Color:         input.Color,
		InStock:       input.Stock > 0,
		Variants:      input.Variants,
		Tags:          input.Tags,
		Featured:      input.Featured,
		IsActive:      input.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	product.ApplyInventoryDerivation()

	if err := u.productRepo.CreateProduct(ctx, product); err != nil {
		// The records never existed, so the uploaded media is orphaned;
		// clean it up best-effort.
		u.deleteImages(ctx, images)
		return nil, err
	}

	u.cache.Delete(cacheKeyProductStats)
	slog.Info("Usecase: CreateProduct", "product_id", product.ID, "slug", product.Slug)
	return product, nil
}

func (u *CatalogUsecase) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	if err := u.validateProductInput(&input); err != nil {
		return nil, err
	}

	current, err := u.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := u.productRepo.GetCategoryByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	newImages, err := u.uploadImages(ctx, input.NewImages)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:            current.ID,
		Name:          input.Name,
		Slug:          utils.GenerateSlug(input.Name),
		Description:   input.Description,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		CategoryID:    input.CategoryID,
		Images:        append(input.ExistingImages, newImages...),
		Sizes:         input.Sizes,
		Stock:         input.Stock,
		Color:         input.Color,
		InStock:       input.Stock > 0,
		Variants:      input.Variants,
		Tags:          input.Tags,
		Featured:      input.Featured,
		IsActive:      input.IsActive,
		CreatedAt:     current.CreatedAt,
		UpdatedAt:     time.Now(),
	}
	product.ApplyInventoryDerivation()

	if err := u.productRepo.UpdateProduct(ctx, product); err != nil {
		u.deleteImages(ctx, newImages)
		return nil, err
	}

	// Hosted assets are removed only after the record no longer references
	// them; a failed delete leaves an orphaned file, never a broken link.
	u.deleteImages(ctx, droppedImages(current.Images, product.Images))

	u.cache.Delete(cacheKeyProduct(current.Slug))
	u.cache.Delete(cacheKeyProduct(product.Slug))
	u.cache.Delete(cacheKeyProductStats)
	return product, nil
}

func (u *CatalogUsecase) DeleteProduct(ctx context.Context, id string) error {
	product, err := u.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := u.productRepo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	u.deleteImages(ctx, product.Images)
	u.cache.Delete(cacheKeyProduct(product.Slug))
	u.cache.Delete(cacheKeyProductStats)
	slog.Info("Usecase: DeleteProduct", "product_id", id)
	return nil
}

func (u *CatalogUsecase) uploadImages(ctx context.Context, uploads []ImageUpload) ([]domain.Image, error) {
	images := make([]domain.Image, 0, len(uploads))
	for _, up := range uploads {
		url, publicID, err := u.storage.UploadBuffer(ctx, up.Data, up.ContentType)
		if err != nil {
			u.deleteImages(ctx, images)
			return nil, fmt.Errorf("upload image: %w", err)
		}
		images = append(images, domain.Image{URL: url, PublicID: publicID, AltText: up.AltText})
	}
	return images, nil
}

func (u *CatalogUsecase) deleteImages(ctx context.Context, images []domain.Image) {
	for _, img := range images {
		if img.PublicID == "" {
			continue
		}
		if err := u.storage.DeleteFile(ctx, img.PublicID); err != nil {
			slog.Warn("Usecase: failed to delete hosted image", "public_id", img.PublicID, "error", err)
		}
	}
}

// droppedImages returns the entries of old that are no longer in kept.
func droppedImages(old, kept []domain.Image) []domain.Image {
	keep := make(map[string]bool, len(kept))
	for _, img := range kept {
		keep[img.PublicID] = true
	}
	var dropped []domain.Image
	for _, img := range old {
		if !keep[img.PublicID] {
			dropped = append(dropped, img)
		}
	}
	return dropped
}

func (u *CatalogUsecase) GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	return u.productRepo.GetProducts(ctx, filter)
}

// GetProductDetail serves the public product page by slug. The view count
// bumps on every request, cache hit or not.
func (u *CatalogUsecase) GetProductDetail(ctx context.Context, slug string) (*domain.Product, error) {
	if cached, found := u.cache.Get(cacheKeyProduct(slug)); found {
		if product, ok := cached.(*domain.Product); ok {
			if err := u.productRepo.IncrementViews(ctx, product.ID); err != nil {
				slog.Warn("Usecase: IncrementViews failed", "product_id", product.ID, "error", err)
			}
			return product, nil
		}
	}

	product, err := u.productRepo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.NotFoundf("product '%s' not found", slug)
	}

	if err := u.productRepo.IncrementViews(ctx, product.ID); err != nil {
		slog.Warn("Usecase: IncrementViews failed", "product_id", product.ID, "error", err)
	}

	u.cache.Set(cacheKeyProduct(slug), product, u.productTTL)
	return product, nil
}

func (u *CatalogUsecase) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return u.productRepo.GetProductByID(ctx, id)
}

func (u *CatalogUsecase) GetProductStats(ctx context.Context) (*domain.ProductStats, error) {
	if cached, found := u.cache.Get(cacheKeyProductStats); found {
		if stats, ok := cached.(*domain.ProductStats); ok {
			return stats, nil
		}
	}
	stats, err := u.productRepo.GetProductStats(ctx)
	if err != nil {
		return nil, err
	}
	u.cache.Set(cacheKeyProductStats, stats, u.statsTTL)
	return stats, nil
}

// --- Categories ---

type CategoryInput struct {
	Name        string
	Description string
	Image       string
	ParentID    *string
	IsActive    bool
	SortOrder   int
}

// validateCategoryParent enforces the single-level hierarchy: a parent
// must exist and must itself be a top-level category.
func (u *CatalogUsecase) validateCategoryParent(ctx context.Context, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return domain.InvalidInputf("a category cannot be its own parent")
	}
	parent, err := u.productRepo.GetCategoryByID(ctx, *parentID)
	if err != nil {
		return err
	}
	if parent.ParentID != nil {
		return domain.InvalidInputf("parent category must be a top-level category")
	}
	return nil
}

func (u *CatalogUsecase) GetCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	key := cacheKeyCategoriesAll
	if activeOnly {
		key = cacheKeyCategoriesActive
	}
	if cached, found := u.cache.Get(key); found {
		if cats, ok := cached.([]domain.Category); ok {
			return cats, nil
		}
	}

	var isActive *bool
	if activeOnly {
		t := true
		isActive = &t
	}
	cats, err := u.productRepo.GetCategories(ctx, isActive)
	if err != nil {
		return nil, err
	}
	u.cache.Set(key, cats, u.categoryTTL)
	return cats, nil
}

func (u *CatalogUsecase) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	if input.Name == "" {
		return nil, domain.InvalidInputf("category name is required")
	}

	category := &domain.Category{
		ID:          utils.GenerateUUID(),
		Name:        input.Name,
		Slug:        utils.GenerateSlug(input.Name),
		Description: input.Description,
		Image:       input.Image,
		ParentID:    input.ParentID,
		IsActive:    input.IsActive,
		SortOrder:   input.SortOrder,
	}
	if err := u.validateCategoryParent(ctx, category.ID, input.ParentID); err != nil {
		return nil, err
	}
	if err := u.productRepo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	u.invalidateCategories()
	return category, nil
}

func (u *CatalogUsecase) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	if input.Name == "" {
		return nil, domain.InvalidInputf("category name is required")
	}
	if _, err := u.productRepo.GetCategoryByID(ctx, id); err != nil {
		return nil, err
	}
	if err := u.validateCategoryParent(ctx, id, input.ParentID); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:          id,
		Name:        input.Name,
		Slug:        utils.GenerateSlug(input.Name),
		Description: input.Description,
		Image:       input.Image,
		ParentID:    input.ParentID,
		IsActive:    input.IsActive,
		SortOrder:   input.SortOrder,
	}
	if err := u.productRepo.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}

	u.invalidateCategories()
	return category, nil
}

func (u *CatalogUsecase) DeleteCategory(ctx context.Context, id string) error {
	if err := u.productRepo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	u.invalidateCategories()
	return nil
}

func (u *CatalogUsecase) invalidateCategories() {
	u.cache.Delete(cacheKeyCategoriesAll)
	u.cache.Delete(cacheKeyCategoriesActive)
	u.cache.Delete(cacheKeyCategoryTree)
}

// CategoryNode is a top-level category with its direct children. The
// hierarchy is at most one level deep, so children never nest further.
type CategoryNode struct {
	domain.Category
	Children []domain.Category `json:"children"`
}

func (u *CatalogUsecase) GetCategoryTree(ctx context.Context) ([]CategoryNode, error) {
	if cached, found := u.cache.Get(cacheKeyCategoryTree); found {
		if tree, ok := cached.([]CategoryNode); ok {
			return tree, nil
		}
	}

	cats, err := u.GetCategories(ctx, true)
	if err != nil {
		return nil, err
	}

	childrenOf := make(map[string][]domain.Category)
	var roots []domain.Category
	for _, c := range cats {
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], c)
		}
	}

	tree := make([]CategoryNode, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, CategoryNode{Category: root, Children: childrenOf[root.ID]})
	}

	u.cache.Set(cacheKeyCategoryTree, tree, u.categoryTTL)
	return tree, nil
}

// --- Reviews ---

type ReviewInput struct {
	Rating  int
	Title   string
	Comment string
}

// AddReview records a review and recomputes the product's stored rating
// summary from all reviews. The verified flag marks reviewers with a
// delivered order containing the product.
func (u *CatalogUsecase) AddReview(ctx context.Context, userID, productID string, input ReviewInput) (*domain.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, domain.InvalidInputf("rating must be between 1 and 5")
	}

	product, err := u.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	verified, err := u.orderRepo.HasDeliveredProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        utils.GenerateUUID(),
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Title:     input.Title,
		Comment:   input.Comment,
		Verified:  verified,
		CreatedAt: time.Now(),
	}
	if err := u.productRepo.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	average, count, err := u.productRepo.GetReviewSummary(ctx, productID)
	if err != nil {
		return nil, err
	}
	average = math.Round(average*10) / 10
	if err := u.productRepo.SetRatingSummary(ctx, productID, average, count); err != nil {
		return nil, err
	}

	u.cache.Delete(cacheKeyProduct(product.Slug))
	slog.Info("Usecase: AddReview", "product_id", productID, "rating", input.Rating, "verified", verified)
	return review, nil
}

func (u *CatalogUsecase) GetReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := u.productRepo.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return u.productRepo.GetReviews(ctx, productID)
}
