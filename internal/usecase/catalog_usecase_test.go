package usecase

import (
	"context"
	"testing"
	"time"

	"trendora-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogEnv(t *testing.T) (*fakeProductRepo, *fakeOrderRepo, *fakeMediaStorage, *fakeCache, *CatalogUsecase) {
	t.Helper()
	productRepo := newFakeProductRepo()
	orderRepo := newFakeOrderRepo(productRepo)
	media := &fakeMediaStorage{}
	memCache := newFakeCache()
	uc := NewCatalogUsecase(productRepo, orderRepo, media, memCache,
		30*time.Minute, 10*time.Minute, 5*time.Minute)

	productRepo.categories["cat-1"] = &domain.Category{ID: "cat-1", Name: "Shirts", Slug: "shirts", IsActive: true}
	return productRepo, orderRepo, media, memCache, uc
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("derives flat inventory from variants", func(t *testing.T) {
		_, _, _, _, uc := newCatalogEnv(t)

		product, err := uc.CreateProduct(ctx, ProductInput{
			Name:       "Linen Shirt",
			Price:      500,
			CategoryID: "cat-1",
			IsActive:   true,
			// The flat fields below are entered inconsistently on purpose:
			// the derivation must overwrite them.
			Stock: 999,
			Sizes: []string{"XS"},
			Variants: []domain.Variant{
				{Size: "M", Stock: 3},
				{Size: "L", Stock: 0},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, product.Stock)
		assert.True(t, product.InStock)
		assert.Equal(t, []string{"M", "L"}, product.Sizes)
		assert.Equal(t, "linen-shirt", product.Slug)
	})

	t.Run("flat product keeps entered fields", func(t *testing.T) {
		_, _, _, _, uc := newCatalogEnv(t)

		product, err := uc.CreateProduct(ctx, ProductInput{
			Name:       "Plain Scarf",
			Price:      300,
			CategoryID: "cat-1",
			Stock:      7,
			IsActive:   true,
		})
		require.NoError(t, err)
		assert.Equal(t, 7, product.Stock)
		assert.True(t, product.InStock)
		assert.Empty(t, product.Variants)
	})

	t.Run("duplicate name collides on slug", func(t *testing.T) {
		_, _, _, _, uc := newCatalogEnv(t)

		_, err := uc.CreateProduct(ctx, ProductInput{Name: "Linen Shirt", Price: 500, CategoryID: "cat-1"})
		require.NoError(t, err)
		_, err = uc.CreateProduct(ctx, ProductInput{Name: "Linen Shirt", Price: 700, CategoryID: "cat-1"})
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		_, _, _, _, uc := newCatalogEnv(t)
		_, err := uc.CreateProduct(ctx, ProductInput{Name: "Shirt", Price: 500, CategoryID: "nope"})
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("duplicate variant sizes are rejected", func(t *testing.T) {
		_, _, _, _, uc := newCatalogEnv(t)
		_, err := uc.CreateProduct(ctx, ProductInput{
			Name: "Shirt", Price: 500, CategoryID: "cat-1",
			Variants: []domain.Variant{{Size: "M", Stock: 1}, {Size: "M", Stock: 2}},
		})
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	})
}

func TestUpdateProductMedia(t *testing.T) {
	ctx := context.Background()
	productRepo, _, media, _, uc := newCatalogEnv(t)

	img := domain.Image{URL: "https://cdn.example.com/products/old", PublicID: "products/old"}
	productRepo.put(domain.Product{
		ID: "p1", Name: "Shirt", Slug: "shirt", Price: 500,
		CategoryID: "cat-1", IsActive: true, Images: []domain.Image{img},
	})

	// Dropping the only existing image replaces it with a fresh upload.
	_, err := uc.UpdateProduct(ctx, "p1", ProductInput{
		Name: "Shirt", Price: 500, CategoryID: "cat-1", IsActive: true,
		NewImages: []ImageUpload{{Data: []byte("x"), ContentType: "image/webp"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, media.uploads)
	assert.Equal(t, []string{"products/old"}, media.deleted)
	assert.Len(t, productRepo.products["p1"].Images, 1)
	assert.NotEqual(t, "products/old", productRepo.products["p1"].Images[0].PublicID)
}

func TestGetProductDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("caches and still counts views", func(t *testing.T) {
		productRepo, _, _, memCache, uc := newCatalogEnv(t)
		productRepo.put(domain.Product{ID: "p1", Name: "Shirt", Slug: "shirt", Price: 500, IsActive: true})

		_, err := uc.GetProductDetail(ctx, "shirt")
		require.NoError(t, err)
		_, found := memCache.Get(cacheKeyProduct("shirt"))
		assert.True(t, found)

		_, err = uc.GetProductDetail(ctx, "shirt")
		require.NoError(t, err)
		assert.Equal(t, 2, productRepo.products["p1"].Views)
	})

	t.Run("inactive product is hidden", func(t *testing.T) {
		productRepo, _, _, _, uc := newCatalogEnv(t)
		productRepo.put(domain.Product{ID: "p1", Name: "Shirt", Slug: "shirt", Price: 500, IsActive: false})

		_, err := uc.GetProductDetail(ctx, "shirt")
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})
}

func TestCategoryHierarchy(t *testing.T) {
	ctx := context.Background()

	t.Run("one level of nesting is allowed", func(t *testing.T) {
		_, _, _, _, uc := newCatalogEnv(t)
		parent := "cat-1"
		_, err := uc.CreateCategory(ctx, CategoryInput{Name: "Formal Shirts", ParentID: &parent, IsActive: true})
		assert.NoError(t, err)
	})

	t.Run("grandchildren are rejected", func(t *testing.T) {
		_, _, _, _, uc := newCatalogEnv(t)
		parent := "cat-1"
		child, err := uc.CreateCategory(ctx, CategoryInput{Name: "Formal Shirts", ParentID: &parent, IsActive: true})
		require.NoError(t, err)

		_, err = uc.CreateCategory(ctx, CategoryInput{Name: "Slim Fit", ParentID: &child.ID, IsActive: true})
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	})

	t.Run("category cannot become its own parent", func(t *testing.T) {
		_, _, _, _, uc := newCatalogEnv(t)
		self := "cat-1"
		_, err := uc.UpdateCategory(ctx, "cat-1", CategoryInput{Name: "Shirts", ParentID: &self, IsActive: true})
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	})
}

func TestAddReview(t *testing.T) {
	ctx := context.Background()

	seed := func(productRepo *fakeProductRepo) {
		productRepo.put(domain.Product{ID: "p1", Name: "Shirt", Slug: "shirt", Price: 500, IsActive: true})
	}

	t.Run("recomputes the rating summary", func(t *testing.T) {
		productRepo, _, _, _, uc := newCatalogEnv(t)
		seed(productRepo)

		_, err := uc.AddReview(ctx, "u1", "p1", ReviewInput{Rating: 5})
		require.NoError(t, err)
		_, err = uc.AddReview(ctx, "u2", "p1", ReviewInput{Rating: 4})
		require.NoError(t, err)

		rating := productRepo.products["p1"].Rating
		assert.Equal(t, 4.5, rating.Average)
		assert.Equal(t, 2, rating.Count)
	})

	t.Run("rounds the average to one decimal", func(t *testing.T) {
		productRepo, _, _, _, uc := newCatalogEnv(t)
		seed(productRepo)

		for i, r := range []int{5, 4, 4} {
			_, err := uc.AddReview(ctx, "u"+string(rune('a'+i)), "p1", ReviewInput{Rating: r})
			require.NoError(t, err)
		}
		// 13/3 = 4.333..., stored as 4.3.
		assert.Equal(t, 4.3, productRepo.products["p1"].Rating.Average)
	})

	t.Run("second review by the same user conflicts", func(t *testing.T) {
		productRepo, _, _, _, uc := newCatalogEnv(t)
		seed(productRepo)

		_, err := uc.AddReview(ctx, "u1", "p1", ReviewInput{Rating: 5})
		require.NoError(t, err)
		_, err = uc.AddReview(ctx, "u1", "p1", ReviewInput{Rating: 1})
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		assert.Equal(t, 1, productRepo.products["p1"].Rating.Count)
	})

	t.Run("verified flag follows delivered orders", func(t *testing.T) {
		productRepo, orderRepo, _, _, uc := newCatalogEnv(t)
		seed(productRepo)

		orderRepo.orders["o1"] = &domain.Order{
			ID: "o1", UserID: "u1", Status: domain.OrderStatusDelivered,
			Items: []domain.OrderItem{{ProductID: "p1", Quantity: 1}},
		}

		verified, err := uc.AddReview(ctx, "u1", "p1", ReviewInput{Rating: 5})
		require.NoError(t, err)
		assert.True(t, verified.Verified)

		unverified, err := uc.AddReview(ctx, "u2", "p1", ReviewInput{Rating: 4})
		require.NoError(t, err)
		assert.False(t, unverified.Verified)
	})

	t.Run("rating out of range is rejected", func(t *testing.T) {
		productRepo, _, _, _, uc := newCatalogEnv(t)
		seed(productRepo)

		_, err := uc.AddReview(ctx, "u1", "p1", ReviewInput{Rating: 6})
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
		_, err = uc.AddReview(ctx, "u1", "p1", ReviewInput{Rating: 0})
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	productRepo, orderRepo, media, _, uc := newCatalogEnv(t)

	productRepo.put(domain.Product{
		ID: "p1", Name: "Shirt", Slug: "shirt", Price: 500, Stock: 3, InStock: true, IsActive: true,
		Images: []domain.Image{{URL: "https://cdn.example.com/products/a", PublicID: "products/a"}},
	})

	// Reviews and cart lines referencing the product must not block the
	// delete; they disappear with it.
	_, err := uc.AddReview(ctx, "u1", "p1", ReviewInput{Rating: 5, Comment: "good"})
	require.NoError(t, err)
	require.NoError(t, orderRepo.UpsertCartItem(ctx, "c1", "p1", nil, 1, 500))

	require.NoError(t, uc.DeleteProduct(ctx, "p1"))

	assert.NotContains(t, productRepo.products, "p1")
	assert.Empty(t, productRepo.reviews["p1"])
	assert.Empty(t, orderRepo.cartItems["c1"])
	assert.Contains(t, media.deleted, "products/a")

	err = uc.DeleteProduct(ctx, "p1")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestGetCategoriesCaching(t *testing.T) {
	ctx := context.Background()
	productRepo, _, _, _, uc := newCatalogEnv(t)

	cats, err := uc.GetCategories(ctx, true)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	// A direct write bypassing the usecase is invisible until invalidation.
	productRepo.categories["cat-2"] = &domain.Category{ID: "cat-2", Name: "Trousers", Slug: "trousers", IsActive: true}
	cats, err = uc.GetCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	_, err = uc.CreateCategory(ctx, CategoryInput{Name: "Shoes", IsActive: true})
	require.NoError(t, err)
	cats, err = uc.GetCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, cats, 3)
}

func TestGetCategoryTree(t *testing.T) {
	ctx := context.Background()
	productRepo, _, _, _, uc := newCatalogEnv(t)

	parentID := "cat-1"
	productRepo.categories["cat-2"] = &domain.Category{
		ID: "cat-2", Name: "Shirts", Slug: "shirts", ParentID: &parentID, IsActive: true,
	}
	productRepo.categories["cat-3"] = &domain.Category{
		ID: "cat-3", Name: "Shoes", Slug: "shoes", IsActive: true,
	}

	tree, err := uc.GetCategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	byID := make(map[string]CategoryNode, len(tree))
	for _, node := range tree {
		byID[node.ID] = node
	}
	require.Contains(t, byID, "cat-1")
	require.Contains(t, byID, "cat-3")
	require.Len(t, byID["cat-1"].Children, 1)
	assert.Equal(t, "cat-2", byID["cat-1"].Children[0].ID)
	assert.Empty(t, byID["cat-3"].Children)
}
