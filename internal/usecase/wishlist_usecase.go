package usecase

import (
	"context"
	"log/slog"

	"trendora-backend/internal/domain"
)

type WishlistUsecase struct {
	wishlistRepo domain.WishlistRepository
	productRepo  domain.ProductRepository
	orderUsecase *OrderUsecase
}

func NewWishlistUsecase(repo domain.WishlistRepository, pRepo domain.ProductRepository, orderUsecase *OrderUsecase) *WishlistUsecase {
	return &WishlistUsecase{
		wishlistRepo: repo,
		productRepo:  pRepo,
		orderUsecase: orderUsecase,
	}
}

// GetMyWishlist returns the user's wishlist, creating an empty one on
// first touch.
func (u *WishlistUsecase) GetMyWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	wishlist, err := u.wishlistRepo.GetWishlistByUserID(ctx, userID)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			return nil, err
		}
		wishlist, err = u.wishlistRepo.CreateWishlist(ctx, userID)
		if err != nil {
			slog.Error("Usecase: GetMyWishlist - CreateWishlist failed", "error", err)
			return nil, err
		}
	}

	items, err := u.wishlistRepo.GetWishlistItems(ctx, wishlist.ID)
	if err != nil {
		return nil, err
	}
	wishlist.Items = items
	return wishlist, nil
}

func (u *WishlistUsecase) AddToWishlist(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	product, err := u.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.NotFoundf("product %s not found", productID)
	}

	wishlist, err := u.GetMyWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.wishlistRepo.AddWishlistItem(ctx, wishlist.ID, productID); err != nil {
		return nil, err
	}
	return u.GetMyWishlist(ctx, userID)
}

func (u *WishlistUsecase) RemoveFromWishlist(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	wishlist, err := u.GetMyWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.wishlistRepo.RemoveWishlistItem(ctx, wishlist.ID, productID); err != nil {
		return nil, err
	}
	return u.GetMyWishlist(ctx, userID)
}

// MoveToCart adds one unit of the product to the cart and removes it from
// the wishlist. The wishlist entry survives when the cart add fails, e.g.
// on an out-of-stock product.
func (u *WishlistUsecase) MoveToCart(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	wishlist, err := u.GetMyWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	inWishlist, err := u.wishlistRepo.CheckItemInWishlist(ctx, wishlist.ID, productID)
	if err != nil {
		return nil, err
	}
	if !inWishlist {
		return nil, domain.NotFoundf("product is not on the wishlist")
	}

	if _, err := u.orderUsecase.AddToCart(ctx, userID, productID, nil, 1); err != nil {
		return nil, err
	}
	if err := u.wishlistRepo.RemoveWishlistItem(ctx, wishlist.ID, productID); err != nil {
		return nil, err
	}
	return u.GetMyWishlist(ctx, userID)
}
