package v1

import (
	"net/http"

	"trendora-backend/internal/usecase"
	"trendora-backend/pkg/utils"
)

type WishlistHandler struct {
	wishlistUC *usecase.WishlistUsecase
}

func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{wishlistUC: uc}
}

func (h *WishlistHandler) GetMyWishlist(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	wishlist, err := h.wishlistUC.GetMyWishlist(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, wishlist)
}

type addWishlistReq struct {
	ProductID string `json:"productId" validate:"required"`
}

func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req addWishlistReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wishlist, err := h.wishlistUC.AddToWishlist(r.Context(), user.ID, req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, wishlist)
}

func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	wishlist, err := h.wishlistUC.RemoveFromWishlist(r.Context(), user.ID, r.PathValue("productId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, wishlist)
}

func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	wishlist, err := h.wishlistUC.MoveToCart(r.Context(), user.ID, r.PathValue("productId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, wishlist)
}
