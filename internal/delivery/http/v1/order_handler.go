package v1

import (
	"net/http"

	"trendora-backend/internal/domain"
	"trendora-backend/internal/usecase"
	"trendora-backend/pkg/utils"
)

type OrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{orderUC: uc}
}

// --- Cart ---

func (h *OrderHandler) GetMyCart(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cart, err := h.orderUC.GetMyCart(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

type addToCartReq struct {
	ProductID string  `json:"productId" validate:"required"`
	Size      *string `json:"size"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
}

func (h *OrderHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req addToCartReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cart, err := h.orderUC.AddToCart(r.Context(), user.ID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

type updateCartItemReq struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func (h *OrderHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateCartItemReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cart, err := h.orderUC.UpdateCartItemQuantity(r.Context(), user.ID, r.PathValue("id"), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cart, err := h.orderUC.RemoveFromCart(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.orderUC.ClearCart(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

// --- Orders ---

type placeOrderReq struct {
	ShippingAddress domain.JSONB `json:"shippingAddress" validate:"required"`
	PaymentMethod   string       `json:"paymentMethod" validate:"required,oneof=cod card"`
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req placeOrderReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orderUC.PlaceOrder(r.Context(), user.ID, usecase.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderUC.GetMyOrders(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	order, err := h.orderUC.GetOrder(r.Context(), user.ID, r.PathValue("id"), user.IsAdmin())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	order, err := h.orderUC.CancelOrder(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}
