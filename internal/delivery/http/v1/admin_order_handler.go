package v1

import (
	"net/http"

	"trendora-backend/internal/domain"
	"trendora-backend/internal/usecase"
	"trendora-backend/pkg/utils"
)

type AdminOrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{orderUC: uc}
}

func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := domain.OrderFilter{
		Page:   utils.ParseInt(query.Get("page"), 1),
		Limit:  utils.ParseInt(query.Get("limit"), 20),
		Status: query.Get("status"),
		Search: query.Get("search"),
	}

	orders, total, err := h.orderUC.GetAllOrders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       orders,
		"pagination": domain.NewPagination(filter.Page, filter.Limit, total),
	})
}

type updateOrderStatusReq struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"trackingNumber"`
}

// UpdateOrderStatus drives the order state machine from the admin side.
// Cancelling through here restores stock just like a customer
// cancellation does.
func (h *AdminOrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orderUC.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status, req.TrackingNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}
