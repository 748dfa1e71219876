package v1

import (
	"net/http"
	"strconv"

	"trendora-backend/internal/domain"
	"trendora-backend/internal/usecase"
	"trendora-backend/pkg/utils"
)

type CatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
}

func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{catalogUC: uc}
}

func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalogUC.GetCategories(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cats)
}

func (h *CatalogHandler) GetCategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.catalogUC.GetCategoryTree(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tree)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := utils.ParseInt(query.Get("limit"), 20)
	page := utils.ParseInt(query.Get("page"), 1)
	if page < 1 {
		page = 1
	}

	var featured *bool
	if val := query.Get("featured"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			featured = &b
		}
	}

	// The storefront only ever sees active products.
	active := true
	filter := domain.ProductFilter{
		CategorySlug: query.Get("category"),
		Query:        query.Get("q"),
		Sort:         query.Get("sort"),
		MinPrice:     utils.ParseFloat(query.Get("min_price"), 0),
		MaxPrice:     utils.ParseFloat(query.Get("max_price"), 0),
		Limit:        limit,
		Offset:       (page - 1) * limit,
		IsActive:     &active,
		Featured:     featured,
	}

	products, total, err := h.catalogUC.GetProducts(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       products,
		"pagination": domain.NewPagination(page, limit, total),
	})
}

func (h *CatalogHandler) GetProductDetail(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		writeError(w, r, domain.InvalidInputf("slug is required"))
		return
	}

	product, err := h.catalogUC.GetProductDetail(r.Context(), slug)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":            product,
		"discountPercent": product.DiscountPercent(),
	})
}

func (h *CatalogHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.catalogUC.GetReviews(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reviews)
}

type reviewReq struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"max=200"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *CatalogHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	user, err := userFrom(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req reviewReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.catalogUC.AddReview(r.Context(), user.ID, r.PathValue("id"), usecase.ReviewInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, review)
}
