package v1

import (
	"net/http"
	"strconv"

	"trendora-backend/internal/domain"
	"trendora-backend/internal/usecase"
	"trendora-backend/pkg/utils"

	"github.com/goccy/go-json"
)

type AdminCatalogHandler struct {
	catalogUC     *usecase.CatalogUsecase
	maxUploadSize int64
}

func NewAdminCatalogHandler(uc *usecase.CatalogUsecase, maxUploadSizeMB int64) *AdminCatalogHandler {
	return &AdminCatalogHandler{
		catalogUC:     uc,
		maxUploadSize: maxUploadSizeMB << 20,
	}
}

// --- Products ---

// Product mutations arrive as multipart forms: scalar fields as form
// values, structured fields (sizes, tags, variants, existingImages) as
// JSON-encoded strings, new images as file parts under "images".
func (h *AdminCatalogHandler) parseProductForm(r *http.Request) (usecase.ProductInput, error) {
	var input usecase.ProductInput

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return input, domain.InvalidInputf("invalid multipart form")
	}

	input.Name = r.FormValue("name")
	input.Description = r.FormValue("description")
	input.CategoryID = r.FormValue("categoryId")
	input.Color = r.FormValue("color")
	input.Price = utils.ParseFloat(r.FormValue("price"), -1)
	input.Stock = utils.ParseInt(r.FormValue("stock"), 0)
	input.Featured, _ = strconv.ParseBool(r.FormValue("featured"))
	input.IsActive = true
	if v := r.FormValue("isActive"); v != "" {
		input.IsActive, _ = strconv.ParseBool(v)
	}
	if v := r.FormValue("originalPrice"); v != "" {
		p := utils.ParseFloat(v, -1)
		input.OriginalPrice = &p
	}

	if v := r.FormValue("sizes"); v != "" {
		if err := json.Unmarshal([]byte(v), &input.Sizes); err != nil {
			return input, domain.InvalidInputf("sizes must be a JSON array of strings")
		}
	}
	if v := r.FormValue("tags"); v != "" {
		if err := json.Unmarshal([]byte(v), &input.Tags); err != nil {
			return input, domain.InvalidInputf("tags must be a JSON array of strings")
		}
	}
	if v := r.FormValue("variants"); v != "" {
		if err := json.Unmarshal([]byte(v), &input.Variants); err != nil {
			return input, domain.InvalidInputf("variants must be a JSON array")
		}
	}
	if v := r.FormValue("existingImages"); v != "" {
		if err := json.Unmarshal([]byte(v), &input.ExistingImages); err != nil {
			return input, domain.InvalidInputf("existingImages must be a JSON array")
		}
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			if !utils.IsImage(header.Header.Get("Content-Type")) {
				return input, domain.InvalidInputf("file %q is not a supported image type", header.Filename)
			}
			file, err := header.Open()
			if err != nil {
				return input, domain.InvalidInputf("cannot read uploaded file %q", header.Filename)
			}
			data, contentType, err := utils.ProcessImage(file, header.Filename)
			file.Close()
			if err != nil {
				return input, domain.InvalidInputf("cannot process image %q", header.Filename)
			}
			input.NewImages = append(input.NewImages, usecase.ImageUpload{
				Data:        data,
				ContentType: contentType,
				AltText:     input.Name,
			})
		}
	}

	return input, nil
}

func (h *AdminCatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, err := h.parseProductForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	product, err := h.catalogUC.CreateProduct(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, product)
}

func (h *AdminCatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	input, err := h.parseProductForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	product, err := h.catalogUC.UpdateProduct(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

func (h *AdminCatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUC.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *AdminCatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogUC.GetProductByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// ListProducts is the admin listing: unlike the storefront it can see
// inactive products.
func (h *AdminCatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := utils.ParseInt(query.Get("limit"), 20)
	page := utils.ParseInt(query.Get("page"), 1)
	if page < 1 {
		page = 1
	}

	var isActive *bool
	switch query.Get("isActive") {
	case "true":
		t := true
		isActive = &t
	case "false":
		f := false
		isActive = &f
	}

	filter := domain.ProductFilter{
		CategorySlug: query.Get("category"),
		Query:        query.Get("search"),
		Sort:         query.Get("sort"),
		Limit:        limit,
		Offset:       (page - 1) * limit,
		IsActive:     isActive,
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

func (h *AdminCatalogHandler) GetProductStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalogUC.GetProductStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

// --- Categories ---

type categoryReq struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Image       string  `json:"image"`
	ParentID    *string `json:"parentId"`
	IsActive    bool    `json:"isActive"`
	SortOrder   int     `json:"sortOrder"`
}

func (req categoryReq) toInput() usecase.CategoryInput {
	return usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		ParentID:    req.ParentID,
		IsActive:    req.IsActive,
		SortOrder:   req.SortOrder,
	}
}

func (h *AdminCatalogHandler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalogUC.GetCategories(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cats)
}

func (h *AdminCatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := h.catalogUC.CreateCategory(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, category)
}

func (h *AdminCatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := h.catalogUC.UpdateCategory(r.Context(), r.PathValue("id"), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, category)
}

func (h *AdminCatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUC.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}
