package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"ecommerce-backend/internal/catalog"
	"ecommerce-backend/internal/user"
)

type ProductRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   *string         `json:"description,omitempty" validate:"omitempty,max=200"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	CategoryID    string          `json:"category_id" validate:"required,uuid4"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    string          `json:"category_id"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type PagedProductsResponse struct {
	Items      []ProductResponse `json:"items"`
	PageNumber int               `json:"page_number"`
	PageSize   int               `json:"page_size"`
	TotalCount int               `json:"total_count"`
}

type ProductHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewProductHandler(service catalog.Service) *ProductHandler {
	return &ProductHandler{service: service, validate: validator.New()}
}

func (h *ProductHandler) RegisterPublicRoutes(router chi.Router) {
	router.Get("/products", h.handleSearch)
	router.Get("/products/{id}", h.handleGetByID)
}

func (h *ProductHandler) RegisterAdminRoutes(router chi.Router) {
	router.Post("/products", h.handleCreate)
	router.Put("/products/{id}", h.handleUpdate)
	router.Delete("/products/{id}", h.handleDelete)
}

func newProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		CategoryID:    p.CategoryID.String(),
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (h *ProductHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := catalog.ProductFilter{
		Name:      query.Get("name"),
		SortBy:    query.Get("sort_by"),
		Ascending: query.Get("order") == "asc",
	}

	if raw := query.Get("category_id"); raw != "" {
		categoryID, err := uuid.FromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid category_id parameter")
			return
		}
		filter.CategoryID = &categoryID
	}

	// Only admins may see inactive or deleted products.
	if query.Get("include_inactive") == "true" {
		claims := actorFromContext(r.Context())
		filter.IncludeInactive = claims != nil && claims.Role == user.RoleAdmin
	}

	page := catalog.PageRequest{
		Number: queryInt(query.Get("page"), 1),
		Size:   queryInt(query.Get("page_size"), 20),
	}

	result, err := h.service.SearchProducts(r.Context(), filter, page)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	response := PagedProductsResponse{
		Items:      make([]ProductResponse, 0, len(result.Items)),
		PageNumber: result.PageNumber,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
	}
	for i := range result.Items {
		response.Items = append(response.Items, newProductResponse(&result.Items[i]))
	}

	respondWithJSON(w, http.StatusOK, response)
}

func (h *ProductHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	p, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newProductResponse(p))
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	p, err := h.service.CreateProduct(r.Context(), *input)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, newProductResponse(p))
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), id, *input)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newProductResponse(p))
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) decodeProductInput(w http.ResponseWriter, r *http.Request) (*catalog.ProductInput, bool) {
	var req ProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, false
	}

	if err := h.validate.Struct(req); err != nil {
		respondWithValidationErrors(w, err)
		return nil, false
	}

	categoryID, err := uuid.FromString(req.CategoryID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid category_id")
		return nil, false
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return &catalog.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		CategoryID:    categoryID,
		StockQuantity: req.StockQuantity,
		IsActive:      isActive,
	}, true
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
