package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"ecommerce-backend/internal/order"
	"ecommerce-backend/internal/user"
)

type PlaceOrderRequest struct {
	Items []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{service: service, validate: validator.New()}
}

// RegisterCustomerRoutes mounts the routes every authenticated user may call.
func (h *OrderHandler) RegisterCustomerRoutes(router chi.Router) {
	router.Post("/orders", h.handlePlace)
	router.Get("/orders", h.handleListMine)
	router.Get("/orders/{id}", h.handleGetByID)
	router.Post("/orders/{id}/cancel", h.handleCancel)
}

// RegisterAdminRoutes mounts the routes reserved for administrators.
func (h *OrderHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/orders", h.handleListAll)
	router.Put("/orders/{id}/status", h.handleUpdateStatus)
}

func (h *OrderHandler) handlePlace(w http.ResponseWriter, r *http.Request) {
	claims := actorFromContext(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req PlaceOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	lines := make([]order.Line, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.FromString(item.ProductID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid product_id")
			return
		}
		lines = append(lines, order.Line{ProductID: productID, Quantity: item.Quantity})
	}

	o, err := h.service.PlaceOrder(r.Context(), claims.UserID, lines)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	claims := actorFromContext(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	o, err := h.service.GetOrder(r.Context(), orderID, claims.UserID, claims.Role == user.RoleAdmin)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	claims := actorFromContext(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	o, err := h.service.CancelOrder(r.Context(), orderID, claims.UserID, claims.Role == user.RoleAdmin)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleListMine(w http.ResponseWriter, r *http.Request) {
	claims := actorFromContext(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	page := pageFromQuery(r)
	result, err := h.service.ListCustomerOrders(r.Context(), claims.UserID, page)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) handleListAll(w http.ResponseWriter, r *http.Request) {
	var statusFilter *order.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := order.Status(raw)
		if !status.Valid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status parameter")
			return
		}
		statusFilter = &status
	}

	page := pageFromQuery(r)
	result, err := h.service.ListOrders(r.Context(), statusFilter, page)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var req UpdateOrderStatusRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), orderID, order.Status(req.Status))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

func pageFromQuery(r *http.Request) order.Page {
	query := r.URL.Query()
	return order.Page{
		Number: queryInt(query.Get("page"), 1),
		Size:   queryInt(query.Get("page_size"), 20),
	}
}
