package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"ecommerce-backend/internal/user"
)

type UpdateProfileRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

type CustomerHandler struct {
	users    user.Service
	validate *validator.Validate
}

func NewCustomerHandler(users user.Service) *CustomerHandler {
	return &CustomerHandler{users: users, validate: validator.New()}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Get("/customers/me", h.handleGetProfile)
	router.Put("/customers/me", h.handleUpdateProfile)
}

func (h *CustomerHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims := actorFromContext(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	u, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newUserResponse(u))
}

func (h *CustomerHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := actorFromContext(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest

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

	u, err := h.users.UpdateProfile(r.Context(), claims.UserID, req.Name, req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, newUserResponse(u))
}
