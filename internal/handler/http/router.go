package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth     *AuthHandler
	Customer *CustomerHandler
	Category *CategoryHandler
	Product  *ProductHandler
	Order    *OrderHandler
}

// NewRouter wires every handler under /api. Catalog reads are public (with
// optional authentication so admins can widen product visibility), customer
// and order routes require a valid token, and everything mutating the catalog
// or other customers' orders additionally requires the admin role.
func NewRouter(h Handlers, authn *Authenticator) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(api chi.Router) {
		h.Auth.RegisterRoutes(api)

		api.Group(func(public chi.Router) {
			public.Use(authn.OptionalAuth)
			h.Category.RegisterPublicRoutes(public)
			h.Product.RegisterPublicRoutes(public)
		})

		api.Group(func(private chi.Router) {
			private.Use(authn.RequireAuth)
			h.Customer.RegisterRoutes(private)
			h.Order.RegisterCustomerRoutes(private)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(authn.RequireAuth)
			admin.Use(RequireAdmin)
			h.Category.RegisterAdminRoutes(admin)
			h.Product.RegisterAdminRoutes(admin)
			h.Order.RegisterAdminRoutes(admin)
		})
	})

	return router
}
