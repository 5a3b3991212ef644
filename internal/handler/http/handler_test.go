package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-backend/internal/auth"
	"ecommerce-backend/internal/catalog"
	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/order"
	"ecommerce-backend/internal/user"
)

type mockAuthService struct {
	RegisterFn func(ctx context.Context, name, email, password string) (*auth.AuthResult, error)
	LoginFn    func(ctx context.Context, email, password string) (*auth.AuthResult, error)
	RefreshFn  func(ctx context.Context, accessToken, refreshToken string) (*auth.AuthResult, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*auth.AuthResult, error) {
	return m.RegisterFn(ctx, name, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	return m.LoginFn(ctx, email, password)
}

func (m *mockAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.AuthResult, error) {
	return m.RefreshFn(ctx, accessToken, refreshToken)
}

type mockUserService struct {
	GetUserByIDFn   func(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateProfileFn func(ctx context.Context, id uuid.UUID, name, email string, password *string) (*user.User, error)
}

func (m *mockUserService) CreateUser(ctx context.Context, name, email, password string, role user.Role) (*user.User, error) {
	panic("not used")
}

func (m *mockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return m.GetUserByIDFn(ctx, id)
}

func (m *mockUserService) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	panic("not used")
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string, password *string) (*user.User, error) {
	return m.UpdateProfileFn(ctx, id, name, email, password)
}

type mockCatalogService struct {
	CreateCategoryFn  func(ctx context.Context, name string, description *string) (*catalog.Category, error)
	UpdateCategoryFn  func(ctx context.Context, id uuid.UUID, name string, description *string) (*catalog.Category, error)
	DeleteCategoryFn  func(ctx context.Context, id uuid.UUID) error
	GetCategoryByIDFn func(ctx context.Context, id uuid.UUID) (*catalog.Category, error)
	ListCategoriesFn  func(ctx context.Context) ([]catalog.Category, error)
	CreateProductFn   func(ctx context.Context, input catalog.ProductInput) (*catalog.Product, error)
	UpdateProductFn   func(ctx context.Context, id uuid.UUID, input catalog.ProductInput) (*catalog.Product, error)
	DeleteProductFn   func(ctx context.Context, id uuid.UUID) error
	GetProductByIDFn  func(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	SearchProductsFn  func(ctx context.Context, filter catalog.ProductFilter, page catalog.PageRequest) (*catalog.PagedProducts, error)
}

func (m *mockCatalogService) CreateCategory(ctx context.Context, name string, description *string) (*catalog.Category, error) {
	return m.CreateCategoryFn(ctx, name, description)
}

func (m *mockCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name string, description *string) (*catalog.Category, error) {
	return m.UpdateCategoryFn(ctx, id, name, description)
}

func (m *mockCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return m.DeleteCategoryFn(ctx, id)
}

func (m *mockCatalogService) GetCategoryByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	return m.GetCategoryByIDFn(ctx, id)
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return m.ListCategoriesFn(ctx)
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.Product, error) {
	return m.CreateProductFn(ctx, input)
}

func (m *mockCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalog.ProductInput) (*catalog.Product, error) {
	return m.UpdateProductFn(ctx, id, input)
}

func (m *mockCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return m.DeleteProductFn(ctx, id)
}

func (m *mockCatalogService) GetProductByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return m.GetProductByIDFn(ctx, id)
}

func (m *mockCatalogService) SearchProducts(ctx context.Context, filter catalog.ProductFilter, page catalog.PageRequest) (*catalog.PagedProducts, error) {
	return m.SearchProductsFn(ctx, filter, page)
}

type mockOrderService struct {
	PlaceOrderFn         func(ctx context.Context, customerID uuid.UUID, lines []order.Line) (*order.Order, error)
	CancelOrderFn        func(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*order.Order, error)
	UpdateStatusFn       func(ctx context.Context, orderID uuid.UUID, newStatus order.Status) (*order.Order, error)
	GetOrderFn           func(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*order.Order, error)
	ListCustomerOrdersFn func(ctx context.Context, customerID uuid.UUID, page order.Page) (*order.PagedOrders, error)
	ListOrdersFn         func(ctx context.Context, status *order.Status, page order.Page) (*order.PagedOrders, error)
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, customerID uuid.UUID, lines []order.Line) (*order.Order, error) {
	return m.PlaceOrderFn(ctx, customerID, lines)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*order.Order, error) {
	return m.CancelOrderFn(ctx, orderID, requestedBy, isAdmin)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status) (*order.Order, error) {
	return m.UpdateStatusFn(ctx, orderID, newStatus)
}

func (m *mockOrderService) GetOrder(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*order.Order, error) {
	return m.GetOrderFn(ctx, orderID, requestedBy, isAdmin)
}

func (m *mockOrderService) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, page order.Page) (*order.PagedOrders, error) {
	return m.ListCustomerOrdersFn(ctx, customerID, page)
}

func (m *mockOrderService) ListOrders(ctx context.Context, status *order.Status, page order.Page) (*order.PagedOrders, error) {
	return m.ListOrdersFn(ctx, status, page)
}

type testEnv struct {
	router http.Handler
	issuer *auth.TokenIssuer
	auth   *mockAuthService
	users  *mockUserService
	cat    *mockCatalogService
	orders *mockOrderService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		issuer: auth.NewTokenIssuer(config.JWTConfig{
			SigningKey:      "test-signing-key",
			Issuer:          "ecommerce-backend",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: time.Hour,
		}),
		auth:   &mockAuthService{},
		users:  &mockUserService{},
		cat:    &mockCatalogService{},
		orders: &mockOrderService{},
	}

	env.router = NewRouter(Handlers{
		Auth:     NewAuthHandler(env.auth),
		Customer: NewCustomerHandler(env.users),
		Category: NewCategoryHandler(env.cat),
		Product:  NewProductHandler(env.cat),
		Order:    NewOrderHandler(env.orders),
	}, NewAuthenticator(env.issuer))

	return env
}

func (env *testEnv) tokenFor(t *testing.T, u *user.User) string {
	t.Helper()
	token, _, err := env.issuer.IssueAccessToken(u)
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeErrorBody(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func customerFixture() *user.User {
	return &user.User{
		ID:    uuid.Must(uuid.NewV4()),
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Role:  user.RoleCustomer,
	}
}

func adminFixture() *user.User {
	return &user.User{
		ID:    uuid.Must(uuid.NewV4()),
		Name:  "Root",
		Email: "root@example.com",
		Role:  user.RoleAdmin,
	}
}

func TestAuthRoutes(t *testing.T) {
	t.Run("register returns 201 with tokens", func(t *testing.T) {
		env := newTestEnv()
		env.auth.RegisterFn = func(ctx context.Context, name, email, password string) (*auth.AuthResult, error) {
			return &auth.AuthResult{
				Tokens: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
				User:   customerFixture(),
			}, nil
		}

		recorder := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name":     "Jane Doe",
			"email":    "jane@example.com",
			"password": "secret password",
		})

		require.Equal(t, http.StatusCreated, recorder.Code)

		var body AuthResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "access", body.AccessToken)
		assert.Equal(t, "jane@example.com", body.User.Email)
	})

	t.Run("register validation failure maps fields", func(t *testing.T) {
		env := newTestEnv()

		recorder := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name":     "J",
			"email":    "not-an-email",
			"password": "short",
		})

		require.Equal(t, http.StatusBadRequest, recorder.Code)
		body := decodeErrorBody(t, recorder)
		assert.Equal(t, http.StatusBadRequest, body.Status)
		assert.Contains(t, body.Errors, "Name")
		assert.Contains(t, body.Errors, "Email")
		assert.Contains(t, body.Errors, "Password")
	})

	t.Run("login failure returns 401", func(t *testing.T) {
		env := newTestEnv()
		env.auth.LoginFn = func(ctx context.Context, email, password string) (*auth.AuthResult, error) {
			return nil, auth.ErrInvalidCredentials
		}

		recorder := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "jane@example.com",
			"password": "wrong",
		})

		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, http.StatusUnauthorized, decodeErrorBody(t, recorder).Status)
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		env := newTestEnv()
		env.auth.RegisterFn = func(ctx context.Context, name, email, password string) (*auth.AuthResult, error) {
			return nil, user.ErrEmailExists
		}

		recorder := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name":     "Jane Doe",
			"email":    "jane@example.com",
			"password": "secret password",
		})

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestAuthorization(t *testing.T) {
	env := newTestEnv()
	customer := customerFixture()
	admin := adminFixture()

	t.Run("missing token", func(t *testing.T) {
		recorder := env.do(t, http.MethodGet, "/api/orders", "", nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		recorder := env.do(t, http.MethodGet, "/api/orders", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("customer cannot reach admin routes", func(t *testing.T) {
		recorder := env.do(t, http.MethodPost, "/api/admin/categories", env.tokenFor(t, customer), map[string]string{
			"name": "Electronics",
		})
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("admin reaches admin routes", func(t *testing.T) {
		env.cat.CreateCategoryFn = func(ctx context.Context, name string, description *string) (*catalog.Category, error) {
			return &catalog.Category{ID: uuid.Must(uuid.NewV4()), Name: name}, nil
		}

		recorder := env.do(t, http.MethodPost, "/api/admin/categories", env.tokenFor(t, admin), map[string]string{
			"name": "Electronics",
		})
		assert.Equal(t, http.StatusCreated, recorder.Code)
	})
}

func TestOrderRoutes(t *testing.T) {
	customer := customerFixture()

	t.Run("place order returns 201", func(t *testing.T) {
		env := newTestEnv()
		productID := uuid.Must(uuid.NewV4())
		env.orders.PlaceOrderFn = func(ctx context.Context, customerID uuid.UUID, lines []order.Line) (*order.Order, error) {
			assert.Equal(t, customer.ID, customerID)
			require.Len(t, lines, 1)
			assert.Equal(t, productID, lines[0].ProductID)
			assert.Equal(t, 3, lines[0].Quantity)
			return &order.Order{
				ID:          uuid.Must(uuid.NewV4()),
				CustomerID:  customerID,
				Status:      order.StatusPending,
				TotalAmount: decimal.RequireFromString("60.00"),
			}, nil
		}

		recorder := env.do(t, http.MethodPost, "/api/orders", env.tokenFor(t, customer), map[string]interface{}{
			"items": []map[string]interface{}{
				{"product_id": productID.String(), "quantity": 3},
			},
		})

		require.Equal(t, http.StatusCreated, recorder.Code)

		var body order.Order
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, order.StatusPending, body.Status)
		assert.True(t, body.TotalAmount.Equal(decimal.RequireFromString("60.00")))
	})

	t.Run("insufficient stock returns 400", func(t *testing.T) {
		env := newTestEnv()
		env.orders.PlaceOrderFn = func(ctx context.Context, customerID uuid.UUID, lines []order.Line) (*order.Order, error) {
			return nil, fmt.Errorf("%w for product %q", order.ErrInsufficientStock, "Widget")
		}

		recorder := env.do(t, http.MethodPost, "/api/orders", env.tokenFor(t, customer), map[string]interface{}{
			"items": []map[string]interface{}{
				{"product_id": uuid.Must(uuid.NewV4()).String(), "quantity": 99},
			},
		})

		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, decodeErrorBody(t, recorder).Detail, "insufficient stock")
	})

	t.Run("empty item list fails validation", func(t *testing.T) {
		env := newTestEnv()

		recorder := env.do(t, http.MethodPost, "/api/orders", env.tokenFor(t, customer), map[string]interface{}{
			"items": []map[string]interface{}{},
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("cancel by a stranger returns 403", func(t *testing.T) {
		env := newTestEnv()
		env.orders.CancelOrderFn = func(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*order.Order, error) {
			return nil, order.ErrForbidden
		}

		recorder := env.do(t, http.MethodPost, "/api/orders/"+uuid.Must(uuid.NewV4()).String()+"/cancel",
			env.tokenFor(t, customer), nil)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("unknown order returns 404", func(t *testing.T) {
		env := newTestEnv()
		env.orders.GetOrderFn = func(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		}

		recorder := env.do(t, http.MethodGet, "/api/orders/"+uuid.Must(uuid.NewV4()).String(),
			env.tokenFor(t, customer), nil)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("admin status update", func(t *testing.T) {
		env := newTestEnv()
		orderID := uuid.Must(uuid.NewV4())
		env.orders.UpdateStatusFn = func(ctx context.Context, gotID uuid.UUID, newStatus order.Status) (*order.Order, error) {
			assert.Equal(t, orderID, gotID)
			assert.Equal(t, order.StatusCompleted, newStatus)
			return &order.Order{ID: gotID, Status: newStatus}, nil
		}

		recorder := env.do(t, http.MethodPut, "/api/admin/orders/"+orderID.String()+"/status",
			env.tokenFor(t, adminFixture()), map[string]string{"status": "completed"})

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("admin list rejects unknown status filter", func(t *testing.T) {
		env := newTestEnv()

		recorder := env.do(t, http.MethodGet, "/api/admin/orders?status=refunded",
			env.tokenFor(t, adminFixture()), nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestCatalogRoutes(t *testing.T) {
	t.Run("category list is public", func(t *testing.T) {
		env := newTestEnv()
		env.cat.ListCategoriesFn = func(ctx context.Context) ([]catalog.Category, error) {
			return []catalog.Category{{ID: uuid.Must(uuid.NewV4()), Name: "Electronics"}}, nil
		}

		recorder := env.do(t, http.MethodGet, "/api/categories", "", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("category with products cannot be deleted", func(t *testing.T) {
		env := newTestEnv()
		env.cat.DeleteCategoryFn = func(ctx context.Context, id uuid.UUID) error {
			return catalog.ErrCategoryInUse
		}

		recorder := env.do(t, http.MethodDelete, "/api/admin/categories/"+uuid.Must(uuid.NewV4()).String(),
			env.tokenFor(t, adminFixture()), nil)

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("product search parses filters", func(t *testing.T) {
		env := newTestEnv()
		var gotFilter catalog.ProductFilter
		var gotPage catalog.PageRequest
		env.cat.SearchProductsFn = func(ctx context.Context, filter catalog.ProductFilter, page catalog.PageRequest) (*catalog.PagedProducts, error) {
			gotFilter = filter
			gotPage = page
			return &catalog.PagedProducts{Items: []catalog.Product{}, PageNumber: page.Number, PageSize: page.Size}, nil
		}

		recorder := env.do(t, http.MethodGet, "/api/products?name=keyboard&page=2&page_size=5&sort_by=price&order=asc", "", nil)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "keyboard", gotFilter.Name)
		assert.True(t, gotFilter.Ascending)
		assert.Equal(t, "price", gotFilter.SortBy)
		assert.Equal(t, 2, gotPage.Number)
		assert.Equal(t, 5, gotPage.Size)
	})

	t.Run("include_inactive is ignored for anonymous callers", func(t *testing.T) {
		env := newTestEnv()
		var gotFilter catalog.ProductFilter
		env.cat.SearchProductsFn = func(ctx context.Context, filter catalog.ProductFilter, page catalog.PageRequest) (*catalog.PagedProducts, error) {
			gotFilter = filter
			return &catalog.PagedProducts{Items: []catalog.Product{}}, nil
		}

		recorder := env.do(t, http.MethodGet, "/api/products?include_inactive=true", "", nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.False(t, gotFilter.IncludeInactive)

		recorder = env.do(t, http.MethodGet, "/api/products?include_inactive=true", env.tokenFor(t, adminFixture()), nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, gotFilter.IncludeInactive)
	})

	t.Run("unknown product returns 404", func(t *testing.T) {
		env := newTestEnv()
		env.cat.GetProductByIDFn = func(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
			return nil, catalog.ErrProductNotFound
		}

		recorder := env.do(t, http.MethodGet, "/api/products/"+uuid.Must(uuid.NewV4()).String(), "", nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestCustomerRoutes(t *testing.T) {
	customer := customerFixture()

	t.Run("profile read returns the actor", func(t *testing.T) {
		env := newTestEnv()
		env.users.GetUserByIDFn = func(ctx context.Context, id uuid.UUID) (*user.User, error) {
			assert.Equal(t, customer.ID, id)
			return customer, nil
		}

		recorder := env.do(t, http.MethodGet, "/api/customers/me", env.tokenFor(t, customer), nil)

		require.Equal(t, http.StatusOK, recorder.Code)

		var body UserResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, customer.Email, body.Email)
	})

	t.Run("profile update", func(t *testing.T) {
		env := newTestEnv()
		env.users.UpdateProfileFn = func(ctx context.Context, id uuid.UUID, name, email string, password *string) (*user.User, error) {
			assert.Equal(t, customer.ID, id)
			assert.Nil(t, password)
			return &user.User{ID: id, Name: name, Email: email, Role: user.RoleCustomer}, nil
		}

		recorder := env.do(t, http.MethodPut, "/api/customers/me", env.tokenFor(t, customer), map[string]string{
			"name":  "Jane Smith",
			"email": "jane.smith@example.com",
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
