package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"ecommerce-backend/internal/catalog"
	"ecommerce-backend/internal/user"
)

var (
	ErrInvalidInput     = errors.New("invalid order input")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrForbidden        = errors.New("not allowed to access this order")
	ErrNotCancellable   = errors.New("only pending orders can be cancelled")
	ErrInvalidStatus    = errors.New("unknown order status")
)

// CustomerDirectory resolves the customer an order belongs to.
type CustomerDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// ProductCatalog is the batch product lookup the placement pre-checks use.
type ProductCatalog interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error)
}

// Notifier delivers best-effort customer notifications. Errors are logged by
// the caller and never fail the operation that triggered them.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *Order, customer *user.User) error
	OrderCancelled(ctx context.Context, o *Order, customer *user.User) error
}

type Service interface {
	PlaceOrder(ctx context.Context, customerID uuid.UUID, lines []Line) (*Order, error)
	CancelOrder(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error)
	GetOrder(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*Order, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, page Page) (*PagedOrders, error)
	ListOrders(ctx context.Context, status *Status, page Page) (*PagedOrders, error)
}

type service struct {
	orders    Repository
	products  ProductCatalog
	customers CustomerDirectory
	notifier  Notifier
}

func NewService(orders Repository, products ProductCatalog, customers CustomerDirectory, notifier Notifier) Service {
	return &service{orders: orders, products: products, customers: customers, notifier: notifier}
}

func (s *service) PlaceOrder(ctx context.Context, customerID uuid.UUID, lines []Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrInvalidInput)
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product id is required", ErrInvalidInput)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %s must be greater than zero", ErrInvalidInput, line.ProductID)
		}
	}

	customer, err := s.customers.GetUserByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("service: failed to resolve customer: %w", err)
	}

	distinct := distinctProductIDs(lines)
	products, err := s.products.GetByIDs(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch products: %w", err)
	}
	// Any missing product aborts the whole order; there are no partial orders.
	if len(products) != len(distinct) {
		return nil, ErrProductNotFound
	}

	productByID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		p := &products[i]
		if !p.Available() {
			return nil, fmt.Errorf("%w: %q", ErrProductUnavailable, p.Name)
		}
		productByID[p.ID] = p
	}

	// Pre-check against the snapshot just read. The authoritative guard is
	// the conditional decrement the repository runs at commit time; this one
	// only rejects the common case before opening a transaction.
	for _, line := range lines {
		p := productByID[line.ProductID]
		if p.StockQuantity < line.Quantity {
			return nil, fmt.Errorf("%w for product %q", ErrInsufficientStock, p.Name)
		}
	}

	orderID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order id: %w", err)
	}

	o := &Order{
		ID:          orderID,
		CustomerID:  customerID,
		Status:      StatusPending,
		TotalAmount: decimal.Zero,
		Items:       make([]OrderItem, 0, len(lines)),
	}

	for _, line := range lines {
		p := productByID[line.ProductID]
		o.Items = append(o.Items, OrderItem{
			ProductID:    p.ID,
			Quantity:     line.Quantity,
			PriceAtOrder: p.Price,
			ProductName:  p.Name,
		})
		o.TotalAmount = o.TotalAmount.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if err := s.orders.Create(ctx, o); err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound),
			errors.Is(err, ErrProductUnavailable),
			errors.Is(err, ErrInsufficientStock):
			return nil, err
		}
		log.Error().Err(err).Stringer("customer_id", customerID).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Stringer("order_id", o.ID).
		Stringer("customer_id", customerID).
		Str("total_amount", o.TotalAmount.String()).
		Msg("service: order placed")

	if err := s.notifier.OrderPlaced(ctx, o, customer); err != nil {
		log.Warn().Err(err).Stringer("order_id", o.ID).Str("email", customer.Email).
			Msg("service: failed to send order confirmation")
	}

	return o, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	if !isAdmin && o.CustomerID != requestedBy {
		log.Warn().Stringer("order_id", orderID).Stringer("requested_by", requestedBy).
			Msg("service: unauthorized cancellation attempt")
		return nil, ErrForbidden
	}

	if o.Status != StatusPending {
		return nil, ErrNotCancellable
	}

	o.Status = StatusCancelled
	if err := s.orders.UpdateStatus(ctx, o, StatusPending, true); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		// The order left Pending between the read and the write; for the
		// caller that is the same as finding it non-pending up front.
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrNotCancellable
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to cancel order")
		return nil, fmt.Errorf("service: failed to cancel order: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Msg("service: order cancelled")

	if customer, err := s.customers.GetUserByID(ctx, o.CustomerID); err != nil {
		log.Warn().Err(err).Stringer("order_id", o.ID).Msg("service: failed to resolve customer for cancellation notice")
	} else if err := s.notifier.OrderCancelled(ctx, o, customer); err != nil {
		log.Warn().Err(err).Stringer("order_id", o.ID).Str("email", customer.Email).
			Msg("service: failed to send cancellation notice")
	}

	return o, nil
}

// UpdateStatus is the administrative path. It deliberately skips the
// ownership and pending-only checks of CancelOrder: an admin may force-cancel
// a completed order, which restores its stock. No other transition touches
// stock, and transition legality is not validated beyond the status set.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	if o.Status == newStatus {
		return o, nil
	}

	restock := newStatus == StatusCancelled && o.Status != StatusCancelled

	oldStatus := o.Status
	o.Status = newStatus
	if err := s.orders.UpdateStatus(ctx, o, oldStatus, restock); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		if errors.Is(err, ErrStatusConflict) {
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to update order status")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().
		Stringer("order_id", o.ID).
		Stringer("old_status", oldStatus).
		Stringer("new_status", newStatus).
		Bool("restocked", restock).
		Msg("service: order status updated")

	return o, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, requestedBy uuid.UUID, isAdmin bool) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	if !isAdmin && o.CustomerID != requestedBy {
		return nil, ErrForbidden
	}

	return o, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, page Page) (*PagedOrders, error) {
	page = clampPage(page)

	result, err := s.orders.ListByCustomer(ctx, customerID, page)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list customer orders: %w", err)
	}

	return result, nil
}

func (s *service) ListOrders(ctx context.Context, status *Status, page Page) (*PagedOrders, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *status)
	}

	page = clampPage(page)

	result, err := s.orders.List(ctx, status, page)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return result, nil
}

func clampPage(page Page) Page {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size < 1 {
		page.Size = 20
	}
	if page.Size > 100 {
		page.Size = 100
	}
	return page
}

func distinctProductIDs(lines []Line) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
