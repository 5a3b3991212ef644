package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductNotFound    = errors.New("one or more products were not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrStatusConflict     = errors.New("order status changed concurrently")
)

type Repository interface {
	// Create persists the order, its items and the stock decrement of every
	// line as one transaction. Either all effects apply or none do.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// UpdateStatus persists the order's current status and, with restock set,
	// returns each item's quantity to its product's stock in the same
	// transaction. Items whose product no longer exists are skipped. The
	// write only lands if the stored status still equals from; a lost race
	// surfaces as ErrStatusConflict, so stock is never restored twice.
	UpdateStatus(ctx context.Context, o *Order, from Status, restock bool) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, page Page) (*PagedOrders, error)
	List(ctx context.Context, status *Status, page Page) (*PagedOrders, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	o.OrderDate = now
	o.UpdatedAt = now

	queryOrder := `
		INSERT INTO orders (id, customer_id, status, total_amount, order_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, queryOrder, o.ID, o.CustomerID, string(o.Status), o.TotalAmount, o.OrderDate, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price_at_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	// The stock_quantity >= quantity guard makes concurrent placements safe:
	// whichever transaction commits second sees the decremented row and
	// affects zero rows if the remaining stock no longer covers its line.
	queryStock := `
		UPDATE products
		SET stock_quantity = stock_quantity - $1, updated_at = $2
		WHERE id = $3 AND stock_quantity >= $1 AND is_active AND NOT is_deleted
	`

	for i := range o.Items {
		item := &o.Items[i]

		itemID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order item id: %w", err)
		}
		item.ID = itemID
		item.OrderID = o.ID
		item.CreatedAt = now

		cmdTag, err := tx.Exec(ctx, queryStock, item.Quantity, now, item.ProductID)
		if err != nil {
			return fmt.Errorf("repository: failed to decrement stock for product %s: %w", item.ProductID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return r.classifyStockFailure(ctx, tx, item.ProductID)
		}

		_, err = tx.Exec(ctx, queryItem, item.ID, item.OrderID, item.ProductID, item.Quantity, item.PriceAtOrder, item.CreatedAt)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

// classifyStockFailure turns a zero-row stock decrement into the sentinel the
// caller can act on. The row is re-read inside the same transaction, so the
// verdict reflects the snapshot the decrement ran against.
func (r *postgresRepository) classifyStockFailure(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error {
	var (
		name      string
		isActive  bool
		isDeleted bool
	)
	err := tx.QueryRow(ctx,
		`SELECT name, is_active, is_deleted FROM products WHERE id = $1`,
		productID,
	).Scan(&name, &isActive, &isDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("repository: failed to inspect product %s: %w", productID, err)
	}

	if !isActive || isDeleted {
		return fmt.Errorf("%w: %q", ErrProductUnavailable, name)
	}

	return fmt.Errorf("%w for product %q", ErrInsufficientStock, name)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	queryOrder := `
		SELECT id, customer_id, status, total_amount, order_date, updated_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	err := r.db.QueryRow(ctx, queryOrder, id).Scan(
		&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.OrderDate, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", id, err)
	}

	items, err := r.itemsForOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *postgresRepository) itemsForOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	query := `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price_at_order, i.created_at,
		       coalesce(p.name, '')
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.created_at
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.PriceAtOrder, &item.CreatedAt, &item.ProductName,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order %s: %w", orderID, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order %s: %w", orderID, err)
	}

	return items, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, o *Order, from Status, restock bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	o.UpdatedAt = now

	// The status guard makes concurrent transitions safe: whichever
	// transaction commits second no longer matches from and affects zero
	// rows, so its restock never runs.
	cmdTag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(o.Status), o.UpdatedAt, o.ID, string(from),
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", o.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		var current string
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, o.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("repository: failed to inspect order %s: %w", o.ID, err)
		}
		return fmt.Errorf("%w: order is now %q", ErrStatusConflict, current)
	}

	if restock {
		queryStock := `
			UPDATE products
			SET stock_quantity = stock_quantity + $1, updated_at = $2
			WHERE id = $3
		`
		for _, item := range o.Items {
			// Zero rows affected means the product is gone; the order is
			// still cancelled, the restoration is simply skipped.
			if _, err := tx.Exec(ctx, queryStock, item.Quantity, now, item.ProductID); err != nil {
				return fmt.Errorf("repository: failed to restore stock for product %s: %w", item.ProductID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

func (r *postgresRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, page Page) (*PagedOrders, error) {
	return r.list(ctx, `customer_id = $1`, []interface{}{customerID}, page)
}

func (r *postgresRepository) List(ctx context.Context, status *Status, page Page) (*PagedOrders, error) {
	if status != nil {
		return r.list(ctx, `status = $1`, []interface{}{string(*status)}, page)
	}
	return r.list(ctx, `TRUE`, nil, page)
}

func (r *postgresRepository) list(ctx context.Context, where string, args []interface{}, page Page) (*PagedOrders, error) {
	var total int
	countQuery := `SELECT count(*) FROM orders WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("repository: failed to count orders: %w", err)
	}

	query := `
		SELECT id, customer_id, status, total_amount, order_date, updated_at
		FROM orders
		WHERE ` + where + `
		ORDER BY order_date DESC
		LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)

	args = append(args, page.Size, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.OrderDate, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Items = make([]OrderItem, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	result := &PagedOrders{
		Items:      make([]Order, 0, len(orderIDs)),
		PageNumber: page.Number,
		PageSize:   page.Size,
		TotalCount: total,
	}

	if len(orderIDs) == 0 {
		return result, nil
	}

	itemsQuery := `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price_at_order, i.created_at,
		       coalesce(p.name, '')
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
	`
	itemRows, err := r.db.Query(ctx, itemsQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		err := itemRows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.PriceAtOrder, &item.CreatedAt, &item.ProductName,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	for _, id := range orderIDs {
		result.Items = append(result.Items, *ordersMap[id])
	}

	return result, nil
}
