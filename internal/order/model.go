package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type OrderItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderID      uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID    uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity     int             `json:"quantity" db:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order" db:"price_at_order"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`

	// ProductName is display-only, joined at read time; it is not persisted
	// with the item and may be empty if the product was since removed.
	ProductName string `json:"product_name,omitempty" db:"-"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	CustomerID  uuid.UUID       `json:"customer_id" db:"customer_id"`
	Status      Status          `json:"status" db:"status"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Items       []OrderItem     `json:"items" db:"-"`
	OrderDate   time.Time       `json:"order_date" db:"order_date"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Line is one requested (product, quantity) pair of a placement.
type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

type PagedOrders struct {
	Items      []Order `json:"items"`
	PageNumber int     `json:"page_number"`
	PageSize   int     `json:"page_size"`
	TotalCount int     `json:"total_count"`
}
