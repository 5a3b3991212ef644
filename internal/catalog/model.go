package catalog

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   *string         `json:"description,omitempty" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	CategoryID    uuid.UUID       `json:"category_id" db:"category_id"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	IsDeleted     bool            `json:"-" db:"is_deleted"`
	DeletedAt     *time.Time      `json:"-" db:"deleted_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Available reports whether the product can be ordered. Every read path that
// must exclude unavailable products goes through this predicate.
func (p *Product) Available() bool {
	return p.IsActive && !p.IsDeleted
}

// ProductFilter narrows a product search. Zero values mean "no filter".
type ProductFilter struct {
	Name            string
	CategoryID      *uuid.UUID
	IncludeInactive bool
	SortBy          string
	Ascending       bool
}

type PageRequest struct {
	Number int
	Size   int
}

func (p PageRequest) Offset() int {
	return (p.Number - 1) * p.Size
}

type PagedProducts struct {
	Items      []Product `json:"items"`
	PageNumber int       `json:"page_number"`
	PageSize   int       `json:"page_size"`
	TotalCount int       `json:"total_count"`
}
