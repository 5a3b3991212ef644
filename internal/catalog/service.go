package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"ecommerce-backend/internal/cache"
)

var (
	ErrCategoryInUse = errors.New("category has active products and cannot be deleted")
	ErrInvalidInput  = errors.New("invalid input")
)

const (
	categoriesCacheKey = "categories:all"
	categoriesCacheTTL = 10 * time.Minute
)

type Service interface {
	CreateCategory(ctx context.Context, name string, description *string) (*Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string, description *string) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	SearchProducts(ctx context.Context, filter ProductFilter, page PageRequest) (*PagedProducts, error)
}

type ProductInput struct {
	Name          string
	Description   *string
	Price         decimal.Decimal
	CategoryID    uuid.UUID
	StockQuantity int
	IsActive      bool
}

type service struct {
	categories CategoryRepository
	products   ProductRepository
	cache      cache.Cache
}

func NewService(categories CategoryRepository, products ProductRepository, c cache.Cache) Service {
	return &service{categories: categories, products: products, cache: c}
}

func (s *service) CreateCategory(ctx context.Context, name string, description *string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}

	taken, err := s.categories.ExistsByName(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check category name: %w", err)
	}
	if taken {
		return nil, ErrCategoryNameTaken
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate category id: %w", err)
	}

	c := &Category{ID: id, Name: name, Description: description}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, ErrCategoryNameTaken) {
			return nil, ErrCategoryNameTaken
		}
		log.Error().Err(err).Msg("service: failed to create category")
		return nil, fmt.Errorf("service: failed to create category: %w", err)
	}

	s.invalidateCategories(ctx)

	log.Info().Stringer("category_id", c.ID).Str("name", c.Name).Msg("service: category created")

	return c, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, name string, description *string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}

	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch category: %w", err)
	}

	taken, err := s.categories.ExistsByName(ctx, name, &id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check category name: %w", err)
	}
	if taken {
		return nil, ErrCategoryNameTaken
	}

	c.Name = name
	c.Description = description

	if err := s.categories.Update(ctx, c); err != nil {
		if errors.Is(err, ErrCategoryNameTaken) || errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("category_id", id).Msg("service: failed to update category")
		return nil, fmt.Errorf("service: failed to update category: %w", err)
	}

	s.invalidateCategories(ctx)

	return c, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("service: failed to fetch category: %w", err)
	}

	inUse, err := s.categories.HasAvailableProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("service: failed to check category products: %w", err)
	}
	if inUse {
		return ErrCategoryInUse
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		log.Error().Err(err).Stringer("category_id", id).Msg("service: failed to delete category")
		return fmt.Errorf("service: failed to delete category: %w", err)
	}

	s.invalidateCategories(ctx)

	log.Info().Stringer("category_id", id).Msg("service: category deleted")

	return nil
}

func (s *service) GetCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch category: %w", err)
	}

	return c, nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	var cached []Category
	if hit, err := s.cache.Get(ctx, categoriesCacheKey, &cached); err != nil {
		log.Warn().Err(err).Msg("service: category cache read failed, falling back to database")
	} else if hit {
		return cached, nil
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}

	if err := s.cache.Set(ctx, categoriesCacheKey, categories, categoriesCacheTTL); err != nil {
		log.Warn().Err(err).Msg("service: category cache write failed")
	}

	return categories, nil
}

func (s *service) invalidateCategories(ctx context.Context) {
	if err := s.cache.Delete(ctx, categoriesCacheKey); err != nil {
		log.Warn().Err(err).Msg("service: category cache invalidation failed")
	}
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if input.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock quantity cannot be negative", ErrInvalidInput)
	}

	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch category: %w", err)
	}

	taken, err := s.products.ExistsByNameInCategory(ctx, input.CategoryID, name, nil)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check product name: %w", err)
	}
	if taken {
		return nil, ErrProductNameTaken
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate product id: %w", err)
	}

	p := &Product{
		ID:            id,
		Name:          name,
		Description:   input.Description,
		Price:         input.Price,
		CategoryID:    input.CategoryID,
		StockQuantity: input.StockQuantity,
		IsActive:      true,
	}

	if err := s.products.Create(ctx, p); err != nil {
		if errors.Is(err, ErrProductNameTaken) {
			return nil, ErrProductNameTaken
		}
		log.Error().Err(err).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Str("name", p.Name).Msg("service: product created")

	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if input.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock quantity cannot be negative", ErrInvalidInput)
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}
	if p.IsDeleted {
		return nil, ErrProductNotFound
	}

	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch category: %w", err)
	}

	taken, err := s.products.ExistsByNameInCategory(ctx, input.CategoryID, name, &id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check product name: %w", err)
	}
	if taken {
		return nil, ErrProductNameTaken
	}

	p.Name = name
	p.Description = input.Description
	p.Price = input.Price
	p.CategoryID = input.CategoryID
	p.StockQuantity = input.StockQuantity
	p.IsActive = input.IsActive

	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, ErrProductNameTaken) || errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}

	log.Info().Stringer("product_id", id).Msg("service: product deleted")

	return nil
}

func (s *service) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}
	if p.IsDeleted {
		return nil, ErrProductNotFound
	}

	return p, nil
}

func (s *service) SearchProducts(ctx context.Context, filter ProductFilter, page PageRequest) (*PagedProducts, error) {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size < 1 {
		page.Size = 20
	}
	if page.Size > 100 {
		page.Size = 100
	}

	filter.Name = strings.TrimSpace(filter.Name)

	result, err := s.products.Search(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("service: failed to search products: %w", err)
	}

	return result, nil
}
