package db

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"ecommerce-backend/internal/catalog"
	"ecommerce-backend/internal/order"
	"ecommerce-backend/internal/user"
)

// seedPassword is the shared password of every seeded account.
const seedPassword = "Password123!"

// Seed populates an empty database with a bootstrap admin account and demo
// data. Each table is checked independently and only filled when empty, so
// running it on every startup is safe. Without it a fresh deployment has no
// admin user at all: registration always creates customers, so the admin
// surface would be unreachable.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db: failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	seeded := false

	empty, err := tableEmpty(ctx, tx, "users")
	if err != nil {
		return err
	}
	if empty {
		users, err := seedUsers()
		if err != nil {
			return err
		}
		if err := insertUsers(ctx, tx, users); err != nil {
			return err
		}
		log.Info().Int("count", len(users)).Msg("Seeded users")
		seeded = true
	}

	empty, err = tableEmpty(ctx, tx, "categories")
	if err != nil {
		return err
	}
	if empty {
		categories := seedCategories()
		if err := insertCategories(ctx, tx, categories); err != nil {
			return err
		}
		log.Info().Int("count", len(categories)).Msg("Seeded categories")
		seeded = true
	}

	empty, err = tableEmpty(ctx, tx, "products")
	if err != nil {
		return err
	}
	if empty {
		products := seedProducts()
		if err := insertProducts(ctx, tx, products); err != nil {
			return err
		}
		log.Info().Int("count", len(products)).Msg("Seeded products")
		seeded = true
	}

	empty, err = tableEmpty(ctx, tx, "orders")
	if err != nil {
		return err
	}
	if empty {
		orders := seedOrders(seedProducts())
		if err := insertOrders(ctx, tx, orders); err != nil {
			return err
		}
		log.Info().Int("count", len(orders)).Msg("Seeded orders")
		seeded = true
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: failed to commit seed transaction: %w", err)
	}

	if seeded {
		log.Info().Msg("Database seeding completed")
	}
	return nil
}

func tableEmpty(ctx context.Context, tx pgx.Tx, table string) (bool, error) {
	var empty bool
	err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT NOT EXISTS (SELECT 1 FROM %s)`, table)).Scan(&empty)
	if err != nil {
		return false, fmt.Errorf("db: failed to check %s emptiness: %w", table, err)
	}
	return empty, nil
}

// Fixed identifiers keep seeded data stable across environments.
var (
	adminID      = uuid.Must(uuid.FromString("11111111-1111-1111-1111-111111111111"))
	johnDoeID    = uuid.Must(uuid.FromString("22222222-2222-2222-2222-222222222222"))
	janeSmithID  = uuid.Must(uuid.FromString("33333333-3333-3333-3333-333333333333"))
	bobJohnsonID = uuid.Must(uuid.FromString("44444444-4444-4444-4444-444444444444"))

	electronicsID = uuid.Must(uuid.FromString("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"))
	clothingID    = uuid.Must(uuid.FromString("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"))
	booksID       = uuid.Must(uuid.FromString("cccccccc-cccc-cccc-cccc-cccccccccccc"))
	homeGardenID  = uuid.Must(uuid.FromString("dddddddd-dddd-dddd-dddd-dddddddddddd"))
	sportsID      = uuid.Must(uuid.FromString("eeeeeeee-eeee-eeee-eeee-eeeeeeeeeeee"))
)

func seedUsers() ([]user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("db: failed to hash seed password: %w", err)
	}

	now := time.Now().UTC()
	mk := func(id uuid.UUID, name, email string, role user.Role) user.User {
		return user.User{
			ID:           id,
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	return []user.User{
		mk(adminID, "Admin User", "admin@ecommerce.com", user.RoleAdmin),
		mk(johnDoeID, "John Doe", "john.doe@example.com", user.RoleCustomer),
		mk(janeSmithID, "Jane Smith", "jane.smith@example.com", user.RoleCustomer),
		mk(bobJohnsonID, "Bob Johnson", "bob.johnson@example.com", user.RoleCustomer),
	}, nil
}

func seedCategories() []catalog.Category {
	now := time.Now().UTC()
	mk := func(id uuid.UUID, name, description string) catalog.Category {
		return catalog.Category{
			ID:          id,
			Name:        name,
			Description: &description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	return []catalog.Category{
		mk(electronicsID, "Electronics", "Electronic devices and accessories"),
		mk(clothingID, "Clothing", "Men's and women's clothing"),
		mk(booksID, "Books", "Books and reading materials"),
		mk(homeGardenID, "Home & Garden", "Home improvement and garden supplies"),
		mk(sportsID, "Sports & Outdoors", "Sports equipment and outdoor gear"),
	}
}

func seedProducts() []catalog.Product {
	now := time.Now().UTC()
	mk := func(id, categoryID uuid.UUID, name, description, price string, stock int) catalog.Product {
		return catalog.Product{
			ID:            id,
			Name:          name,
			Description:   &description,
			Price:         decimal.RequireFromString(price),
			CategoryID:    categoryID,
			StockQuantity: stock,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	pid := func(s string) uuid.UUID { return uuid.Must(uuid.FromString(s)) }

	return []catalog.Product{
		mk(pid("10000000-0000-0000-0000-000000000001"), electronicsID,
			"Smartphone Pro Max", "Latest generation smartphone with advanced features", "999.99", 50),
		mk(pid("10000000-0000-0000-0000-000000000002"), electronicsID,
			"Wireless Headphones", "Premium noise-cancelling wireless headphones", "249.99", 100),
		mk(pid("10000000-0000-0000-0000-000000000003"), electronicsID,
			"Laptop Ultrabook", "High-performance laptop for professionals", "1299.99", 30),
		mk(pid("10000000-0000-0000-0000-000000000004"), electronicsID,
			"Smart Watch", "Fitness tracking smartwatch with health monitoring", "299.99", 75),
		mk(pid("20000000-0000-0000-0000-000000000001"), clothingID,
			"Classic T-Shirt", "Comfortable cotton t-shirt in multiple colors", "19.99", 200),
		mk(pid("20000000-0000-0000-0000-000000000002"), clothingID,
			"Denim Jeans", "Premium quality denim jeans", "79.99", 150),
		mk(pid("20000000-0000-0000-0000-000000000003"), clothingID,
			"Winter Jacket", "Warm and stylish winter jacket", "149.99", 80),
		mk(pid("30000000-0000-0000-0000-000000000001"), booksID,
			"Programming Guide", "Comprehensive guide to modern programming", "39.99", 120),
		mk(pid("30000000-0000-0000-0000-000000000002"), booksID,
			"Mystery Novel", "Bestselling mystery thriller", "14.99", 200),
		mk(pid("30000000-0000-0000-0000-000000000003"), booksID,
			"Cookbook Collection", "Delicious recipes from around the world", "29.99", 90),
		mk(pid("40000000-0000-0000-0000-000000000001"), homeGardenID,
			"Garden Tool Set", "Complete set of gardening tools", "49.99", 60),
		mk(pid("40000000-0000-0000-0000-000000000002"), homeGardenID,
			"Coffee Maker", "Programmable coffee maker with timer", "89.99", 40),
		mk(pid("50000000-0000-0000-0000-000000000001"), sportsID,
			"Running Shoes", "Professional running shoes for athletes", "119.99", 100),
		mk(pid("50000000-0000-0000-0000-000000000002"), sportsID,
			"Yoga Mat", "Non-slip premium yoga mat", "34.99", 150),
		mk(pid("50000000-0000-0000-0000-000000000003"), sportsID,
			"Dumbbell Set", "Adjustable dumbbell set for home workouts", "159.99", 25),
	}
}

// seedLine pairs a product with a quantity when building demo orders.
type seedLine struct {
	itemID    string
	productID string
	quantity  int
}

func seedOrders(products []catalog.Product) []order.Order {
	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	now := time.Now().UTC()
	mk := func(id string, customerID uuid.UUID, status order.Status, placed time.Time, lines []seedLine) order.Order {
		o := order.Order{
			ID:          uuid.Must(uuid.FromString(id)),
			CustomerID:  customerID,
			Status:      status,
			TotalAmount: decimal.Zero,
			OrderDate:   placed,
			UpdatedAt:   placed,
		}
		for _, l := range lines {
			item := order.OrderItem{
				ID:           uuid.Must(uuid.FromString(l.itemID)),
				OrderID:      o.ID,
				ProductID:    uuid.Must(uuid.FromString(l.productID)),
				Quantity:     l.quantity,
				PriceAtOrder: prices[uuid.Must(uuid.FromString(l.productID))],
				CreatedAt:    placed,
			}
			o.Items = append(o.Items, item)
			o.TotalAmount = o.TotalAmount.Add(item.LineTotal())
		}
		// A cancelled order was necessarily touched after placement.
		if status == order.StatusCancelled {
			o.UpdatedAt = placed.Add(24 * time.Hour)
		}
		return o
	}

	return []order.Order{
		mk("a1111111-1111-1111-1111-111111111111", johnDoeID, order.StatusCompleted, now.AddDate(0, 0, -10), []seedLine{
			{"b1111111-1111-1111-1111-111111111111", "10000000-0000-0000-0000-000000000001", 1},
			{"b1111111-1111-1111-1111-111111111112", "10000000-0000-0000-0000-000000000002", 1},
		}),
		mk("a2222222-2222-2222-2222-222222222222", janeSmithID, order.StatusPending, now.AddDate(0, 0, -3), []seedLine{
			{"b2222222-2222-2222-2222-222222222221", "20000000-0000-0000-0000-000000000002", 2},
			{"b2222222-2222-2222-2222-222222222222", "30000000-0000-0000-0000-000000000002", 3},
			{"b2222222-2222-2222-2222-222222222223", "30000000-0000-0000-0000-000000000003", 1},
		}),
		mk("a3333333-3333-3333-3333-333333333333", bobJohnsonID, order.StatusCancelled, now.AddDate(0, 0, -7), []seedLine{
			{"b3333333-3333-3333-3333-333333333331", "10000000-0000-0000-0000-000000000003", 1},
		}),
		mk("a4444444-4444-4444-4444-444444444444", johnDoeID, order.StatusPending, now.AddDate(0, 0, -1), []seedLine{
			{"b4444444-4444-4444-4444-444444444441", "50000000-0000-0000-0000-000000000001", 1},
			{"b4444444-4444-4444-4444-444444444442", "20000000-0000-0000-0000-000000000001", 3},
		}),
		mk("a5555555-5555-5555-5555-555555555555", janeSmithID, order.StatusCompleted, now.AddDate(0, 0, -15), []seedLine{
			{"b5555555-5555-5555-5555-555555555551", "10000000-0000-0000-0000-000000000004", 1},
			{"b5555555-5555-5555-5555-555555555552", "50000000-0000-0000-0000-000000000002", 2},
		}),
		mk("a6666666-6666-6666-6666-666666666666", bobJohnsonID, order.StatusPending, now.Add(-5*time.Hour), []seedLine{
			{"b6666666-6666-6666-6666-666666666661", "20000000-0000-0000-0000-000000000003", 1},
			{"b6666666-6666-6666-6666-666666666662", "20000000-0000-0000-0000-000000000001", 2},
		}),
		mk("a7777777-7777-7777-7777-777777777777", johnDoeID, order.StatusCompleted, now.AddDate(0, 0, -20), []seedLine{
			{"b7777777-7777-7777-7777-777777777771", "30000000-0000-0000-0000-000000000001", 2},
			{"b7777777-7777-7777-7777-777777777772", "30000000-0000-0000-0000-000000000002", 1},
		}),
		mk("a8888888-8888-8888-8888-888888888888", janeSmithID, order.StatusCancelled, now.AddDate(0, 0, -5), []seedLine{
			{"b8888888-8888-8888-8888-888888888881", "10000000-0000-0000-0000-000000000002", 2},
		}),
	}
}

func insertUsers(ctx context.Context, tx pgx.Tx, users []user.User) error {
	for _, u := range users {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("db: failed to seed user %s: %w", u.Email, err)
		}
	}
	return nil
}

func insertCategories(ctx context.Context, tx pgx.Tx, categories []catalog.Category) error {
	for _, c := range categories {
		_, err := tx.Exec(ctx,
			`INSERT INTO categories (id, name, description, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("db: failed to seed category %q: %w", c.Name, err)
		}
	}
	return nil
}

func insertProducts(ctx context.Context, tx pgx.Tx, products []catalog.Product) error {
	for _, p := range products {
		_, err := tx.Exec(ctx,
			`INSERT INTO products (id, name, description, price, category_id, stock_quantity, is_active, is_deleted, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.StockQuantity, p.IsActive, p.IsDeleted, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("db: failed to seed product %q: %w", p.Name, err)
		}
	}
	return nil
}

func insertOrders(ctx context.Context, tx pgx.Tx, orders []order.Order) error {
	for _, o := range orders {
		_, err := tx.Exec(ctx,
			`INSERT INTO orders (id, customer_id, status, total_amount, order_date, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, o.CustomerID, string(o.Status), o.TotalAmount, o.OrderDate, o.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("db: failed to seed order %s: %w", o.ID, err)
		}
		for _, item := range o.Items {
			_, err := tx.Exec(ctx,
				`INSERT INTO order_items (id, order_id, product_id, quantity, price_at_order, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				item.ID, item.OrderID, item.ProductID, item.Quantity, item.PriceAtOrder, item.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("db: failed to seed order item %s: %w", item.ID, err)
			}
		}
		// Pending and completed demo orders hold or consumed stock; the
		// product rows listed the shelf quantity before any order landed.
		if o.Status != order.StatusCancelled {
			for _, item := range o.Items {
				_, err := tx.Exec(ctx,
					`UPDATE products SET stock_quantity = GREATEST(0, stock_quantity - $1) WHERE id = $2`,
					item.Quantity, item.ProductID,
				)
				if err != nil {
					return fmt.Errorf("db: failed to adjust seeded stock for %s: %w", item.ProductID, err)
				}
			}
		}
	}
	return nil
}
