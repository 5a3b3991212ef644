package db

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ecommerce-backend/internal/order"
	"ecommerce-backend/internal/user"
)

func TestSeedUsers(t *testing.T) {
	users, err := seedUsers()
	require.NoError(t, err)
	require.Len(t, users, 4)

	var admin *user.User
	emails := make(map[string]bool)
	for i := range users {
		assert.False(t, emails[users[i].Email], "duplicate email %s", users[i].Email)
		emails[users[i].Email] = true
		if users[i].Role == user.RoleAdmin {
			admin = &users[i]
		}
	}

	require.NotNil(t, admin, "seed must include an admin account")
	assert.Equal(t, "admin@ecommerce.com", admin.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(seedPassword)))
}

func TestSeedCategoriesAndProducts(t *testing.T) {
	categories := seedCategories()
	require.Len(t, categories, 5)

	known := make(map[uuid.UUID]bool, len(categories))
	for _, c := range categories {
		assert.NotEmpty(t, c.Name)
		known[c.ID] = true
	}

	products := seedProducts()
	require.Len(t, products, 15)
	for _, p := range products {
		assert.True(t, known[p.CategoryID], "product %s references unknown category", p.Name)
		assert.True(t, p.Price.IsPositive(), "product %s has no price", p.Name)
		assert.Greater(t, p.StockQuantity, 0, "product %s has no stock", p.Name)
		assert.True(t, p.Available())
	}
}

func TestSeedOrders(t *testing.T) {
	products := seedProducts()
	prices := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		prices[p.ID] = true
	}

	orders := seedOrders(products)
	require.Len(t, orders, 8)

	statuses := make(map[order.Status]int)
	for _, o := range orders {
		statuses[o.Status]++
		require.NotEmpty(t, o.Items)

		total := o.Items[0].LineTotal()
		for _, item := range o.Items[1:] {
			total = total.Add(item.LineTotal())
		}
		assert.True(t, o.TotalAmount.Equal(total), "order %s total %s != items %s", o.ID, o.TotalAmount, total)

		for _, item := range o.Items {
			assert.True(t, prices[item.ProductID], "order %s references unknown product", o.ID)
			assert.True(t, item.PriceAtOrder.IsPositive())
			assert.Equal(t, o.ID, item.OrderID)
		}

		if o.Status == order.StatusCancelled {
			assert.True(t, o.UpdatedAt.After(o.OrderDate), "cancelled order %s was never updated", o.ID)
		} else {
			assert.Equal(t, o.OrderDate, o.UpdatedAt)
		}
	}

	// Demo data covers every state of the order lifecycle.
	assert.NotZero(t, statuses[order.StatusPending])
	assert.NotZero(t, statuses[order.StatusCompleted])
	assert.NotZero(t, statuses[order.StatusCancelled])
}
