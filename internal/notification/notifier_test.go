package notification

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-backend/internal/order"
	"ecommerce-backend/internal/user"
)

type recordingSender struct {
	to      string
	subject string
	body    string
}

func (r *recordingSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	r.to = to
	r.subject = subject
	r.body = htmlBody
	return nil
}

func fixtures() (*order.Order, *user.User) {
	o := &order.Order{
		ID:          uuid.Must(uuid.NewV4()),
		Status:      order.StatusPending,
		TotalAmount: decimal.RequireFromString("60.00"),
		OrderDate:   time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC),
		Items: []order.OrderItem{
			{
				ProductName:  "Widget",
				Quantity:     3,
				PriceAtOrder: decimal.RequireFromString("20.00"),
			},
		},
	}
	u := &user.User{Name: "Jane Doe", Email: "jane@example.com"}
	return o, u
}

func TestEmailNotifier_OrderPlaced(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewEmailNotifier(sender)
	o, u := fixtures()

	require.NoError(t, notifier.OrderPlaced(context.Background(), o, u))

	assert.Equal(t, "jane@example.com", sender.to)
	assert.Contains(t, sender.subject, "Order Confirmation")
	assert.Contains(t, sender.body, "Jane Doe")
	assert.Contains(t, sender.body, "Widget")
	assert.Contains(t, sender.body, "$20.00")
	assert.Contains(t, sender.body, "$60.00")
	assert.Contains(t, sender.body, shortID(o))
	assert.NotContains(t, sender.body, o.ID.String(), "order number must be printed without dashes")
}

func TestEmailNotifier_OrderCancelled(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewEmailNotifier(sender)
	o, u := fixtures()
	o.Status = order.StatusCancelled

	require.NoError(t, notifier.OrderCancelled(context.Background(), o, u))

	assert.Contains(t, sender.subject, "Cancellation")
	assert.Contains(t, sender.body, "refund")
	assert.Contains(t, sender.body, "$60.00")
	assert.Contains(t, sender.body, "cancelled")
}
