package notification

import (
	"context"
	"fmt"
	"strings"

	"ecommerce-backend/internal/order"
	"ecommerce-backend/internal/user"
)

// EmailNotifier renders order mails and hands them to a Sender.
type EmailNotifier struct {
	sender Sender
}

func NewEmailNotifier(sender Sender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) OrderPlaced(ctx context.Context, o *order.Order, customer *user.User) error {
	subject := fmt.Sprintf("Order Confirmation - Order #%s", shortID(o))
	body := confirmationBody(o, customer)
	return n.sender.Send(ctx, customer.Email, subject, body)
}

func (n *EmailNotifier) OrderCancelled(ctx context.Context, o *order.Order, customer *user.User) error {
	subject := fmt.Sprintf("Order Cancellation Confirmation - Order #%s", shortID(o))
	body := cancellationBody(o, customer)
	return n.sender.Send(ctx, customer.Email, subject, body)
}

func shortID(o *order.Order) string {
	return strings.ReplaceAll(o.ID.String(), "-", "")
}

func itemRows(o *order.Order) string {
	var b strings.Builder
	for _, item := range o.Items {
		name := item.ProductName
		if name == "" {
			name = "Product"
		}
		fmt.Fprintf(&b, `
			<tr>
				<td style="padding: 10px; border-bottom: 1px solid #e0e0e0;">%s</td>
				<td style="padding: 10px; border-bottom: 1px solid #e0e0e0; text-align: center;">%d</td>
				<td style="padding: 10px; border-bottom: 1px solid #e0e0e0; text-align: right;">$%s</td>
				<td style="padding: 10px; border-bottom: 1px solid #e0e0e0; text-align: right; font-weight: bold;">$%s</td>
			</tr>`, name, item.Quantity, item.PriceAtOrder.StringFixed(2), item.LineTotal().StringFixed(2))
	}
	return b.String()
}

func confirmationBody(o *order.Order, customer *user.User) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order Confirmation</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: #ffffff; padding: 30px; border-radius: 8px;">
		<h1 style="color: #28a745;">Order Confirmed!</h1>
		<p>Dear %s,</p>
		<p>Thank you for your order! We've received it and it's being processed.
		You'll receive another email when your order ships.</p>
		<p><strong>Order Number:</strong> %s<br>
		<strong>Order Date:</strong> %s<br>
		<strong>Status:</strong> %s</p>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f8f9fa;">
					<th style="padding: 10px; text-align: left;">Product</th>
					<th style="padding: 10px; text-align: center;">Quantity</th>
					<th style="padding: 10px; text-align: right;">Unit Price</th>
					<th style="padding: 10px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 12px 10px; text-align: right; font-weight: bold;">Total Amount:</td>
					<td style="padding: 12px 10px; text-align: right; font-weight: bold; color: #28a745;">$%s</td>
				</tr>
			</tfoot>
		</table>
		<p style="color: #555;">If you have any questions about your order, please contact our
		customer support team. Thank you for shopping with us!</p>
	</div>
</body>
</html>`,
		customer.Name, shortID(o), o.OrderDate.Format("January 2, 2006 at 15:04"),
		o.Status, itemRows(o), o.TotalAmount.StringFixed(2))
}

func cancellationBody(o *order.Order, customer *user.User) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order Cancellation Confirmation</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: #ffffff; padding: 30px; border-radius: 8px;">
		<h1 style="color: #dc3545;">Order Cancelled</h1>
		<p>Dear %s,</p>
		<p>We have processed the cancellation of your order. The refund of
		$%s will be returned to your original payment method within 5-7
		business days.</p>
		<p><strong>Order Number:</strong> %s<br>
		<strong>Order Date:</strong> %s<br>
		<strong>Status:</strong> %s</p>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f8f9fa;">
					<th style="padding: 10px; text-align: left;">Product</th>
					<th style="padding: 10px; text-align: center;">Quantity</th>
					<th style="padding: 10px; text-align: right;">Unit Price</th>
					<th style="padding: 10px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 12px 10px; text-align: right; font-weight: bold;">Total Amount:</td>
					<td style="padding: 12px 10px; text-align: right; font-weight: bold; color: #dc3545;">$%s</td>
				</tr>
			</tfoot>
		</table>
		<p style="color: #555;">If you have any questions about this cancellation, please contact
		our customer support team. Thank you for your understanding.</p>
	</div>
</body>
</html>`,
		customer.Name, o.TotalAmount.StringFixed(2), shortID(o),
		o.OrderDate.Format("January 2, 2006 at 15:04"), o.Status,
		itemRows(o), o.TotalAmount.StringFixed(2))
}
