package models

import (
	"time"
)

// OrderStatus is dictated by the backend; the storefront only renders it.
type OrderStatus string

const (
	OrderPending        OrderStatus = "PENDING"
	OrderPaymentPending OrderStatus = "PAYMENT_PENDING"
	OrderProcessing     OrderStatus = "PROCESSING"
	OrderShipped        OrderStatus = "SHIPPED"
	OrderDelivered      OrderStatus = "DELIVERED"
	OrderCancelled      OrderStatus = "CANCELLED"
	OrderReturned       OrderStatus = "RETURNED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaymentPending, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

// IsTerminal reports statuses after which the backend no longer moves the order.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled || s == OrderReturned
}

func (s OrderStatus) Label() string {
	switch s {
	case OrderPending:
		return "Pending"
	case OrderPaymentPending:
		return "Payment pending"
	case OrderProcessing:
		return "Processing"
	case OrderShipped:
		return "Shipped"
	case OrderDelivered:
		return "Delivered"
	case OrderCancelled:
		return "Cancelled"
	case OrderReturned:
		return "Returned"
	default:
		return "Unknown"
	}
}

// OrderItem represents a single line of a placed order
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type Order struct {
	ID              string         `json:"id"`
	OrderNumber     string         `json:"orderNumber"`
	Status          OrderStatus    `json:"status"`
	Items           []OrderItem    `json:"items"`
	Subtotal        float64        `json:"subtotal"`
	Tax             float64        `json:"tax"`
	Shipping        float64        `json:"shipping"`
	Discount        float64        `json:"discount"`
	Total           float64        `json:"total"`
	CouponCode      string         `json:"couponCode,omitempty"`
	PaymentMethod   PaymentMethod  `json:"paymentMethod,omitempty"`
	ShippingAddress Address        `json:"shippingAddress"`
	StatusHistory   []StatusChange `json:"statusHistory,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// GetItemCount returns the total number of units in the order
func (o *Order) GetItemCount() int {
	var count int
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
}

type CreateOrderRequest struct {
	Items           []OrderItem   `json:"items"`
	ShippingAddress Address       `json:"shippingAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	Subtotal        float64       `json:"subtotal"`
	Tax             float64       `json:"tax"`
	Shipping        float64       `json:"shipping"`
	Discount        float64       `json:"discount"`
	Total           float64       `json:"total"`
	CouponCode      string        `json:"couponCode,omitempty"`
	IdempotencyKey  string        `json:"idempotencyKey,omitempty"`
}

// OrderItemsFromCart copies cart lines into order lines.
func OrderItemsFromCart(items []CartLineItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	return out
}
