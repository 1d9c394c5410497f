package models

import (
	"time"
)

// Order statuses. Checkout only ever produces PENDING; the rest exist for
// the fulfilment lifecycle and are never touched by this API.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Order is the model for the 'orders' table. Orders are immutable history:
// TotalPrice is the sum of the snapshotted line prices at creation time and
// is never recalculated, no matter what happens to catalog prices later.
type Order struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"userId" db:"user_id"`
	Status          string    `json:"status" db:"status"`
	TotalPrice      Money     `json:"totalPrice" db:"total_price"`
	ShippingAddress string    `json:"shippingAddress" db:"shipping_address"`
	BillingAddress  string    `json:"billingAddress" db:"billing_address"`
	TrackingNumber  *string   `json:"trackingNumber,omitempty" db:"tracking_number"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// OrderProduct is the model for the 'order_products' table.
// PriceAtPurchase is captured once at checkout and fixed forever,
// decoupled from product_variants.price.
type OrderProduct struct {
	ID               int64     `json:"id" db:"id"`
	OrderID          int64     `json:"orderId" db:"order_id"`
	ProductVariantID int64     `json:"productVariantId" db:"product_variant_id"`
	Quantity         int       `json:"quantity" db:"quantity"`
	PriceAtPurchase  Money     `json:"priceAtPurchase" db:"price_at_purchase"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}
