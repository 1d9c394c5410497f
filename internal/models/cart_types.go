package models

import (
	"time"
)

// Cart defines the struct for the 'carts' table.
// Each user owns exactly one cart (user_id is UNIQUE); it is created lazily
// on first access and never deleted.
type Cart struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CartProduct defines the struct for the 'cart_products' table.
// Lines always reference a product variant, never a product directly.
type CartProduct struct {
	ID               int64     `json:"id" db:"id"`
	CartID           int64     `json:"cartId" db:"cart_id"`
	ProductVariantID int64     `json:"productVariantId" db:"product_variant_id"`
	Quantity         int       `json:"quantity" db:"quantity"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// CartItemView is one cart line joined with live catalog data.
// Price and Subtotal reflect the variant's *current* price; the cart is
// pre-purchase, so nothing here is a snapshot.
type CartItemView struct {
	ID               int64  `json:"id"`
	ProductVariantID int64  `json:"productVariantId"`
	ProductName      string `json:"productName"`
	SKU              string `json:"sku"`
	Price            Money  `json:"price"`
	Quantity         int    `json:"quantity"`
	Subtotal         Money  `json:"subtotal"`
	Stock            int    `json:"stock"`
}

// CartView is the computed response for every cart read.
type CartView struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"userId"`
	Items      []CartItemView `json:"items"`
	TotalItems int            `json:"totalItems"`
	TotalPrice Money          `json:"totalPrice"`
}
