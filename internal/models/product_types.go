package models

import (
	"time"
)

// Product is the model for the 'products' table. A product is never sold
// directly; every purchasable unit is one of its variants. The product-level
// price only seeds new variants that don't bring their own.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	BaseSKU     string    `json:"baseSku" db:"base_sku"`
	Price       Money     `json:"price" db:"price"`
	Currency    string    `json:"currency" db:"currency"`
	CategoryID  int64     `json:"categoryId" db:"category_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// Joins (not in the DB table, populated manually)
	Variants []ProductVariant `json:"variants,omitempty" db:"-"`
	Tags     []Tag            `json:"tags,omitempty" db:"-"`
}

// ProductVariant is the model for the 'product_variants' table.
// Stock is non-negative at all times (unsigned column + conditional
// decrement); Price is mutable and never retroactive.
type ProductVariant struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"productId" db:"product_id"`
	SKU       string    `json:"sku" db:"sku"`
	Price     Money     `json:"price" db:"price"`
	Currency  string    `json:"currency" db:"currency"`
	Stock     int       `json:"stock" db:"stock"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joins (not in the DB table, populated manually)
	AttributeValues []AttributeValue `json:"attributeValues,omitempty" db:"-"`
}
