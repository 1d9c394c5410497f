package models

import (
	"database/sql"
	"time"
)

// --- Domain Models ---

type Category struct {
	ID          int64         `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Slug        string        `json:"slug" db:"slug"`
	Description string        `json:"description" db:"description"`
	ParentID    sql.NullInt64 `json:"-" db:"parent_id"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`

	// Virtual field (not in DB) - used for the tree view response.
	// Pointers so a node attached to its parent keeps receiving its own
	// children afterwards.
	Children []*Category `json:"children" db:"-"`
}

type Tag struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Attribute is a variant axis, e.g. "Size" or "Color".
type Attribute struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	Values []AttributeValue `json:"values" db:"-"`
}

// AttributeValue is one point on an axis, e.g. "Size: M". SKUCode is the
// short fragment used when composing variant SKUs ("TSHIRT-M-RED").
type AttributeValue struct {
	ID          int64  `json:"id" db:"id"`
	AttributeID int64  `json:"attributeId" db:"attribute_id"`
	Value       string `json:"value" db:"value"`
	SKUCode     string `json:"skuCode" db:"sku_code"`
}

// --- API Input Structs ---

type CreateCategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parentId"` // Pointer allows sending null for root categories
}

type CreateTagInput struct {
	Name string `json:"name" binding:"required"`
}

type CreateAttributeInput struct {
	Name string `json:"name" binding:"required"`
}

type CreateAttributeValueInput struct {
	Value   string `json:"value" binding:"required"`
	SKUCode string `json:"skuCode" binding:"required,max=10"`
}
