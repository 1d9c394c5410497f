package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/renzogv/tienda-golang/internal/models"
)

//
// --- Product Handlers ---
//

// VariantInput defines the JSON for one variant inside product creation
// (and for POST /v1/products/:id/variants).
type VariantInput struct {
	SKU               string        `json:"sku"`
	Price             *models.Money `json:"price"` // nil -> inherit the product price
	Stock             int           `json:"stock" binding:"gte=0"`
	AttributeValueIDs []int64       `json:"attributeValueIds"`
}

// CreateProductInput defines the JSON for POST /v1/products.
type CreateProductInput struct {
	Name         string         `json:"name" binding:"required"`
	Description  string         `json:"description"`
	BaseSKU      string         `json:"baseSku" binding:"required"`
	Price        models.Money   `json:"price" binding:"required"`
	Currency     string         `json:"currency"`
	CategoryID   int64          `json:"categoryId" binding:"required"`
	DefaultStock int            `json:"defaultStock" binding:"gte=0"`
	TagIDs       []int64        `json:"tagIds"`
	Variants     []VariantInput `json:"variants"`
}

// generateVariantSKU composes a variant SKU from the product's base SKU and
// the sku_code of each attribute value, ordered by attribute name:
// base "TSHIRT" + (Color: Red "RED", Size: M "M") -> "TSHIRT-RED-M".
func generateVariantSKU(tx *sql.Tx, baseSKU string, attributeValueIDs []int64) (string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(attributeValueIDs)), ",")
	query := fmt.Sprintf(`
		SELECT av.sku_code
		FROM attribute_values av
		JOIN attributes a ON av.attribute_id = a.id
		WHERE av.id IN (%s)
		ORDER BY a.name ASC`, placeholders)

	args := make([]interface{}, len(attributeValueIDs))
	for i, id := range attributeValueIDs {
		args[i] = id
	}

	rows, err := tx.Query(query, args...)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	parts := []string{baseSKU}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return "", err
		}
		parts = append(parts, code)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(parts) != len(attributeValueIDs)+1 {
		return "", fmt.Errorf("unknown attribute value id")
	}

	return strings.Join(parts, "-"), nil
}

// insertVariant saves one variant row plus its attribute-value links.
// When the input has no SKU but does have attribute values, the SKU is
// generated from them.
func insertVariant(tx *sql.Tx, product *models.Product, input VariantInput) (*models.ProductVariant, error) {
	sku := input.SKU
	if sku == "" {
		if len(input.AttributeValueIDs) == 0 {
			return nil, fmt.Errorf("variant needs a sku or attribute values to generate one")
		}
		generated, err := generateVariantSKU(tx, product.BaseSKU, input.AttributeValueIDs)
		if err != nil {
			return nil, err
		}
		sku = generated
	}

	price := product.Price
	if input.Price != nil {
		price = *input.Price
	}

	now := time.Now()
	result, err := tx.Exec(`
		INSERT INTO product_variants (product_id, sku, price, currency, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		product.ID, sku, price, product.Currency, input.Stock, now, now)
	if err != nil {
		return nil, err
	}
	variantID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, avID := range input.AttributeValueIDs {
		if _, err := tx.Exec(
			"INSERT INTO variant_attribute_values (product_variant_id, attribute_value_id) VALUES (?, ?)",
			variantID, avID); err != nil {
			return nil, err
		}
	}

	return &models.ProductVariant{
		ID:        variantID,
		ProductID: product.ID,
		SKU:       sku,
		Price:     price,
		Currency:  product.Currency,
		Stock:     input.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CreateProduct is the handler for POST /v1/products.
// Every product leaves this handler with at least one purchasable variant:
// when the payload brings none, a "<baseSku>-DEF" default variant is created
// right here, synchronously - no hidden save hooks.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	currency := input.Currency
	if currency == "" {
		currency = "PEN"
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed"})
		return
	}
	defer tx.Rollback()

	// The category must exist (products are never uncategorized).
	var categoryExists int
	err = tx.QueryRow("SELECT 1 FROM categories WHERE id = ?", input.CategoryID).Scan(&categoryExists)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid categoryId"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	now := time.Now()
	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		BaseSKU:     input.BaseSKU,
		Price:       input.Price,
		Currency:    currency,
		CategoryID:  input.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := tx.Exec(`
		INSERT INTO products (name, description, base_sku, price, currency, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product.Name, product.Description, product.BaseSKU, product.Price,
		product.Currency, product.CategoryID, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert product"})
		return
	}
	product.ID, err = result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new product ID"})
		return
	}

	// Tag links
	for _, tagID := range input.TagIDs {
		if _, err := tx.Exec("INSERT INTO product_tags (product_id, tag_id) VALUES (?, ?)",
			product.ID, tagID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tagIds"})
			return
		}
	}

	// Variants: the caller's, or the explicit default one.
	if len(input.Variants) > 0 {
		for _, v := range input.Variants {
			variant, err := insertVariant(tx, product, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to save variant: " + err.Error()})
				return
			}
			product.Variants = append(product.Variants, *variant)
		}
	} else {
		variant, err := insertVariant(tx, product, VariantInput{
			SKU:   product.BaseSKU + "-DEF",
			Stock: input.DefaultStock,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create default variant"})
			return
		}
		product.Variants = append(product.Variants, *variant)
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created",
		"product": product,
	})
}

// AddVariant is the handler for POST /v1/products/:id/variants.
func (h *Handlers) AddVariant(c *gin.Context) {
	productID := c.Param("id")

	var input VariantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed"})
		return
	}
	defer tx.Rollback()

	var product models.Product
	err = tx.QueryRow(
		"SELECT id, base_sku, price, currency FROM products WHERE id = ?", productID).
		Scan(&product.ID, &product.BaseSKU, &product.Price, &product.Currency)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	variant, err := insertVariant(tx, &product, input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to save variant: " + err.Error()})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Variant created",
		"variant": variant,
	})
}

// GetAllProducts is the handler for GET /v1/products.
// Plain list, newest first. Filtering and pagination are intentionally
// not part of this API.
func (h *Handlers) GetAllProducts(c *gin.Context) {
	query := `
		SELECT id, name, description, base_sku, price, currency, category_id, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`
	rows, err := h.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.BaseSKU,
			&p.Price, &p.Currency, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product row"})
			return
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating products"})
		return
	}

	if products == nil {
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct is the handler for GET /v1/products/:id.
// The detail view includes variants and tags.
func (h *Handlers) GetProduct(c *gin.Context) {
	productID := c.Param("id")

	var p models.Product
	err := h.DB.QueryRow(`
		SELECT id, name, description, base_sku, price, currency, category_id, created_at, updated_at
		FROM products WHERE id = ?`, productID).
		Scan(&p.ID, &p.Name, &p.Description, &p.BaseSKU,
			&p.Price, &p.Currency, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Variants
	variantRows, err := h.DB.Query(`
		SELECT id, product_id, sku, price, currency, stock, created_at, updated_at
		FROM product_variants WHERE product_id = ? ORDER BY id ASC`, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch variants"})
		return
	}
	defer variantRows.Close()

	for variantRows.Next() {
		var v models.ProductVariant
		if err := variantRows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price,
			&v.Currency, &v.Stock, &v.CreatedAt, &v.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan variant row"})
			return
		}
		p.Variants = append(p.Variants, v)
	}
	if err := variantRows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating variants"})
		return
	}

	// Tags
	tagRows, err := h.DB.Query(`
		SELECT t.id, t.name, t.slug, t.created_at, t.updated_at
		FROM tags t
		JOIN product_tags pt ON pt.tag_id = t.id
		WHERE pt.product_id = ? ORDER BY t.name ASC`, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var t models.Tag
		if err := tagRows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan tag row"})
			return
		}
		p.Tags = append(p.Tags, t)
	}
	if err := tagRows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating tags"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": p})
}
