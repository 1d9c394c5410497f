package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/renzogv/tienda-golang/internal/models"
)

//
// --- Category Handlers ---
//

// CreateCategory is the handler for POST /v1/categories.
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input models.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	now := time.Now()
	category := models.Category{
		Name:        input.Name,
		Slug:        slug.Make(input.Name),
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.ParentID != nil {
		category.ParentID = sql.NullInt64{Int64: *input.ParentID, Valid: true}
	}

	res, err := h.DB.Exec(`
		INSERT INTO categories (name, slug, description, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		category.Name, category.Slug, category.Description, input.ParentID, now, now)
	if err != nil {
		// Most likely the UNIQUE slug constraint or a bad parent id.
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create category, it may already exist"})
		return
	}
	category.ID, _ = res.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "category": category})
}

// GetAllCategories is the handler for GET /v1/categories.
// Returns the category tree (roots with nested children).
func (h *Handlers) GetAllCategories(c *gin.Context) {
	rows, err := h.DB.Query(
		"SELECT id, name, slug, description, parent_id, created_at, updated_at FROM categories ORDER BY name ASC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	var allCats []models.Category
	for rows.Next() {
		var cat models.Category
		// Initialize Children so leaves render as [] instead of null
		cat.Children = []*models.Category{}
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description,
			&cat.ParentID, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan category row"})
			return
		}
		allCats = append(allCats, cat)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating categories"})
		return
	}

	// Build the tree: index by ID, then hang each child off its parent.
	// Every node is linked by pointer, so children attached at any depth
	// and in any row order end up in the response.
	catMap := make(map[int64]*models.Category)
	for i := range allCats {
		catMap[allCats[i].ID] = &allCats[i]
	}

	rootCats := []*models.Category{}
	for i := range allCats {
		cat := &allCats[i]
		if cat.ParentID.Valid {
			if parent, exists := catMap[cat.ParentID.Int64]; exists {
				parent.Children = append(parent.Children, cat)
			}
			continue
		}
		rootCats = append(rootCats, cat)
	}

	c.JSON(http.StatusOK, gin.H{"categories": rootCats})
}

//
// --- Tag Handlers ---
//

// CreateTag is the handler for POST /v1/tags.
// Get-or-create by slug: creating "Verano" twice returns the same tag.
func (h *Handlers) CreateTag(c *gin.Context) {
	var input models.CreateTagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tagSlug := slug.Make(input.Name)

	var existing models.Tag
	err := h.DB.QueryRow(
		"SELECT id, name, slug, created_at, updated_at FROM tags WHERE slug = ?", tagSlug).
		Scan(&existing.ID, &existing.Name, &existing.Slug, &existing.CreatedAt, &existing.UpdatedAt)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Tag already exists", "tag": existing})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	now := time.Now()
	res, err := h.DB.Exec(
		"INSERT INTO tags (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)",
		input.Name, tagSlug, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}
	id, _ := res.LastInsertId()

	tag := models.Tag{ID: id, Name: input.Name, Slug: tagSlug, CreatedAt: now, UpdatedAt: now}
	c.JSON(http.StatusCreated, gin.H{"message": "Tag created", "tag": tag})
}

// GetAllTags is the handler for GET /v1/tags.
func (h *Handlers) GetAllTags(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, name, slug, created_at, updated_at FROM tags ORDER BY name ASC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan tag row"})
			return
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating tags"})
		return
	}

	if tags == nil {
		tags = []models.Tag{}
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

//
// --- Attribute Handlers ---
//

// CreateAttribute is the handler for POST /v1/attributes.
func (h *Handlers) CreateAttribute(c *gin.Context) {
	var input models.CreateAttributeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	res, err := h.DB.Exec("INSERT INTO attributes (name) VALUES (?)", input.Name)
	if err != nil {
		// UNIQUE constraint on name
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create attribute, it may already exist"})
		return
	}
	id, _ := res.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Attribute created",
		"attribute": models.Attribute{ID: id, Name: input.Name},
	})
}

// CreateAttributeValue is the handler for POST /v1/attributes/:id/values.
// (attribute, value) pairs are unique; sku_code feeds variant SKU generation.
func (h *Handlers) CreateAttributeValue(c *gin.Context) {
	attributeID := c.Param("id")

	var input models.CreateAttributeValueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var attrID int64
	err := h.DB.QueryRow("SELECT id FROM attributes WHERE id = ?", attributeID).Scan(&attrID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Attribute not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res, err := h.DB.Exec(
		"INSERT INTO attribute_values (attribute_id, value, sku_code) VALUES (?, ?, ?)",
		attrID, input.Value, input.SKUCode)
	if err != nil {
		// UNIQUE (attribute_id, value)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create attribute value, it may already exist"})
		return
	}
	id, _ := res.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Attribute value created",
		"value": models.AttributeValue{
			ID:          id,
			AttributeID: attrID,
			Value:       input.Value,
			SKUCode:     input.SKUCode,
		},
	})
}

// GetAllAttributes is the handler for GET /v1/attributes.
// Returns every attribute with its values.
func (h *Handlers) GetAllAttributes(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, name FROM attributes ORDER BY name ASC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	var attrs []models.Attribute
	for rows.Next() {
		var a models.Attribute
		a.Values = []models.AttributeValue{}
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan attribute row"})
			return
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating attributes"})
		return
	}

	valueRows, err := h.DB.Query(
		"SELECT id, attribute_id, value, sku_code FROM attribute_values ORDER BY value ASC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer valueRows.Close()

	attrMap := make(map[int64]*models.Attribute)
	for i := range attrs {
		attrMap[attrs[i].ID] = &attrs[i]
	}
	for valueRows.Next() {
		var v models.AttributeValue
		if err := valueRows.Scan(&v.ID, &v.AttributeID, &v.Value, &v.SKUCode); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan attribute value row"})
			return
		}
		if attr, exists := attrMap[v.AttributeID]; exists {
			attr.Values = append(attr.Values, v)
		}
	}
	if err := valueRows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating attribute values"})
		return
	}

	if attrs == nil {
		attrs = []models.Attribute{}
	}
	c.JSON(http.StatusOK, gin.H{"attributes": attrs})
}
