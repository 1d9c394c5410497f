package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/renzogv/tienda-golang/internal/models"
	"github.com/shopspring/decimal"
)

//
// --- Cart Handlers ---
//

// getOrCreateCartID resolves the caller's cart inside tx, creating it on
// first use. Carts are one per user (user_id is UNIQUE) and never deleted,
// so once resolved the id stays valid for the rest of the request.
func (h *Handlers) getOrCreateCartID(tx *sql.Tx, userID int64) (int64, error) {
	var cartID int64
	err := tx.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	now := time.Now()
	result, err := tx.Exec(
		"INSERT INTO carts (user_id, created_at, updated_at) VALUES (?, ?, ?)",
		userID, now, now)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// buildCartView loads all lines of a cart joined with live variant data and
// computes totalItems / totalPrice. Prices here are always the *current*
// catalog prices - the cart is pre-purchase, so nothing is snapshotted.
func (h *Handlers) buildCartView(cartID, userID int64) (*models.CartView, error) {
	query := `
		SELECT cp.id, cp.product_variant_id, p.name, pv.sku, pv.price, cp.quantity, pv.stock
		FROM cart_products cp
		JOIN product_variants pv ON cp.product_variant_id = pv.id
		JOIN products p ON pv.product_id = p.id
		WHERE cp.cart_id = ?
		ORDER BY cp.id ASC
	`
	rows, err := h.DB.Query(query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	view := &models.CartView{
		ID:     cartID,
		UserID: userID,
		Items:  []models.CartItemView{},
	}

	total := decimal.Zero
	for rows.Next() {
		var item models.CartItemView
		if err := rows.Scan(
			&item.ID,
			&item.ProductVariantID,
			&item.ProductName,
			&item.SKU,
			&item.Price,
			&item.Quantity,
			&item.Stock,
		); err != nil {
			return nil, err
		}

		subtotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.Subtotal = models.NewMoney(subtotal)
		total = total.Add(subtotal)
		view.TotalItems += item.Quantity
		view.Items = append(view.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	view.TotalPrice = models.NewMoney(total)

	return view, nil
}

// respondWithCart is a small helper so every cart mutation returns the same
// computed cart view.
func (h *Handlers) respondWithCart(c *gin.Context, status int, cartID, userID int64) {
	view, err := h.buildCartView(cartID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}
	c.JSON(status, view)
}

// GetCart is the handler for GET /v1/cart.
// Creates the cart on first access (get-or-create), then returns the view.
func (h *Handlers) GetCart(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(int64)

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed"})
		return
	}
	defer tx.Rollback()

	cartID, err := h.getOrCreateCartID(tx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cart initialization failed"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	h.respondWithCart(c, http.StatusOK, cartID, userID)
}

// AddCartItemInput defines the JSON for adding a variant to the cart.
type AddCartItemInput struct {
	ProductVariantID int64 `json:"product_variant_id" binding:"required"`
	Quantity         int   `json:"quantity" binding:"required,gt=0"`
}

// AddCartItem is the handler for POST /v1/cart/add-item.
// Upsert keyed on (cart, variant): a second add of the same variant
// increments the existing line instead of creating a new one.
func (h *Handlers) AddCartItem(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(int64)

	var input AddCartItemInput
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

	cartID, err := h.getOrCreateCartID(tx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cart initialization failed"})
		return
	}

	// The variant must exist and have enough stock for the requested quantity.
	var stock int
	err = tx.QueryRow("SELECT stock FROM product_variants WHERE id = ?", input.ProductVariantID).Scan(&stock)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product variant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if stock < input.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough stock"})
		return
	}

	// Upsert by hand: there is deliberately no DB uniqueness constraint on
	// (cart_id, product_variant_id), so select-then-write inside the tx.
	now := time.Now()
	var itemID int64
	err = tx.QueryRow(
		"SELECT id FROM cart_products WHERE cart_id = ? AND product_variant_id = ?",
		cartID, input.ProductVariantID).Scan(&itemID)

	switch {
	case err == nil:
		_, err = tx.Exec(
			"UPDATE cart_products SET quantity = quantity + ?, updated_at = ? WHERE id = ?",
			input.Quantity, now, itemID)
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO cart_products (cart_id, product_variant_id, quantity, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			cartID, input.ProductVariantID, input.Quantity, now, now)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	h.respondWithCart(c, http.StatusCreated, cartID, userID)
}

// UpdateCartQuantityInput defines the JSON for updating an item's quantity.
// Quantity is a pointer because 0 is a valid value (it deletes the line).
type UpdateCartQuantityInput struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity *int  `json:"quantity" binding:"required"`
}

// UpdateCartQuantity is the handler for POST /v1/cart/update-quantity.
// quantity <= 0 removes the line (idempotent removal folded into update).
func (h *Handlers) UpdateCartQuantity(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(int64)

	var input UpdateCartQuantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	quantity := *input.Quantity

	// The item must belong to the caller's cart. No cart means no item.
	var cartID int64
	err := h.DB.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find cart"})
		return
	}

	if quantity <= 0 {
		h.deleteCartItem(c, cartID, userID, input.ItemID)
		return
	}

	// Check stock against the variant referenced by this line.
	var variantStock int
	err = h.DB.QueryRow(`
		SELECT pv.stock
		FROM cart_products cp
		JOIN product_variants pv ON cp.product_variant_id = pv.id
		WHERE cp.id = ? AND cp.cart_id = ?`,
		input.ItemID, cartID).Scan(&variantStock)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check stock"})
		return
	}
	if variantStock < quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough stock"})
		return
	}

	result, err := h.DB.Exec(
		"UPDATE cart_products SET quantity = ?, updated_at = ? WHERE id = ? AND cart_id = ?",
		quantity, time.Now(), input.ItemID, cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}

	h.respondWithCart(c, http.StatusOK, cartID, userID)
}

// RemoveCartItemInput defines the JSON for removing an item.
type RemoveCartItemInput struct {
	ItemID int64 `json:"item_id" binding:"required"`
}

// RemoveCartItem is the handler for POST /v1/cart/remove-item.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(int64)

	var input RemoveCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var cartID int64
	err := h.DB.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find cart"})
		return
	}

	h.deleteCartItem(c, cartID, userID, input.ItemID)
}

// deleteCartItem is a helper to DRY up the delete logic shared by
// RemoveCartItem and UpdateCartQuantity(quantity <= 0).
func (h *Handlers) deleteCartItem(c *gin.Context, cartID, userID, itemID int64) {
	result, err := h.DB.Exec("DELETE FROM cart_products WHERE id = ? AND cart_id = ?", itemID, cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found in cart"})
		return
	}

	h.respondWithCart(c, http.StatusOK, cartID, userID)
}

// ClearCart is the handler for POST /v1/cart/clear.
// Unconditional: succeeds (and returns the empty view) even when the cart
// was already empty or didn't exist yet.
func (h *Handlers) ClearCart(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(int64)

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed"})
		return
	}
	defer tx.Rollback()

	cartID, err := h.getOrCreateCartID(tx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cart initialization failed"})
		return
	}

	if _, err := tx.Exec("DELETE FROM cart_products WHERE cart_id = ?", cartID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	h.respondWithCart(c, http.StatusOK, cartID, userID)
}
