package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/renzogv/tienda-golang/internal/models"
	"github.com/shopspring/decimal"
)

//
// --- Checkout ---
//

// checkoutLine is a helper struct for fetching cart lines during checkout.
type checkoutLine struct {
	VariantID   int64
	Quantity    int
	Price       models.Money // the *current* price from product_variants
	Stock       int
	ProductName string
}

// CheckoutInput defines the JSON body for POST /v1/orders/checkout.
// BillingAddress is optional and defaults to the shipping address.
type CheckoutInput struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	BillingAddress  string `json:"billing_address"`
}

// Checkout is the handler for POST /v1/orders/checkout.
// It converts the caller's cart into an Order inside one transaction:
// validate stock, snapshot prices, create order + lines, decrement stock,
// empty the cart. Either every step commits or none do.
func (h *Handlers) Checkout(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(int64)

	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	billingAddress := strings.TrimSpace(input.BillingAddress)
	if billingAddress == "" {
		billingAddress = input.ShippingAddress
	}

	tx, err := h.DB.BeginTx(c, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback() // Safety net: a commit makes this a no-op

	// 1. --- Resolve the Cart ---
	// No cart at all behaves exactly like an empty one.
	var cartID int64
	err = tx.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find cart"})
		return
	}

	// 2. --- Read all lines with their variants, locking the variant rows ---
	query := `
		SELECT cp.product_variant_id, cp.quantity, pv.price, pv.stock, p.name
		FROM cart_products cp
		JOIN product_variants pv ON cp.product_variant_id = pv.id
		JOIN products p ON pv.product_id = p.id
		WHERE cp.cart_id = ?
		FOR UPDATE
	`
	rows, err := tx.Query(query, cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get cart items"})
		return
	}
	defer rows.Close()

	var lines []checkoutLine
	totalPrice := decimal.Zero

	for rows.Next() {
		var line checkoutLine
		if err := rows.Scan(&line.VariantID, &line.Quantity, &line.Price, &line.Stock, &line.ProductName); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan cart item"})
			return
		}

		// 3. --- Validate stock & accumulate the total ---
		// All validation happens before any mutating write.
		if line.Stock < line.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Insufficient stock for %s", line.ProductName),
			})
			return
		}
		totalPrice = totalPrice.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart items"})
		return
	}

	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
		return
	}

	// 4. --- Create the Order (status PENDING, total computed at this instant) ---
	now := time.Now()
	orderTotal := models.NewMoney(totalPrice)
	result, err := tx.Exec(`
		INSERT INTO orders (user_id, status, total_price, shipping_address, billing_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, models.OrderStatusPending, orderTotal, input.ShippingAddress, billingAddress, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new order ID"})
		return
	}

	// 5. --- Snapshot lines & decrement stock ---
	orderItems := make([]models.OrderProduct, 0, len(lines))
	for _, line := range lines {
		itemResult, err := tx.Exec(`
			INSERT INTO order_products (order_id, product_variant_id, quantity, price_at_purchase, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, line.VariantID, line.Quantity, line.Price, now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save order item"})
			return
		}
		itemID, _ := itemResult.LastInsertId()

		// Conditional decrement: only applies while stock covers the
		// quantity, so concurrent checkouts can never drive stock below
		// zero. Zero rows affected means someone beat us to the stock.
		stockResult, err := tx.Exec(
			"UPDATE product_variants SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?",
			line.Quantity, now, line.VariantID, line.Quantity)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deduct stock"})
			return
		}
		if affected, _ := stockResult.RowsAffected(); affected == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Insufficient stock for %s", line.ProductName),
			})
			return
		}

		orderItems = append(orderItems, models.OrderProduct{
			ID:               itemID,
			OrderID:          orderID,
			ProductVariantID: line.VariantID,
			Quantity:         line.Quantity,
			PriceAtPurchase:  line.Price,
			CreatedAt:        now,
		})
	}

	// 6. --- Empty the cart ---
	if _, err := tx.Exec("DELETE FROM cart_products WHERE cart_id = ?", cartID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	// 7. --- Commit ---
	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	order := models.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          models.OrderStatusPending,
		TotalPrice:      orderTotal,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  billingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
		"items": orderItems,
	})
}

//
// --- Order Retrieval ---
//

// OrderProductDetail extends the base OrderProduct with product info.
type OrderProductDetail struct {
	models.OrderProduct
	ProductName string `json:"productName"`
	VariantSKU  string `json:"variantSku"`
}

// GetMyOrders is the handler for GET /v1/orders.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(int64)

	query := `
		SELECT id, user_id, status, total_price, shipping_address, billing_address, tracking_number, created_at, updated_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var tracking sql.NullString

		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice,
			&o.ShippingAddress, &o.BillingAddress, &tracking, &o.CreatedAt, &o.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order data"})
			return
		}
		if tracking.Valid {
			o.TrackingNumber = &tracking.String
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating orders"})
		return
	}

	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderDetails is the handler for GET /v1/orders/:id.
// Orders are only visible to their owner.
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	userID_raw, _ := c.Get("userID")
	userID := userID_raw.(int64)
	orderID := c.Param("id")

	var o models.Order
	var tracking sql.NullString

	queryOrder := `
		SELECT id, user_id, status, total_price, shipping_address, billing_address, tracking_number, created_at, updated_at
		FROM orders
		WHERE id = ? AND user_id = ?
	`
	err := h.DB.QueryRow(queryOrder, orderID, userID).Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalPrice,
		&o.ShippingAddress, &o.BillingAddress, &tracking, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	if tracking.Valid {
		o.TrackingNumber = &tracking.String
	}

	queryItems := `
		SELECT op.id, op.order_id, op.product_variant_id, op.quantity, op.price_at_purchase, op.created_at,
			p.name, pv.sku
		FROM order_products op
		JOIN product_variants pv ON op.product_variant_id = pv.id
		JOIN products p ON pv.product_id = p.id
		WHERE op.order_id = ?
	`
	rows, err := h.DB.Query(queryItems, o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order items"})
		return
	}
	defer rows.Close()

	var items []OrderProductDetail
	for rows.Next() {
		var item OrderProductDetail
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductVariantID, &item.Quantity, &item.PriceAtPurchase, &item.CreatedAt,
			&item.ProductName, &item.VariantSKU,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order item"})
			return
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating order items"})
		return
	}

	if items == nil {
		items = []OrderProductDetail{}
	}

	c.JSON(http.StatusOK, gin.H{
		"order": o,
		"items": items,
	})
}
