package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario: cart has variant (stock=10, price=100.00) with quantity=2.
// Checkout must create a PENDING order with total 200.00, snapshot the line
// price, decrement stock by 2 and empty the cart - all in one transaction.
func TestCheckoutSuccess(t *testing.T) {
	h, mock := newTestHandlers(t)
	router := newTestRouter(h)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT cp.product_variant_id, cp.quantity, pv.price, pv.stock, p.name")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"product_variant_id", "quantity", "price", "stock", "name"}).
			AddRow(3, 2, "100.00", 10, "Polo Clásico"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders (user_id, status, total_price, shipping_address, billing_address, created_at, updated_at)")).
		WithArgs(testUserID, "PENDING", "200.00", "Calle Falsa 123, Lima", "Misma que envío", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_products (order_id, product_variant_id, quantity, price_at_purchase, created_at)")).
		WithArgs(int64(42), int64(3), 2, "100.00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_variants SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?")).
		WithArgs(2, sqlmock.AnyArg(), int64(3), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_products WHERE cart_id = ?")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := performRequest(router, http.MethodPost, "/v1/orders/checkout",
		`{"shipping_address": "Calle Falsa 123, Lima", "billing_address": "Misma que envío"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Order struct {
			ID              int64  `json:"id"`
			Status          string `json:"status"`
			TotalPrice      string `json:"totalPrice"`
			ShippingAddress string `json:"shippingAddress"`
			BillingAddress  string `json:"billingAddress"`
		} `json:"order"`
		Items []struct {
			ProductVariantID int64  `json:"productVariantId"`
			Quantity         int    `json:"quantity"`
			PriceAtPurchase  string `json:"priceAtPurchase"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, int64(42), resp.Order.ID)
	assert.Equal(t, "PENDING", resp.Order.Status)
	assert.Equal(t, "200.00", resp.Order.TotalPrice)
	assert.Equal(t, "Calle Falsa 123, Lima", resp.Order.ShippingAddress)
	assert.Equal(t, "Misma que envío", resp.Order.BillingAddress)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(3), resp.Items[0].ProductVariantID)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, "100.00", resp.Items[0].PriceAtPurchase)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Billing address defaults to the shipping address when absent.
func TestCheckoutBillingDefaultsToShipping(t *testing.T) {
	h, mock := newTestHandlers(t)
	router := newTestRouter(h)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT cp.product_variant_id, cp.quantity, pv.price, pv.stock, p.name")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"product_variant_id", "quantity", "price", "stock", "name"}).
			AddRow(3, 1, "100.00", 10, "Polo Clásico"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(testUserID, "PENDING", "100.00", "Addr", "Addr", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_products")).
		WithArgs(int64(43), int64(3), 1, "100.00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_variants SET stock = stock - ?")).
		WithArgs(1, sqlmock.AnyArg(), int64(3), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_products WHERE cart_id = ?")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := performRequest(router, http.MethodPost, "/v1/orders/checkout",
		`{"shipping_address": "Addr"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Scenario: quantity=15 against stock=10. The checkout must fail with a
// client error and roll back without a single write.
func TestCheckoutInsufficientStock(t *testing.T) {
	h, mock := newTestHandlers(t)
	router := newTestRouter(h)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT cp.product_variant_id, cp.quantity, pv.price, pv.stock, p.name")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"product_variant_id", "quantity", "price", "stock", "name"}).
			AddRow(3, 15, "100.00", 10, "Polo Clásico"))
	mock.ExpectRollback()

	w := performRequest(router, http.MethodPost, "/v1/orders/checkout",
		`{"shipping_address": "Addr"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock for Polo Clásico")
	// No INSERT/UPDATE/DELETE expectations were registered: any write would
	// have failed the test.
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An empty cart (or no cart at all) rejects the checkout before any write.
func TestCheckoutEmptyCart(t *testing.T) {
	t.Run("no cart row", func(t *testing.T) {
		h, mock := newTestHandlers(t)
		router := newTestRouter(h)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
			WithArgs(testUserID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		w := performRequest(router, http.MethodPost, "/v1/orders/checkout",
			`{"shipping_address": "Addr"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Your cart is empty")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cart with zero lines", func(t *testing.T) {
		h, mock := newTestHandlers(t)
		router := newTestRouter(h)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
			WithArgs(testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT cp.product_variant_id, cp.quantity, pv.price, pv.stock, p.name")).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"product_variant_id", "quantity", "price", "stock", "name"}))
		mock.ExpectRollback()

		w := performRequest(router, http.MethodPost, "/v1/orders/checkout",
			`{"shipping_address": "Addr"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Your cart is empty")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// A concurrent checkout can consume the stock between our validation read
// and the decrement. The conditional update then touches zero rows and the
// whole transaction must roll back.
func TestCheckoutConditionalDecrementLost(t *testing.T) {
	h, mock := newTestHandlers(t)
	router := newTestRouter(h)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT cp.product_variant_id, cp.quantity, pv.price, pv.stock, p.name")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"product_variant_id", "quantity", "price", "stock", "name"}).
			AddRow(3, 2, "100.00", 10, "Polo Clásico"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnResult(sqlmock.NewResult(44, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_products")).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_variants SET stock = stock - ?")).
		WithArgs(2, sqlmock.AnyArg(), int64(3), 2).
		WillReturnResult(sqlmock.NewResult(0, 0)) // nobody home: stock already taken
	mock.ExpectRollback()

	w := performRequest(router, http.MethodPost, "/v1/orders/checkout",
		`{"shipping_address": "Addr"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A storage fault mid-transaction surfaces as a generic 500 and rolls
// everything back.
func TestCheckoutStorageFaultRollsBack(t *testing.T) {
	h, mock := newTestHandlers(t)
	router := newTestRouter(h)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM carts WHERE user_id = ?")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT cp.product_variant_id, cp.quantity, pv.price, pv.stock, p.name")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"product_variant_id", "quantity", "price", "stock", "name"}).
			AddRow(3, 2, "100.00", 10, "Polo Clásico"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnError(errors.New("disk on fire"))
	mock.ExpectRollback()

	w := performRequest(router, http.MethodPost, "/v1/orders/checkout",
		`{"shipping_address": "Addr"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to create order")
	assert.NotContains(t, w.Body.String(), "disk on fire")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRequiresShippingAddress(t *testing.T) {
	h, _ := newTestHandlers(t)
	router := newTestRouter(h)

	w := performRequest(router, http.MethodPost, "/v1/orders/checkout", `{}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMyOrders(t *testing.T) {
	h, mock := newTestHandlers(t)
	router := newTestRouter(h)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, status, total_price, shipping_address, billing_address, tracking_number, created_at, updated_at")).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "status", "total_price", "shipping_address",
			"billing_address", "tracking_number", "created_at", "updated_at"}).
			AddRow(42, testUserID, "PENDING", "200.00", "Addr", "Addr", nil, now, now).
			AddRow(41, testUserID, "DELIVERED", "99.90", "Addr", "Addr", "TRK-001", now, now))

	w := performRequest(router, http.MethodGet, "/v1/orders", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Orders []struct {
			ID             int64   `json:"id"`
			Status         string  `json:"status"`
			TotalPrice     string  `json:"totalPrice"`
			TrackingNumber *string `json:"trackingNumber"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 2)
	assert.Equal(t, "200.00", resp.Orders[0].TotalPrice)
	assert.Nil(t, resp.Orders[0].TrackingNumber)
	require.NotNil(t, resp.Orders[1].TrackingNumber)
	assert.Equal(t, "TRK-001", *resp.Orders[1].TrackingNumber)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Scenario: the order was placed at 100.00 and the variant price has since
// moved to 150.00. The order detail must keep reading the snapshot.
func TestGetOrderDetailsKeepsPriceSnapshot(t *testing.T) {
	h, mock := newTestHandlers(t)
	router := newTestRouter(h)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs("42", testUserID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "status", "total_price", "shipping_address",
			"billing_address", "tracking_number", "created_at", "updated_at"}).
			AddRow(42, testUserID, "PENDING", "100.00", "Addr", "Addr", nil, now, now))
	// price_at_purchase comes from order_products; the variant's current
	// 150.00 price is not even part of this query.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT op.id, op.order_id, op.product_variant_id, op.quantity, op.price_at_purchase, op.created_at")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_variant_id", "quantity", "price_at_purchase",
			"created_at", "name", "sku"}).
			AddRow(9, 42, 3, 1, "100.00", now, "Polo Clásico", "POLO-M"))

	w := performRequest(router, http.MethodGet, "/v1/orders/42", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Order struct {
			TotalPrice string `json:"totalPrice"`
		} `json:"order"`
		Items []struct {
			PriceAtPurchase string `json:"priceAtPurchase"`
			ProductName     string `json:"productName"`
			VariantSKU      string `json:"variantSku"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "100.00", resp.Order.TotalPrice)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "100.00", resp.Items[0].PriceAtPurchase)
	assert.Equal(t, "POLO-M", resp.Items[0].VariantSKU)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderDetailsNotOwned(t *testing.T) {
	h, mock := newTestHandlers(t)
	router := newTestRouter(h)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs("42", testUserID).
		WillReturnError(sql.ErrNoRows)

	w := performRequest(router, http.MethodGet, "/v1/orders/42", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Order not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
