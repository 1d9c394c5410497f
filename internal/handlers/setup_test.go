package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

const testUserID int64 = 1

// newTestHandlers returns a Handlers wired to a sqlmock database.
func newTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &Handlers{DB: db}, mock
}

// newTestRouter registers the handler routes behind a stub auth middleware
// that injects testUserID, the same contract the real JWT middleware
// provides.
func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", testUserID)
		c.Next()
	})

	router.GET("/v1/cart", h.GetCart)
	router.POST("/v1/cart/add-item", h.AddCartItem)
	router.POST("/v1/cart/update-quantity", h.UpdateCartQuantity)
	router.POST("/v1/cart/remove-item", h.RemoveCartItem)
	router.POST("/v1/cart/clear", h.ClearCart)

	router.POST("/v1/orders/checkout", h.Checkout)
	router.GET("/v1/orders", h.GetMyOrders)
	router.GET("/v1/orders/:id", h.GetOrderDetails)

	router.POST("/v1/products", h.CreateProduct)
	router.POST("/v1/products/:id/variants", h.AddVariant)
	router.GET("/v1/products", h.GetAllProducts)
	router.GET("/v1/products/:id", h.GetProduct)

	router.POST("/v1/categories", h.CreateCategory)
	router.GET("/v1/categories", h.GetAllCategories)
	router.POST("/v1/tags", h.CreateTag)
	router.GET("/v1/tags", h.GetAllTags)
	router.POST("/v1/attributes", h.CreateAttribute)
	router.POST("/v1/attributes/:id/values", h.CreateAttributeValue)
	router.GET("/v1/attributes", h.GetAllAttributes)

	return router
}

// performRequest drives one request through the router and records the
// response.
func performRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
