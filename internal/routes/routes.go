package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/renzogv/tienda-golang/internal/handlers"
	"github.com/renzogv/tienda-golang/internal/middleware"
)

// CORSMiddleware allows the local storefront to talk to the API during
// development.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Preflight requests get an empty 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware())

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Catalog Routes ---
		v1.GET("/products", h.GetAllProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/categories", h.GetAllCategories)
		v1.GET("/tags", h.GetAllTags)
		v1.GET("/attributes", h.GetAllAttributes)

		// --- Catalog Management ---
		// Tokens come from the external identity service; any authenticated
		// caller may manage the catalog for now.
		catalog := v1.Group("/")
		catalog.Use(middleware.AuthMiddleware())
		{
			catalog.POST("/products", h.CreateProduct)
			catalog.POST("/products/:id/variants", h.AddVariant)
			catalog.POST("/categories", h.CreateCategory)
			catalog.POST("/tags", h.CreateTag)
			catalog.POST("/attributes", h.CreateAttribute)
			catalog.POST("/attributes/:id/values", h.CreateAttributeValue)
		}

		// --- Cart & Orders (Login Required) ---
		authed := v1.Group("/")
		authed.Use(middleware.AuthMiddleware())
		{
			authed.GET("/cart", h.GetCart)
			authed.POST("/cart/add-item", h.AddCartItem)
			authed.POST("/cart/update-quantity", h.UpdateCartQuantity)
			authed.POST("/cart/remove-item", h.RemoveCartItem)
			authed.POST("/cart/clear", h.ClearCart)

			authed.POST("/orders/checkout", h.Checkout)
			authed.GET("/orders", h.GetMyOrders)
			authed.GET("/orders/:id", h.GetOrderDetails)
		}
	}

	return router
}
